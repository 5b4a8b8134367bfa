// Package toolbox holds the executable tool definitions served over MCP.
package toolbox

import (
	"context"
	"encoding/json"

	"github.com/refinery-ai/refinery/pkg/progress"
)

// Handler executes a tool with the given JSON input and returns a text
// result. The reporter forwards progress messages to the calling client for
// the duration of the tool call.
type Handler func(ctx context.Context, rep progress.Reporter, input json.RawMessage) (string, error)

// Tool represents an executable tool with a name, description, JSON Schema,
// and handler.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}

// ToolBox is an ordered collection of tools.
type ToolBox struct {
	tools map[string]Tool
	order []string
}

// New creates an empty ToolBox.
func New() *ToolBox {
	return &ToolBox{
		tools: make(map[string]Tool),
	}
}

// Register adds one or more tools. A tool with an already registered name
// replaces the previous definition but keeps its original position.
func (tb *ToolBox) Register(tools ...Tool) {
	for _, t := range tools {
		if _, exists := tb.tools[t.Name]; !exists {
			tb.order = append(tb.order, t.Name)
		}
		tb.tools[t.Name] = t
	}
}

// Get returns a tool by name and whether it was found.
func (tb *ToolBox) Get(name string) (Tool, bool) {
	t, ok := tb.tools[name]
	return t, ok
}

// Tools returns all registered tools in registration order.
func (tb *ToolBox) Tools() []Tool {
	result := make([]Tool, 0, len(tb.order))
	for _, name := range tb.order {
		result = append(result, tb.tools[name])
	}
	return result
}
