// Package tools provides MCP (Model Context Protocol) integration.
//
// It is organized into sub-packages:
//   - [github.com/refinery-ai/refinery/pkg/tools/toolbox] — Tool type and ToolBox for registering, listing, and calling tools
//   - [github.com/refinery-ai/refinery/pkg/tools/mcpserver] — MCP server using the official MCP Go SDK for exposing tools over stdio
//
// The toolbox sub-package is the foundation layer; mcpserver is a thin wrapper
// around the official MCP Go SDK (github.com/modelcontextprotocol/go-sdk) that
// serves a ToolBox over an MCP transport and forwards progress messages to the
// client session as MCP log notifications.
package tools
