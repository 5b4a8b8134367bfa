// Package mcptools defines the MCP tool surface of the server: one tool per
// workflow operation, each with a JSON schema and a handler that decodes the
// arguments and delegates to the workflow facade.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/refinery-ai/refinery/pkg/progress"
	"github.com/refinery-ai/refinery/pkg/tools/toolbox"
	"github.com/refinery-ai/refinery/pkg/workflow"
)

// Handler call defaults, matching the tool schema documentation.
const (
	defaultTemperature = 0.7
	defaultIdeaCount   = 1
)

// New returns a ToolBox with all workflow tools registered.
func New(w *workflow.Workflow) *toolbox.ToolBox {
	tb := toolbox.New()
	tb.Register(
		refinePromptTool(w),
		refineAndExecuteTool(w),
		handoverPromptTool(w),
		breakdownTaskTool(w),
		generateRandomIdeasTool(w),
		generateIdeasOnTopicTool(w),
		generateCodeReviewTool(w),
		listProvidersTool(w),
		listModelsTool(w),
	)
	return tb
}

type refinePromptInput struct {
	Prompt         string `json:"prompt"`
	RefinementType string `json:"refinement_type"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
}

func refinePromptTool(w *workflow.Workflow) toolbox.Tool {
	return toolbox.Tool{
		Name: "refine_prompt",
		Description: "Refines a given prompt by enriching it with additional context and improving " +
			"clarity for further processing by large language models. The returned prompt can be sent " +
			"onwards directly. Set refinement_type to 'code' for coding tasks.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"prompt": {"type": "string", "description": "Input prompt that should be refined"},
				"refinement_type": {"type": "string", "description": "Type of refinement: 'code' for coding tasks or 'default'. Defaults to 'default'."},
				"provider": {"type": "string", "description": "Name of the configured provider to use. Defaults to the server's default provider."},
				"model": {"type": "string", "description": "Model name for the refinement. 'default' picks the provider's default model."}
			},
			"required": ["prompt"]
		}`),
		Handler: func(ctx context.Context, rep progress.Reporter, input json.RawMessage) (string, error) {
			var in refinePromptInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", fmt.Errorf("invalid input: %w", err)
			}

			return w.RefinePrompt(ctx, rep, in.Prompt, in.RefinementType, in.Provider, in.Model)
		},
	}
}

type refineAndExecuteInput struct {
	Prompt          string `json:"prompt"`
	RefinementType  string `json:"refinement_type"`
	Provider        string `json:"provider"`
	RefinementModel string `json:"refinement_model"`
	ExecutionModel  string `json:"execution_model"`
}

func refineAndExecuteTool(w *workflow.Workflow) toolbox.Tool {
	return toolbox.Tool{
		Name: "refine_and_execute_external_prompt",
		Description: "Refines a given prompt and then executes the refined prompt with an external " +
			"LLM, returning the execution result. Set refinement_type to 'code' for coding tasks.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"prompt": {"type": "string", "description": "Input prompt that should be refined and then processed"},
				"refinement_type": {"type": "string", "description": "Type of refinement: 'code' for coding tasks or 'default'. Defaults to 'default'."},
				"provider": {"type": "string", "description": "Name of the configured provider to use. Defaults to the server's default provider."},
				"refinement_model": {"type": "string", "description": "Model for the refinement stage. 'default' picks the provider's default model."},
				"execution_model": {"type": "string", "description": "Model for the execution stage. 'default' picks the provider's default model."}
			},
			"required": ["prompt"]
		}`),
		Handler: func(ctx context.Context, rep progress.Reporter, input json.RawMessage) (string, error) {
			var in refineAndExecuteInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", fmt.Errorf("invalid input: %w", err)
			}

			return w.RefineAndExecute(ctx, rep, in.Prompt, in.RefinementType, in.Provider, in.RefinementModel, in.ExecutionModel)
		},
	}
}

type handoverPromptInput struct {
	Prompt      string   `json:"prompt"`
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
}

func handoverPromptTool(w *workflow.Workflow) toolbox.Tool {
	return toolbox.Tool{
		Name: "handover_prompt",
		Description: "Hands over a prompt unchanged to an external LLM for processing and returns " +
			"the processed result.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"prompt": {"type": "string", "description": "Prompt that should be executed externally"},
				"provider": {"type": "string", "description": "Name of the configured provider to use. Defaults to the server's default provider."},
				"model": {"type": "string", "description": "Model name for the execution. 'default' picks the provider's default model."},
				"temperature": {"type": "number", "description": "Sampling temperature. Defaults to 0.7."}
			},
			"required": ["prompt"]
		}`),
		Handler: func(ctx context.Context, rep progress.Reporter, input json.RawMessage) (string, error) {
			var in handoverPromptInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", fmt.Errorf("invalid input: %w", err)
			}

			temperature := defaultTemperature
			if in.Temperature != nil {
				temperature = *in.Temperature
			}

			return w.HandoverPrompt(ctx, rep, in.Prompt, in.Provider, in.Model, temperature)
		},
	}
}

type breakdownTaskInput struct {
	Task     string `json:"task"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func breakdownTaskTool(w *workflow.Workflow) toolbox.Tool {
	return toolbox.Tool{
		Name: "breakdown_task",
		Description: "Breaks down a task into sub-tasks and returns a JSON list of sub-tasks with " +
			"complexity ratings.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"task": {"type": "string", "description": "The full task description to break down further"},
				"provider": {"type": "string", "description": "Name of the configured provider to use. Defaults to the server's default provider."},
				"model": {"type": "string", "description": "Model name for the break-down. 'default' picks the provider's default model."}
			},
			"required": ["task"]
		}`),
		Handler: func(ctx context.Context, rep progress.Reporter, input json.RawMessage) (string, error) {
			var in breakdownTaskInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", fmt.Errorf("invalid input: %w", err)
			}

			return w.BreakdownTask(ctx, rep, in.Task, in.Provider, in.Model)
		},
	}
}

type ideasInput struct {
	Topic       string   `json:"topic"`
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	IdeaCount   int      `json:"idea_count"`
	Temperature *float64 `json:"temperature"`
}

func (in ideasInput) defaults() (int, float64) {
	count := in.IdeaCount
	if count == 0 {
		count = defaultIdeaCount
	}

	temperature := defaultTemperature
	if in.Temperature != nil {
		temperature = *in.Temperature
	}

	return count, temperature
}

func generateRandomIdeasTool(w *workflow.Workflow) toolbox.Tool {
	return toolbox.Tool{
		Name: "generate_random_ideas",
		Description: "Invents a random topic and generates the requested number of fully worked-out " +
			"ideas on it, separated by '---'.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"provider": {"type": "string", "description": "Name of the configured provider to use. Defaults to the server's default provider."},
				"model": {"type": "string", "description": "Model name used for all generation stages. 'default' picks the provider's default model."},
				"idea_count": {"type": "integer", "description": "Number of ideas to generate. Defaults to 1."},
				"temperature": {"type": "number", "description": "Sampling temperature for generation. Defaults to 0.7."}
			}
		}`),
		Handler: func(ctx context.Context, rep progress.Reporter, input json.RawMessage) (string, error) {
			var in ideasInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", fmt.Errorf("invalid input: %w", err)
			}

			count, temperature := in.defaults()

			return w.GenerateRandomIdeas(ctx, rep, in.Provider, in.Model, count, temperature)
		},
	}
}

func generateIdeasOnTopicTool(w *workflow.Workflow) toolbox.Tool {
	return toolbox.Tool{
		Name: "generate_ideas_on_topic",
		Description: "Generates the requested number of fully worked-out ideas on the given topic, " +
			"separated by '---'.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"topic": {"type": "string", "description": "Topic to generate ideas on"},
				"provider": {"type": "string", "description": "Name of the configured provider to use. Defaults to the server's default provider."},
				"model": {"type": "string", "description": "Model name used for all generation stages. 'default' picks the provider's default model."},
				"idea_count": {"type": "integer", "description": "Number of ideas to generate. Defaults to 1."},
				"temperature": {"type": "number", "description": "Sampling temperature for generation. Defaults to 0.7."}
			},
			"required": ["topic"]
		}`),
		Handler: func(ctx context.Context, rep progress.Reporter, input json.RawMessage) (string, error) {
			var in ideasInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", fmt.Errorf("invalid input: %w", err)
			}

			count, temperature := in.defaults()

			return w.GenerateIdeasOnTopic(ctx, rep, in.Topic, in.Provider, in.Model, count, temperature)
		},
	}
}

type codeReviewInput struct {
	SourceFilePaths []string `json:"source_file_paths"`
	TargetDirectory string   `json:"target_directory"`
	Provider        string   `json:"provider"`
	Model           string   `json:"model"`
	ReviewType      string   `json:"review_type"`
}

func generateCodeReviewTool(w *workflow.Workflow) toolbox.Tool {
	return toolbox.Tool{
		Name: "generate_code_review",
		Description: "Generates markdown code reviews for the given source files and writes them " +
			"into the target directory. review_type can be 'general', 'security' or 'performance'.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"source_file_paths": {"type": "array", "items": {"type": "string"}, "description": "Paths of the source files to review"},
				"target_directory": {"type": "string", "description": "Directory the review files are written to"},
				"provider": {"type": "string", "description": "Name of the configured provider to use. Defaults to the server's default provider."},
				"model": {"type": "string", "description": "Model name for the review. 'default' picks the provider's default model."},
				"review_type": {"type": "string", "description": "Type of review: 'general', 'security' or 'performance'. Defaults to 'general'."}
			},
			"required": ["source_file_paths", "target_directory"]
		}`),
		Handler: func(ctx context.Context, rep progress.Reporter, input json.RawMessage) (string, error) {
			var in codeReviewInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", fmt.Errorf("invalid input: %w", err)
			}

			return w.GenerateCodeReview(ctx, rep, in.SourceFilePaths, in.TargetDirectory, in.Provider, in.Model, in.ReviewType)
		},
	}
}

func listProvidersTool(w *workflow.Workflow) toolbox.Tool {
	return toolbox.Tool{
		Name:        "list_available_providers",
		Description: "Lists all providers configured on the server with their endpoints.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
		Handler: func(ctx context.Context, rep progress.Reporter, _ json.RawMessage) (string, error) {
			return w.ListProviders(ctx, rep)
		},
	}
}

type listModelsInput struct {
	Provider string `json:"provider"`
}

func listModelsTool(w *workflow.Workflow) toolbox.Tool {
	return toolbox.Tool{
		Name:        "list_available_models",
		Description: "Lists all large language models available at a configured provider.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"provider": {"type": "string", "description": "Name of the configured provider to query. Defaults to the server's default provider."}
			}
		}`),
		Handler: func(ctx context.Context, rep progress.Reporter, input json.RawMessage) (string, error) {
			var in listModelsInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", fmt.Errorf("invalid input: %w", err)
			}

			return w.ListModels(ctx, rep, in.Provider)
		},
	}
}
