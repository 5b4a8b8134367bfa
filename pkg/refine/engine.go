// Package refine orchestrates the prompt refinement pipelines: templated
// refinement, optional external execution of the refined prompt, direct
// handover, task breakdown, and idea generation.
package refine

import (
	"context"
	"strings"

	"github.com/refinery-ai/refinery/pkg/cleaner"
	"github.com/refinery-ai/refinery/pkg/ideas"
	"github.com/refinery-ai/refinery/pkg/llmapi"
	"github.com/refinery-ai/refinery/pkg/prompts"
)

// IdeaSeparator joins the ideas of one generation run into a single string.
const IdeaSeparator = "\n---\n"

// Engine runs the refinement pipelines against a single backend. It is
// stateless between calls; all model names must already be concrete.
type Engine struct {
	Client llmapi.Client
	Loader prompts.Loader
}

// Refine loads the instruction template for refinementType, sends it with
// the original prompt in a single LLM call, and returns the raw output. No
// cleaning is applied: the template's output is itself a prompt, directly
// reusable for resubmission.
func (e Engine) Refine(ctx context.Context, prompt, refinementType, model string) (string, error) {
	template, err := e.Loader.LoadRefinement(refinementType)
	if err != nil {
		return "", err
	}

	return e.Client.Send(ctx, compose(template, prompt), model, 0)
}

// RefineAndExecute refines the prompt with refinementModel, then executes
// the refined prompt with executionModel and cleans the result. The two
// calls happen in order; if refinement fails the execution call is never
// issued and no partial result is returned.
func (e Engine) RefineAndExecute(ctx context.Context, prompt, refinementType, refinementModel, executionModel string) (string, error) {
	refined, err := e.Refine(ctx, prompt, refinementType, refinementModel)
	if err != nil {
		return "", err
	}

	result, err := e.Client.Send(ctx, refined, executionModel, 0)
	if err != nil {
		return "", err
	}

	return cleaner.Clean(result), nil
}

// Handover sends the prompt unmodified, with no template applied, and
// returns the cleaned result.
func (e Engine) Handover(ctx context.Context, prompt, model string, temperature float64) (string, error) {
	result, err := e.Client.Send(ctx, prompt, model, temperature)
	if err != nil {
		return "", err
	}

	return cleaner.Clean(result), nil
}

// BreakdownTask decomposes a task into sub-tasks with complexity ratings
// using the breakdown template. The output is expected to be JSON-shaped
// but is returned as-is; parsing and validation are the caller's concern.
func (e Engine) BreakdownTask(ctx context.Context, task, model string) (string, error) {
	template, err := e.Loader.LoadBreakdown()
	if err != nil {
		return "", err
	}

	return e.Client.Send(ctx, compose(template, task), model, 0)
}

// GenerateIdeas runs the idea generation workflow and joins the resulting
// ideas with IdeaSeparator. spec.Count ideas produce spec.Count segments.
func (e Engine) GenerateIdeas(ctx context.Context, spec ideas.Spec) (string, error) {
	w := ideas.Workflow{Client: e.Client, Loader: e.Loader}

	results, err := w.Run(ctx, spec)
	if err != nil {
		return "", err
	}

	return strings.Join(results, IdeaSeparator), nil
}

// compose attaches the instruction template to the caller's text. The
// template comes first so instructions frame the task.
func compose(template, text string) string {
	return template + "\n\n" + text
}
