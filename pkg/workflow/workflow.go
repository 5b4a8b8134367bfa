// Package workflow is the orchestration facade consumed by the MCP tool
// layer. Each method resolves provider and model, delegates to the
// refinement engine, and reports progress to the caller's observability
// sink. A Workflow holds only immutable configuration and is safe to share
// across concurrent requests.
package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/refinery-ai/refinery/pkg/ideas"
	"github.com/refinery-ai/refinery/pkg/llmapi"
	"github.com/refinery-ai/refinery/pkg/progress"
	"github.com/refinery-ai/refinery/pkg/prompts"
	"github.com/refinery-ai/refinery/pkg/refine"
	"github.com/refinery-ai/refinery/pkg/registry"
	"github.com/refinery-ai/refinery/pkg/review"
	"github.com/rs/zerolog"
)

const completionMessage = "Workflow completed."

// Workflow wires the registry, template loader, and LLM clients together
// per call. NewClient may be overridden (tests swap in a fake); nil falls
// back to the OpenAI-compatible client. The zero Log discards everything.
type Workflow struct {
	Registry  *registry.Registry
	Loader    prompts.Loader
	NewClient func(registry.Provider) llmapi.Client
	Log       zerolog.Logger
}

func (w *Workflow) client(p registry.Provider) llmapi.Client {
	if w.NewClient != nil {
		return w.NewClient(p)
	}

	return llmapi.NewOpenAIClient(p)
}

func (w *Workflow) engine(p registry.Provider) refine.Engine {
	return refine.Engine{Client: w.client(p), Loader: w.Loader}
}

// opLogger returns a logger tagged with the operation name and a fresh
// request id so concurrent calls stay distinguishable in the log file.
func (w *Workflow) opLogger(op string) zerolog.Logger {
	return w.Log.With().Str("op", op).Str("request_id", uuid.NewString()).Logger()
}

// resolve looks up the provider and picks the concrete model for a request.
// It fails before any LLM work happens.
func (w *Workflow) resolve(providerName, model string) (registry.Provider, string, error) {
	p, err := w.Registry.Resolve(providerName)
	if err != nil {
		return registry.Provider{}, "", err
	}

	return p, registry.ResolveModel(p, model), nil
}

// RefinePrompt enriches a prompt using the instruction template for
// refinementType and returns the refined prompt text.
func (w *Workflow) RefinePrompt(ctx context.Context, rep progress.Reporter, prompt, refinementType, providerName, model string) (string, error) {
	log := w.opLogger("refine_prompt")

	p, m, err := w.resolve(providerName, model)
	if err != nil {
		log.Error().Err(err).Msg("provider resolution failed")
		return "", err
	}

	rep.Info(ctx, fmt.Sprintf("Prompt refinement started with provider %s and model %s. Waiting for the response from the LLM...", p.Name, m))
	log.Info().Str("provider", p.Name).Str("model", m).Str("refinement_type", refinementType).Msg("refining prompt")

	refined, err := w.engine(p).Refine(ctx, prompt, refinementType, m)
	if err != nil {
		log.Error().Err(err).Msg("refinement failed")
		return "", err
	}

	rep.Info(ctx, completionMessage)

	return refined, nil
}

// RefineAndExecute refines a prompt and then executes the refined prompt,
// with independently resolved refinement and execution models.
func (w *Workflow) RefineAndExecute(ctx context.Context, rep progress.Reporter, prompt, refinementType, providerName, refinementModel, executionModel string) (string, error) {
	log := w.opLogger("refine_and_execute")

	p, err := w.Registry.Resolve(providerName)
	if err != nil {
		log.Error().Err(err).Msg("provider resolution failed")
		return "", err
	}

	rm := registry.ResolveModel(p, refinementModel)
	em := registry.ResolveModel(p, executionModel)

	rep.Info(ctx, fmt.Sprintf("Prompt refinement and execution started with refinement model %s and execution model %s. Waiting for the responses from the LLMs...", rm, em))
	log.Info().Str("provider", p.Name).Str("refinement_model", rm).Str("execution_model", em).Msg("refining and executing prompt")

	result, err := w.engine(p).RefineAndExecute(ctx, prompt, refinementType, rm, em)
	if err != nil {
		log.Error().Err(err).Msg("refine and execute failed")
		return "", err
	}

	rep.Info(ctx, completionMessage)

	return result, nil
}

// HandoverPrompt passes the prompt through to the backend unmodified and
// returns the cleaned result.
func (w *Workflow) HandoverPrompt(ctx context.Context, rep progress.Reporter, prompt, providerName, model string, temperature float64) (string, error) {
	log := w.opLogger("handover_prompt")

	p, m, err := w.resolve(providerName, model)
	if err != nil {
		log.Error().Err(err).Msg("provider resolution failed")
		return "", err
	}

	rep.Info(ctx, fmt.Sprintf("External prompt execution started with model %s. Waiting for the response from the LLM...", m))
	log.Info().Str("provider", p.Name).Str("model", m).Msg("handing over prompt")

	result, err := w.engine(p).Handover(ctx, prompt, m, temperature)
	if err != nil {
		log.Error().Err(err).Msg("handover failed")
		return "", err
	}

	rep.Info(ctx, completionMessage)

	return result, nil
}

// BreakdownTask decomposes a task into sub-tasks with complexity ratings.
// The result is JSON-shaped text, passed through unvalidated.
func (w *Workflow) BreakdownTask(ctx context.Context, rep progress.Reporter, task, providerName, model string) (string, error) {
	log := w.opLogger("breakdown_task")

	p, m, err := w.resolve(providerName, model)
	if err != nil {
		log.Error().Err(err).Msg("provider resolution failed")
		return "", err
	}

	rep.Info(ctx, fmt.Sprintf("Task break-down started with model %s. Waiting for the response from the LLM...", m))
	log.Info().Str("provider", p.Name).Str("model", m).Msg("breaking down task")

	result, err := w.engine(p).BreakdownTask(ctx, task, m)
	if err != nil {
		log.Error().Err(err).Msg("breakdown failed")
		return "", err
	}

	rep.Info(ctx, completionMessage)

	return result, nil
}

// GenerateRandomIdeas invents a topic and generates count worked-out ideas.
func (w *Workflow) GenerateRandomIdeas(ctx context.Context, rep progress.Reporter, providerName, model string, count int, temperature float64) (string, error) {
	return w.generateIdeas(ctx, rep, "generate_random_ideas", "", providerName, model, count, temperature)
}

// GenerateIdeasOnTopic generates count worked-out ideas on the given topic.
func (w *Workflow) GenerateIdeasOnTopic(ctx context.Context, rep progress.Reporter, topic, providerName, model string, count int, temperature float64) (string, error) {
	return w.generateIdeas(ctx, rep, "generate_ideas_on_topic", topic, providerName, model, count, temperature)
}

func (w *Workflow) generateIdeas(ctx context.Context, rep progress.Reporter, op, topic, providerName, model string, count int, temperature float64) (string, error) {
	log := w.opLogger(op)

	p, m, err := w.resolve(providerName, model)
	if err != nil {
		log.Error().Err(err).Msg("provider resolution failed")
		return "", err
	}

	rep.Info(ctx, fmt.Sprintf("Idea generation started at provider %s with model %s, idea_count %d and temperature %.2f. Waiting for the responses from the LLM...", p.Name, m, count, temperature))
	log.Info().Str("provider", p.Name).Str("model", m).Int("idea_count", count).Float64("temperature", temperature).Str("topic", topic).Msg("generating ideas")

	result, err := w.engine(p).GenerateIdeas(ctx, ideas.Spec{
		Topic:           topic,
		Count:           count,
		Temperature:     temperature,
		GeneratorModel:  m,
		RefinementModel: m,
		ExecutionModel:  m,
		TopicModel:      m,
	})
	if err != nil {
		log.Error().Err(err).Msg("idea generation failed")
		return "", err
	}

	rep.Info(ctx, completionMessage)

	return result, nil
}

// GenerateCodeReview reviews the given source files and writes one markdown
// review per file into targetDir. The returned text lists the written files.
func (w *Workflow) GenerateCodeReview(ctx context.Context, rep progress.Reporter, sourcePaths []string, targetDir, providerName, model, reviewType string) (string, error) {
	log := w.opLogger("generate_code_review")

	p, m, err := w.resolve(providerName, model)
	if err != nil {
		log.Error().Err(err).Msg("provider resolution failed")
		return "", err
	}

	rep.Info(ctx, fmt.Sprintf("Generating code review of type %s using model %s for %d source files...", reviewType, m, len(sourcePaths)))
	log.Info().Str("provider", p.Name).Str("model", m).Str("review_type", reviewType).Int("files", len(sourcePaths)).Msg("generating code review")

	written, err := review.Reviewer{Client: w.client(p)}.Run(ctx, sourcePaths, targetDir, m, reviewType)
	if err != nil {
		log.Error().Err(err).Msg("code review failed")
		return "", err
	}

	rep.Info(ctx, completionMessage)

	var b strings.Builder
	fmt.Fprintf(&b, "Generated %d review files in %s:\n", len(written), targetDir)
	for _, path := range written {
		fmt.Fprintf(&b, "- %s\n", path)
	}

	return b.String(), nil
}

// ListProviders returns a markdown listing of the configured providers.
// API keys are never included.
func (w *Workflow) ListProviders(ctx context.Context, rep progress.Reporter) (string, error) {
	var b strings.Builder
	b.WriteString("# Configured providers")
	for _, p := range w.Registry.List() {
		fmt.Fprintf(&b, "\n- %s : kind: %s - api_endpoint: %s", p.Name, p.Kind, p.APIEndpoint)
	}

	rep.Info(ctx, completionMessage)

	return b.String(), nil
}

// ListModels returns a markdown listing of the models the given provider's
// backend offers.
func (w *Workflow) ListModels(ctx context.Context, rep progress.Reporter, providerName string) (string, error) {
	log := w.opLogger("list_models")

	p, err := w.Registry.Resolve(providerName)
	if err != nil {
		log.Error().Err(err).Msg("provider resolution failed")
		return "", err
	}

	rep.Info(ctx, fmt.Sprintf("Retrieving endpoint information and list of available models for provider %s...", p.Name))

	models, err := w.client(p).ListModels(ctx)
	if err != nil {
		log.Error().Err(err).Msg("model listing failed")
		return "", err
	}

	if len(models) == 0 {
		rep.Info(ctx, completionMessage)
		return "# No models available", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Target API Endpoint\n%s\n\n# List of available models\n", p.APIEndpoint)
	for _, m := range models {
		fmt.Fprintf(&b, "- %s\n", m)
	}

	rep.Info(ctx, completionMessage)

	return strings.TrimRight(b.String(), "\n"), nil
}
