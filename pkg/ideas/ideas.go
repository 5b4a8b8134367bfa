// Package ideas implements the multi-stage idea generation workflow: pick a
// topic when none is given, generate idea prompts, then refine and execute
// each one.
package ideas

import (
	"context"
	"fmt"

	"github.com/refinery-ai/refinery/pkg/cleaner"
	"github.com/refinery-ai/refinery/pkg/llmapi"
	"github.com/refinery-ai/refinery/pkg/prompts"
)

// Spec describes one idea generation run. Model names must already be
// concrete. A zero Temperature leaves the backend default in effect.
type Spec struct {
	Topic           string // Empty means the workflow invents a topic first.
	Count           int
	Temperature     float64
	GeneratorModel  string
	RefinementModel string
	ExecutionModel  string
	TopicModel      string
}

// Workflow generates fully worked-out ideas. Each run is independent;
// calling Run again restarts the whole sequence.
type Workflow struct {
	Client llmapi.Client
	Loader prompts.Loader
}

// Run executes the workflow and returns exactly spec.Count idea texts, one
// per generation round. Any failed LLM call aborts the run with no partial
// result.
func (w Workflow) Run(ctx context.Context, spec Spec) ([]string, error) {
	if spec.Count < 1 {
		return nil, fmt.Errorf("ideas: count must be at least 1, got %d", spec.Count)
	}

	topic := spec.Topic
	if topic == "" {
		var err error
		topic, err = w.generateTopic(ctx, spec)
		if err != nil {
			return nil, err
		}
	}

	ideaTemplate, err := w.Loader.LoadIdea()
	if err != nil {
		return nil, err
	}

	refinementTemplate, err := w.Loader.LoadRefinement(prompts.TypeDefault)
	if err != nil {
		return nil, err
	}

	results := make([]string, 0, spec.Count)
	for i := 1; i <= spec.Count; i++ {
		idea, err := w.runOne(ctx, spec, topic, ideaTemplate, refinementTemplate, i)
		if err != nil {
			return nil, fmt.Errorf("ideas: idea %d of %d: %w", i, spec.Count, err)
		}

		results = append(results, idea)
	}

	return results, nil
}

// runOne produces a single finished idea: generate a raw idea prompt for the
// topic, refine it, execute the refined prompt, and clean the output.
func (w Workflow) runOne(ctx context.Context, spec Spec, topic, ideaTemplate, refinementTemplate string, n int) (string, error) {
	generation := fmt.Sprintf("%s\n\nTopic: %s\nThis is idea number %d of %d; make it distinct from the others.", ideaTemplate, topic, n, spec.Count)

	raw, err := w.Client.Send(ctx, generation, spec.GeneratorModel, spec.Temperature)
	if err != nil {
		return "", err
	}
	idea := cleaner.Clean(raw)

	refined, err := w.Client.Send(ctx, refinementTemplate+"\n\n"+idea, spec.RefinementModel, spec.Temperature)
	if err != nil {
		return "", err
	}

	executed, err := w.Client.Send(ctx, refined, spec.ExecutionModel, spec.Temperature)
	if err != nil {
		return "", err
	}

	return cleaner.Clean(executed), nil
}

func (w Workflow) generateTopic(ctx context.Context, spec Spec) (string, error) {
	template, err := w.Loader.LoadTopic()
	if err != nil {
		return "", err
	}

	raw, err := w.Client.Send(ctx, template, spec.TopicModel, spec.Temperature)
	if err != nil {
		return "", err
	}

	return cleaner.Clean(raw), nil
}
