package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/refinery-ai/refinery/pkg/llmapi"
	"github.com/refinery-ai/refinery/pkg/progress"
	"github.com/refinery-ai/refinery/pkg/prompts"
	"github.com/refinery-ai/refinery/pkg/refine"
	"github.com/refinery-ai/refinery/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	prompt      string
	model       string
	temperature float64
}

type fakeClient struct {
	provider  registry.Provider
	calls     []call
	responses []string
	err       error
	models    []string
	modelsErr error
}

func (f *fakeClient) Send(_ context.Context, prompt, model string, temperature float64) (string, error) {
	i := len(f.calls)
	f.calls = append(f.calls, call{prompt: prompt, model: model, temperature: temperature})

	if f.err != nil {
		return "", f.err
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}

	return "output", nil
}

func (f *fakeClient) ListModels(context.Context) ([]string, error) {
	return f.models, f.modelsErr
}

// recorder captures progress messages in order.
type recorder struct {
	messages []string
}

func (r *recorder) Info(_ context.Context, msg string) {
	r.messages = append(r.messages, msg)
}

func testWorkflow(t *testing.T) (*Workflow, *fakeClient) {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"refine-prompt.md":  "REFINE-DEFAULT",
		"refine-coding.md":  "REFINE-CODING",
		"breakdown-task.md": "BREAKDOWN",
		"generate-ideas.md": "IDEA",
		"generate-topic.md": "TOPIC",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	reg, err := registry.New([]registry.Provider{
		{Name: "local", Kind: "openai", APIEndpoint: "http://localhost:1234/v1", DefaultModel: "default-model", Default: true},
		{Name: "remote", Kind: "openai", APIEndpoint: "https://api.example.com/v1", DefaultModel: "remote-model"},
	})
	require.NoError(t, err)

	client := &fakeClient{}
	w := &Workflow{
		Registry: reg,
		Loader: prompts.Loader{
			Dir:            dir,
			RefinementFile: "refine-prompt.md",
			CodingFile:     "refine-coding.md",
			BreakdownFile:  "breakdown-task.md",
			IdeaFile:       "generate-ideas.md",
			TopicFile:      "generate-topic.md",
		},
		NewClient: func(p registry.Provider) llmapi.Client {
			client.provider = p
			return client
		},
	}

	return w, client
}

func TestRefinePromptCodingScenario(t *testing.T) {
	w, client := testWorkflow(t)
	client.responses = []string{"refined output"}
	rep := &recorder{}

	out, err := w.RefinePrompt(context.Background(), rep, "Write a function to sort a list", "code", "", "")

	require.NoError(t, err)
	assert.Equal(t, "refined output", out)
	require.Len(t, client.calls, 1)
	assert.True(t, strings.HasPrefix(client.calls[0].prompt, "REFINE-CODING"))
	assert.Equal(t, "default-model", client.calls[0].model)
	require.Len(t, rep.messages, 2)
	assert.Contains(t, rep.messages[0], "default-model")
	assert.Equal(t, "Workflow completed.", rep.messages[1])
}

func TestRefinePromptNamedProviderAndModel(t *testing.T) {
	w, client := testWorkflow(t)

	_, err := w.RefinePrompt(context.Background(), rep(), "p", "default", "remote", "custom-model")

	require.NoError(t, err)
	assert.Equal(t, "remote", client.provider.Name)
	assert.Equal(t, "custom-model", client.calls[0].model)
}

func TestUnknownProviderFailsBeforeAnyLLMCall(t *testing.T) {
	w, client := testWorkflow(t)
	rec := &recorder{}

	ops := map[string]func() error{
		"refine": func() error {
			_, err := w.RefinePrompt(context.Background(), rec, "p", "default", "foo", "")
			return err
		},
		"refine_and_execute": func() error {
			_, err := w.RefineAndExecute(context.Background(), rec, "p", "default", "foo", "", "")
			return err
		},
		"handover": func() error {
			_, err := w.HandoverPrompt(context.Background(), rec, "p", "foo", "", 0.7)
			return err
		},
		"breakdown": func() error {
			_, err := w.BreakdownTask(context.Background(), rec, "t", "foo", "")
			return err
		},
		"ideas": func() error {
			_, err := w.GenerateRandomIdeas(context.Background(), rec, "foo", "", 1, 0.7)
			return err
		},
		"review": func() error {
			_, err := w.GenerateCodeReview(context.Background(), rec, []string{"x.go"}, t.TempDir(), "foo", "", "general")
			return err
		},
		"list_models": func() error {
			_, err := w.ListModels(context.Background(), rec, "foo")
			return err
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()

			require.ErrorIs(t, err, registry.ErrNotFound)
			assert.Empty(t, client.calls)
		})
	}
}

func TestRefineAndExecuteResolvesModelsIndependently(t *testing.T) {
	w, client := testWorkflow(t)
	client.responses = []string{"refined", "executed"}

	out, err := w.RefineAndExecute(context.Background(), rep(), "p", "default", "local", "refine-model", "default")

	require.NoError(t, err)
	assert.Equal(t, "executed", out)
	require.Len(t, client.calls, 2)
	assert.Equal(t, "refine-model", client.calls[0].model)
	assert.Equal(t, "default-model", client.calls[1].model)
}

func TestHandoverScenario(t *testing.T) {
	w, client := testWorkflow(t)
	client.responses = []string{"<think>hm</think>Bonjour"}

	out, err := w.HandoverPrompt(context.Background(), rep(), "Translate to French: Hello", "", "default", 0.7)

	require.NoError(t, err)
	assert.Equal(t, "Bonjour", out)
	require.Len(t, client.calls, 1)
	assert.Equal(t, "Translate to French: Hello", client.calls[0].prompt)
	assert.Equal(t, "default-model", client.calls[0].model)
}

func TestBreakdownTask(t *testing.T) {
	w, client := testWorkflow(t)
	client.responses = []string{`[{"task":"a"}]`}

	out, err := w.BreakdownTask(context.Background(), rep(), "Implement auth", "", "")

	require.NoError(t, err)
	assert.Equal(t, `[{"task":"a"}]`, out)
	assert.True(t, strings.HasPrefix(client.calls[0].prompt, "BREAKDOWN"))
}

func TestGenerateRandomIdeasSegments(t *testing.T) {
	w, _ := testWorkflow(t)

	out, err := w.GenerateRandomIdeas(context.Background(), rep(), "", "", 2, 0.9)

	require.NoError(t, err)
	assert.Len(t, strings.Split(out, refine.IdeaSeparator), 2)
}

func TestGenerateIdeasOnTopicSkipsTopicStage(t *testing.T) {
	w, client := testWorkflow(t)

	_, err := w.GenerateIdeasOnTopic(context.Background(), rep(), "gardening", "", "", 1, 0.9)

	require.NoError(t, err)
	// Generate, refine, execute; no topic call.
	require.Len(t, client.calls, 3)
	assert.Contains(t, client.calls[0].prompt, "Topic: gardening")
}

func TestGenerateCodeReviewListsWrittenFiles(t *testing.T) {
	w, _ := testWorkflow(t)
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "a.go")
	require.NoError(t, os.WriteFile(src, []byte("package a\n"), 0o600))
	targetDir := filepath.Join(t.TempDir(), "reviews")

	out, err := w.GenerateCodeReview(context.Background(), rep(), []string{src}, targetDir, "", "", "general")

	require.NoError(t, err)
	assert.Contains(t, out, "Generated 1 review files in "+targetDir)
	assert.Contains(t, out, "a-review-")
}

func TestListProviders(t *testing.T) {
	w, _ := testWorkflow(t)

	out, err := w.ListProviders(context.Background(), rep())

	require.NoError(t, err)
	assert.Contains(t, out, "# Configured providers")
	assert.Contains(t, out, "- local : kind: openai - api_endpoint: http://localhost:1234/v1")
	assert.Contains(t, out, "- remote")
	assert.NotContains(t, out, "api_key")
}

func TestListModels(t *testing.T) {
	w, client := testWorkflow(t)
	client.models = []string{"qwen3-8b", "llama-3.1-8b"}

	out, err := w.ListModels(context.Background(), rep(), "remote")

	require.NoError(t, err)
	assert.Contains(t, out, "# Target API Endpoint\nhttps://api.example.com/v1")
	assert.Contains(t, out, "- qwen3-8b")
	assert.Contains(t, out, "- llama-3.1-8b")
}

func TestListModelsEmpty(t *testing.T) {
	w, _ := testWorkflow(t)

	out, err := w.ListModels(context.Background(), rep(), "")

	require.NoError(t, err)
	assert.Equal(t, "# No models available", out)
}

func TestBackendFailurePropagatesAndSkipsCompletion(t *testing.T) {
	w, client := testWorkflow(t)
	client.err = llmapi.ErrBackend
	rec := &recorder{}

	_, err := w.HandoverPrompt(context.Background(), rec, "p", "", "", 0)

	require.ErrorIs(t, err, llmapi.ErrBackend)
	require.Len(t, rec.messages, 1) // Start message only, no completion.
	assert.NotEqual(t, "Workflow completed.", rec.messages[0])
}

func TestMissingTemplateIsConfigurationError(t *testing.T) {
	w, client := testWorkflow(t)
	w.Loader.RefinementFile = "absent.md"

	_, err := w.RefinePrompt(context.Background(), rep(), "p", "default", "", "")

	require.Error(t, err)
	assert.False(t, errors.Is(err, llmapi.ErrBackend))
	assert.Empty(t, client.calls)
}

func rep() progress.Reporter { return progress.Nop{} }
