package refine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/refinery-ai/refinery/pkg/ideas"
	"github.com/refinery-ai/refinery/pkg/prompts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	prompt      string
	model       string
	temperature float64
}

// fakeClient replays scripted responses and records every Send call.
type fakeClient struct {
	calls     []call
	responses []string
	errs      []error
	models    []string
}

func (f *fakeClient) Send(_ context.Context, prompt, model string, temperature float64) (string, error) {
	i := len(f.calls)
	f.calls = append(f.calls, call{prompt: prompt, model: model, temperature: temperature})

	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}

	return "response", nil
}

func (f *fakeClient) ListModels(context.Context) ([]string, error) {
	return f.models, nil
}

func testLoader(t *testing.T) prompts.Loader {
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

	return prompts.Loader{
		Dir:            dir,
		RefinementFile: "refine-prompt.md",
		CodingFile:     "refine-coding.md",
		BreakdownFile:  "breakdown-task.md",
		IdeaFile:       "generate-ideas.md",
		TopicFile:      "generate-topic.md",
	}
}

func TestRefineUsesCodingTemplate(t *testing.T) {
	client := &fakeClient{responses: []string{"refined prompt"}}
	e := Engine{Client: client, Loader: testLoader(t)}

	out, err := e.Refine(context.Background(), "Write a function to sort a list", "code", "m1")

	require.NoError(t, err)
	assert.Equal(t, "refined prompt", out)
	require.Len(t, client.calls, 1)
	assert.True(t, strings.HasPrefix(client.calls[0].prompt, "REFINE-CODING"))
	assert.Contains(t, client.calls[0].prompt, "Write a function to sort a list")
	assert.Equal(t, "m1", client.calls[0].model)
}

func TestRefineReturnsRawOutput(t *testing.T) {
	// Refinement output is reused as a prompt, so think tags stay untouched.
	client := &fakeClient{responses: []string{"<think>x</think> refined"}}
	e := Engine{Client: client, Loader: testLoader(t)}

	out, err := e.Refine(context.Background(), "p", "default", "m1")

	require.NoError(t, err)
	assert.Equal(t, "<think>x</think> refined", out)
}

func TestRefineUnknownTypeFallsBack(t *testing.T) {
	client := &fakeClient{}
	e := Engine{Client: client, Loader: testLoader(t)}

	_, err := e.Refine(context.Background(), "p", "poetry", "m1")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(client.calls[0].prompt, "REFINE-DEFAULT"))
}

func TestRefineMissingTemplateFailsBeforeLLMCall(t *testing.T) {
	client := &fakeClient{}
	loader := testLoader(t)
	loader.RefinementFile = "absent.md"
	e := Engine{Client: client, Loader: loader}

	_, err := e.Refine(context.Background(), "p", "default", "m1")

	require.Error(t, err)
	assert.Empty(t, client.calls)
}

func TestRefineAndExecuteTwoCallsInOrder(t *testing.T) {
	client := &fakeClient{responses: []string{"refined prompt", "<think>r</think>final answer"}}
	e := Engine{Client: client, Loader: testLoader(t)}

	out, err := e.RefineAndExecute(context.Background(), "p", "default", "refine-model", "exec-model")

	require.NoError(t, err)
	assert.Equal(t, "final answer", out)
	require.Len(t, client.calls, 2)
	assert.Equal(t, "refine-model", client.calls[0].model)
	assert.Equal(t, "exec-model", client.calls[1].model)
	// The second call receives the first call's output verbatim.
	assert.Equal(t, "refined prompt", client.calls[1].prompt)
}

func TestRefineAndExecuteAbortsAfterFirstFailure(t *testing.T) {
	client := &fakeClient{errs: []error{errors.New("backend down")}}
	e := Engine{Client: client, Loader: testLoader(t)}

	_, err := e.RefineAndExecute(context.Background(), "p", "default", "m1", "m2")

	require.Error(t, err)
	assert.Len(t, client.calls, 1)
}

func TestRefineAndExecuteSecondFailureReturnsNoPartialResult(t *testing.T) {
	client := &fakeClient{
		responses: []string{"refined prompt"},
		errs:      []error{nil, errors.New("backend down")},
	}
	e := Engine{Client: client, Loader: testLoader(t)}

	out, err := e.RefineAndExecute(context.Background(), "p", "default", "m1", "m2")

	require.Error(t, err)
	assert.Empty(t, out)
}

func TestHandoverSendsUnmodifiedPrompt(t *testing.T) {
	client := &fakeClient{responses: []string{"  Bonjour  "}}
	e := Engine{Client: client, Loader: testLoader(t)}

	out, err := e.Handover(context.Background(), "Translate to French: Hello", "m1", 0.7)

	require.NoError(t, err)
	assert.Equal(t, "Bonjour", out)
	require.Len(t, client.calls, 1)
	assert.Equal(t, "Translate to French: Hello", client.calls[0].prompt)
	assert.InDelta(t, 0.7, client.calls[0].temperature, 1e-9)
}

func TestBreakdownTaskUsesBreakdownTemplate(t *testing.T) {
	client := &fakeClient{responses: []string{`[{"task":"a","complexity":3}]`}}
	e := Engine{Client: client, Loader: testLoader(t)}

	out, err := e.BreakdownTask(context.Background(), "Implement auth", "m1")

	require.NoError(t, err)
	assert.Equal(t, `[{"task":"a","complexity":3}]`, out)
	require.Len(t, client.calls, 1)
	assert.True(t, strings.HasPrefix(client.calls[0].prompt, "BREAKDOWN"))
	assert.Contains(t, client.calls[0].prompt, "Implement auth")
}

func TestBreakdownTaskPassesThroughMalformedOutput(t *testing.T) {
	client := &fakeClient{responses: []string{"not json at all"}}
	e := Engine{Client: client, Loader: testLoader(t)}

	out, err := e.BreakdownTask(context.Background(), "t", "m1")

	require.NoError(t, err)
	assert.Equal(t, "not json at all", out)
}

func TestGenerateIdeasSegmentCount(t *testing.T) {
	client := &fakeClient{}
	e := Engine{Client: client, Loader: testLoader(t)}

	out, err := e.GenerateIdeas(context.Background(), ideas.Spec{
		Topic:           "gardening",
		Count:           3,
		GeneratorModel:  "m",
		RefinementModel: "m",
		ExecutionModel:  "m",
	})

	require.NoError(t, err)
	segments := strings.Split(out, IdeaSeparator)
	assert.Len(t, segments, 3)
}
