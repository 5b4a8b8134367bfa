// Package review generates markdown code reviews for source files via an
// LLM and writes them to a target directory.
package review

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/refinery-ai/refinery/pkg/cleaner"
	"github.com/refinery-ai/refinery/pkg/llmapi"
)

// Recognized review types. Unrecognized types get the general instructions.
const (
	TypeGeneral     = "general"
	TypeSecurity    = "security"
	TypePerformance = "performance"
)

// Reviewer runs code reviews against a single backend with a concrete model.
type Reviewer struct {
	Client llmapi.Client
}

// Run reviews each source file and writes one markdown review per file into
// targetDir. File names carry a short random suffix so repeated reviews of
// the same source never collide. It returns the written paths in input
// order. Any read, LLM, or write failure aborts the whole run.
func (r Reviewer) Run(ctx context.Context, sourcePaths []string, targetDir, model, reviewType string) ([]string, error) {
	if len(sourcePaths) == 0 {
		return nil, fmt.Errorf("review: no source files given")
	}

	if err := os.MkdirAll(targetDir, 0o750); err != nil {
		return nil, fmt.Errorf("review: create target dir %q: %w", targetDir, err)
	}

	instructions := instructionsFor(reviewType)

	written := make([]string, 0, len(sourcePaths))
	for _, src := range sourcePaths {
		out, err := r.reviewFile(ctx, src, targetDir, model, instructions)
		if err != nil {
			return nil, err
		}

		written = append(written, out)
	}

	return written, nil
}

func (r Reviewer) reviewFile(ctx context.Context, src, targetDir, model, instructions string) (string, error) {
	code, err := os.ReadFile(src) //nolint:gosec // paths are caller-provided review targets
	if err != nil {
		return "", fmt.Errorf("review: read %q: %w", src, err)
	}

	prompt := fmt.Sprintf("%s\n\nFile: %s\n\n```\n%s\n```", instructions, filepath.Base(src), string(code))

	raw, err := r.Client.Send(ctx, prompt, model, 0)
	if err != nil {
		return "", fmt.Errorf("review: %q: %w", src, err)
	}

	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	name := fmt.Sprintf("%s-review-%s.md", base, uuid.NewString()[:8])
	out := filepath.Join(targetDir, name)

	if err := os.WriteFile(out, []byte(cleaner.Clean(raw)+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("review: write %q: %w", out, err)
	}

	return out, nil
}

func instructionsFor(reviewType string) string {
	switch reviewType {
	case TypeSecurity:
		return "Review the following source file for security issues: injection, " +
			"unsafe input handling, secrets in code, and missing validation. " +
			"Report findings as a markdown list with severity ratings."
	case TypePerformance:
		return "Review the following source file for performance issues: " +
			"unnecessary allocations, quadratic loops, blocking I/O on hot paths. " +
			"Report findings as a markdown list with impact ratings."
	default:
		return "Review the following source file for correctness, readability, " +
			"and maintainability. Report findings as a markdown list, most " +
			"important first."
	}
}
