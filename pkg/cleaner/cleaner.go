// Package cleaner post-processes raw LLM output into caller-ready text.
// Local models often wrap chain-of-thought in think tags; callers want only
// the final answer.
package cleaner

import (
	"regexp"
	"strings"
)

var (
	thinkBlock = regexp.MustCompile(`(?s)<think(?:ing)?>.*?</think(?:ing)?>`)
	// An opening tag that is never closed swallows the rest of the output.
	thinkTail = regexp.MustCompile(`(?s)<think(?:ing)?>.*$`)
)

// Clean strips think-tag reasoning blocks and surrounding whitespace from
// raw model output. It is pure and never fails: unexpected input gets
// best-effort stripping. Clean is idempotent, it runs to a fixpoint before
// returning.
func Clean(raw string) string {
	s := raw
	for {
		next := cleanOnce(s)
		if next == s {
			return next
		}
		s = next
	}
}

func cleanOnce(s string) string {
	s = thinkBlock.ReplaceAllString(s, "")
	s = thinkTail.ReplaceAllString(s, "")

	return strings.TrimSpace(s)
}
