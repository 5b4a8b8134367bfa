// Package prompts loads instruction templates from a configured directory.
// Templates are plain markdown files read fresh on every call so edits take
// effect without a server restart.
package prompts

import (
	"fmt"
	"os"
	"path/filepath"
)

// Refinement type tags recognized by LoadRefinement. Anything else falls
// back to the default refinement template.
const (
	TypeDefault = "default"
	TypeCode    = "code"
	TypeCoding  = "coding"
)

// Loader resolves template files under Dir. All filename fields are relative
// to Dir.
type Loader struct {
	Dir            string
	RefinementFile string
	CodingFile     string
	BreakdownFile  string
	IdeaFile       string
	TopicFile      string
}

// LoadRefinement returns the instruction template for the given refinement
// type. "code" and "coding" select the coding template; any other value,
// including empty, selects the default template. A missing file is a
// configuration error and is surfaced to the caller.
func (l Loader) LoadRefinement(refinementType string) (string, error) {
	file := l.RefinementFile
	if refinementType == TypeCode || refinementType == TypeCoding {
		file = l.CodingFile
	}

	return l.read(file)
}

// LoadBreakdown returns the task-breakdown instruction template.
func (l Loader) LoadBreakdown() (string, error) {
	return l.read(l.BreakdownFile)
}

// LoadIdea returns the idea-generation instruction template.
func (l Loader) LoadIdea() (string, error) {
	return l.read(l.IdeaFile)
}

// LoadTopic returns the topic-generation instruction template.
func (l Loader) LoadTopic() (string, error) {
	return l.read(l.TopicFile)
}

// read resolves name to an absolute path under Dir and reads it as UTF-8
// text. The underlying fs error (including fs.ErrNotExist) stays wrapped so
// callers can classify it.
func (l Loader) read(name string) (string, error) {
	path := filepath.Join(l.Dir, name)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration, not user input
	if err != nil {
		return "", fmt.Errorf("prompts: load %q: %w", path, err)
	}

	return string(data), nil
}
