// Package assets provides the embedded default configuration and prompt
// templates used by `refinery init` to seed the application directory.
package assets

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/refinery-ai/refinery/pkg/appdir"
)

//go:embed config.yaml prompts/*.md
var assetFS embed.FS

// Seed creates the application directory structure and writes the default
// config and prompt templates. Existing files are left untouched so local
// edits survive re-running init. It returns the paths it wrote.
func Seed(d appdir.Dir) ([]string, error) {
	if err := appdir.EnsureStructure(d); err != nil {
		return nil, err
	}

	var written []string

	wrote, err := writeIfMissing(d.ConfigPath(), "config.yaml")
	if err != nil {
		return nil, err
	}
	if wrote {
		written = append(written, d.ConfigPath())
	}

	entries, err := assetFS.ReadDir("prompts")
	if err != nil {
		return nil, fmt.Errorf("assets: read embedded prompts: %w", err)
	}

	for _, e := range entries {
		dest := filepath.Join(d.PromptsDir(), e.Name())

		wrote, err := writeIfMissing(dest, "prompts/"+e.Name())
		if err != nil {
			return nil, err
		}
		if wrote {
			written = append(written, dest)
		}
	}

	return written, nil
}

func writeIfMissing(dest, src string) (bool, error) {
	if _, err := os.Stat(dest); err == nil {
		return false, nil
	}

	data, err := assetFS.ReadFile(src)
	if err != nil {
		return false, fmt.Errorf("assets: read embedded %q: %w", src, err)
	}

	if err := os.WriteFile(dest, data, 0o600); err != nil {
		return false, fmt.Errorf("assets: write %q: %w", dest, err)
	}

	return true, nil
}
