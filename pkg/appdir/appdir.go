// Package appdir encapsulates all path knowledge for the ~/.refinery/
// application directory: configuration, prompt templates, and log files.
package appdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDirName is the application directory name under the user's home.
const DefaultDirName = ".refinery"

// Dir is a value object that resolves paths within the application
// directory.
type Dir struct {
	root string
}

// New creates a Dir rooted at the given path. The path is converted to an
// absolute path. No I/O is performed; use EnsureStructure to create the
// directory layout.
func New(root string) Dir {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	return Dir{root: abs}
}

// Default returns the Dir under the current user's home directory.
func Default() (Dir, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Dir{}, fmt.Errorf("appdir: resolve home directory: %w", err)
	}

	return New(filepath.Join(home, DefaultDirName)), nil
}

// Root returns the absolute path to the application directory.
func (d Dir) Root() string { return d.root }

// ConfigPath returns the path to the main config file.
func (d Dir) ConfigPath() string { return filepath.Join(d.root, "config.yaml") }

// PromptsDir returns the path to the prompt templates directory.
func (d Dir) PromptsDir() string { return filepath.Join(d.root, "prompts") }

// LogsDir returns the path to the logs directory.
func (d Dir) LogsDir() string { return filepath.Join(d.root, "logs") }

// ServerLogPath returns the path to the server log file.
func (d Dir) ServerLogPath() string { return filepath.Join(d.root, "logs", "server.log") }

// Exists reports whether the application root directory exists on disk.
func (d Dir) Exists() bool {
	info, err := os.Stat(d.root)

	return err == nil && info.IsDir()
}

// EnsureStructure creates the prompts/ and logs/ directories if they are
// missing. It is safe to call multiple times.
func EnsureStructure(d Dir) error {
	for _, dir := range []string{d.PromptsDir(), d.LogsDir()} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("appdir: create %q: %w", dir, err)
		}
	}

	return nil
}
