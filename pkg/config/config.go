// Package config loads and validates the server's YAML configuration.
// Environment variables referenced as ${VAR} or $VAR are expanded before
// parsing so API keys can live in the environment (e.g. a .env file) rather
// than in the config file itself.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/refinery-ai/refinery/pkg/registry"
	"gopkg.in/yaml.v3"
)

// Default prompt template filenames inside the prompts directory.
const (
	DefaultRefinementPromptFilename       = "refine-prompt.md"
	DefaultRefinementCodingPromptFilename = "refine-coding.md"
	DefaultBreakdownPromptFilename        = "breakdown-task.md"
	DefaultIdeaPromptFilename             = "generate-ideas.md"
	DefaultTopicPromptFilename            = "generate-topic.md"
)

// ProviderConfig describes one configured LLM backend.
type ProviderConfig struct {
	Name         string `yaml:"name"`
	Kind         string `yaml:"kind"`
	APIEndpoint  string `yaml:"api_endpoint"`
	APIKey       string `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	DefaultModel string `yaml:"default_model"`
	Default      bool   `yaml:"default"`
}

// Config is the top-level server configuration.
type Config struct {
	Providers                       []ProviderConfig `yaml:"providers"`
	PromptsDirectory                string           `yaml:"prompts_directory"`
	RefinementPromptFilename        string           `yaml:"refinement_prompt_filename"`
	RefinementCodingPromptFilename  string           `yaml:"refinement_coding_prompt_filename"`
	BreakdownPromptFilename         string           `yaml:"breakdown_prompt_filename"`
	IdeaPromptFilename              string           `yaml:"idea_prompt_filename"`
	TopicPromptFilename             string           `yaml:"topic_prompt_filename"`
	LogFile                         string           `yaml:"log_file"`
}

// Load reads a YAML file, expands environment references, applies filename
// defaults, and returns the Config. The result is not validated; call
// Validate before use.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("config: load %q: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
	}

	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RefinementPromptFilename == "" {
		c.RefinementPromptFilename = DefaultRefinementPromptFilename
	}
	if c.RefinementCodingPromptFilename == "" {
		c.RefinementCodingPromptFilename = DefaultRefinementCodingPromptFilename
	}
	if c.BreakdownPromptFilename == "" {
		c.BreakdownPromptFilename = DefaultBreakdownPromptFilename
	}
	if c.IdeaPromptFilename == "" {
		c.IdeaPromptFilename = DefaultIdeaPromptFilename
	}
	if c.TopicPromptFilename == "" {
		c.TopicPromptFilename = DefaultTopicPromptFilename
	}
}

// Validate checks that the configuration is internally consistent: at least
// one provider, unique non-empty names, well-formed endpoints, credential
// and model formats, and exactly one default provider (a sole provider is
// implicitly the default).
func (c Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("config: at least one provider is required")
	}

	names := make(map[string]struct{}, len(c.Providers))
	defaults := 0

	for _, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("config: provider name is required")
		}
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("config: duplicate provider name %q", p.Name)
		}
		names[p.Name] = struct{}{}

		if !validEndpoint(p.APIEndpoint) {
			return fmt.Errorf("config: provider %q: invalid api_endpoint %q", p.Name, p.APIEndpoint)
		}
		if !validAPIKey(p.APIKey) {
			return fmt.Errorf("config: provider %q: invalid api_key format", p.Name)
		}
		if !validModelName(p.DefaultModel) {
			return fmt.Errorf("config: provider %q: invalid default_model %q", p.Name, p.DefaultModel)
		}

		if p.Default {
			defaults++
		}
	}

	if defaults > 1 {
		return fmt.Errorf("config: multiple providers marked default")
	}
	if defaults == 0 && len(c.Providers) > 1 {
		return fmt.Errorf("config: one provider must be marked default")
	}

	if c.PromptsDirectory == "" {
		return fmt.Errorf("config: prompts_directory is required")
	}

	return nil
}

// RegistryProviders converts the provider configs into registry records.
func (c Config) RegistryProviders() []registry.Provider {
	out := make([]registry.Provider, len(c.Providers))
	for i, p := range c.Providers {
		out[i] = registry.Provider{
			Name:         p.Name,
			Kind:         p.Kind,
			APIEndpoint:  p.APIEndpoint,
			APIKey:       p.APIKey,
			DefaultModel: p.DefaultModel,
			Default:      p.Default,
		}
	}
	return out
}

func validEndpoint(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func validAPIKey(key string) bool {
	for _, r := range key {
		if !isAlnum(r) && !strings.ContainsRune("-_=+.", r) {
			return false
		}
	}

	return true
}

func validModelName(model string) bool {
	if model == "" {
		return false
	}

	for _, r := range model {
		if !isAlnum(r) && !strings.ContainsRune("/-_.@:", r) {
			return false
		}
	}

	return true
}

func isAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
