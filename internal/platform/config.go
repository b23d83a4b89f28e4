package platform

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the project configuration read from tilth.yaml. Command-line
// flags override it field by field.
type Config struct {
	Input         string         `yaml:"input"`
	Output        string         `yaml:"output"`
	Pattern       string         `yaml:"pattern"`
	Delimiter     string         `yaml:"delimiter"`
	DelimiterChar string         `yaml:"delimiter_char"`
	Format        string         `yaml:"format"`
	Markdown      bool           `yaml:"markdown"`
	Ext           string         `yaml:"ext"`
	Concurrency   int            `yaml:"concurrency"`
	Settings      map[string]any `yaml:"settings"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() Config {
	return Config{
		Input:   ".",
		Output:  "output",
		Pattern: "**/*.md",
		Format:  "yaml",
	}
}

// LoadConfig reads path over DefaultConfig. Keys missing from the file keep
// their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if cfg.Delimiter != "" && cfg.DelimiterChar != "" {
		return cfg, fmt.Errorf("invalid config %s: delimiter and delimiter_char are mutually exclusive", path)
	}
	return cfg, nil
}

// Options converts the configuration into Engine options.
func (c Config) Options() []Option {
	opts := []Option{
		WithSettings(c.Settings),
		WithInputDir(c.Input),
		WithOutputDir(c.Output),
	}
	if c.Concurrency > 0 {
		opts = append(opts, WithConcurrency(c.Concurrency))
	}
	return opts
}
