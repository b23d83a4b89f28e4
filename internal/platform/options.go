package platform

import (
	"log/slog"

	"github.com/aretw0/tilth/pkg/adapters/fs"
	"github.com/aretw0/tilth/pkg/core"
)

// options holds the internal configuration of an Engine.
type options struct {
	logger   *slog.Logger
	settings map[string]any
}

// Option defines a functional option for configuring an Engine.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		logger:   nil,
		settings: make(map[string]any),
	}
}

// WithLogger sets the logger handed to every module through the
// ExecutionContext. Nil discards diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSetting adds one entry to the run-wide settings store.
func WithSetting(key string, value any) Option {
	return func(o *options) {
		o.settings[key] = value
	}
}

// WithSettings adds every entry of settings. Later options win.
func WithSettings(settings map[string]any) Option {
	return func(o *options) {
		for k, v := range settings {
			o.settings[k] = v
		}
	}
}

// WithConcurrency sets the default number of workers for modules that can
// process documents concurrently (e.g. modules.Execute).
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.settings[core.ConcurrencyKey] = n
	}
}

// WithInputDir sets the directory fs.ReadFiles reads from.
func WithInputDir(dir string) Option {
	return func(o *options) {
		o.settings[fs.InputDirKey] = dir
	}
}

// WithOutputDir sets the directory fs.WriteFiles writes to.
func WithOutputDir(dir string) Option {
	return func(o *options) {
		o.settings[fs.OutputDirKey] = dir
	}
}
