package tilth

import (
	"log/slog"

	"github.com/aretw0/tilth/internal/platform"
	"github.com/aretw0/tilth/pkg/core"
)

// --- Types ---

// Engine runs named pipelines in registration order.
type Engine = platform.Engine

// EngineState is the introspection snapshot of an Engine.
type EngineState = platform.EngineState

// Config is the project configuration read from tilth.yaml.
type Config = platform.Config

// Document is a public alias for the core document type.
type Document = core.Document

// Metadata is a public alias for the core metadata store.
type Metadata = core.Metadata

// Module is a public alias for the core module contract.
type Module = core.Module

// --- Configuration ---

// Option defines a functional option for configuring an Engine.
type Option = platform.Option

// WithLogger sets the logger handed to every module.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithSetting adds one entry to the run-wide settings store.
func WithSetting(key string, value any) Option {
	return platform.WithSetting(key, value)
}

// WithSettings adds every entry of settings to the run-wide settings store.
func WithSettings(settings map[string]any) Option {
	return platform.WithSettings(settings)
}

// WithConcurrency sets the default worker count of concurrent modules.
func WithConcurrency(n int) Option {
	return platform.WithConcurrency(n)
}

// WithInputDir sets the directory fs.ReadFiles reads from.
func WithInputDir(dir string) Option {
	return platform.WithInputDir(dir)
}

// WithOutputDir sets the directory fs.WriteFiles writes to.
func WithOutputDir(dir string) Option {
	return platform.WithOutputDir(dir)
}

// --- Factory ---

// New creates an Engine.
func New(opts ...Option) *Engine {
	return platform.New(opts...)
}

// NewDocument creates a document with a fresh lineage.
func NewDocument(content string, meta Metadata) Document {
	return core.NewDocument(content, meta)
}

// NewMetadata creates a metadata store holding a copy of entries.
func NewMetadata(entries map[string]any) Metadata {
	return core.NewMetadata(entries)
}

// --- Configuration files ---

// FindConfig looks upwards from dir for tilth.yaml.
func FindConfig(dir string) (string, error) {
	return platform.FindConfig(dir)
}

// DefaultConfig returns the configuration used when no tilth.yaml exists.
func DefaultConfig() Config {
	return platform.DefaultConfig()
}

// LoadConfig reads a tilth.yaml file.
func LoadConfig(path string) (Config, error) {
	return platform.LoadConfig(path)
}
