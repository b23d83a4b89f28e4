// Package fs connects tilth pipelines to the filesystem: ReadFiles loads
// documents from a directory tree and WriteFiles persists them.
package fs

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/tilth/pkg/core"
)

// Setting keys read from the run-wide configuration.
const (
	InputDirKey  = "input_dir"
	OutputDirKey = "output_dir"
)

// Metadata keys set on loaded and written documents.
const (
	SourcePathKey      = "source_path"
	RelativePathKey    = "relative_path"
	FileNameKey        = "file_name"
	FileExtKey         = "file_ext"
	DestinationPathKey = "destination_path"
)

// ReadFilesModule is a source module. It appends one document per file
// matching its pattern under the input directory, sorted by path.
type ReadFilesModule struct {
	pattern string
	dir     string
}

// ReadFiles matches pattern (doublestar syntax, e.g. "posts/**/*.md")
// relative to the input_dir setting, or "." when unset.
func ReadFiles(pattern string) *ReadFilesModule {
	return &ReadFilesModule{pattern: pattern}
}

// From returns a copy that reads from dir instead of the input_dir setting.
func (m *ReadFilesModule) From(dir string) *ReadFilesModule {
	c := *m
	c.dir = dir
	return &c
}

// Name implements core.Named.
func (m *ReadFilesModule) Name() string { return "readFiles(" + m.pattern + ")" }

// Validate implements core.Validator.
func (m *ReadFilesModule) Validate() error {
	if m.pattern == "" {
		return errors.New("empty pattern")
	}
	if !doublestar.ValidatePattern(m.pattern) {
		return fmt.Errorf("invalid pattern %q", m.pattern)
	}
	return nil
}

// Execute implements core.Module. Inputs are passed on ahead of the loaded
// documents. A file that cannot be read is skipped with a warning. A missing
// input directory is a *core.ConfigError.
func (m *ReadFilesModule) Execute(ec *core.ExecutionContext, inputs []core.Document) ([]core.Document, error) {
	root := m.root(ec)
	if err := checkDir(root); err != nil {
		return nil, &core.ConfigError{Pipeline: ec.Pipeline(), Module: m.Name(), Err: err}
	}

	matches, err := doublestar.Glob(os.DirFS(root), m.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to glob %q in %s: %w", m.pattern, root, err)
	}
	sort.Strings(matches)

	out := append([]core.Document(nil), inputs...)
	for _, rel := range matches {
		if err := ec.Context().Err(); err != nil {
			return nil, err
		}

		full := filepath.Join(root, filepath.FromSlash(rel))
		data, err := os.ReadFile(full)
		if err != nil {
			ec.Logger().Warn("file skipped", "module", m.Name(), "path", full, "error", err)
			continue
		}

		meta := core.NewMetadata(map[string]any{
			SourcePathKey:   full,
			RelativePathKey: rel,
			FileNameKey:     path.Base(rel),
			FileExtKey:      path.Ext(rel),
		})
		out = append(out, core.NewSourceDocument(rel, string(data), meta))
	}

	ec.Logger().Debug("files loaded", "module", m.Name(), "root", root, "count", len(matches))
	return out, nil
}

func (m *ReadFilesModule) root(ec *core.ExecutionContext) string {
	if m.dir != "" {
		return m.dir
	}
	if dir, ok := ec.Settings().String(InputDirKey); ok && dir != "" {
		return dir
	}
	return "."
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input directory: %s is not a directory", dir)
	}
	return nil
}
