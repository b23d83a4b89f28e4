package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/tilth/pkg/core"
)

// tempPrefix marks the scratch files WriteFiles renames into place.
const tempPrefix = ".tilth-tmp-"

// WriteOption configures WriteFiles.
type WriteOption func(*WriteFilesModule)

// WithExtension replaces the extension of the destination path (e.g. ".html").
func WithExtension(ext string) WriteOption {
	return func(m *WriteFilesModule) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		m.ext = ext
	}
}

// WithSerializer forces a serializer instead of picking one by extension.
func WithSerializer(s Serializer) WriteOption {
	return func(m *WriteFilesModule) {
		m.serializer = s
	}
}

// WithOutputDir writes under dir instead of the output_dir setting.
func WithOutputDir(dir string) WriteOption {
	return func(m *WriteFilesModule) {
		m.dir = dir
	}
}

// WriteFilesModule writes each document to disk and passes it on with the
// destination_path metadata entry set.
//
// The destination is the document's relative_path (or its source, or its
// lineage id plus ".txt" as a last resort) under the output directory.
// Files are replaced atomically. Documents whose destination would escape
// the output directory are skipped with a warning.
type WriteFilesModule struct {
	ext        string
	dir        string
	serializer Serializer
}

// WriteFiles creates a WriteFilesModule.
func WriteFiles(opts ...WriteOption) *WriteFilesModule {
	m := &WriteFilesModule{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name implements core.Named.
func (m *WriteFilesModule) Name() string { return "writeFiles" }

// Execute implements core.Module. I/O failures abort the run.
func (m *WriteFilesModule) Execute(ec *core.ExecutionContext, inputs []core.Document) ([]core.Document, error) {
	root := m.root(ec)
	out := make([]core.Document, 0, len(inputs))
	for _, doc := range inputs {
		if err := ec.Context().Err(); err != nil {
			return nil, err
		}

		rel := m.destination(doc)
		dest := filepath.Join(root, filepath.FromSlash(rel))
		if !within(root, dest) {
			ec.Logger().Warn("destination outside output directory, document skipped",
				"module", m.Name(),
				"document", doc.ID(),
				"destination", rel,
			)
			out = append(out, doc)
			continue
		}

		data, err := m.serializerFor(dest).Serialize(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize %s: %w", rel, err)
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directories: %w", err)
		}
		if err := replaceFile(dest, data, 0644); err != nil {
			return nil, err
		}

		ec.Logger().Debug("file written", "module", m.Name(), "path", dest, "bytes", len(data))
		out = append(out, doc.WithMetadata(doc.Metadata().Set(DestinationPathKey, dest)))
	}
	return out, nil
}

func (m *WriteFilesModule) root(ec *core.ExecutionContext) string {
	if m.dir != "" {
		return m.dir
	}
	if dir, ok := ec.Settings().String(OutputDirKey); ok && dir != "" {
		return dir
	}
	return "output"
}

func (m *WriteFilesModule) destination(doc core.Document) string {
	rel, ok := doc.Metadata().String(RelativePathKey)
	if !ok || rel == "" {
		rel = doc.Source()
	}
	if rel == "" {
		rel = doc.ID() + ".txt"
	}
	if m.ext != "" {
		rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + m.ext
	}
	return rel
}

func (m *WriteFilesModule) serializerFor(dest string) Serializer {
	if m.serializer != nil {
		return m.serializer
	}
	if s, ok := DefaultSerializers()[strings.ToLower(filepath.Ext(dest))]; ok {
		return s
	}
	return RawSerializer{}
}

func within(root, dest string) bool {
	rel, err := filepath.Rel(root, dest)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// replaceFile writes data next to filename and renames it into place, so
// readers never observe a partially written file.
func replaceFile(filename string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmp.Name())
		}
	}()

	_, werr := tmp.Write(data)
	serr := tmp.Sync()
	cerr := tmp.Close()
	if err := errors.Join(werr, serr, cerr); err != nil {
		return fmt.Errorf("failed to write temp file for %s: %w", filename, err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}
	committed = true
	return nil
}
