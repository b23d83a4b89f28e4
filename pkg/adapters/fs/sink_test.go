package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tilth/pkg/core"
)

func newContext(settings map[string]any) *core.ExecutionContext {
	return core.NewExecutionContext(context.Background(), core.RunConfig{
		Pipeline: "test",
		Settings: core.NewMetadata(settings),
	})
}

func TestReplaceFile(t *testing.T) {
	t.Run("Creates New File", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "test.txt")

		require.NoError(t, replaceFile(filename, []byte("hello atomic"), 0644))

		got, err := os.ReadFile(filename)
		require.NoError(t, err)
		assert.Equal(t, "hello atomic", string(got))
	})

	t.Run("Overwrites Existing File", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "test.txt")
		require.NoError(t, os.WriteFile(filename, []byte("initial"), 0644))

		require.NoError(t, replaceFile(filename, []byte("overwritten"), 0644))

		got, err := os.ReadFile(filename)
		require.NoError(t, err)
		assert.Equal(t, "overwritten", string(got))
	})

	t.Run("Leaves No Temp Files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, replaceFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.False(t, strings.HasPrefix(e.Name(), tempPrefix), e.Name())
		}
	})

	t.Run("Fails In Missing Directory", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "missing", "a.txt")
		assert.Error(t, replaceFile(filename, []byte("a"), 0644))
	})
}

func TestWriteFiles(t *testing.T) {
	out := t.TempDir()
	ec := newContext(map[string]any{OutputDirKey: out})

	page := core.NewSourceDocument("posts/a.md", "<p>a</p>", core.NewMetadata(map[string]any{
		RelativePathKey: "posts/a.md",
	}))
	noPath := core.NewSourceDocument("loose.txt", "loose", core.Metadata{})

	docs, err := WriteFiles(WithExtension("html")).Execute(ec, []core.Document{page, noPath})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	got, err := os.ReadFile(filepath.Join(out, "posts", "a.html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>a</p>", string(got))

	dest, ok := docs[0].Metadata().String(DestinationPathKey)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(out, "posts", "a.html"), dest)
	assert.Equal(t, page.ID(), docs[0].ID())

	got, err = os.ReadFile(filepath.Join(out, "loose.html"))
	require.NoError(t, err)
	assert.Equal(t, "loose", string(got))
}

func TestWriteFiles_ExplicitDirAndSerializer(t *testing.T) {
	out := t.TempDir()
	ec := newContext(map[string]any{OutputDirKey: "ignored"})

	doc := core.NewSourceDocument("note.md", "body\n", core.NewMetadata(map[string]any{
		RelativePathKey: "note.md",
		"title":         "Note",
	}))

	_, err := WriteFiles(WithOutputDir(out), WithSerializer(MarkdownSerializer{})).Execute(ec, []core.Document{doc})
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(out, "note.md"))
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: Note\n---\nbody\n", string(got))
}

func TestWriteFiles_MarkdownKeepsFrontMatter(t *testing.T) {
	out := t.TempDir()
	ec := newContext(map[string]any{OutputDirKey: out})

	docs := []core.Document{
		core.NewSourceDocument("a.md", "body\n", core.NewMetadata(map[string]any{
			RelativePathKey: "a.md",
			"title":         "A",
		})),
		core.NewSourceDocument("b.markdown", "plain\n", core.NewMetadata(map[string]any{
			RelativePathKey: "b.markdown",
		})),
	}

	_, err := WriteFiles().Execute(ec, docs)
	require.NoError(t, err)

	a, err := os.ReadFile(filepath.Join(out, "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: A\n---\nbody\n", string(a))

	b, err := os.ReadFile(filepath.Join(out, "b.markdown"))
	require.NoError(t, err)
	assert.Equal(t, "plain\n", string(b), "no block without metadata")
}

func TestWriteFiles_SkipsEscapingPaths(t *testing.T) {
	base := t.TempDir()
	out := filepath.Join(base, "out")
	ec := newContext(map[string]any{OutputDirKey: out})

	doc := core.NewSourceDocument("x", "evil", core.NewMetadata(map[string]any{
		RelativePathKey: "../escape.txt",
	}))

	docs, err := WriteFiles().Execute(ec, []core.Document{doc})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.False(t, docs[0].Metadata().Has(DestinationPathKey))

	_, err = os.Stat(filepath.Join(base, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteFiles_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ec := core.NewExecutionContext(ctx, core.RunConfig{})

	_, err := WriteFiles(WithOutputDir(t.TempDir())).Execute(ec, []core.Document{core.NewDocument("a", core.Metadata{})})
	assert.ErrorIs(t, err, context.Canceled)
}
