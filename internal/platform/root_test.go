package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConfig(t *testing.T) {
	// base/
	//   site/ (tilth.yaml)
	//     content/
	//       posts/
	//   empty/
	baseDir := t.TempDir()
	siteDir := filepath.Join(baseDir, "site")
	contentDir := filepath.Join(siteDir, "content")
	postsDir := filepath.Join(contentDir, "posts")
	emptyDir := filepath.Join(baseDir, "empty")

	require.NoError(t, os.MkdirAll(postsDir, 0755))
	require.NoError(t, os.MkdirAll(emptyDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(siteDir, ConfigFile), []byte("input: content\n"), 0644))

	want := filepath.Join(siteDir, ConfigFile)

	tests := []struct {
		name      string
		startPath string
		wantPath  string
		wantErr   bool
	}{
		{name: "Start at Root", startPath: siteDir, wantPath: want},
		{name: "Start in Subdir", startPath: contentDir, wantPath: want},
		{name: "Start Nested Deeply", startPath: postsDir, wantPath: want},
		{name: "No Config Found", startPath: emptyDir, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindConfig(tt.startPath)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Clean(tt.wantPath), filepath.Clean(got))
		})
	}
}

func TestFindConfig_IgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ConfigFile), 0755))

	_, err := FindConfig(dir)
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(`input: content
markdown: true
concurrency: 3
settings:
  site: tilth
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "content", cfg.Input)
	assert.Equal(t, "output", cfg.Output, "missing keys keep defaults")
	assert.Equal(t, "**/*.md", cfg.Pattern)
	assert.True(t, cfg.Markdown)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, "tilth", cfg.Settings["site"])

	e := New(cfg.Options()...)
	site, _ := e.Settings().String("site")
	assert.Equal(t, "tilth", site)
	in, _ := e.Settings().String("input_dir")
	assert.Equal(t, "content", in)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("input: [unclosed\n"), 0644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)

	both := filepath.Join(dir, "both.yaml")
	require.NoError(t, os.WriteFile(both, []byte("delimiter: \"+++\"\ndelimiter_char: \"=\"\n"), 0644))
	_, err = LoadConfig(both)
	assert.ErrorContains(t, err, "mutually exclusive")
}
