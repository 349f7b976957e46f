package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

// chdir stands in for t.Chdir, which needs Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDocument_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bibkit.toml")
	require.NoError(t, writeFile(path, `
api-key = "global-key"
indent = 4

[items]
limit = 50
sort = "title"

[collections]
limit = 10
`))

	doc, err := LoadDocument(path)
	require.NoError(t, err)

	v, ok := doc.GlobalValue("api-key")
	require.True(t, ok)
	assert.Equal(t, "global-key", v)

	// Non-string scalars flatten to raw strings; coercion happens later.
	v, ok = doc.GlobalValue("indent")
	require.True(t, ok)
	assert.Equal(t, "4", v)

	v, ok = doc.CommandValue("items", "limit")
	require.True(t, ok)
	assert.Equal(t, "50", v)

	v, ok = doc.CommandValue("items", "sort")
	require.True(t, ok)
	assert.Equal(t, "title", v)

	_, ok = doc.CommandValue("items", "missing")
	assert.False(t, ok)
	_, ok = doc.CommandValue("unknown-command", "limit")
	assert.False(t, ok)
}

func TestLoadDocument_Missing(t *testing.T) {
	_, err := LoadDocument(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestDiscoverPath(t *testing.T) {
	// Explicit path always wins, even if it does not exist yet; the flag
	// layer validates existence separately.
	path, found := DiscoverPath("/somewhere/custom.toml")
	assert.True(t, found)
	assert.Equal(t, "/somewhere/custom.toml", path)

	// Repo-local file is picked up from the working directory.
	dir := t.TempDir()
	chdir(t, dir)
	path, found = DiscoverPath("")
	assert.False(t, found, "no config anywhere")

	require.NoError(t, writeFile(filepath.Join(dir, repoLocalConfig), "indent = 2\n"))
	path, found = DiscoverPath("")
	require.True(t, found)
	assert.Equal(t, repoLocalConfig, path)
}
