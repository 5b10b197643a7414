package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Mode    string `json:"mode"`
	Enabled bool   `json:"enabled"`
}

func write(t *testing.T, path, contents string) {
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, filepath.Join("dir", "botprobe.local.json5"), LocalPath(filepath.Join("dir", "botprobe.json5")))
	require.Equal(t, "config.local", LocalPath("config"))
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.json5")
	write(t, path, `{
		// comments and trailing commas are fine
		name: "base",
		count: 2,
	}`)
	write(t, LocalPath(path), `{ count: 5 }`)

	out, err := ReadConfig[sample](path)
	require.NoError(t, err)
	require.Equal(t, sample{Name: "base", Count: 5}, out)
}

func TestReadConfigLocalZeroValuesOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.json5")
	write(t, path, `{ name: "base", count: 3, enabled: true }`)
	write(t, LocalPath(path), `{ count: 0, enabled: false, name: "" }`)

	out, err := ReadConfig[sample](path)
	require.NoError(t, err)
	require.Equal(t, sample{}, out)
}

func TestReadConfigOnlyLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.json5")
	write(t, LocalPath(path), `{ name: "local" }`)

	out, err := ReadConfig[sample](path)
	require.NoError(t, err)
	require.Equal(t, "local", out.Name)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[sample](filepath.Join(t.TempDir(), "missing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json5")
	write(t, path, `{ name: `)
	_, err := ReadConfig[sample](path)
	require.Error(t, err)
	require.NotErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigWithDefaults(t *testing.T) {
	defaults := sample{Name: "default", Count: 1, Mode: "fast"}

	out, err := ReadConfigWithDefaults(filepath.Join(t.TempDir(), "missing.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, out)

	path := filepath.Join(t.TempDir(), "app.json5")
	write(t, path, `{ mode: "slow" }`)
	out, err = ReadConfigWithDefaults(path, defaults)
	require.NoError(t, err)
	require.Equal(t, sample{Name: "default", Count: 1, Mode: "slow"}, out)
}

func TestReadConfigWithDefaultsZeroValues(t *testing.T) {
	defaults := sample{Name: "default", Count: 300, Enabled: true}

	path := filepath.Join(t.TempDir(), "app.json5")
	write(t, path, `{ count: 0 }`)
	write(t, LocalPath(path), `{ enabled: false }`)

	out, err := ReadConfigWithDefaults(path, defaults)
	require.NoError(t, err)
	require.Equal(t, sample{Name: "default"}, out)
}

func TestReadConfigWithDefaultsInvalid(t *testing.T) {
	defaults := sample{Name: "default"}

	path := filepath.Join(t.TempDir(), "app.json5")
	write(t, path, `{ name: "x", `)

	out, err := ReadConfigWithDefaults(path, defaults)
	require.Error(t, err)
	require.Equal(t, defaults, out)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	write(t, filepath.Join(root, "found.json5"), `{ name: "root" }`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { os.Chdir(wd) })

	out, err := ReadRecursively[sample]("found.json5")
	require.NoError(t, err)
	require.Equal(t, "root", out.Name)
}
