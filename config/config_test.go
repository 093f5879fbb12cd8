package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/refaktor/cratebundle/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o777))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o666))
}

func TestLoad(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.toml")
	writeFile(t, path, `
entry = "src/bin/a.rs"
output = "submit.rs"
crate-name = "algo"
exclude-modules = ["bench"]
minify = true
`)

	c, err := config.Load(path)
	require.NoError(err)
	require.Equal("src/bin/a.rs", c.Entry)
	require.Equal("submit.rs", c.Output)
	require.Equal("algo", c.CrateName)
	require.Equal([]string{"bench"}, c.ExcludeModules)
	require.NotNil(c.Minify)
	require.True(*c.Minify)
	require.Nil(c.StripComments)
	require.Empty(c.LibRoot)
}

func TestLoadImports(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "shared", "common.toml"), `
output = "common.rs"
crate-name = "shared"
minify = true
exclude-modules = ["bench"]
strip-comments = false
`)
	path := filepath.Join(dir, "bundle.toml")
	writeFile(t, path, `
imports = ["shared/common.toml"]
crate-name = "mine"
exclude-modules = ["examples"]
minify = false
`)

	c, err := config.Load(path)
	require.NoError(err)
	require.Equal("mine", c.CrateName)
	require.Equal("common.rs", c.Output)
	require.Equal([]string{"examples", "bench"}, c.ExcludeModules)
	require.NotNil(c.StripComments)
	require.False(*c.StripComments)
	require.NotNil(c.Minify)
	require.False(*c.Minify)
	require.Equal([]string{"shared/common.toml"}, c.Imports)
}

func TestLoadImportCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.toml"), `imports = ["b.toml"]`)
	writeFile(t, filepath.Join(dir, "b.toml"), `imports = ["a.toml"]`)

	_, err := config.Load(filepath.Join(dir, "a.toml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "import cycle")
}

func TestLoadUnknownField(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.toml")
	writeFile(t, path, "entry = \"src/main.rs\"\nminfy = true\n")

	_, err := config.Load(path)
	require.Error(err)
	var cErr *config.Error
	require.True(errors.As(err, &cErr))
	require.True(strings.HasPrefix(cErr.Error(), path+": "))
	require.Contains(cErr.String(), "Error in file")
	require.Contains(cErr.String(), "minfy")
}

func TestLoadMissing(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadManifest(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")
	writeFile(t, path, `
[package]
name = "ac-helpers"
version = "0.3.1"
edition = "2021"

[dependencies]
rand = "0.8"
`)

	m, err := config.LoadManifest(path)
	require.NoError(err)
	require.Equal("ac_helpers", m.CrateName())
	require.Equal("0.3.1", m.Version())
	require.Equal("src/lib.rs", m.LibRoot())
	require.Equal("// ac-helpers v0.3.1 (bundled)", m.Stamp())
}

func TestManifestCrateName(t *testing.T) {
	tests := []struct {
		pkg  string
		want string
	}{
		{"ac-helpers", "ac_helpers"},
		{"aoc2023", "aoc2023"},
		{"lib2d", "lib2d"},
		{"MyLib", "MyLib"},
		{"rust-lib-v2", "rust_lib_v2"},
	}
	for _, tt := range tests {
		t.Run(tt.pkg, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "Cargo.toml")
			writeFile(t, path, "[package]\nname = \""+tt.pkg+"\"\n")

			m, err := config.LoadManifest(path)
			require.NoError(t, err)
			require.Equal(t, tt.want, m.CrateName())
		})
	}
}

func TestLoadManifestWorkspaceVersion(t *testing.T) {
	for name, content := range map[string]string{
		"dotted": "[package]\nname = \"algo\"\nversion.workspace = true\n",
		"inline": "[package]\nname = \"algo\"\nversion = { workspace = true }\n",
	} {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			path := filepath.Join(t.TempDir(), "Cargo.toml")
			writeFile(t, path, content)

			m, err := config.LoadManifest(path)
			require.NoError(err)
			require.Empty(m.Version())
			require.Equal("algo", m.CrateName())
			require.Equal("// algo (bundled)", m.Stamp())
		})
	}
}

func TestLoadManifestVersionType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Cargo.toml")
	writeFile(t, path, "[package]\nname = \"x\"\nversion = 3\n")

	_, err := config.LoadManifest(path)
	require.ErrorContains(t, err, "unexpected type")
}

func TestLoadManifestLibSection(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")
	writeFile(t, path, `
[package]
name = "ac-helpers"

[lib]
name = "ach"
path = "lib/root.rs"
`)

	m, err := config.LoadManifest(path)
	require.NoError(err)
	require.Equal("ach", m.CrateName())
	require.Equal("lib/root.rs", m.LibRoot())
	require.Equal("// ac-helpers (bundled)", m.Stamp())
}

func TestLoadManifestBadVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")
	writeFile(t, path, "[package]\nname = \"x\"\nversion = \"one\"\n")

	_, err := config.LoadManifest(path)
	require.Error(t, err)
	var cErr *config.Error
	require.ErrorAs(t, err, &cErr)
	require.Contains(t, err.Error(), "semantic version")
}
