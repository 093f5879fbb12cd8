package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/semver"
)

// ManifestPath is the name of the Cargo manifest in a crate directory.
const ManifestPath = "Cargo.toml"

// Manifest holds the parts of a Cargo.toml needed for bundling.
// All other keys are ignored.
type Manifest struct {
	Package struct {
		Name string `toml:"name"`
		// A version string, or a table such as {workspace = true} when
		// the version is inherited from the workspace.
		Version any `toml:"version"`
	} `toml:"package"`
	Lib struct {
		Name string `toml:"name"`
		Path string `toml:"path"`
	} `toml:"lib"`
}

func LoadManifest(path string) (_ *Manifest, err error) {
	defer func() {
		if err != nil {
			err = wrapError(path, err)
		}
	}()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	m := &Manifest{}
	if err := toml.NewDecoder(bytes.NewReader(file)).Decode(m); err != nil {
		return nil, err
	}
	switch v := m.Package.Version.(type) {
	case nil, map[string]any:
	case string:
		if v != "" && !semver.IsValid("v"+v) {
			return nil, fmt.Errorf("package version %q is not a semantic version", v)
		}
	default:
		return nil, fmt.Errorf("package version has unexpected type %T", v)
	}
	return m, nil
}

// Version returns the package version, or "" if it is not set in the
// manifest itself.
func (m *Manifest) Version() string {
	v, _ := m.Package.Version.(string)
	return v
}

// CrateName returns the name the library is referred to by in Rust
// source: the [lib] name if set, else the package name with dashes
// replaced by underscores, as Cargo does.
func (m *Manifest) CrateName() string {
	if m.Lib.Name != "" {
		return m.Lib.Name
	}
	return strings.ReplaceAll(m.Package.Name, "-", "_")
}

// LibRoot returns the path of the library root relative to the crate
// directory.
func (m *Manifest) LibRoot() string {
	if m.Lib.Path != "" {
		return m.Lib.Path
	}
	return "src/lib.rs"
}

// Stamp returns a comment line naming the package and its version,
// for the top of a bundle.
func (m *Manifest) Stamp() string {
	var b strings.Builder
	b.WriteString("// ")
	b.WriteString(m.Package.Name)
	if v := m.Version(); v != "" {
		b.WriteString(" ")
		b.WriteString(semver.Canonical("v" + v))
	}
	b.WriteString(" (bundled)")
	return b.String()
}
