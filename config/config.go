package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"dario.cat/mergo"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the name of the bundle configuration file in a crate
// directory.
const DefaultPath = "bundle.toml"

// Config is the contents of a bundle.toml file.
//
// Relative paths are relative to the crate directory, except for
// Imports, which are relative to the importing file.
type Config struct {
	Imports        []string `toml:"imports"`
	Entry          string   `toml:"entry"`
	Output         string   `toml:"output"`
	LibRoot        string   `toml:"lib-root"`
	CrateName      string   `toml:"crate-name"`
	ExcludeModules []string `toml:"exclude-modules"`
	Minify         *bool    `toml:"minify"`
	StripComments  *bool    `toml:"strip-comments"`
	Stamp          *bool    `toml:"stamp"`
}

type Error struct {
	filePath string
	err      error  // short, single-line error
	str      string // full, multi-line error string, or err string, if none
}

// Error returns a short error message.
func (e *Error) Error() string {
	return e.filePath + ": " + e.err.Error()
}

// String returns the full multi-line error string.
func (e *Error) String() string {
	if e.str != "" {
		return "Error in file " + strconv.Quote(e.filePath) + ":\n" + e.str
	} else {
		return e.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.err
}

// wrapError turns errors related to the file at path into an *Error,
// keeping the detailed TOML error description if there is one.
func wrapError(path string, err error) error {
	if cErr := (&Error{}); errors.As(err, &cErr) {
		return err
	}
	if tErr := (&toml.DecodeError{}); errors.As(err, &tErr) {
		return &Error{filePath: path, err: err, str: tErr.String()}
	} else if tErr := (&toml.StrictMissingError{}); errors.As(err, &tErr) {
		return &Error{filePath: path, err: err, str: tErr.String()}
	}
	return &Error{filePath: path, err: err}
}

// Load reads the bundle configuration at path. Files listed in
// imports are loaded recursively; values set in the importing file
// take precedence, lists are concatenated. An explicit false in the
// importing file is kept.
func Load(path string) (_ *Config, err error) {
	return load(path, nil)
}

func load(path string, visiting []string) (_ *Config, err error) {
	defer func() {
		if err != nil {
			err = wrapError(path, err)
		}
	}()

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	for _, v := range visiting {
		if v == abs {
			return nil, errors.New("import cycle")
		}
	}
	visiting = append(visiting, abs)

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := &Config{}
	err = toml.NewDecoder(bytes.NewReader(file)).
		DisallowUnknownFields().
		Decode(&c)
	if err != nil {
		return nil, err
	}

	var importedCs []*Config // collect imported files first so their imports don't leak into our file's imports
	for _, imp := range c.Imports {
		if !filepath.IsAbs(imp) {
			imp = filepath.Join(filepath.Dir(path), imp)
		}
		newC, err := load(imp, visiting)
		if err != nil {
			return nil, err
		}
		importedCs = append(importedCs, newC)
	}
	for _, newC := range importedCs {
		newC.Imports = nil
		if err := mergo.Merge(c, newC, mergo.WithAppendSlice, mergo.WithoutDereference); err != nil {
			return nil, err
		}
	}

	return c, nil
}
