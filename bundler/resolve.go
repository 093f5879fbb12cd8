package bundler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// A moduleLayout maps a slash-separated module path (relative to the
// library source directory) to the file that may hold its source.
type moduleLayout func(srcDir, modPath string) string

// moduleLayouts are tried in order; the first file that opens wins.
var moduleLayouts = []moduleLayout{
	// src/foo/bar.rs
	func(srcDir, modPath string) string {
		return filepath.Join(srcDir, filepath.FromSlash(modPath)+".rs")
	},
	// src/foo/bar/mod.rs
	func(srcDir, modPath string) string {
		return filepath.Join(srcDir, filepath.FromSlash(modPath), "mod.rs")
	},
}

// openModule opens the source file of the module at modPath. The
// caller must close the returned file.
func openModule(srcDir, modPath string) (*os.File, string, error) {
	var errs []error
	for _, layout := range moduleLayouts {
		path := layout(srcDir, modPath)
		f, err := os.Open(path)
		if err == nil {
			return f, path, nil
		}
		errs = append(errs, err)
	}
	return nil, "", fmt.Errorf("%w: %v: %w", ErrModuleNotFound, modPath, errors.Join(errs...))
}
