package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/refaktor/cratebundle/bundler"
	"github.com/refaktor/cratebundle/config"
)

const defaultConfigFile = `# cratebundle settings. Cargo.toml provides the defaults for
# crate-name and lib-root; the environment and flags override this file.

entry = %q
output = %q
lib-root = %q
crate-name = %q

# Top-level modules that are never inlined ("tests" is always skipped).
exclude-modules = []

minify = false
strip-comments = true
stamp = false
`

func newInitCmd(o *options, log *Logger) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter " + config.DefaultPath + " into the crate directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(*o, cmd.Flags().Changed, force, log)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func runInit(o options, changed func(string) bool, force bool, log *Logger) error {
	manifest, err := loadOptional(
		pathOr(o.ManifestPath, o.Dir, config.ManifestPath),
		changed("manifest"),
		config.LoadManifest,
	)
	if err != nil {
		return err
	}
	crateName, libRoot := "", bundler.DefaultLibRoot
	if manifest != nil {
		crateName, libRoot = manifest.CrateName(), manifest.LibRoot()
	} else {
		log.Log(WARN, "no %v found, crate-name left empty", config.ManifestPath)
	}

	path := pathOr(o.ConfigPath, o.Dir, config.DefaultPath)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%v already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	def := defaultOptions()
	content := fmt.Sprintf(defaultConfigFile, def.Entry, def.Output, filepath.ToSlash(libRoot), crateName)
	if err := os.WriteFile(path, []byte(content), 0o666); err != nil {
		return err
	}
	log.Log(INFO, "wrote %v", path)
	return nil
}
