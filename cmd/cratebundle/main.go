// Command cratebundle inlines a Rust library crate into a single
// source file, for online judges and exercise graders that accept only
// one file.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/refaktor/cratebundle/bundler"
	"github.com/refaktor/cratebundle/config"
)

func main() {
	log := &Logger{Writer: os.Stderr, Prefix: "cratebundle:", MinLevel: INFO}
	if err := newRootCmd(log).Execute(); err != nil {
		if cErr := (&config.Error{}); errors.As(err, &cErr) {
			log.Log(FATAL, "%v", cErr.String())
		}
		log.Log(FATAL, "%v", err)
	}
}

func newRootCmd(log *Logger) *cobra.Command {
	o := defaultOptions()

	cmd := &cobra.Command{
		Use:   "cratebundle",
		Short: "Inline a Rust library crate into a single source file",
		Long: `cratebundle expands "extern crate <lib>;" in a binary's entry file into
the library's source, recursively replacing every "mod name;" with the
module file it refers to, wrapped in "pub mod name { ... }".

Settings are read, in increasing order of precedence, from Cargo.toml,
bundle.toml, the environment (also from a .env file in the crate
directory) and flags.`,
		Example: `  cratebundle
  	Bundle src/main.rs of the crate in the current directory into bundle.rs
  cratebundle -C ../algo --entry src/bin/abc123_d.rs --output submit.rs --minify
  	Bundle a single solution of another crate, minified`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBundle(o, cmd.Flags().Changed, log)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&o.Dir, "dir", "C", o.Dir, "crate directory")
	pf.StringVar(&o.ConfigPath, "config", "", "bundle configuration (default <dir>/"+config.DefaultPath+")")
	pf.StringVar(&o.ManifestPath, "manifest", "", "Cargo manifest (default <dir>/"+config.ManifestPath+")")

	f := cmd.Flags()
	f.StringVar(&o.Entry, "entry", o.Entry, "entry file containing main()")
	f.StringVarP(&o.Output, "output", "o", o.Output, "bundle file to write")
	f.StringVar(&o.LibRoot, "lib", o.LibRoot, "library root file")
	f.StringVar(&o.CrateName, "crate", "", "library crate name (default from Cargo.toml)")
	f.StringSliceVar(&o.Exclude, "exclude", nil, "top-level modules never inlined (repeatable)")
	f.BoolVar(&o.Minify, "minify", o.Minify, "strip leading and trailing whitespace from every line")
	f.BoolVar(&o.StripComments, "strip-comments", o.StripComments, "drop blank lines, comments and lint attributes")
	f.BoolVar(&o.Stamp, "stamp", o.Stamp, "start the bundle with a comment naming the package version")
	f.BoolVarP(&o.Verbose, "verbose", "v", o.Verbose, "log every expansion step")

	cmd.AddCommand(newInitCmd(&o, log))
	return cmd
}

func runBundle(flags options, changed func(string) bool, log *Logger) error {
	if err := loadDotEnv(flags.Dir); err != nil {
		return err
	}
	o, manifest, err := resolveOptions(flags, changed, os.Getenv, log)
	if err != nil {
		return err
	}

	if o.Verbose {
		zl, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer func() { _ = zl.Sync() }()
		bundler.SetLogger(zl)
	}

	b := bundler.NewWithLibRoot(o.Entry, o.Output, o.LibRoot)
	b.SetCrateName(o.CrateName)
	for _, mod := range o.Exclude {
		b.ExcludeMod(mod)
	}
	b.SetMinify(o.Minify)
	b.SetStripComments(o.StripComments)
	if o.Stamp {
		b.SetHeader(manifest.Stamp())
	}
	if err := b.Run(); err != nil {
		return err
	}

	log.Log(INFO, "wrote %v", o.Output)
	return nil
}
