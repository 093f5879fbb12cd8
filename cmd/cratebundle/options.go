package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/joho/godotenv"

	"github.com/refaktor/cratebundle/bundler"
	"github.com/refaktor/cratebundle/config"
)

// Environment variables, read after bundle.toml and before flags.
// Each is named after the flag it stands in for.
var (
	envEntry         = envName("entry")
	envOutput        = envName("output")
	envLibRoot       = envName("lib")
	envCrate         = envName("crate")
	envExclude       = envName("exclude")
	envMinify        = envName("minify")
	envStripComments = envName("strip-comments")
	envStamp         = envName("stamp")
)

// envName returns the environment variable for a flag, e.g.
// CRATEBUNDLE_STRIP_COMMENTS for --strip-comments.
func envName(flag string) string {
	return "CRATEBUNDLE_" + strcase.ToScreamingSnake(flag)
}

type options struct {
	Dir           string
	ConfigPath    string
	ManifestPath  string
	Entry         string
	Output        string
	LibRoot       string
	CrateName     string
	Exclude       []string
	Minify        bool
	StripComments bool
	Stamp         bool
	Verbose       bool
}

func defaultOptions() options {
	return options{
		Dir:           ".",
		Entry:         "src/main.rs",
		Output:        "bundle.rs",
		LibRoot:       bundler.DefaultLibRoot,
		StripComments: true,
	}
}

// loadDotEnv loads dir/.env into the process environment, if present.
// Variables that are already set are not overridden.
func loadDotEnv(dir string) error {
	err := godotenv.Load(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// resolveOptions combines, in increasing order of precedence, the
// defaults, Cargo.toml, bundle.toml, the environment and the flags for
// which changed returns true. Relative paths in the result are joined
// onto the crate directory.
func resolveOptions(
	flags options,
	changed func(flag string) bool,
	getenv func(key string) string,
	log *Logger,
) (options, *config.Manifest, error) {
	o := defaultOptions()
	o.Dir = flags.Dir
	o.Verbose = flags.Verbose

	manifest, err := loadOptional(
		pathOr(flags.ManifestPath, o.Dir, config.ManifestPath),
		changed("manifest"),
		config.LoadManifest,
	)
	if err != nil {
		return options{}, nil, err
	}
	if manifest != nil {
		o.CrateName = manifest.CrateName()
		o.LibRoot = manifest.LibRoot()
	}

	conf, err := loadOptional(
		pathOr(flags.ConfigPath, o.Dir, config.DefaultPath),
		changed("config"),
		config.Load,
	)
	if err != nil {
		return options{}, nil, err
	}
	if conf != nil {
		applyConfig(&o, conf)
	}

	if err := applyEnv(&o, getenv); err != nil {
		return options{}, nil, err
	}

	applyFlags(&o, flags, changed)

	if o.CrateName == "" {
		log.Log(WARN, "no crate name configured; extern crate and use lines of the library will be copied unchanged")
	}
	if o.Stamp && manifest == nil {
		return options{}, nil, errors.New("stamp requires a Cargo.toml")
	}

	for _, p := range []*string{&o.Entry, &o.Output, &o.LibRoot} {
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(o.Dir, *p)
		}
	}
	if err := checkOutput(o); err != nil {
		return options{}, nil, err
	}
	return o, manifest, nil
}

// checkOutput rejects an output path that names one of the inputs read
// directly, since creating the output truncates it before it is read.
func checkOutput(o options) error {
	out, err := os.Stat(o.Output)
	if err != nil {
		// Created later; nothing to overwrite.
		return nil
	}
	for _, in := range []string{o.Entry, o.LibRoot} {
		fi, err := os.Stat(in)
		if err == nil && os.SameFile(out, fi) {
			return fmt.Errorf("output %v would overwrite input %v", o.Output, in)
		}
	}
	return nil
}

func pathOr(path, dir, name string) string {
	if path != "" {
		return path
	}
	return filepath.Join(dir, name)
}

// loadOptional loads the file at path. A missing file is only an error
// if it was requested explicitly.
func loadOptional[T any](path string, explicit bool, load func(string) (*T, error)) (*T, error) {
	v, err := load(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

func applyConfig(o *options, c *config.Config) {
	if c.Entry != "" {
		o.Entry = c.Entry
	}
	if c.Output != "" {
		o.Output = c.Output
	}
	if c.LibRoot != "" {
		o.LibRoot = c.LibRoot
	}
	if c.CrateName != "" {
		o.CrateName = c.CrateName
	}
	o.Exclude = append(o.Exclude, c.ExcludeModules...)
	if c.Minify != nil {
		o.Minify = *c.Minify
	}
	if c.StripComments != nil {
		o.StripComments = *c.StripComments
	}
	if c.Stamp != nil {
		o.Stamp = *c.Stamp
	}
}

func applyEnv(o *options, getenv func(string) string) error {
	for key, dst := range map[string]*string{
		envEntry:   &o.Entry,
		envOutput:  &o.Output,
		envLibRoot: &o.LibRoot,
		envCrate:   &o.CrateName,
	} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	if v := getenv(envExclude); v != "" {
		for _, mod := range strings.Split(v, ",") {
			if mod = strings.TrimSpace(mod); mod != "" {
				o.Exclude = append(o.Exclude, mod)
			}
		}
	}
	for key, dst := range map[string]*bool{
		envMinify:        &o.Minify,
		envStripComments: &o.StripComments,
		envStamp:         &o.Stamp,
	} {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%v: %w", key, err)
		}
		*dst = b
	}
	return nil
}

func applyFlags(o *options, flags options, changed func(string) bool) {
	if changed("entry") {
		o.Entry = flags.Entry
	}
	if changed("output") {
		o.Output = flags.Output
	}
	if changed("lib") {
		o.LibRoot = flags.LibRoot
	}
	if changed("crate") {
		o.CrateName = flags.CrateName
	}
	if changed("exclude") {
		o.Exclude = append(o.Exclude, flags.Exclude...)
	}
	if changed("minify") {
		o.Minify = flags.Minify
	}
	if changed("strip-comments") {
		o.StripComments = flags.StripComments
	}
	if changed("stamp") {
		o.Stamp = flags.Stamp
	}
}
