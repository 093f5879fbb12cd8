// Package bundler inlines a Rust library crate into a single source
// file, for judges and graders that only accept one file.
//
// Starting from a binary's entry file, the "extern crate <lib>;" line
// is replaced with the contents of the library root (src/lib.rs), and
// every "mod name;" declaration found there is replaced, recursively,
// with "pub mod name { ... }" wrapping the file it refers to.
// "use <lib>::path;" lines in the entry file are rewritten to
// "use path;", or dropped when the path names an inlined module or is
// a glob.
//
// The bundler works on lines, not on a syntax tree: every recognized
// declaration must sit on a single line ending with ';'.
package bundler

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"

	"github.com/refaktor/cratebundle/textutils"
)

// DefaultLibRoot is the conventional library root, relative to the
// crate directory.
const DefaultLibRoot = "src/lib.rs"

// Modules and imports that are always skipped.
const (
	testsModule = "tests"
	globImport  = "*"
)

// Longest accepted source line.
const maxLineSize = 16 * 1024 * 1024

var (
	// ErrCreateOutput is returned when the bundle file cannot be created.
	ErrCreateOutput = errors.New("create bundle")
	// ErrTraversal is returned when an input file cannot be opened or
	// read, a module file cannot be found, or the bundle cannot be
	// written. The bundle file may be left partially written.
	ErrTraversal = errors.New("bundle")
	// ErrModuleNotFound is returned, wrapped in ErrTraversal, when no
	// file exists for a declared module.
	ErrModuleNotFound = errors.New("module file not found")
	// ErrAlreadyRun is returned when a Bundler is run a second time.
	ErrAlreadyRun = errors.New("bundler already run")
)

// A Bundler inlines the library of a crate into one of its entry files.
//
// It is configured with the Set* methods and ExcludeMod, then used for
// exactly one Run or Bundle. Later calls return ErrAlreadyRun.
type Bundler struct {
	entryPath   string
	bundlePath  string
	libRootPath string

	classifier *Classifier
	// Import paths that are never written. Only grows during a run.
	skipUse map[string]struct{}
	// Modules declared in the library root that are never inlined.
	skipMod map[string]struct{}

	stripComments bool
	minify        *regexp.Regexp
	header        string

	ran bool
}

// New returns a Bundler expanding entryPath into bundlePath, with the
// library root at DefaultLibRoot.
func New(entryPath, bundlePath string) *Bundler {
	return NewWithLibRoot(entryPath, bundlePath, DefaultLibRoot)
}

// NewWithLibRoot is like New, but with a custom library root.
// Module files are looked up relative to the library root's directory.
func NewWithLibRoot(entryPath, bundlePath, libRootPath string) *Bundler {
	return &Bundler{
		entryPath:     entryPath,
		bundlePath:    bundlePath,
		libRootPath:   libRootPath,
		classifier:    NewClassifier(""),
		skipUse:       map[string]struct{}{globImport: {}},
		skipMod:       map[string]struct{}{testsModule: {}},
		stripComments: true,
	}
}

// ExcludeMod prevents the top-level module name from being inlined.
// Its declaration is dropped from the bundle.
func (b *Bundler) ExcludeMod(name string) {
	b.skipMod[name] = struct{}{}
}

// SetMinify toggles removal of leading and trailing whitespace from
// every written source line.
func (b *Bundler) SetMinify(enable bool) {
	if enable {
		b.minify = regexp.MustCompile(`^\s*(?P<contents>.*?)\s*$`)
	} else {
		b.minify = nil
	}
}

// SetStripComments toggles removal of blank lines, comment lines and
// lint attributes. It is enabled by default.
func (b *Bundler) SetStripComments(enable bool) {
	b.stripComments = enable
}

// SetCrateName sets the library name used in the entry file's
// "extern crate" and "use" declarations.
func (b *Bundler) SetCrateName(name string) {
	b.classifier = NewClassifier(name)
	Logger().Debug("crate patterns compiled",
		zap.String("crate", name),
		zap.Stringer("extern", b.classifier.externCrate),
		zap.Stringer("use", b.classifier.useCrate))
}

// SetHeader sets a line written verbatim at the top of the bundle.
// An empty header writes nothing.
func (b *Bundler) SetHeader(header string) {
	b.header = header
}

// Run creates the bundle file and writes the bundle into it.
// On ErrTraversal, the partially written file is left in place.
func (b *Bundler) Run() (err error) {
	if b.ran {
		return ErrAlreadyRun
	}
	f, err := os.Create(b.bundlePath)
	if err != nil {
		return fmt.Errorf("%w %v: %w", ErrCreateOutput, b.bundlePath, err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("%w: close %v: %w", ErrTraversal, b.bundlePath, cErr)
		}
	}()
	return b.Bundle(f)
}

// Bundle writes the bundle to w. A Bundler can only be run once,
// either by Run or by Bundle.
func (b *Bundler) Bundle(w io.Writer) error {
	if b.ran {
		return ErrAlreadyRun
	}
	b.ran = true

	bw := bufio.NewWriter(w)
	err := b.bundle(bw)
	// Whatever was produced is written out, even on failure.
	if fErr := bw.Flush(); fErr != nil && err == nil {
		err = b.writeErr(fErr)
	}
	return err
}

func (b *Bundler) bundle(w *bufio.Writer) error {
	if b.header != "" {
		if err := b.emit(w, b.header); err != nil {
			return err
		}
	}
	return b.walkEntry(w)
}

// walkEntry copies the entry file, expanding the extern crate line and
// rewriting use lines of the library.
func (b *Bundler) walkEntry(w *bufio.Writer) error {
	return b.eachLine(b.entryPath, func(line string) error {
		kind, capture := b.classifier.Classify(line)
		switch {
		case b.suppressed(kind):
			return nil
		case kind == KindExternCrate:
			return b.walkLibRoot(w)
		case kind == KindUseCrate:
			return b.rewriteUse(w, capture)
		default:
			return b.writeLine(w, line)
		}
	})
}

// walkLibRoot copies the library root, expanding its module
// declarations.
func (b *Bundler) walkLibRoot(w *bufio.Writer) error {
	return b.eachLine(b.libRootPath, func(line string) error {
		kind, capture := b.classifier.Classify(line)
		switch {
		case b.suppressed(kind):
			return nil
		case kind == KindMod:
			if _, skip := b.skipMod[capture]; skip {
				Logger().Debug("module excluded", zap.String("module", capture))
				return nil
			}
			return b.walkModule(w, capture, capture, capture)
		default:
			return b.writeLine(w, line)
		}
	})
}

// walkModule writes the module modName wrapped in "pub mod modName { }".
// modPath is the slash-separated location relative to the library
// source directory, modImport the "::"-separated import path.
func (b *Bundler) walkModule(w *bufio.Writer, modName, modPath, modImport string) error {
	f, path, err := openModule(filepath.Dir(b.libRootPath), modPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTraversal, err)
	}
	defer f.Close()

	Logger().Debug("expanding module",
		zap.String("module", modName),
		zap.String("file", path),
		zap.String("import", modImport))

	if err := b.emit(w, "pub mod "+modName+" {"); err != nil {
		return err
	}
	// Registered before the body is read, so the module's own path is
	// already elided while it is being expanded.
	b.skipUse[modImport] = struct{}{}

	err = b.scanLines(f, path, func(line string) error {
		kind, capture := b.classifier.Classify(line)
		switch {
		case b.suppressed(kind):
			return nil
		case kind == KindMod:
			// Only the literal name is checked here; ExcludeMod applies
			// to top-level modules.
			if capture == testsModule {
				return nil
			}
			return b.walkModule(w, capture, modPath+"/"+capture, modImport+"::"+capture)
		default:
			return b.writeLine(w, line)
		}
	})
	if err != nil {
		return err
	}

	return b.emit(w, "}")
}

// rewriteUse writes "use path;" unless path is to be skipped.
func (b *Bundler) rewriteUse(w *bufio.Writer, path string) error {
	if _, skip := b.skipUse[path]; skip {
		Logger().Debug("use elided", zap.String("path", path))
		return nil
	}
	return b.emit(w, "use "+path+";")
}

func (b *Bundler) suppressed(kind Kind) bool {
	return b.stripComments && (kind == KindComment || kind == KindLint)
}

// writeLine writes a line of source, minified if enabled.
func (b *Bundler) writeLine(w *bufio.Writer, line string) error {
	if b.minify != nil {
		line = b.minify.ReplaceAllString(line, "${contents}")
	}
	return b.emit(w, line)
}

// emit writes s followed by a newline.
func (b *Bundler) emit(w *bufio.Writer, s string) error {
	if _, err := w.WriteString(s); err != nil {
		return b.writeErr(err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return b.writeErr(err)
	}
	return nil
}

func (b *Bundler) writeErr(err error) error {
	return fmt.Errorf("%w: write %v: %w", ErrTraversal, b.bundlePath, err)
}

func (b *Bundler) eachLine(path string, fn func(line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTraversal, err)
	}
	defer f.Close()
	return b.scanLines(f, path, fn)
}

// scanLines calls fn for every line of r with trailing whitespace
// removed. Errors returned by fn are passed through unchanged.
func (b *Bundler) scanLines(r io.Reader, path string, fn func(line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(nil, maxLineSize)
	for sc.Scan() {
		if err := fn(textutils.TrimLineEnd(sc.Text())); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: read %v: %w", ErrTraversal, path, err)
	}
	return nil
}
