package bundler

import (
	"regexp"
	"strings"
)

// Kind is the statement shape of a single source line.
type Kind int

const (
	KindPlain Kind = iota
	// Blank, or nothing but a line comment.
	KindComment
	// Lint-level inner attribute, e.g. #![warn(missing_docs)].
	KindLint
	// extern crate <crate>;
	KindExternCrate
	// use <crate>::<path>;
	KindUseCrate
	// mod <name>; with the body in another file.
	KindMod
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindComment:
		return "comment"
	case KindLint:
		return "lint"
	case KindExternCrate:
		return "extern-crate"
	case KindUseCrate:
		return "use-crate"
	case KindMod:
		return "mod"
	default:
		return "invalid"
	}
}

// Pattern templates use a shorthand for whitespace:
// "  " means one or more whitespace characters and
// " " means zero or more.
// {crate} is replaced by the quoted crate name.
const (
	tmplComment     = ` `
	tmplLint        = ` #!\[(?:warn|allow|deny|forbid)\(.*`
	tmplExternCrate = ` extern  crate  {crate} ; `
	tmplUseCrate    = ` use  {crate} :: (?P<path>.*?) ; `
	tmplMod         = ` (?:pub(?:\([^)]*\))?  )?mod  (?P<mod>[^\s;]+) ; `
)

// sourceLineRegexp compiles tmpl into a pattern matching a whole line
// of source. A trailing line comment is always accepted.
func sourceLineRegexp(tmpl, crateName string) *regexp.Regexp {
	expr := strings.ReplaceAll(tmpl, "  ", `\s+`)
	expr = strings.ReplaceAll(expr, " ", `\s*`)
	expr = strings.ReplaceAll(expr, "{crate}", regexp.QuoteMeta(crateName))
	return regexp.MustCompile("^" + expr + `(?://.*)?$`)
}

// Classifier sorts source lines into statement shapes. All patterns
// are compiled once on construction.
type Classifier struct {
	crateName   string
	comment     *regexp.Regexp
	lint        *regexp.Regexp
	externCrate *regexp.Regexp
	useCrate    *regexp.Regexp
	mod         *regexp.Regexp
}

// NewClassifier returns a Classifier recognizing extern crate and use
// declarations of crateName. An empty crateName is allowed; such
// declarations will then practically never match.
func NewClassifier(crateName string) *Classifier {
	return &Classifier{
		crateName:   crateName,
		comment:     sourceLineRegexp(tmplComment, crateName),
		lint:        sourceLineRegexp(tmplLint, crateName),
		externCrate: sourceLineRegexp(tmplExternCrate, crateName),
		useCrate:    sourceLineRegexp(tmplUseCrate, crateName),
		mod:         sourceLineRegexp(tmplMod, crateName),
	}
}

// CrateName returns the crate name the classifier was built for.
func (c *Classifier) CrateName() string {
	return c.crateName
}

// Classify returns the shape of line, which must not contain a line
// terminator. For KindUseCrate the captured import path is returned,
// for KindMod the module name; otherwise the capture is empty.
//
// Multi-line statements and modules with inline bodies are not
// recognized and classify as KindPlain.
func (c *Classifier) Classify(line string) (kind Kind, capture string) {
	switch {
	case c.comment.MatchString(line):
		return KindComment, ""
	case c.lint.MatchString(line):
		return KindLint, ""
	case c.externCrate.MatchString(line):
		return KindExternCrate, ""
	}
	if m := c.useCrate.FindStringSubmatch(line); m != nil {
		return KindUseCrate, m[c.useCrate.SubexpIndex("path")]
	}
	if m := c.mod.FindStringSubmatch(line); m != nil {
		return KindMod, m[c.mod.SubexpIndex("mod")]
	}
	return KindPlain, ""
}
