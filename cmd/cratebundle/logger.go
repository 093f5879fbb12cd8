package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/refaktor/cratebundle/textutils"
)

type LogLevel int

const (
	INFO  LogLevel = 0
	WARN  LogLevel = 1
	ERROR LogLevel = 2
	FATAL LogLevel = 99
)

// Logger writes human-readable diagnostics. Multi-line messages are
// indented below the level tag.
type Logger struct {
	Writer   io.Writer
	Prefix   string
	MinLevel LogLevel
	// Called after a FATAL message; os.Exit(1) if nil.
	Exit func(code int)
}

func (l *Logger) Log(level LogLevel, format string, args ...any) {
	if l.Writer != nil && level >= l.MinLevel {
		l.write(level, fmt.Sprintf(format, args...))
	}
	if level == FATAL {
		if l.Exit != nil {
			l.Exit(1)
		} else {
			os.Exit(1)
		}
	}
}

func (l *Logger) write(level LogLevel, s string) {
	var b bytes.Buffer
	if l.Prefix != "" {
		b.WriteString(l.Prefix)
		b.WriteString(" ")
	}
	switch level {
	case INFO:
		b.WriteString("INFO")
	case WARN:
		b.WriteString("WARNING")
	case ERROR:
		b.WriteString("ERROR")
	case FATAL:
		b.WriteString("FATAL")
	default:
		panic(fmt.Sprintf("invalid log level: %v", level))
	}
	b.WriteString(":")
	if strings.Contains(s, "\n") {
		b.WriteString("\n")
		s = textutils.IndentString(s, "  ", 1)
	} else {
		b.WriteString(" ")
	}
	b.WriteString(s)
	if !strings.HasSuffix(s, "\n") {
		b.WriteString("\n")
	}
	// Nothing sensible is left to report a failed diagnostic write to.
	_, _ = io.Copy(l.Writer, &b)
}
