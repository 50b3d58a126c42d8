// Package diag implements the compiler's diagnostic model: classified errors
// with a source span, and the mapping from a completed compilation's
// diagnostics to a process exit code.
//
// Formatting follows go-dws's internal/errors package (source-line-plus-
// caret rendering); the classification and exit-code pieces are new to
// joosc, since DWScript's CLI has no equivalent of Joos's fixed exit-code
// contract.
package diag

import (
	"fmt"
	"strings"

	"github.com/cs444-joos/joosc/internal/source"
)

// Kind classifies a diagnostic by which pass raised it.
type Kind int

const (
	KindLexical Kind = iota
	KindSyntactic
	KindWeeder
	KindEnvironment
	KindHierarchy
	KindType
	KindReachability
	KindDefiniteAssignment
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindLexical:
		return "lexical"
	case KindSyntactic:
		return "syntactic"
	case KindWeeder:
		return "weeder"
	case KindEnvironment:
		return "environment"
	case KindHierarchy:
		return "hierarchy"
	case KindType:
		return "type"
	case KindReachability:
		return "reachability"
	case KindDefiniteAssignment:
		return "definite-assignment"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// IsWarning reports whether diagnostics of this kind are advisory only:
// reachability warnings are reported but never stop a later pass from
// running.
func (k Kind) IsWarning() bool { return k == KindReachability }

// Error is a single classified compiler diagnostic.
type Error struct {
	Kind    Kind
	Message string
	Span    source.Span
	Source  string // the full source text of Span.Start.File, for rendering
}

func New(kind Kind, span source.Span, format string, args ...any) *Error {
	return &Error{Kind: kind, Span: span, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string { return e.Format(false) }

// Format renders the diagnostic with a source-line-and-caret, the way
// go-dws/internal/errors.CompilerError.Format does.
func (e *Error) Format(color bool) string {
	var sb strings.Builder
	pos := e.Span.Start
	if pos.File != "" {
		sb.WriteString(fmt.Sprintf("%s:%d:%d: %s error: ", pos.File, pos.Line, pos.Column, e.Kind))
	} else {
		sb.WriteString(fmt.Sprintf("%d:%d: %s error: ", pos.Line, pos.Column, e.Kind))
	}
	sb.WriteString(e.Message)

	if line := sourceLine(e.Source, pos.Line); line != "" {
		lineNumStr := fmt.Sprintf("\n%4d | ", pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(lineNumStr)-1+pos.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
	}
	return sb.String()
}

func sourceLine(src string, line int) string {
	if src == "" || line < 1 {
		return ""
	}
	lines := strings.Split(src, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// List accumulates diagnostics across a pass: within a pass, the compiler
// continues after reporting an error to surface as many independent
// failures as possible.
type List struct {
	errors []*Error
}

func (l *List) Add(e *Error) { l.errors = append(l.errors, e) }

func (l *List) Addf(kind Kind, span source.Span, format string, args ...any) {
	l.Add(New(kind, span, format, args...))
}

func (l *List) Errors() []*Error { return l.errors }

// HasErrors reports whether any diagnostic in the list is not a warning.
func (l *List) HasErrors() bool {
	for _, e := range l.errors {
		if !e.Kind.IsWarning() {
			return true
		}
	}
	return false
}

func (l *List) HasAny() bool { return len(l.errors) > 0 }

func (l *List) HasWarnings() bool {
	for _, e := range l.errors {
		if e.Kind.IsWarning() {
			return true
		}
	}
	return false
}

// Format renders every diagnostic in the list, in the go-dws multi-error
// style ("compilation failed with N error(s):").
func (l *List) Format(color bool) string {
	if len(l.errors) == 0 {
		return ""
	}
	if len(l.errors) == 1 {
		return l.errors[0].Format(color)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "compilation failed with %d error(s):\n\n", len(l.errors))
	for i, e := range l.errors {
		fmt.Fprintf(&sb, "[%d/%d] %s\n", i+1, len(l.errors), e.Format(color))
		if i < len(l.errors)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

// ExitCode maps the final diagnostics list to the process's exit status.
const (
	ExitSuccess       = 0
	ExitFrontEnd      = 42
	ExitWarning       = 43
	ExitInternalError = 13
)

func (l *List) ExitCode() int {
	switch {
	case l.HasErrors():
		return ExitFrontEnd
	case l.HasWarnings():
		return ExitWarning
	default:
		return ExitSuccess
	}
}
