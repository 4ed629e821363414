package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Kind identifies the category of a compile/deploy error, per spec.md §7.
type Kind string

const (
	KindLexError      Kind = "LexError"
	KindSyntaxError   Kind = "SyntaxError"
	KindImportError   Kind = "ImportError"
	KindNameError     Kind = "NameError"
	KindTypeError     Kind = "TypeError"
	KindReassignError Kind = "ReassignError"
	KindConstructor   Kind = "ConstructorError"
	KindIndexError    Kind = "IndexError"
	KindRefinement    Kind = "RefinementError"
	KindPluginError   Kind = "PluginError"
	KindExportError   Kind = "ExportError"
	KindDeployError   Kind = "DeployError"
)

// SubKind refines a Kind, e.g. ImportError(Cyclic), TypeError(Ambiguous).
type SubKind string

const (
	SubNone             SubKind = ""
	SubNotFound         SubKind = "NotFound"
	SubCyclic           SubKind = "Cyclic"
	SubVersionMismatch  SubKind = "VersionMismatch"
	SubMismatch         SubKind = "Mismatch"
	SubNotCoercible     SubKind = "NotCoercible"
	SubAmbiguous        SubKind = "Ambiguous"
	SubDuplicate        SubKind = "Duplicate"
	SubUnindexable      SubKind = "Unindexable"
	SubUser             SubKind = "User"
	SubInternal         SubKind = "Internal"
	SubCycle            SubKind = "Cycle"
	SubHandlerFailed    SubKind = "HandlerFailed"
	SubPromiseUnresolve SubKind = "PromiseUnresolved"
	SubTimeout          SubKind = "Timeout"
	SubCancelled        SubKind = "Cancelled"
)

// Error is a single diagnostic anchored at a span. Every error produced by
// any stage of the pipeline carries at least one span, per spec.md §7.
type Error struct {
	Kind    Kind
	Sub     SubKind
	Span    Span
	Message string
	Cause   error
}

func New(kind Kind, sub SubKind, span Span, format string, args ...any) *Error {
	return &Error{Kind: kind, Sub: sub, Span: span, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, sub SubKind, span Span, cause error, format string, args ...any) *Error {
	e := New(kind, sub, span, format, args...)
	e.Cause = cause
	return e
}

func (e *Error) Error() string {
	return e.Format(false)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// label renders "TypeError(Ambiguous)" or "LexError" when there's no SubKind.
func (e *Error) label() string {
	if e.Sub == SubNone {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s(%s)", e.Kind, e.Sub)
}

// Format renders the "Kind(Sub): span" header, the message and the cause (if
// any), following the teacher's internal/errors.CompilerError.Format, using
// github.com/fatih/color instead of hand-rolled ANSI escapes for the color
// path. The source line and caret are added by FormatWithSource.
func (e *Error) Format(useColor bool) string {
	var sb strings.Builder

	header := fmt.Sprintf("%s: %s", e.label(), e.Span)
	if useColor {
		sb.WriteString(color.New(color.Bold).Sprint(header))
	} else {
		sb.WriteString(header)
	}
	sb.WriteByte('\n')
	sb.WriteString(e.Message)
	if e.Cause != nil {
		sb.WriteString("\ncaused by: ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// FormatWithSource renders the error with the offending source line and a
// caret under the column, mirroring the teacher's CompilerError.Format.
func FormatWithSource(e *Error, sm *SourceMap, useColor bool) string {
	var sb strings.Builder
	sb.WriteString(e.Format(useColor))

	line := sm.Line(e.Span.File, e.Span.Start.Line)
	if line == "" {
		return sb.String()
	}
	sb.WriteByte('\n')
	prefix := fmt.Sprintf("%4d | ", e.Span.Start.Line)
	sb.WriteString(prefix)
	sb.WriteString(line)
	sb.WriteByte('\n')
	sb.WriteString(strings.Repeat(" ", len(prefix)+max(0, e.Span.Start.Column-1)))
	caret := "^"
	if useColor {
		caret = color.New(color.FgRed, color.Bold).Sprint("^")
	}
	sb.WriteString(caret)
	return sb.String()
}
