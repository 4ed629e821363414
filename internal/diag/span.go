// Package diag provides the source map, spans, and diagnostic error types
// shared by every later compiler stage.
package diag

import "fmt"

// Position is a single point in a source file, 1-indexed.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Less reports whether p sorts before o.
func (p Position) Less(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

// Span is a half-open range of source text within a single file.
type Span struct {
	File  string
	Start Position
	End   Position
}

func (s Span) String() string {
	if s.File == "" {
		return s.Start.String()
	}
	return fmt.Sprintf("%s:%s", s.File, s.Start)
}

// Join returns the smallest span covering both s and o. Both must be in the
// same file; if they aren't, s is returned unchanged.
func (s Span) Join(o Span) Span {
	if s.File != o.File {
		return s
	}
	start := s.Start
	if o.Start.Less(start) {
		start = o.Start
	}
	end := s.End
	if end.Less(o.End) {
		end = o.End
	}
	return Span{File: s.File, Start: start, End: end}
}
