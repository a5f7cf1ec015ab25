// Package diagnostics provides the compiler's user-visible error
// reporting: typed error codes, source locations, and the
// "file:line:col: error: message" rendering used at every pipeline
// boundary.
package diagnostics

import "fmt"

// Location pins a diagnostic to a source position. Lexing and parsing
// happen upstream of this package, but every AST node and IR op they
// hand off carries a Location.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// IsKnown reports whether the location carries real source coordinates.
func (l Location) IsKnown() bool {
	return l.File != ""
}
