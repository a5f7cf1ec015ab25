package diagnostics

import (
	"fmt"
	"strings"
)

// ansiColor wraps s in an ANSI color code; callers gate this on whether
// stderr is a terminal (pkg/cli, via go-isatty).
func ansiColor(code, s string) string {
	return fmt.Sprintf("\x1b[%sm%s\x1b[0m", code, s)
}

// Render produces the full user-visible presentation of a diagnostic:
// "file:line:col: error: message" followed by a caret excerpt when the
// offending source line is available, then any attached detail.
func Render(e *DiagnosticError, source string, color bool) string {
	kind := "error"
	kindColor := "31" // red
	if e.Warning {
		kind = "warning"
		kindColor = "33" // yellow
	}
	if color {
		kind = ansiColor(kindColor, kind)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s: %s\n", e.Where, kind, e.Message)

	if e.Where.IsKnown() && source != "" {
		if line, ok := sourceLine(source, e.Where.Line); ok {
			b.WriteString(line)
			b.WriteString("\n")
			col := e.Where.Column
			if col < 1 {
				col = 1
			}
			b.WriteString(strings.Repeat(" ", col-1))
			caret := "^"
			if color {
				caret = ansiColor(kindColor, caret)
			}
			b.WriteString(caret)
			b.WriteString("\n")
		}
	}

	if e.Detail != "" {
		b.WriteString(e.Detail)
		b.WriteString("\n")
	}

	return b.String()
}

func sourceLine(source string, line int) (string, bool) {
	if line < 1 {
		return "", false
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return "", false
	}
	return lines[line-1], true
}
