package driver

import (
	"fmt"
	"strings"
)

// RenderSnippet formats a diagnostic with the offending source line, one
// line of context on each side, and a caret under the column when the phase
// tracked one. Output is plain text, suitable for terminals and logs.
func RenderSnippet(d Diagnostic, source string) string {
	lines := strings.Split(source, "\n")
	line := d.Line
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}

	var b strings.Builder
	b.WriteString(d.String())
	b.WriteString("\n")

	width := len(fmt.Sprintf("%d", min(line+1, len(lines))))
	writeLine := func(n int) {
		b.WriteString(fmt.Sprintf("  %*d | %s\n", width, n, lines[n-1]))
	}

	if line > 1 {
		writeLine(line - 1)
	}
	writeLine(line)
	if d.Column > 0 {
		col := d.Column
		if col > len(lines[line-1])+1 {
			col = len(lines[line-1]) + 1
		}
		b.WriteString(fmt.Sprintf("  %s | %s^\n", strings.Repeat(" ", width), strings.Repeat(" ", col-1)))
	}
	if line < len(lines) {
		writeLine(line + 1)
	}
	return b.String()
}
