package diagnostic

import (
	"fmt"
	"strconv"
	"strings"
)

// lineMarker is how parse error messages report their line.
const lineMarker = "Line: "

// ContextLines is how many lines Window shows on each side of the failure.
const ContextLines = 2

// ExtractLine finds the "Line: <n>," marker in a parser message. It reports
// false when the message carries no usable line.
func ExtractLine(msg string) (int, bool) {
	i := strings.Index(msg, lineMarker)
	if i < 0 {
		return 0, false
	}
	rest := msg[i+len(lineMarker):]
	end := strings.IndexByte(rest, ',')
	if end < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest[:end]))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Window renders the lines around line as "<n>\t<text>" rows joined by
// newlines. The range is clamped to the source, so a line past the end
// yields only the rows that exist, possibly none.
func Window(source string, line int) string {
	if line < 1 {
		return ""
	}
	lines := splitLines(source)
	first := max(1, line-ContextLines)
	last := min(len(lines), line+ContextLines)

	var b strings.Builder
	for n := first; n <= last; n++ {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d\t%s", n, lines[n-1])
	}
	return b.String()
}

// splitLines splits on "\n", dropping a trailing empty line and "\r".
func splitLines(source string) []string {
	if source == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(source, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
