package writefile

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	redColor   = "\x1b[31m"
	greenColor = "\x1b[32m"
	boldYellow = "\x1b[1m\x1b[33m"
	resetColor = "\x1b[0m"
)

// Diff renders a colored line diff between the old and new content of a
// file, prefixed with a one-line stats header.
func Diff(filename, oldContent, newContent string) string {
	if oldContent == newContent {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldContent, newContent, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var out strings.Builder
	out.WriteString(statsHeader(filename, diffs))
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			writePrefixed(&out, d.Text, "- ", redColor)
		case diffmatchpatch.DiffInsert:
			writePrefixed(&out, d.Text, "+ ", greenColor)
		case diffmatchpatch.DiffEqual:
			writeContext(&out, d.Text)
		}
	}
	return out.String()
}

func statsHeader(filename string, diffs []diffmatchpatch.Diff) string {
	var additions, deletions int
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			additions += len(d.Text)
		case diffmatchpatch.DiffDelete:
			deletions += len(d.Text)
		}
	}
	var out strings.Builder
	fmt.Fprintf(&out, "%s%s%s ", boldYellow, filename, resetColor)
	if additions > 0 {
		fmt.Fprintf(&out, "%s+%d%s ", greenColor, additions, resetColor)
	}
	if deletions > 0 {
		fmt.Fprintf(&out, "%s-%d%s", redColor, deletions, resetColor)
	}
	out.WriteString("\n")
	return out.String()
}

func writePrefixed(out *strings.Builder, text, prefix, color string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintf(out, "%s%s%s%s\n", color, prefix, line, resetColor)
	}
}

// writeContext keeps a single leading and trailing line of unchanged text
// so change blocks stay readable without dumping the whole file.
func writeContext(out *strings.Builder, text string) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(out, "  %s\n", lines[0])
	if len(lines) > 2 {
		out.WriteString("  ...\n")
	}
	if len(lines) > 1 {
		fmt.Fprintf(out, "  %s\n", lines[len(lines)-1])
	}
}
