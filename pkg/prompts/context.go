package prompts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/workshopai/workshop/pkg/patterns"
	"github.com/workshopai/workshop/pkg/scan"
)

// DefaultContextBudget caps the context summary size in bytes. Prompts stay
// useful well below this; the cap only guards against huge projects.
const DefaultContextBudget = 8 * 1024

var titleCaser = cases.Title(language.English)

// ContextSummary renders the scanned project and the detected architecture
// into a compact text block for prompt templates. An empty scan produces an
// empty string, which templates treat as "no context".
func ContextSummary(px *scan.ProjectContext, det patterns.Detection, maxBytes int) string {
	if px == nil || len(px.Files) == 0 {
		return ""
	}
	if maxBytes <= 0 {
		maxBytes = DefaultContextBudget
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Project with %d scanned files", len(px.Files))
	if px.Truncated {
		b.WriteString(" (scan truncated)")
	}
	b.WriteString(".\n")

	if det.Label != patterns.LabelNone && det.Label != "" {
		fmt.Fprintf(&b, "Architecture: %s (confidence %.2f)\n", det.Label, det.Confidence)
		for _, e := range det.Evidence {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}

	counts := px.RoleCounts()
	roles := make([]string, 0, len(counts))
	for role := range counts {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	b.WriteString("File roles:\n")
	for _, role := range roles {
		fmt.Fprintf(&b, "  - %s: %d\n", titleCaser.String(role), counts[role])
	}

	b.WriteString("Key files:\n")
	for _, p := range px.Paths() {
		f := px.Files[p]
		line := "  - " + p
		if f.Namespace != "" {
			line += " [" + f.Namespace + "]"
		}
		if len(f.Signature) > 0 {
			line += ": " + strings.Join(f.Signature, "; ")
		}
		line += "\n"
		if b.Len()+len(line) > maxBytes {
			b.WriteString("  - ...\n")
			break
		}
		b.WriteString(line)
	}
	return b.String()
}
