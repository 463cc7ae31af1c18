package scan

import (
	"path"
	"regexp"
	"strings"
)

// Role classification is path-based only. Order matters: the first match
// wins, mirroring how generated files are routed back into the tree.
var roleChecks = []struct {
	needle string
	role   string
}{
	{"controller", "controller"},
	{"model", "model"},
	{"repository", "repository"},
	{"service", "service"},
	{"middleware", "middleware"},
	{"migration", "migration"},
	{"seeder", "seeder"},
	{"test", "test"},
	{"config", "config"},
	{"route", "route"},
}

func classifyRole(rel string) string {
	lower := strings.ToLower(rel)
	if strings.HasSuffix(lower, ".blade.php") || strings.Contains(lower, "view") {
		return "view"
	}
	for _, check := range roleChecks {
		if strings.Contains(lower, check.needle) {
			return check.role
		}
	}
	return "unknown"
}

var (
	phpNamespaceRe = regexp.MustCompile(`namespace\s+([A-Za-z0-9_\\]+);`)
	phpClassRe     = regexp.MustCompile(`(?m)^\s*(?:abstract\s+|final\s+)?(class|interface|trait)\s+(\w+)(?:\s+extends\s+([A-Za-z0-9_\\]+))?`)
	jsImportRe     = regexp.MustCompile(`import\s+.*?\s+from\s+['"]([^'"]+)['"]|require\(['"]([^'"]+)['"]\)`)
	jsExportRe     = regexp.MustCompile(`(?m)^export\s+(?:default\s+)?(?:async\s+)?(?:function|class|const)\s+(\w+)`)
	goPackageRe    = regexp.MustCompile(`(?m)^package\s+(\w+)`)
	pyDefRe        = regexp.MustCompile(`(?m)^(?:class|def)\s+(\w+)`)
)

// extractNamespace pulls the declared namespace or package, when present.
func extractNamespace(rel, content string) string {
	switch {
	case strings.HasSuffix(rel, ".php"):
		if m := phpNamespaceRe.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	case strings.HasSuffix(rel, ".go"):
		if m := goPackageRe.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	}
	return ""
}

const maxSignatureLines = 8

// extractSignature collects a handful of declaration lines to give the
// prompt a sense of what the file contains.
func extractSignature(rel, content string) []string {
	var sig []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" && len(sig) < maxSignatureLines {
			sig = append(sig, s)
		}
	}

	ext := strings.ToLower(path.Ext(rel))
	switch {
	case strings.HasSuffix(rel, ".php"):
		for _, m := range phpClassRe.FindAllStringSubmatch(content, maxSignatureLines) {
			line := m[1] + " " + m[2]
			if m[3] != "" {
				line += " extends " + m[3]
			}
			add(line)
		}
	case ext == ".js" || ext == ".jsx" || ext == ".ts" || ext == ".tsx" || ext == ".vue":
		for _, m := range jsExportRe.FindAllStringSubmatch(content, maxSignatureLines) {
			add("export " + m[1])
		}
		for _, m := range jsImportRe.FindAllStringSubmatch(content, maxSignatureLines) {
			dep := m[1]
			if dep == "" {
				dep = m[2]
			}
			add("import " + dep)
		}
	case ext == ".py":
		for _, m := range pyDefRe.FindAllStringSubmatch(content, maxSignatureLines) {
			add(m[1])
		}
	case ext == ".go":
		for _, line := range strings.Split(content, "\n") {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "func ") || strings.HasPrefix(trimmed, "type ") {
				add(strings.TrimSuffix(trimmed, " {"))
			}
			if len(sig) >= maxSignatureLines {
				break
			}
		}
	}
	return sig
}
