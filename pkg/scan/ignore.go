package scan

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/workshopai/workshop/pkg/config"
)

// defaultExcludedDirs are directories that never contain project source.
var defaultExcludedDirs = map[string]bool{
	".git": true, ".svn": true, ".hg": true,
	"node_modules": true, "vendor": true,
	"storage": true, "cache": true, "logs": true,
	"tmp": true, "temp": true,
	".idea": true, ".vscode": true,
	"build": true, "dist": true, "target": true,
	config.ConfigDirName: true,
}

// ignoreRules combines the built-in directory set, .gitignore and
// .workshop/ignore rules, and config glob patterns.
type ignoreRules struct {
	dirs     map[string]bool
	gitstyle *ignore.GitIgnore
	globs    []string
}

func buildIgnoreRules(root string, cfg *config.Config) *ignoreRules {
	dirs := make(map[string]bool, len(defaultExcludedDirs)+len(cfg.ExcludeDirs))
	for d := range defaultExcludedDirs {
		dirs[d] = true
	}
	for _, d := range cfg.ExcludeDirs {
		dirs[strings.Trim(d, "/")] = true
	}

	var lines []string
	for _, name := range []string{
		filepath.Join(root, ".gitignore"),
		filepath.Join(root, config.ConfigDirName, "ignore"),
	} {
		if content, err := os.ReadFile(name); err == nil {
			lines = append(lines, strings.Split(string(content), "\n")...)
		}
	}
	var filtered []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			filtered = append(filtered, line)
		}
	}

	return &ignoreRules{
		dirs:     dirs,
		gitstyle: ignore.CompileIgnoreLines(filtered...),
		globs:    cfg.ExcludePatterns,
	}
}

// SkipDir reports whether a directory should be pruned from the walk.
func (r *ignoreRules) SkipDir(rel, name string) bool {
	if r.dirs[name] {
		return true
	}
	if r.gitstyle.MatchesPath(rel + "/") {
		return true
	}
	return r.matchGlobs(rel)
}

// SkipFile reports whether a single file should be excluded.
func (r *ignoreRules) SkipFile(rel string) bool {
	if r.gitstyle.MatchesPath(rel) {
		return true
	}
	return r.matchGlobs(rel)
}

func (r *ignoreRules) matchGlobs(rel string) bool {
	for _, pattern := range r.globs {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
