// Package plan turns a feature request into an ordered list of files to
// generate. The plan itself comes back from the model as JSON; parsing is
// deliberately forgiving about the prose models wrap around it.
package plan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PlanFile is one file the model decided the feature needs.
type PlanFile struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

// FeaturePlan is the parsed architect response.
type FeaturePlan struct {
	Feature string     `json:"feature"`
	Files   []PlanFile `json:"files"`
}

// Parse extracts the plan JSON from a model response. The response may wrap
// the object in markdown fences or surrounding prose; the first balanced
// JSON object containing a "files" key wins. Duplicate paths keep the first
// occurrence; dropped duplicates are returned as warnings.
func Parse(response string) (*FeaturePlan, []string, error) {
	raw, err := extractJSONObject(response)
	if err != nil {
		return nil, nil, err
	}

	var parsed FeaturePlan
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, nil, fmt.Errorf("plan is not valid JSON: %w", err)
	}
	if len(parsed.Files) == 0 {
		return nil, nil, fmt.Errorf("plan contains no files")
	}

	var warnings []string
	seen := make(map[string]bool, len(parsed.Files))
	deduped := parsed.Files[:0]
	for _, f := range parsed.Files {
		path := strings.TrimSpace(f.Path)
		if path == "" {
			warnings = append(warnings, "plan entry with empty path skipped")
			continue
		}
		if seen[path] {
			warnings = append(warnings, fmt.Sprintf("duplicate plan entry for %s ignored", path))
			continue
		}
		seen[path] = true
		f.Path = path
		deduped = append(deduped, f)
	}
	parsed.Files = deduped
	if len(parsed.Files) == 0 {
		return nil, warnings, fmt.Errorf("plan contains no usable files")
	}
	return &parsed, warnings, nil
}

// extractJSONObject scans for balanced top-level braces and returns the
// first object whose body mentions a "files" key.
func extractJSONObject(s string) (string, error) {
	for start := 0; start < len(s); start++ {
		if s[start] != '{' {
			continue
		}
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(s); i++ {
			ch := s[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case ch == '\\':
					escaped = true
				case ch == '"':
					inString = false
				}
				continue
			}
			switch ch {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					candidate := s[start : i+1]
					if strings.Contains(candidate, `"files"`) {
						return candidate, nil
					}
					start = i
					i = len(s)
				}
			}
		}
	}
	return "", fmt.Errorf("no plan object found in response")
}
