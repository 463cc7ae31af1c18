// Package respond cleans model output before it is displayed or written to
// disk: fence stripping, line-ending normalization and emptiness checks.
package respond

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedBlockRe   = regexp.MustCompile("(?s)```[a-zA-Z0-9+.-]*[ \t]*\r?\n?(.*?)```")
	openingFenceRe  = regexp.MustCompile("(?m)^```[a-zA-Z0-9+.-]*[ \t]*\r?\n?")
	closingFenceRe  = regexp.MustCompile("\r?\n?```[ \t]*$")
	danglingFenceRe = regexp.MustCompile("(?m)^```[ \t]*$")
)

// CleanFences extracts the first fenced code block when one exists,
// otherwise strips any dangling fence markers. The result is trimmed.
func CleanFences(content string) string {
	cleaned := strings.TrimSpace(content)
	if cleaned == "" {
		return cleaned
	}

	if m := fencedBlockRe.FindStringSubmatch(cleaned); m != nil {
		return strings.TrimSpace(m[1])
	}

	cleaned = openingFenceRe.ReplaceAllString(cleaned, "")
	cleaned = closingFenceRe.ReplaceAllString(cleaned, "")
	cleaned = danglingFenceRe.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// NormalizeLineEndings converts CRLF and lone CR to LF.
func NormalizeLineEndings(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n")
}

// emptyIndicators are literal responses some models produce instead of
// actual content.
var emptyIndicators = map[string]bool{
	"no response":    true,
	"empty response": true,
	"null":           true,
	"undefined":      true,
}

// Validate rejects empty or placeholder responses and returns the trimmed
// content otherwise.
func Validate(content string) (string, error) {
	cleaned := strings.TrimSpace(content)
	if cleaned == "" {
		return "", fmt.Errorf("model returned an empty response")
	}
	if emptyIndicators[strings.ToLower(cleaned)] {
		return "", fmt.Errorf("model returned a placeholder response: %q", cleaned)
	}
	return cleaned, nil
}

// CleanForFile prepares model output for a file write: fence cleaning,
// normalization, validation, and a trailing newline.
func CleanForFile(content string) (string, error) {
	cleaned, err := Validate(CleanFences(content))
	if err != nil {
		return "", err
	}
	return NormalizeLineEndings(cleaned) + "\n", nil
}
