package respond

import (
	"strings"
	"testing"
)

func TestCleanFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text untouched",
			input: "just some text",
			want:  "just some text",
		},
		{
			name:  "fenced block with language",
			input: "```php\n<?php echo 1;\n```",
			want:  "<?php echo 1;",
		},
		{
			name:  "fenced block without language",
			input: "```\ncode here\n```",
			want:  "code here",
		},
		{
			name:  "prose around the block",
			input: "Here is the file:\n```go\npackage main\n```\nLet me know!",
			want:  "package main",
		},
		{
			name:  "first of several blocks wins",
			input: "```js\nfirst\n```\ntext\n```js\nsecond\n```",
			want:  "first",
		},
		{
			name:  "dangling opening fence stripped",
			input: "```python\nprint(1)",
			want:  "print(1)",
		},
		{
			name:  "empty input",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanFences(tt.input); got != tt.want {
				t.Errorf("CleanFences(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanFencesKeepsInnerBackticks(t *testing.T) {
	input := "```md\nuse `inline code` here\n```"
	got := CleanFences(input)
	if got != "use `inline code` here" {
		t.Errorf("inner backticks should survive, got %q", got)
	}
}

func TestNormalizeLineEndings(t *testing.T) {
	got := NormalizeLineEndings("a\r\nb\rc\n")
	if got != "a\nb\nc\n" {
		t.Errorf("NormalizeLineEndings = %q", got)
	}
}

func TestValidate(t *testing.T) {
	if _, err := Validate(""); err == nil {
		t.Error("empty response should fail validation")
	}
	if _, err := Validate("  \n "); err == nil {
		t.Error("whitespace response should fail validation")
	}
	for _, placeholder := range []string{"null", "NULL", "No Response", "undefined", "empty response"} {
		if _, err := Validate(placeholder); err == nil {
			t.Errorf("placeholder %q should fail validation", placeholder)
		}
	}
	got, err := Validate("  real content  ")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if got != "real content" {
		t.Errorf("Validate should trim, got %q", got)
	}
}

func TestCleanForFile(t *testing.T) {
	got, err := CleanForFile("```go\npackage main\r\n```")
	if err != nil {
		t.Fatalf("CleanForFile failed: %v", err)
	}
	if got != "package main\n" {
		t.Errorf("CleanForFile = %q", got)
	}
	if !strings.HasSuffix(got, "\n") {
		t.Error("file content must end with a newline")
	}

	if _, err := CleanForFile("```\n\n```"); err == nil {
		t.Error("fence around nothing should fail validation")
	}
}
