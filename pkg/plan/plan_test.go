package plan

import (
	"strings"
	"testing"
)

func TestParsePlainJSON(t *testing.T) {
	response := `{"feature": "Invoices", "files": [
		{"path": "app/Models/Invoice.php", "description": "the model"},
		{"path": "app/Http/Controllers/InvoiceController.php", "description": "the controller"}
	]}`

	parsed, warnings, err := Parse(response)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if parsed.Feature != "Invoices" || len(parsed.Files) != 2 {
		t.Errorf("parsed = %+v", parsed)
	}
	if parsed.Files[0].Path != "app/Models/Invoice.php" {
		t.Errorf("order not preserved: %v", parsed.Files)
	}
}

func TestParseWithProseAndFences(t *testing.T) {
	response := "Sure! Here is the plan:\n```json\n" +
		`{"feature": "X", "files": [{"path": "a.php", "description": "d"}]}` +
		"\n```\nLet me know if you want changes."

	parsed, _, err := Parse(response)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(parsed.Files) != 1 || parsed.Files[0].Path != "a.php" {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestParseSkipsObjectsWithoutFilesKey(t *testing.T) {
	response := `{"note": "irrelevant"} {"feature": "X", "files": [{"path": "a.php"}]}`

	parsed, _, err := Parse(response)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed.Files[0].Path != "a.php" {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestParseDuplicatePathsFirstWins(t *testing.T) {
	response := `{"files": [
		{"path": "a.php", "description": "first"},
		{"path": "a.php", "description": "second"},
		{"path": "b.php", "description": "other"}
	]}`

	parsed, warnings, err := Parse(response)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(parsed.Files) != 2 {
		t.Fatalf("duplicates not removed: %v", parsed.Files)
	}
	if parsed.Files[0].Description != "first" {
		t.Error("the first duplicate must win")
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "a.php") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestParseEmptyPathSkipped(t *testing.T) {
	response := `{"files": [{"path": "  ", "description": "d"}, {"path": "ok.php"}]}`

	parsed, warnings, err := Parse(response)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(parsed.Files) != 1 || parsed.Files[0].Path != "ok.php" {
		t.Errorf("parsed = %+v", parsed)
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"no json at all", "I cannot help with that."},
		{"no files key", `{"feature": "X"}`},
		{"empty files", `{"files": []}`},
		{"malformed json", `{"files": [}`},
		{"only unusable entries", `{"files": [{"path": ""}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Parse(tt.response); err == nil {
				t.Errorf("Parse(%q) should fail", tt.response)
			}
		})
	}
}

func TestParseBracesInsideStrings(t *testing.T) {
	response := `{"feature": "X {tricky}", "files": [{"path": "a.php", "description": "uses {placeholders} and \"quotes\""}]}`

	parsed, _, err := Parse(response)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed.Feature != "X {tricky}" {
		t.Errorf("feature = %q", parsed.Feature)
	}
}
