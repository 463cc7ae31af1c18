package writefile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteCreatesNewFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "app", "Models", "User.php")

	res, err := Write(target, "<?php class User {}\n")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !res.Created {
		t.Error("expected Created for a new file")
	}
	if res.BackupPath != "" {
		t.Error("new files must not produce backups")
	}

	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "<?php class User {}\n" {
		t.Errorf("content = %q", content)
	}
}

func TestWriteBacksUpExistingContent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "file.php")
	if err := os.WriteFile(target, []byte("original"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := Write(target, "replacement")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if res.Created {
		t.Error("existing file must not report Created")
	}
	if res.BackupPath != target+".bak" {
		t.Errorf("backup path = %q", res.BackupPath)
	}

	// The backup holds the pre-write content, byte for byte.
	backup, err := os.ReadFile(res.BackupPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(backup) != "original" {
		t.Errorf("backup = %q, want original content", backup)
	}

	current, _ := os.ReadFile(target)
	if string(current) != "replacement" {
		t.Errorf("target = %q", current)
	}
	if res.Diff == "" {
		t.Error("a changed file should produce a diff")
	}
}

func TestWriteUnchangedContentHasEmptyDiff(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "same.php")
	if err := os.WriteFile(target, []byte("stable"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := Write(target, "stable")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if res.Diff != "" {
		t.Errorf("identical content should diff empty, got %q", res.Diff)
	}
}

func TestRestore(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "file.php")
	_ = os.WriteFile(target, []byte("v1"), 0644)
	if _, err := Write(target, "v2"); err != nil {
		t.Fatal(err)
	}

	if err := Restore(target); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	content, _ := os.ReadFile(target)
	if string(content) != "v1" {
		t.Errorf("restored content = %q", content)
	}
	if _, err := os.Stat(target + ".bak"); !os.IsNotExist(err) {
		t.Error("backup should be consumed by restore")
	}

	if err := Restore(target); err == nil {
		t.Error("restore without a backup must fail")
	}
}

func TestRemoveBackups(t *testing.T) {
	dir := t.TempDir()
	_ = os.MkdirAll(filepath.Join(dir, "app"), 0755)
	_ = os.MkdirAll(filepath.Join(dir, ".workshop"), 0755)
	_ = os.WriteFile(filepath.Join(dir, "a.php.bak"), []byte("x"), 0644)
	_ = os.WriteFile(filepath.Join(dir, "app", "b.php.bak"), []byte("x"), 0644)
	_ = os.WriteFile(filepath.Join(dir, "app", "keep.php"), []byte("x"), 0644)
	_ = os.WriteFile(filepath.Join(dir, ".workshop", "hidden.bak"), []byte("x"), 0644)

	removed, err := RemoveBackups(dir)
	if err != nil {
		t.Fatalf("RemoveBackups failed: %v", err)
	}
	if len(removed) != 2 {
		t.Errorf("removed = %v", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "app", "keep.php")); err != nil {
		t.Error("non-backup files must survive")
	}
	if _, err := os.Stat(filepath.Join(dir, ".workshop", "hidden.bak")); err != nil {
		t.Error("hidden directories are left alone")
	}
}

func TestRemoveBackupsInDotNamedRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".project")
	_ = os.MkdirAll(filepath.Join(root, ".workshop"), 0755)
	_ = os.WriteFile(filepath.Join(root, "old.php.bak"), []byte("x"), 0644)
	_ = os.WriteFile(filepath.Join(root, ".workshop", "hidden.bak"), []byte("x"), 0644)

	removed, err := RemoveBackups(root)
	if err != nil {
		t.Fatalf("RemoveBackups failed: %v", err)
	}
	if len(removed) != 1 {
		t.Errorf("removed = %v, want old.php.bak only", removed)
	}
	if _, err := os.Stat(filepath.Join(root, "old.php.bak")); !os.IsNotExist(err) {
		t.Error("backup in a dot-named root must be removed")
	}
	if _, err := os.Stat(filepath.Join(root, ".workshop", "hidden.bak")); err != nil {
		t.Error("nested hidden directories are still left alone")
	}
}

func TestDiffOutput(t *testing.T) {
	diff := Diff("file.php", "line one\nline two\n", "line one\nline 2\n")
	if !strings.Contains(diff, "file.php") {
		t.Error("diff header should name the file")
	}
	if !strings.Contains(diff, "+") || !strings.Contains(diff, "-") {
		t.Errorf("diff should mark additions and deletions:\n%s", diff)
	}
	if Diff("x", "same", "same") != "" {
		t.Error("equal content should produce no diff")
	}
}
