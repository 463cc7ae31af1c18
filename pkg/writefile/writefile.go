// Package writefile applies model-generated content to disk. Every write to
// an existing file leaves a .bak copy of the prior content next to it so a
// bad generation is always recoverable.
package writefile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const backupSuffix = ".bak"

// Result describes one completed write.
type Result struct {
	Path       string
	Created    bool
	BackupPath string
	Diff       string
}

// Write stores content at path, creating parent directories as needed.
// When the file already exists its previous content is copied to path.bak
// before being replaced.
func Write(path, content string) (*Result, error) {
	res := &Result{Path: path}

	prev, err := os.ReadFile(path)
	switch {
	case err == nil:
		backup := path + backupSuffix
		if err := os.WriteFile(backup, prev, 0644); err != nil {
			return nil, fmt.Errorf("failed to back up %s: %w", path, err)
		}
		res.BackupPath = backup
	case os.IsNotExist(err):
		res.Created = true
	default:
		return nil, fmt.Errorf("failed to read existing %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	res.Diff = Diff(path, string(prev), content)
	return res, nil
}

// Restore puts the .bak content back in place of the current file.
func Restore(path string) error {
	backup := path + backupSuffix
	prev, err := os.ReadFile(backup)
	if err != nil {
		return fmt.Errorf("no backup found for %s: %w", path, err)
	}
	if err := os.WriteFile(path, prev, 0644); err != nil {
		return fmt.Errorf("failed to restore %s: %w", path, err)
	}
	return os.Remove(backup)
}

// RemoveBackups deletes every .bak file under root and returns the paths
// removed. Hidden directories are skipped.
func RemoveBackups(root string) ([]string, error) {
	var removed []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			// The root itself may be a dot-named checkout; only nested
			// hidden directories are skipped.
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, backupSuffix) {
			if err := os.Remove(path); err == nil {
				removed = append(removed, path)
			}
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return removed, nil
}
