package scan

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/workshopai/workshop/pkg/cache"
	"github.com/workshopai/workshop/pkg/config"
	"github.com/workshopai/workshop/pkg/logging"
)

// FileInfo is the lightweight signature kept per scanned file. It is built
// from path heuristics and a few regex passes, not from real parsing.
type FileInfo struct {
	Path      string   `json:"path"` // relative to the project root, slash-separated
	Size      int64    `json:"size"`
	Role      string   `json:"role"`
	Namespace string   `json:"namespace,omitempty"`
	Signature []string `json:"signature,omitempty"`
}

// ProjectContext is the bounded scan result used to bias prompts.
type ProjectContext struct {
	Root      string              `json:"root"`
	Files     map[string]FileInfo `json:"files"`
	Truncated bool                `json:"truncated"`
	Elapsed   time.Duration       `json:"elapsed"`
	ScannedAt time.Time           `json:"scanned_at"`
}

// Paths returns the scanned relative paths in sorted order.
func (px *ProjectContext) Paths() []string {
	paths := make([]string, 0, len(px.Files))
	for p := range px.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// RoleCounts tallies files per detected role.
func (px *ProjectContext) RoleCounts() map[string]int {
	counts := make(map[string]int)
	for _, f := range px.Files {
		counts[f.Role]++
	}
	return counts
}

// Scanner walks a project tree and produces a ProjectContext. Results are
// cached per root; the cache key includes the scan limits so changing them
// forces a fresh walk.
type Scanner struct {
	cfg    *config.Config
	logger *logging.Logger
	cache  *cache.Cache
	now    func() time.Time // stubbed in tests to drive the walk deadline
}

// New creates a scanner. The cache may be nil to always walk.
func New(cfg *config.Config, logger *logging.Logger, c *cache.Cache) *Scanner {
	return &Scanner{cfg: cfg, logger: logger, cache: c, now: time.Now}
}

const scanCacheName = "project_scan"

func (s *Scanner) limitsHash() string {
	return cache.HashContent(strings.Join([]string{
		strings.Join(s.cfg.CodeFileExtensions, ","),
		strings.Join(s.cfg.ExcludeDirs, ","),
		strings.Join(s.cfg.ExcludePatterns, ","),
	}, "|"))
}

// Scan returns the project context for root, from cache when fresh.
func (s *Scanner) Scan(ctx context.Context, root string) (*ProjectContext, error) {
	if s.cache != nil {
		var cached ProjectContext
		if s.cache.Get(root, scanCacheName, s.limitsHash(), &cached) {
			s.logger.Logf("scan: cache hit for %s (%d files)", root, len(cached.Files))
			return &cached, nil
		}
	}

	px, err := s.walk(ctx, root)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Put(root, scanCacheName, s.limitsHash(), px, s.cfg.CacheTTL()); err != nil {
			s.logger.LogError(err)
		}
	}
	return px, nil
}

// Rebuild forces a fresh walk and refreshes the cache entry.
func (s *Scanner) Rebuild(ctx context.Context, root string) (*ProjectContext, error) {
	px, err := s.walk(ctx, root)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Put(root, scanCacheName, s.limitsHash(), px, s.cfg.CacheTTL()); err != nil {
			s.logger.LogError(err)
		}
	}
	return px, nil
}

func (s *Scanner) walk(ctx context.Context, root string) (*ProjectContext, error) {
	start := s.now()
	deadline := start.Add(s.cfg.ScanTimeout())

	px := &ProjectContext{
		Root:      root,
		Files:     make(map[string]FileInfo),
		ScannedAt: start,
	}

	rules := buildIgnoreRules(root, s.cfg)

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if s.now().After(deadline) {
			s.logger.Logf("scan: timeout after %s, keeping partial result", s.cfg.ScanTimeout())
			px.Truncated = true
			return filepath.SkipAll
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if rules.SkipDir(rel, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !hasRecognizedExtension(d.Name(), s.cfg.CodeFileExtensions) {
			return nil
		}
		if rules.SkipFile(rel) {
			return nil
		}
		if len(px.Files) >= s.cfg.MaxFilesToScan {
			px.Truncated = true
			return filepath.SkipAll
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		if info.Size() > s.cfg.FileSizeLimit {
			return nil // oversize files are skipped silently
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil // unreadable files are skipped, not reported
		}

		px.Files[rel] = FileInfo{
			Path:      rel,
			Size:      info.Size(),
			Role:      classifyRole(rel),
			Namespace: extractNamespace(rel, string(content)),
			Signature: extractSignature(rel, string(content)),
		}
		return nil
	})
	if err != nil {
		// The only error the callback returns is a cancelled context;
		// unreadable entries and timeouts are handled in place.
		return nil, err
	}

	px.Elapsed = s.now().Sub(start)
	s.logger.Logf("scan: %d files in %s (truncated=%v)", len(px.Files), px.Elapsed, px.Truncated)
	return px, nil
}

// hasRecognizedExtension matches by suffix so compound extensions like
// .blade.php work.
func hasRecognizedExtension(name string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
