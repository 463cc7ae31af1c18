package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/workshopai/workshop/pkg/cache"
	"github.com/workshopai/workshop/pkg/config"
	"github.com/workshopai/workshop/pkg/llm"
	"github.com/workshopai/workshop/pkg/logging"
	"github.com/workshopai/workshop/pkg/patterns"
	"github.com/workshopai/workshop/pkg/prompts"
	"github.com/workshopai/workshop/pkg/scan"
	"github.com/workshopai/workshop/pkg/tasks"
)

// Persistent flags shared by every subcommand.
var (
	projectDir   string
	archOverride string
	skipPrompt   bool
)

// appEnv bundles the per-invocation dependencies. It is built once at the
// start of a command and closed when the command returns.
type appEnv struct {
	root    string
	cfg     *config.Config
	logger  *logging.Logger
	cache   *cache.Cache
	scanner *scan.Scanner
	manager *tasks.Manager
}

func newAppEnv() (*appEnv, error) {
	root := projectDir
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot determine working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	if archOverride != "" {
		cfg.Architecture = archOverride
	}
	if skipPrompt {
		cfg.SkipPrompt = true
	}

	logger := logging.New(filepath.Join(root, config.ConfigDirName))

	c, err := cache.Open(filepath.Join(root, config.ConfigDirName, "cache"), cfg.CacheMaxEntries)
	if err != nil {
		logger.LogError(err)
		c = nil // scanning still works without a cache
	}

	return &appEnv{
		root:    root,
		cfg:     cfg,
		logger:  logger,
		cache:   c,
		scanner: scan.New(cfg, logger, c),
		manager: tasks.NewManager(cfg.WorkerCount, logger),
	}, nil
}

func (e *appEnv) Close() {
	e.manager.Close()
	_ = e.logger.Close()
}

func (e *appEnv) newClient() (llm.Client, error) {
	return llm.NewClient(e.cfg)
}

// projectContext scans the project through the task manager so concurrent
// requests for the same root collapse into one walk, then runs detection
// and builds the prompt context summary.
func (e *appEnv) projectContext(ctx context.Context, rebuild bool) (*scan.ProjectContext, patterns.Detection, string, error) {
	kind := "scan"
	if rebuild {
		kind = "scan-rebuild"
	}
	handle, _ := e.manager.Submit(
		tasks.Key{Kind: kind, ProjectPath: e.root},
		tasks.High,
		func(taskCtx context.Context) (interface{}, error) {
			if rebuild {
				return e.scanner.Rebuild(taskCtx, e.root)
			}
			return e.scanner.Scan(taskCtx, e.root)
		},
	)
	result, err := handle.Wait(ctx)
	if err != nil {
		return nil, patterns.Detection{}, "", err
	}

	px := result.(*scan.ProjectContext)
	det := patterns.Detect(px, e.cfg.Architecture)
	summary := prompts.ContextSummary(px, det, prompts.DefaultContextBudget)
	return px, det, summary, nil
}

// confirm asks a y/n question on stdin. SkipPrompt answers yes.
func (e *appEnv) confirm(question string) bool {
	if e.cfg.SkipPrompt {
		return true
	}
	fmt.Printf("%s (y/n): ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(strings.ToLower(answer)) == "y"
}

// readSelection loads the code a selection command operates on, from a file
// argument or from stdin when the argument is empty or "-".
func readSelection(path string) (content string, language string, err error) {
	if path == "" || path == "-" {
		data, readErr := io.ReadAll(os.Stdin)
		if readErr != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", readErr)
		}
		return string(data), "", nil
	}
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", path, readErr)
	}
	return string(data), languageForPath(path), nil
}

// joinProject resolves a slash-separated project-relative path.
func joinProject(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}

func languageForPath(path string) string {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".blade.php"):
		return "Blade"
	case strings.HasSuffix(name, ".php"):
		return "PHP"
	case strings.HasSuffix(name, ".ts"), strings.HasSuffix(name, ".tsx"):
		return "TypeScript"
	case strings.HasSuffix(name, ".js"), strings.HasSuffix(name, ".jsx"):
		return "JavaScript"
	case strings.HasSuffix(name, ".vue"):
		return "Vue"
	case strings.HasSuffix(name, ".py"):
		return "Python"
	case strings.HasSuffix(name, ".go"):
		return "Go"
	default:
		return ""
	}
}
