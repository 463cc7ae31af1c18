package plan

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/workshopai/workshop/pkg/config"
	"github.com/workshopai/workshop/pkg/llm"
	"github.com/workshopai/workshop/pkg/logging"
	"github.com/workshopai/workshop/pkg/prompts"
	"github.com/workshopai/workshop/pkg/respond"
	"github.com/workshopai/workshop/pkg/writefile"
)

// Runner drives a full feature generation: architect the plan, then
// generate and write each planned file in order.
type Runner struct {
	cfg    *config.Config
	client llm.Client
	logger *logging.Logger
}

// Report summarizes a run. When Err is set, Written holds the files that
// made it to disk before the failure and Skipped the ones that did not.
type Report struct {
	Plan     *FeaturePlan
	Warnings []string
	Written  []*writefile.Result
	Skipped  []string
	Err      error
}

func NewRunner(cfg *config.Config, client llm.Client, logger *logging.Logger) *Runner {
	return &Runner{cfg: cfg, client: client, logger: logger}
}

// Plan asks the model to lay out the feature and parses the result. No
// files are touched; a malformed plan fails before any generation starts.
func (r *Runner) Plan(ctx context.Context, request, contextSummary, architecture string) (*FeaturePlan, []string, error) {
	prompt, err := prompts.Render(prompts.TemplateArchitect, r.cfg.PromptTemplates, prompts.PromptData{
		Request:      request,
		Context:      contextSummary,
		Architecture: architecture,
	})
	if err != nil {
		return nil, nil, err
	}

	response, err := llm.ChatWithRetry(ctx, r.client, llm.Request{
		System:   prompts.SystemMessage,
		Messages: []prompts.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("architect request failed: %w", err)
	}

	parsed, warnings, err := Parse(response)
	if err != nil {
		return nil, warnings, err
	}
	r.logger.Logf("plan: %q resolved to %d files", parsed.Feature, len(parsed.Files))
	return parsed, warnings, nil
}

// Run executes the whole pipeline under projectRoot. The first file that
// fails to generate or write aborts the remaining ones; earlier writes are
// kept along with their backups.
func (r *Runner) Run(ctx context.Context, projectRoot, request, contextSummary, architecture string) *Report {
	parsed, warnings, err := r.Plan(ctx, request, contextSummary, architecture)
	if err != nil {
		return &Report{Warnings: warnings, Err: err}
	}
	report := r.Execute(ctx, projectRoot, parsed, contextSummary, architecture)
	report.Warnings = append(warnings, report.Warnings...)
	return report
}

// Execute generates and writes the files of an already parsed plan.
func (r *Runner) Execute(ctx context.Context, projectRoot string, parsed *FeaturePlan, contextSummary, architecture string) *Report {
	report := &Report{Plan: parsed}

	for i, file := range parsed.Files {
		target, err := resolveTarget(projectRoot, file.Path)
		if err == nil {
			var res *writefile.Result
			res, err = r.generateFile(ctx, target, file, parsed.Feature, contextSummary, architecture)
			if err == nil {
				report.Written = append(report.Written, res)
				continue
			}
		}
		// The failing file is named by Err; Skipped holds only the files
		// that never got attempted.
		report.Err = fmt.Errorf("%s: %w", file.Path, err)
		for _, rest := range parsed.Files[i+1:] {
			report.Skipped = append(report.Skipped, rest.Path)
		}
		break
	}
	return report
}

func (r *Runner) generateFile(ctx context.Context, target string, file PlanFile, feature, contextSummary, architecture string) (*writefile.Result, error) {
	prompt, err := prompts.Render(prompts.TemplateCoder, r.cfg.PromptTemplates, prompts.PromptData{
		PlanFeature:     feature,
		FilePath:        file.Path,
		FileDescription: file.Description,
		Context:         contextSummary,
		Architecture:    architecture,
	})
	if err != nil {
		return nil, err
	}

	response, err := llm.ChatWithRetry(ctx, r.client, llm.Request{
		System:   prompts.SystemMessage,
		Messages: []prompts.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, err
	}

	content, err := respond.CleanForFile(response)
	if err != nil {
		return nil, err
	}

	res, err := writefile.Write(target, content)
	if err != nil {
		return nil, err
	}
	r.logger.Logf("plan: wrote %s (created=%v)", res.Path, res.Created)
	return res, nil
}

// resolveTarget joins a plan path onto the project root and rejects paths
// that would land outside it.
func resolveTarget(projectRoot, path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("plan produced an absolute path")
	}
	target := filepath.Join(projectRoot, filepath.FromSlash(path))
	rel, err := filepath.Rel(projectRoot, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("plan path escapes the project root")
	}
	return target, nil
}
