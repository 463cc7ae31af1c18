package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/workshopai/workshop/pkg/llm"
	"github.com/workshopai/workshop/pkg/prompts"
	"github.com/workshopai/workshop/pkg/respond"
	"github.com/workshopai/workshop/pkg/writefile"
)

// The selection commands operate on one file (or stdin with "-") and share
// a pipeline: read, prompt, stream, and optionally write the result back.

var selectionWrite bool

var explainCmd = &cobra.Command{
	Use:   "explain <file>",
	Short: "Explain the code in a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSelection(cmd, args[0], prompts.TemplateExplain, false)
	},
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize <file>",
	Short: "Suggest performance and clarity improvements for a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSelection(cmd, args[0], prompts.TemplateOptimize, selectionWrite)
	},
	Args: cobra.ExactArgs(1),
}

var refactorCmd = &cobra.Command{
	Use:   "refactor <file>",
	Short: "Refactor a file for readability and maintainability",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSelection(cmd, args[0], prompts.TemplateRefactor, selectionWrite)
	},
	Args: cobra.ExactArgs(1),
}

func runSelection(cmd *cobra.Command, path, template string, writeBack bool) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	client, err := env.newClient()
	if err != nil {
		return err
	}

	selection, language, err := readSelection(path)
	if err != nil {
		return err
	}
	if writeBack && (path == "" || path == "-") {
		return fmt.Errorf("--write needs a file path, not stdin")
	}

	_, det, summary, err := env.projectContext(cmd.Context(), false)
	if err != nil {
		return err
	}
	arch := det.Label
	if arch == "none" {
		arch = ""
	}

	prompt, err := prompts.Render(template, env.cfg.PromptTemplates, prompts.PromptData{
		Selection:    selection,
		Language:     language,
		FilePath:     path,
		Context:      summary,
		Architecture: arch,
	})
	if err != nil {
		return err
	}

	req := llm.Request{
		System:   prompts.SystemMessage,
		Messages: []prompts.Message{{Role: "user", Content: prompt}},
	}

	if !writeBack {
		_, err := client.ChatStream(cmd.Context(), req, func(chunk string) error {
			fmt.Print(chunk)
			return nil
		})
		fmt.Println()
		return err
	}

	response, err := llm.ChatWithRetry(cmd.Context(), client, req)
	if err != nil {
		return err
	}
	content, err := respond.CleanForFile(response)
	if err != nil {
		return err
	}

	res, err := writefile.Write(path, content)
	if err != nil {
		return err
	}
	if res.Diff != "" {
		fmt.Print(res.Diff)
	}
	if res.BackupPath != "" {
		fmt.Fprintf(os.Stdout, "updated %s (backup at %s)\n", res.Path, res.BackupPath)
	}
	return nil
}

func init() {
	optimizeCmd.Flags().BoolVarP(&selectionWrite, "write", "w", false, "write the result back to the file (keeps a .bak)")
	refactorCmd.Flags().BoolVarP(&selectionWrite, "write", "w", false, "write the result back to the file (keeps a .bak)")
}
