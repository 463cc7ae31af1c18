package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/workshopai/workshop/pkg/plan"
)

var generateCmd = &cobra.Command{
	Use:     "generate <feature description>",
	Aliases: []string{"gen", "g"},
	Short:   "Plan and generate a multi-file feature",
	Long: `Asks the model to lay out the files a feature needs, shows you the plan,
then generates each file in order. Every overwritten file keeps a .bak copy
of its previous content. A failure stops the run; files already written stay.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newAppEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		client, err := env.newClient()
		if err != nil {
			return err
		}

		request := strings.Join(args, " ")

		fmt.Println("Scanning project...")
		_, det, summary, err := env.projectContext(cmd.Context(), false)
		if err != nil {
			return err
		}
		arch := det.Label
		if arch == "none" {
			arch = ""
		}

		runner := plan.NewRunner(env.cfg, client, env.logger)

		fmt.Println("Planning feature...")
		parsed, warnings, err := runner.Plan(cmd.Context(), request, summary, arch)
		for _, w := range warnings {
			fmt.Printf("Warning: %s\n", w)
		}
		if err != nil {
			return err
		}

		fmt.Printf("\nPlan: %s\n", parsed.Feature)
		for _, f := range parsed.Files {
			fmt.Printf("  %s - %s\n", f.Path, f.Description)
		}
		if !env.confirm(fmt.Sprintf("\nGenerate %d files?", len(parsed.Files))) {
			fmt.Println("Cancelled.")
			return nil
		}

		fmt.Println("\nGenerating files...")
		report := runner.Execute(cmd.Context(), env.root, parsed, summary, arch)
		for _, res := range report.Written {
			if res.Diff != "" {
				fmt.Print(res.Diff)
			} else {
				fmt.Printf("created %s\n", res.Path)
			}
		}
		return reportOutcome(report)
	},
}

func reportOutcome(report *plan.Report) error {
	if report.Err == nil {
		fmt.Printf("\nDone: %d files written.\n", len(report.Written))
		return nil
	}
	fmt.Printf("\nGeneration stopped: %v\n", report.Err)
	if len(report.Written) > 0 {
		fmt.Printf("Written before the failure (backups kept):\n")
		for _, res := range report.Written {
			fmt.Printf("  %s\n", res.Path)
		}
	}
	if len(report.Skipped) > 0 {
		fmt.Printf("Skipped:\n")
		for _, p := range report.Skipped {
			fmt.Printf("  %s\n", p)
		}
	}
	return report.Err
}
