package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/workshopai/workshop/pkg/llm"
	"github.com/workshopai/workshop/pkg/patterns"
	"github.com/workshopai/workshop/pkg/prompts"
	"github.com/workshopai/workshop/pkg/respond"
	"github.com/workshopai/workshop/pkg/writefile"
)

var (
	createFilePath string
	createKind     string
	createName     string
	createScope    string
)

var createCmd = &cobra.Command{
	Use:   "create <description>",
	Short: "Generate a single file",
	Long: `Generates one file from a description. The target path comes from --file,
or is derived from --kind and --name following the project's detected
architecture (e.g. a controller in a modular project lands under Modules/).`,
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

		target := createFilePath
		if target == "" && createKind != "" && createName != "" {
			target = patterns.TargetPath(det, createKind, createScope) + "/" + createName + ".php"
		}
		if target == "" {
			return fmt.Errorf("no target: pass --file, or --kind with --name")
		}

		arch := det.Label
		if arch == "none" {
			arch = ""
		}
		prompt, err := prompts.Render(prompts.TemplateCreate, env.cfg.PromptTemplates, prompts.PromptData{
			Request:      request,
			FilePath:     target,
			Context:      summary,
			Architecture: arch,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Generating %s...\n", target)
		response, err := llm.ChatWithRetry(cmd.Context(), client, llm.Request{
			System:   prompts.SystemMessage,
			Messages: []prompts.Message{{Role: "user", Content: prompt}},
		})
		if err != nil {
			return err
		}

		content, err := respond.CleanForFile(response)
		if err != nil {
			return err
		}

		res, err := writefile.Write(joinProject(env.root, target), content)
		if err != nil {
			return err
		}
		if res.Diff != "" {
			fmt.Print(res.Diff)
		}
		if res.Created {
			fmt.Printf("created %s\n", res.Path)
		} else {
			fmt.Printf("updated %s (backup at %s)\n", res.Path, res.BackupPath)
		}
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&createFilePath, "file", "f", "", "target file path, relative to the project root")
	createCmd.Flags().StringVarP(&createKind, "kind", "k", "", "file kind (controller, model, service, action, dto, repository)")
	createCmd.Flags().StringVarP(&createName, "name", "n", "", "class name for the generated file")
	createCmd.Flags().StringVar(&createScope, "module", "", "module or domain used to place the file")
}
