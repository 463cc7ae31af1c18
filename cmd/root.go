package cmd

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "workshop",
	Short: "LLM-assisted coding for your project, from the terminal",
	Long: `Workshop is a command-line coding assistant. It scans your project,
detects its architectural conventions and uses that context to ground every
model request. It speaks to Ollama, OpenAI, Gemini or any compatible server.

Common commands:
  chat      - Interactive chat with project context
  generate  - Plan and generate a multi-file feature
  create    - Generate a single file
  explain   - Explain code from a file or stdin
  scan      - Show what the scanner sees in this project

Run 'workshop init' once per project to write a starter config.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "C", "", "project root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&archOverride, "arch", "", "force the architecture label instead of detecting it")
	rootCmd.PersistentFlags().BoolVarP(&skipPrompt, "yes", "y", false, "skip confirmation prompts")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(refactorCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
