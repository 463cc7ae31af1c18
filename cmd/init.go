package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/workshopai/workshop/pkg/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config to .workshop/config.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		root := projectDir
		if root == "" {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			root = wd
		}

		path := filepath.Join(root, config.ConfigDirName, config.ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}

		cfg := config.Default()
		if err := cfg.Save(root); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		fmt.Println("Edit it to pick your provider, or set OPENAI_API_KEY / GEMINI_API_KEY.")
		return nil
	},
}
