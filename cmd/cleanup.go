package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/workshopai/workshop/pkg/writefile"
)

var cleanupKeepCache bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove .bak backup files and the scan cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newAppEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		removed, err := writefile.RemoveBackups(env.root)
		if err != nil {
			return err
		}
		for _, path := range removed {
			fmt.Printf("removed %s\n", path)
		}
		fmt.Printf("%d backup files removed.\n", len(removed))

		if !cleanupKeepCache && env.cache != nil {
			if err := env.cache.Clear(); err != nil {
				return err
			}
			fmt.Println("Cache cleared.")
		}
		return nil
	},
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupKeepCache, "keep-cache", false, "only remove backups, keep cached scans")
}
