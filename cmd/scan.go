package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var scanRebuild bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Show what the scanner sees in this project",
	Long: `Scans the project and prints the file inventory, role counts and the
detected architecture. Results are cached; --rebuild forces a fresh walk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newAppEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		px, det, _, err := env.projectContext(cmd.Context(), scanRebuild)
		if err != nil {
			return err
		}

		fmt.Printf("Project: %s\n", px.Root)
		fmt.Printf("Files scanned: %d", len(px.Files))
		if px.Truncated {
			fmt.Print(" (truncated by scan limits)")
		}
		fmt.Printf("\nScan took: %s\n", px.Elapsed.Round(time.Millisecond))

		counts := px.RoleCounts()
		roles := make([]string, 0, len(counts))
		for role := range counts {
			roles = append(roles, role)
		}
		sort.Strings(roles)
		fmt.Println("\nRoles:")
		for _, role := range roles {
			fmt.Printf("  %-12s %d\n", role, counts[role])
		}

		fmt.Printf("\nArchitecture: %s", det.Label)
		if det.Forced {
			fmt.Print(" (forced by configuration)")
		} else if det.Label != "none" {
			fmt.Printf(" (confidence %.2f)", det.Confidence)
		}
		fmt.Println()
		for _, ev := range det.Evidence {
			fmt.Printf("  - %s\n", ev)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanRebuild, "rebuild", false, "ignore the cache and walk the project again")
}
