package cli

import (
	"github.com/spf13/cobra"
)

var rootAdmCmd = &cobra.Command{
	Use:   "pomokanadm",
	Short: "Administrative CLI for pomokan databases and snapshots",
	Long: `pomokanadm is the administrative companion to pomokan. It handles database
lifecycle (init, migrate), snapshot export and import, merging two datasets
and health checks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteAdmin runs the admin root command
func ExecuteAdmin() error {
	return rootAdmCmd.Execute()
}

func init() {
	rootAdmCmd.PersistentFlags().String("db", "", "Path to database file (overrides POMOKAN_DB_PATH)")
}
