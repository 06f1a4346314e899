package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pomokan",
	Short: "Pomodoro kanban boards on a local SQLite store",
	Long: `pomokan manages kanban boards, cards and the pomodoro sessions spent on
them. Data lives in a local SQLite database; see pomokanadm for snapshots,
merging and maintenance.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to database file (overrides POMOKAN_DB_PATH)")
}
