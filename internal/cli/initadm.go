package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lherron/pomokan/internal/cli/appctx"
)

var initAdmCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the pomokan database",
	Long: `Initialize creates the SQLite database (and its directory) and applies
all migrations. Running it against an existing database only applies pending
migrations.`,
	Args: cobra.NoArgs,
	RunE: runInitAdm,
}

func init() {
	rootAdmCmd.AddCommand(initAdmCmd)
}

func runInitAdm(cmd *cobra.Command, args []string) error {
	pre, err := appctx.Bootstrap(cmd, appctx.Options{})
	if err != nil {
		return exitError(1, err)
	}

	dbExists := false
	if _, err := os.Stat(pre.Config.DBPath); err == nil {
		dbExists = true
	}

	app, err := appctx.Bootstrap(cmd, appctx.Options{NeedsDB: true, Migrate: true})
	if err != nil {
		return exitError(1, err)
	}
	defer app.Close()

	out := cmd.OutOrStdout()
	if !dbExists {
		fmt.Fprintf(out, "✓ Initialized new database at %s\n", app.Config.DBPath)
		return nil
	}
	ds, err := app.Store.Load()
	if err != nil {
		return exitError(1, err)
	}
	c := ds.Counts()
	fmt.Fprintf(out, "✓ Database already initialized at %s\n", app.Config.DBPath)
	fmt.Fprintf(out, "✓ Migrations applied\n")
	fmt.Fprintf(out, "  boards: %d, lists: %d, cards: %d, sessions: %d, moves: %d\n", c.Boards, c.Lists, c.Cards, c.Records, c.Moves)
	return nil
}
