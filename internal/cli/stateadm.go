package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lherron/pomokan/internal/cli/appctx"
	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/merge"
	"github.com/lherron/pomokan/internal/notify"
	"github.com/lherron/pomokan/internal/snapshot"
	"github.com/lherron/pomokan/internal/store"
)

var stateAdmCmd = &cobra.Command{
	Use:   "state",
	Short: "Manage canonical state snapshots",
	Long: `Commands for exporting, importing, and verifying canonical JSON
state snapshots of the pomokan database.

Snapshots are deterministic JSON representations of every board, list, card,
session record and move, suitable for backup and for moving data between
machines.`,
}

var stateExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the database to a canonical JSON snapshot",
	Long: `Export reads the current database and produces a canonical JSON snapshot.

Canonicalization ensures byte-for-byte identical output for the same
database state (sorted keys, no insignificant whitespace). The snapshot_rev
depends on content only, so exporting an unchanged database twice yields the
same rev.`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.DefaultOptions(), runStateExport),
}

var stateImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a snapshot into the database",
	Long: `Import reads a snapshot and merges it into the database. Entities that
exist on both sides with different content are kept side by side under new
identifiers; identical entities are stored once.

Use --force to replace the stored data with the snapshot instead of merging.
Use --dry-run to compute the outcome without writing to the database.
Configured reload webhooks are notified after a committed import.`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.DefaultOptions(), runStateImport),
}

var stateVerifyCmd = &cobra.Command{
	Use:   "verify <snapshot-file>",
	Short: "Verify a snapshot's rev and canonical form",
	Long: `Verify checks that a snapshot file is well formed, that its snapshot_rev
matches its content and that it survives a canonical round-trip.

Verification failures exit with code 4.`,
	Args: cobra.ExactArgs(1),
	RunE: runStateVerify,
}

var (
	stateExportOut         string
	stateExportNoCanonical bool
	stateExportJSON        bool

	stateImportFrom   string
	stateImportDryRun bool
	stateImportForce  bool
	stateImportReport string
	stateImportJSON   bool

	stateVerifyJSON bool
)

func init() {
	rootAdmCmd.AddCommand(stateAdmCmd)
	stateAdmCmd.AddCommand(stateExportCmd)
	stateAdmCmd.AddCommand(stateImportCmd)
	stateAdmCmd.AddCommand(stateVerifyCmd)

	stateExportCmd.Flags().StringVar(&stateExportOut, "out", snapshot.DefaultOutputPath, "Output file path")
	stateExportCmd.Flags().BoolVar(&stateExportNoCanonical, "no-canonical", false, "Disable canonicalization (pretty print)")
	stateExportCmd.Flags().BoolVar(&stateExportJSON, "json", false, "Output result as JSON")

	stateImportCmd.Flags().StringVar(&stateImportFrom, "from", snapshot.DefaultOutputPath, "Input file path")
	stateImportCmd.Flags().BoolVar(&stateImportDryRun, "dry-run", false, "Compute the outcome without writing to the database")
	stateImportCmd.Flags().BoolVar(&stateImportForce, "force", false, "Replace stored data instead of merging")
	stateImportCmd.Flags().StringVar(&stateImportReport, "report", "", "Write the JSON merge report to path")
	stateImportCmd.Flags().BoolVar(&stateImportJSON, "json", false, "Output result as JSON")

	stateVerifyCmd.Flags().BoolVar(&stateVerifyJSON, "json", false, "Output result as JSON")
}

func runStateExport(app *appctx.App, cmd *cobra.Command, args []string) error {
	result, err := snapshot.Export(app.Store, snapshot.ExportOptions{
		OutputPath: stateExportOut,
		Canonical:  !stateExportNoCanonical,
	})
	if err != nil {
		return exitError(1, fmt.Errorf("failed to export snapshot: %w", err))
	}

	if stateExportJSON {
		return encodeJSON(cmd, result)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Exported snapshot to %s\n", result.OutputPath)
	fmt.Fprintf(out, "  snapshot_rev: %s\n", result.SnapshotRev)
	printCounts(cmd, result.Counts)
	return nil
}

func runStateImport(app *appctx.App, cmd *cobra.Command, args []string) error {
	result, _, err := snapshot.Import(app.Store, snapshot.ImportOptions{
		InputPath: stateImportFrom,
		DryRun:    stateImportDryRun,
		Force:     stateImportForce,
	})
	if err != nil {
		return mergeExitError(err)
	}
	app.Debugf("import %s: mode=%s rev=%s", result.InputPath, result.Mode, result.SnapshotRev)

	if stateImportReport != "" && result.Report != nil {
		if err := writeJSONFile(stateImportReport, result.Report); err != nil {
			return exitError(1, err)
		}
	}

	if !result.DryRun {
		event := notify.EventMerged
		if result.Mode == snapshot.ModeReplace {
			event = notify.EventReplaced
		}
		app.Notifier().Notify(notify.NewPayload(event, result.SnapshotRev, result.Counts))
	}

	if stateImportJSON {
		return encodeJSON(cmd, result)
	}
	out := cmd.OutOrStdout()
	verb := "Imported"
	if result.DryRun {
		verb = "Checked"
	}
	fmt.Fprintf(out, "✓ %s snapshot from %s (%s", verb, result.InputPath, result.Mode)
	if result.DryRun {
		fmt.Fprint(out, ", dry run")
	}
	fmt.Fprintln(out, ")")
	fmt.Fprintf(out, "  snapshot_rev: %s\n", result.SnapshotRev)
	printCounts(cmd, result.Counts)
	if result.Report != nil {
		fmt.Fprintf(out, "  %s\n", result.Report.Summary())
	}
	if stateImportReport != "" && result.Report != nil {
		fmt.Fprintf(out, "✓ Report written to %s\n", stateImportReport)
	}
	return nil
}

func runStateVerify(cmd *cobra.Command, args []string) error {
	result, err := snapshot.Verify(args[0])
	if err != nil {
		return exitError(1, err)
	}

	if stateVerifyJSON {
		if err := encodeJSON(cmd, result); err != nil {
			return err
		}
	} else if result.Valid {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %s\n", result.InputPath, result.Message)
		fmt.Fprintf(cmd.OutOrStdout(), "  snapshot_rev: %s\n", result.SnapshotRev)
	}

	if !result.Valid {
		return exitError(4, fmt.Errorf("verification failed: %s", result.Message))
	}
	return nil
}

// mergeExitError maps merge and store failures to exit codes: 2 for a
// malformed input, 3 when the store is locked, 4 for dangling references.
func mergeExitError(err error) error {
	var malformed *domain.MalformedError
	var dangling *merge.DanglingReferenceError
	switch {
	case errors.As(err, &dangling):
		return exitError(4, err)
	case errors.As(err, &malformed):
		return exitError(2, err)
	case errors.Is(err, store.ErrLocked):
		return exitError(3, err)
	default:
		return exitError(1, err)
	}
}

func printCounts(cmd *cobra.Command, c domain.Counts) {
	fmt.Fprintf(cmd.OutOrStdout(), "  boards: %d, lists: %d, cards: %d, sessions: %d, moves: %d\n",
		c.Boards, c.Lists, c.Cards, c.Records, c.Moves)
}

func encodeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return exitError(1, fmt.Errorf("failed to encode result: %w", err))
	}
	return nil
}
