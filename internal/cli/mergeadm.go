package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/id"
	"github.com/lherron/pomokan/internal/merge"
	"github.com/lherron/pomokan/internal/snapshot"
)

var mergeAdmCmd = &cobra.Command{
	Use:   "merge <local-snapshot> <incoming-snapshot>",
	Short: "Merge two snapshot files into one",
	Long: `Merge combines two snapshot files into a single referentially consistent
dataset and writes it as a new snapshot. Neither input is modified.

Entities present in both files with identical content are stored once.
Entities that share an identifier but differ are kept side by side, the
incoming one under a new identifier (for example card_a becomes card_a_2),
and every reference to it is rewritten. The move logs are interleaved by time.

Use --report to write the JSON merge report and --diff to print how the two
versions of each renamed entity differ. Use --dry-run to report without
writing the merged snapshot.`,
	Args: cobra.ExactArgs(2),
	RunE: runMergeAdm,
}

var (
	mergeOut    string
	mergeReport string
	mergeDiff   bool
	mergeDryRun bool
	mergeJSON   bool
)

func init() {
	rootAdmCmd.AddCommand(mergeAdmCmd)

	mergeAdmCmd.Flags().StringVar(&mergeOut, "out", "", "Write the merged snapshot to path (required unless --dry-run)")
	mergeAdmCmd.Flags().StringVar(&mergeReport, "report", "", "Write JSON report to path")
	mergeAdmCmd.Flags().BoolVar(&mergeDiff, "diff", false, "Print unified diffs of colliding entities")
	mergeAdmCmd.Flags().BoolVar(&mergeDryRun, "dry-run", false, "Merge and report without writing the merged snapshot")
	mergeAdmCmd.Flags().BoolVar(&mergeJSON, "json", false, "Output the report as JSON")
}

// mergeFilesResult is the outcome of merging two snapshot files
type mergeFilesResult struct {
	Local       string                   `json:"local"`
	Incoming    string                   `json:"incoming"`
	Out         string                   `json:"out,omitempty"`
	DryRun      bool                     `json:"dry_run,omitempty"`
	SnapshotRev string                   `json:"snapshot_rev"`
	Counts      domain.Counts            `json:"counts"`
	Report      *merge.Report            `json:"report"`
	Diffs       []snapshot.CollisionDiff `json:"diffs,omitempty"`
}

func runMergeAdm(cmd *cobra.Command, args []string) error {
	if mergeOut == "" && !mergeDryRun {
		return exitError(2, fmt.Errorf("output path not specified (use --out or --dry-run)"))
	}

	result, err := mergeFiles(args[0], args[1], mergeOut, mergeDryRun, mergeDiff)
	if err != nil {
		return mergeExitError(err)
	}

	if mergeReport != "" {
		if err := writeJSONFile(mergeReport, result.Report); err != nil {
			return exitError(1, err)
		}
	}

	if mergeJSON {
		return encodeJSON(cmd, result)
	}
	printMergeSummary(cmd.OutOrStdout(), result)
	if mergeReport != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Report written to %s\n", mergeReport)
	}
	return nil
}

// mergeFiles loads both snapshots, merges them and unless dryRun writes the
// merged snapshot to out.
func mergeFiles(localPath, incomingPath, out string, dryRun, withDiffs bool) (*mergeFilesResult, error) {
	local, err := loadMergeInput(localPath, id.Local)
	if err != nil {
		return nil, err
	}
	incoming, err := loadMergeInput(incomingPath, id.Incoming)
	if err != nil {
		return nil, err
	}

	merged, report, err := merge.Merge(local, incoming)
	if err != nil {
		return nil, err
	}

	result := &mergeFilesResult{
		Local:    localPath,
		Incoming: incomingPath,
		DryRun:   dryRun,
		Counts:   merged.Counts(),
		Report:   report,
	}
	if withDiffs {
		result.Diffs = snapshot.CollisionDiffs(local, incoming, report)
	}

	if dryRun {
		rev, err := snapshot.DatasetRev(merged)
		if err != nil {
			return nil, err
		}
		result.SnapshotRev = rev
		return result, nil
	}

	exp, err := snapshot.ExportDataset(merged, snapshot.ExportOptions{OutputPath: out, Canonical: true})
	if err != nil {
		return nil, err
	}
	result.Out = exp.OutputPath
	result.SnapshotRev = exp.SnapshotRev
	return result, nil
}

func loadMergeInput(path string, src id.Source) (*domain.Dataset, error) {
	ds, err := snapshot.LoadDataset(path)
	var malformed *domain.MalformedError
	if errors.As(err, &malformed) {
		return nil, &merge.MalformedInputError{Source: src, Err: err}
	}
	return ds, err
}

func printMergeSummary(out io.Writer, result *mergeFilesResult) {
	rep := result.Report
	fmt.Fprintf(out, "Merge %s + %s\n", result.Local, result.Incoming)
	if result.DryRun {
		fmt.Fprintln(out, "Mode: dry-run")
	} else {
		fmt.Fprintf(out, "✓ Wrote %s\n", result.Out)
	}
	fmt.Fprintf(out, "snapshot_rev: %s\n", result.SnapshotRev)
	for _, row := range []struct {
		name string
		c    merge.Counts
	}{
		{"Sessions", rep.Stats.Sessions},
		{"Cards", rep.Stats.Cards},
		{"Lists", rep.Stats.Lists},
		{"Boards", rep.Stats.Boards},
		{"Moves", rep.Stats.Moves},
	} {
		fmt.Fprintf(out, "%s: %d local + %d incoming -> %d (%d collapsed, %d renamed, %d cloned)\n",
			row.name, row.c.Local, row.c.Incoming, row.c.Merged, row.c.Collapsed, row.c.Renamed, row.c.Cloned)
	}
	for _, rn := range rep.Renames {
		fmt.Fprintf(out, "  %s %s: %s -> %s (%s)\n", rn.Entity, rn.Source, rn.From, rn.To, rn.Reason)
	}
	for _, d := range result.Diffs {
		fmt.Fprintf(out, "\n%s %s -> %s\n%s", d.Entity, d.ID, d.To, d.Diff)
	}
	fmt.Fprintln(out, rep.Summary())
}
