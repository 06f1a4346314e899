package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/snapshot"
	"github.com/lherron/pomokan/internal/testutil"
)

func writeSnapshot(t *testing.T, dir, name string, ds *domain.Dataset) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if _, err := snapshot.ExportDataset(ds, snapshot.ExportOptions{OutputPath: path, Canonical: true}); err != nil {
		t.Fatalf("failed to write snapshot %s: %v", name, err)
	}
	return path
}

func TestMergeFiles(t *testing.T) {
	dir := t.TempDir()
	local := writeSnapshot(t, dir, "local.json", testutil.Case0())
	incoming := writeSnapshot(t, dir, "incoming.json", testutil.Case0Divergent())
	out := filepath.Join(dir, "merged.json")

	result, err := mergeFiles(local, incoming, out, false, true)
	if err != nil {
		t.Fatalf("mergeFiles failed: %v", err)
	}

	if len(result.Report.Renames) != 5 {
		t.Errorf("expected 5 renames, got %d", len(result.Report.Renames))
	}
	if boards := result.Report.RenamesOf(domain.KindBoard); len(boards) != 1 || boards[0].To != "a_2" {
		t.Errorf("unexpected board renames: %+v", boards)
	}
	if result.Counts.Boards != 2 {
		t.Errorf("expected 2 boards, got %d", result.Counts.Boards)
	}
	if len(result.Diffs) != 3 {
		t.Errorf("expected 3 collision diffs, got %d", len(result.Diffs))
	}

	merged, err := snapshot.LoadDataset(out)
	if err != nil {
		t.Fatalf("merged snapshot does not load: %v", err)
	}
	if _, ok := merged.Boards["a_2"]; !ok {
		t.Error("expected incoming board renamed to a_2")
	}
	rev, err := snapshot.DatasetRev(merged)
	if err != nil {
		t.Fatalf("DatasetRev failed: %v", err)
	}
	if rev != result.SnapshotRev {
		t.Errorf("snapshot_rev = %s, file content hashes to %s", result.SnapshotRev, rev)
	}

	verify, err := snapshot.Verify(out)
	if err != nil || !verify.Valid {
		t.Errorf("merged snapshot does not verify: %v %+v", err, verify)
	}
}

func TestMergeFilesDryRun(t *testing.T) {
	dir := t.TempDir()
	local := writeSnapshot(t, dir, "local.json", testutil.Case0())
	incoming := writeSnapshot(t, dir, "incoming.json", testutil.Case0())
	out := filepath.Join(dir, "merged.json")

	result, err := mergeFiles(local, incoming, out, true, false)
	if err != nil {
		t.Fatalf("mergeFiles failed: %v", err)
	}
	if len(result.Report.Renames) != 0 {
		t.Errorf("identical inputs should not rename, got %+v", result.Report.Renames)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("dry run should not write the merged snapshot")
	}

	want, _ := snapshot.DatasetRev(testutil.Case0())
	if result.SnapshotRev != want {
		t.Errorf("merging a dataset with itself changed its rev: %s != %s", result.SnapshotRev, want)
	}
}

func TestMergeFilesMalformedInput(t *testing.T) {
	dir := t.TempDir()
	local := writeSnapshot(t, dir, "local.json", testutil.Case0())

	bad := testutil.Case0()
	bad.Cards["stray"] = domain.Card{ID: "stray", Title: "not in any list"}
	data, err := snapshot.Encode(snapshot.FromDataset(bad))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	incoming := filepath.Join(dir, "incoming.json")
	if err := os.WriteFile(incoming, data, 0644); err != nil {
		t.Fatal(err)
	}

	_, err = mergeFiles(local, incoming, filepath.Join(dir, "merged.json"), false, false)
	if err == nil {
		t.Fatal("expected malformed input error")
	}
	if !strings.Contains(err.Error(), "malformed incoming dataset") {
		t.Errorf("unexpected error: %v", err)
	}
	if code := ExitCode(mergeExitError(err)); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestPrintMergeSummary(t *testing.T) {
	dir := t.TempDir()
	local := writeSnapshot(t, dir, "local.json", testutil.Case0())
	incoming := writeSnapshot(t, dir, "incoming.json", testutil.Case0Divergent())

	result, err := mergeFiles(local, incoming, "", true, false)
	if err != nil {
		t.Fatalf("mergeFiles failed: %v", err)
	}

	var buf bytes.Buffer
	printMergeSummary(&buf, result)
	out := buf.String()
	for _, want := range []string{
		"Mode: dry-run",
		"Boards: 1 local + 1 incoming -> 2",
		"board incoming: a -> a_2",
		"5 items renamed to avoid conflicts",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
