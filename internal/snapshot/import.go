package snapshot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/merge"
	"github.com/lherron/pomokan/internal/store"
)

// Import reads a snapshot and folds it into the store. By default the
// snapshot is merged with the stored dataset; Force replaces the stored
// dataset outright. With DryRun the outcome is computed and nothing is written.
// The returned dataset is the one the store holds (or would hold) afterwards.
func Import(st *store.Store, opts ImportOptions) (*ImportResult, *domain.Dataset, error) {
	if opts.InputPath == "" {
		opts.InputPath = DefaultOutputPath
	}

	incoming, err := LoadDataset(opts.InputPath)
	if err != nil {
		return nil, nil, err
	}

	result := &ImportResult{
		InputPath: opts.InputPath,
		Mode:      ModeMerge,
		DryRun:    opts.DryRun,
	}
	if opts.Force {
		result.Mode = ModeReplace
	}

	var outcome *domain.Dataset
	_, err = st.Swap("import:"+result.Mode, func(current *domain.Dataset) (*domain.Dataset, error) {
		if opts.Force {
			outcome = incoming.Clone()
			merge.Recompute(outcome)
		} else {
			merged, report, err := merge.Merge(current, incoming)
			if err != nil {
				return nil, err
			}
			outcome = merged
			result.Report = report
		}
		if opts.DryRun {
			return nil, nil
		}
		return outcome, nil
	})
	if err != nil {
		return nil, nil, err
	}

	rev, err := DatasetRev(outcome)
	if err != nil {
		return nil, nil, err
	}
	result.SnapshotRev = rev
	result.Counts = outcome.Counts()
	return result, outcome, nil
}

// LoadSnapshot reads and parses a snapshot file, returning the raw bytes too.
func LoadSnapshot(path string) (*Snapshot, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	return &snap, data, nil
}

// LoadDataset reads a snapshot file and converts it into a validated dataset.
func LoadDataset(path string) (*domain.Dataset, error) {
	snap, _, err := LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	ds, err := snap.Dataset()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Verify checks that a snapshot file is well formed, that its recorded
// snapshot_rev matches its content and that it survives a canonical
// round-trip unchanged.
func Verify(inputPath string) (*VerifyResult, error) {
	snap, _, err := LoadSnapshot(inputPath)
	if err != nil {
		return nil, err
	}

	origRev := snap.Meta.SnapshotRev
	invalid := func(format string, args ...any) (*VerifyResult, error) {
		return &VerifyResult{
			InputPath:   inputPath,
			Valid:       false,
			SnapshotRev: origRev,
			Message:     fmt.Sprintf(format, args...),
		}, nil
	}

	if _, err := snap.Dataset(); err != nil {
		return invalid("malformed dataset: %v", err)
	}

	rev, err := ContentRev(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize snapshot: %w", err)
	}
	if origRev == "" {
		return invalid("snapshot has no snapshot_rev")
	}
	if rev != origRev {
		return invalid("snapshot_rev mismatch: recorded %s, content %s", origRev, rev)
	}

	// Clear snapshot_rev and generated_at for comparison
	bare := *snap
	bare.Meta.SnapshotRev = ""
	bare.Meta.GeneratedAt = ""
	canonicalOrig, err := CanonicalJSON(&bare)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize original: %w", err)
	}
	var reloaded Snapshot
	if err := json.Unmarshal(canonicalOrig, &reloaded); err != nil {
		return nil, fmt.Errorf("failed to parse canonicalized snapshot: %w", err)
	}
	canonicalReloaded, err := CanonicalJSON(&reloaded)
	if err != nil {
		return nil, fmt.Errorf("failed to re-canonicalize: %w", err)
	}
	if string(canonicalOrig) != string(canonicalReloaded) {
		return invalid("round-trip failed: %s", findFirstDiff(string(canonicalOrig), string(canonicalReloaded)))
	}

	return &VerifyResult{
		InputPath:   inputPath,
		Valid:       true,
		SnapshotRev: origRev,
		Message:     "snapshot is canonical",
	}, nil
}

// findFirstDiff finds the first position where two strings differ.
func findFirstDiff(a, b string) string {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	for i := 0; i < minLen; i++ {
		if a[i] != b[i] {
			start := i - 20
			if start < 0 {
				start = 0
			}
			end := i + 20
			if end > minLen {
				end = minLen
			}
			return fmt.Sprintf("at position %d: ...%s... vs ...%s...", i, a[start:end], b[start:end])
		}
	}

	if len(a) != len(b) {
		return fmt.Sprintf("length differs: %d vs %d", len(a), len(b))
	}

	return "no difference found"
}
