package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/store"
)

// Export reads the store and writes a canonical snapshot.
func Export(st *store.Store, opts ExportOptions) (*ExportResult, error) {
	ds, err := st.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}
	return ExportDataset(ds, opts)
}

// ExportDataset writes ds as a snapshot file.
func ExportDataset(ds *domain.Dataset, opts ExportOptions) (*ExportResult, error) {
	if opts.OutputPath == "" {
		opts.OutputPath = DefaultOutputPath
	}

	snap := FromDataset(ds)
	snapshotRev, err := ContentRev(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to generate canonical JSON: %w", err)
	}
	snap.Meta.SnapshotRev = snapshotRev
	snap.Meta.GeneratedAt = FormatTimestamp(time.Now())

	var data []byte
	if opts.Canonical {
		data, err = CanonicalJSON(snap)
	} else {
		data, err = PrettyJSON(snap)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate JSON: %w", err)
	}

	if err := WriteFile(opts.OutputPath, data); err != nil {
		return nil, err
	}

	return &ExportResult{
		OutputPath:  opts.OutputPath,
		SnapshotRev: snapshotRev,
		Counts:      ds.Counts(),
	}, nil
}

// WriteFile writes data to path through a temporary file and a rename, so a
// reader never observes a partially written snapshot.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
