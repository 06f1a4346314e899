// Package snapshot provides canonical JSON state snapshots for pomokan.
//
// A snapshot is the file form of a complete dataset: boards, lists and cards
// keyed by id, session records and the move log as arrays. The canonical
// encoding is deterministic so identical datasets produce identical bytes and
// the same snapshot_rev.
package snapshot

import (
	"fmt"
	"time"

	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/merge"
)

// SchemaVersion is the current snapshot layout version
const SchemaVersion = 1

// Snapshot represents the complete canonical state of a pomokan store.
type Snapshot struct {
	Meta    Meta                             `json:"meta"`
	Boards  map[domain.BoardID]domain.Board `json:"boards"`
	Lists   map[domain.ListID]domain.List   `json:"lists"`
	Cards   map[domain.CardID]domain.Card   `json:"cards"`
	Records []domain.Session                `json:"records"`
	Move    []domain.MoveEvent              `json:"move"`
}

// Meta contains snapshot metadata.
type Meta struct {
	SchemaVersion int    `json:"schema_version"`
	SnapshotRev   string `json:"snapshot_rev,omitempty"`
	GeneratedAt   string `json:"generated_at,omitempty"`
}

// ExportOptions configures snapshot export behavior.
type ExportOptions struct {
	// OutputPath is the file to write to (default: .pomokan/state.json)
	OutputPath string
	// Canonical enables canonical encoding (default: true)
	Canonical bool
}

// ImportOptions configures snapshot import behavior.
type ImportOptions struct {
	// InputPath is the file to read from (default: .pomokan/state.json)
	InputPath string
	// DryRun computes the outcome without writing
	DryRun bool
	// Force replaces the stored dataset instead of merging into it
	Force bool
}

// ExportResult contains the result of an export operation.
type ExportResult struct {
	OutputPath  string        `json:"out"`
	SnapshotRev string        `json:"snapshot_rev"`
	Counts      domain.Counts `json:"counts"`
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	InputPath   string        `json:"from"`
	SnapshotRev string        `json:"snapshot_rev"`
	Mode        string        `json:"mode"`
	Counts      domain.Counts `json:"counts"`
	DryRun      bool          `json:"dry_run,omitempty"`
	Report      *merge.Report `json:"report,omitempty"`
}

// VerifyResult contains the result of a verify operation.
type VerifyResult struct {
	InputPath   string `json:"input"`
	Valid       bool   `json:"valid"`
	SnapshotRev string `json:"snapshot_rev"`
	Message     string `json:"message,omitempty"`
}

// Import modes
const (
	ModeMerge   = "merge"
	ModeReplace = "replace"
)

// DefaultOutputPath is the default snapshot file location.
const DefaultOutputPath = ".pomokan/state.json"

// FormatTimestamp formats a time.Time as ISO-8601 with Z suffix.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// FromDataset builds a snapshot of ds. Records are ordered by id.
func FromDataset(ds *domain.Dataset) *Snapshot {
	snap := &Snapshot{
		Meta:    Meta{SchemaVersion: SchemaVersion},
		Boards:  ds.Boards,
		Lists:   ds.Lists,
		Cards:   ds.Cards,
		Records: make([]domain.Session, 0, len(ds.Records)),
		Move:    ds.Moves,
	}
	for _, sid := range ds.SessionIDs() {
		snap.Records = append(snap.Records, ds.Records[sid])
	}
	return snap
}

// Dataset converts the snapshot back into a dataset. The result is validated
// against the dataset shape invariants.
func (s *Snapshot) Dataset() (*domain.Dataset, error) {
	if s.Meta.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("unsupported snapshot schema_version %d (max %d)", s.Meta.SchemaVersion, SchemaVersion)
	}
	ds := domain.NewDataset()
	for k, b := range s.Boards {
		ds.Boards[k] = b
	}
	for k, l := range s.Lists {
		ds.Lists[k] = l
	}
	for k, c := range s.Cards {
		ds.Cards[k] = c
	}
	for _, r := range s.Records {
		if _, dup := ds.Records[r.ID]; dup {
			return nil, &domain.MalformedError{Entity: domain.KindSession, ID: string(r.ID), Field: "_id", Reason: "duplicate record"}
		}
		ds.Records[r.ID] = r
	}
	ds.Moves = s.Move
	if err := domain.Validate(ds); err != nil {
		return nil, err
	}
	return ds.Clone(), nil
}
