package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lherron/pomokan/internal/db"
	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/merge"
	"github.com/lherron/pomokan/internal/store"
	"github.com/lherron/pomokan/internal/testutil"
)

func newStore(t *testing.T, ds *domain.Dataset) *store.Store {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate())
	t.Cleanup(func() { database.Close() })
	st := store.New(database)
	if ds != nil {
		require.NoError(t, st.Replace(ds, "test"))
	}
	return st
}

func rev(t *testing.T, ds *domain.Dataset) string {
	t.Helper()
	r, err := DatasetRev(ds)
	require.NoError(t, err)
	return r
}

func TestCanonicalJSON_Empty(t *testing.T) {
	data, err := CanonicalJSON(FromDataset(domain.NewDataset()))
	require.NoError(t, err)
	assert.Equal(t, `{"meta":{"schema_version":1},"boards":{},"lists":{},"cards":{},"records":[],"move":[]}`, string(data))
}

func TestCanonicalJSON_FieldOrder(t *testing.T) {
	data, err := CanonicalJSON(FromDataset(testutil.Case0()))
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"boards":{"a":{"_id":"a","description":"a","doneList":"done","focusedList":"focused","lists":["done","focused"],"name":"a","relatedSessions":["sess0"],"spentHours":10}}`)
	assert.Contains(t, s, `"focused":{"_id":"focused","cards":[],"title":"focused"}`)
	assert.Contains(t, s, `"card_a":{"_id":"card_a","content":"card","sessionIds":["sess0"],"spentTimeInHour":{"actual":10,"estimated":100},"title":"card"}`)
	assert.Contains(t, s, `"records":[{"_id":"sess0","apps":{},"spentTimeInHour":10,"startTime":123123,"switchTimes":100}]`)
	assert.True(t, strings.HasSuffix(s, `"move":[]}`))
}

func TestCanonicalJSON_NilAndEmptyAgree(t *testing.T) {
	a := testutil.Case0()
	b := testutil.Case0()
	l := b.Lists["focused"]
	l.Cards = nil
	b.Lists["focused"] = l
	b.Moves = []domain.MoveEvent{}

	assert.Equal(t, rev(t, a), rev(t, b))
}

func TestContentRev_IgnoresMetadata(t *testing.T) {
	snap := FromDataset(testutil.Workspace())
	before, err := ContentRev(snap)
	require.NoError(t, err)

	snap.Meta.GeneratedAt = "2026-01-02T03:04:05Z"
	snap.Meta.SnapshotRev = "sha256:stale"
	after, err := ContentRev(snap)
	require.NoError(t, err)

	assert.Equal(t, before, after)
	assert.True(t, strings.HasPrefix(before, "sha256:"))
	assert.NotEqual(t, before, rev(t, testutil.Case0()))
}

func TestSnapshot_DatasetRejectsDuplicateRecords(t *testing.T) {
	snap := FromDataset(testutil.Case0())
	snap.Records = append(snap.Records, snap.Records[0])

	_, err := snap.Dataset()
	var me *domain.MalformedError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, domain.KindSession, me.Entity)
}

func TestSnapshot_DatasetRejectsNewerSchema(t *testing.T) {
	snap := FromDataset(testutil.Case0())
	snap.Meta.SchemaVersion = SchemaVersion + 1
	_, err := snap.Dataset()
	assert.Error(t, err)
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := newStore(t, testutil.Workspace())
	path := filepath.Join(t.TempDir(), "out", "state.json")

	exp, err := Export(src, ExportOptions{OutputPath: path, Canonical: true})
	require.NoError(t, err)
	assert.Equal(t, testutil.Workspace().Counts(), exp.Counts)
	assert.Equal(t, rev(t, testutil.Workspace()), exp.SnapshotRev)
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file left behind")

	dst := newStore(t, nil)
	imp, _, err := Import(dst, ImportOptions{InputPath: path, Force: true})
	require.NoError(t, err)
	assert.Equal(t, ModeReplace, imp.Mode)
	assert.Equal(t, exp.SnapshotRev, imp.SnapshotRev)

	loaded, err := dst.Load()
	require.NoError(t, err)
	assert.Equal(t, exp.SnapshotRev, rev(t, loaded))
}

func TestExport_StableRev(t *testing.T) {
	st := newStore(t, testutil.Workspace())
	dir := t.TempDir()

	first, err := Export(st, ExportOptions{OutputPath: filepath.Join(dir, "a.json"), Canonical: true})
	require.NoError(t, err)
	second, err := Export(st, ExportOptions{OutputPath: filepath.Join(dir, "b.json"), Canonical: false})
	require.NoError(t, err)

	assert.Equal(t, first.SnapshotRev, second.SnapshotRev)
}

func TestImport_MergesByDefault(t *testing.T) {
	st := newStore(t, testutil.Case0())
	path := filepath.Join(t.TempDir(), "incoming.json")
	_, err := ExportDataset(testutil.Case0Divergent(), ExportOptions{OutputPath: path, Canonical: true})
	require.NoError(t, err)

	res, merged, err := Import(st, ImportOptions{InputPath: path})
	require.NoError(t, err)
	assert.Equal(t, ModeMerge, res.Mode)
	require.NotNil(t, res.Report)
	assert.Len(t, res.Report.Renames, 5)
	assert.ElementsMatch(t, []domain.BoardID{"a", "a_2"}, merged.BoardIDs())

	loaded, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, rev(t, merged), rev(t, loaded))
	assert.Equal(t, res.SnapshotRev, rev(t, loaded))
}

func TestImport_DryRunLeavesStore(t *testing.T) {
	st := newStore(t, testutil.Case0())
	path := filepath.Join(t.TempDir(), "incoming.json")
	_, err := ExportDataset(testutil.Workspace(), ExportOptions{OutputPath: path, Canonical: true})
	require.NoError(t, err)

	res, merged, err := Import(st, ImportOptions{InputPath: path, DryRun: true})
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Len(t, merged.Boards, 3)

	loaded, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, rev(t, testutil.Case0()), rev(t, loaded))
}

func TestImport_RejectsMalformed(t *testing.T) {
	st := newStore(t, testutil.Case0())
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "bad.json", `{"meta":{"schema_version":1},"boards":{},"lists":{"l":{"_id":"l","title":"x","cards":[]}},"cards":{},"records":[],"move":[]}`)

	_, _, err := Import(st, ImportOptions{InputPath: path})
	var me *domain.MalformedError
	assert.ErrorAs(t, err, &me)

	loaded, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, rev(t, testutil.Case0()), rev(t, loaded))
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	_, err := ExportDataset(testutil.Workspace(), ExportOptions{OutputPath: path, Canonical: true})
	require.NoError(t, err)

	res, err := Verify(path)
	require.NoError(t, err)
	assert.True(t, res.Valid, res.Message)

	data := testutil.ReadFile(t, path)
	tampered := strings.Replace(data, `"title":"write docs"`, `"title":"write more docs"`, 1)
	require.NotEqual(t, data, tampered)
	bad := testutil.WriteFile(t, dir, "tampered.json", tampered)

	res, err = Verify(bad)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Message, "snapshot_rev mismatch")
}

func TestCollisionDiffs(t *testing.T) {
	local, incoming := testutil.Case0(), testutil.Case0Divergent()
	_, report, err := merge.Merge(local, incoming)
	require.NoError(t, err)

	diffs := CollisionDiffs(local, incoming, report)
	require.Len(t, diffs, 3)

	kinds := make([]domain.EntityKind, 0, len(diffs))
	for _, d := range diffs {
		kinds = append(kinds, d.Entity)
		assert.Contains(t, d.Diff, "--- local/"+d.ID)
		assert.Contains(t, d.Diff, "+++ incoming/"+d.ID)
	}
	assert.Equal(t, []domain.EntityKind{domain.KindSession, domain.KindCard, domain.KindBoard}, kinds)
	assert.Contains(t, diffs[2].Diff, `+  "name": "b",`)
	assert.Equal(t, "a_2", diffs[2].To)

	assert.Nil(t, CollisionDiffs(local, incoming, nil))
}
