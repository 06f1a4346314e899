package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/lherron/pomokan/internal/domain"
)

// CanonicalJSON produces a deterministic JSON encoding following JCS-like rules:
// - Sections in fixed order: meta, boards, lists, cards, records, move
// - Object keys sorted lexicographically
// - No insignificant whitespace
// - Empty collections written as {} or [], never null
func CanonicalJSON(s *Snapshot) ([]byte, error) {
	ordered := buildOrderedSnapshot(s)

	// Use a custom encoder that doesn't escape HTML and uses no indentation
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(ordered); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	// Remove trailing newline added by Encode
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}

	return result, nil
}

// ComputeSnapshotRev computes the sha256 hash of canonical JSON bytes.
// Returns "sha256:<hex>" format.
func ComputeSnapshotRev(data []byte) string {
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:])
}

// ContentRev returns the revision of a snapshot's content. generated_at and
// snapshot_rev do not take part, so two exports of the same dataset share a rev.
func ContentRev(s *Snapshot) (string, error) {
	bare := *s
	bare.Meta.SnapshotRev = ""
	bare.Meta.GeneratedAt = ""
	data, err := CanonicalJSON(&bare)
	if err != nil {
		return "", err
	}
	return ComputeSnapshotRev(data), nil
}

// DatasetRev returns the content revision of a dataset
func DatasetRev(ds *domain.Dataset) (string, error) {
	return ContentRev(FromDataset(ds))
}

// Encode stamps s with its content rev and returns the canonical bytes
func Encode(s *Snapshot) ([]byte, error) {
	rev, err := ContentRev(s)
	if err != nil {
		return nil, err
	}
	s.Meta.SnapshotRev = rev
	return CanonicalJSON(s)
}

// buildOrderedSnapshot creates an ordered map structure for canonical JSON.
func buildOrderedSnapshot(s *Snapshot) orderedMap {
	return orderedMap{
		{"meta", buildOrderedMeta(&s.Meta)},
		{"boards", buildOrderedBoards(s.Boards)},
		{"lists", buildOrderedLists(s.Lists)},
		{"cards", buildOrderedCards(s.Cards)},
		{"records", buildOrderedRecords(s.Records)},
		{"move", buildOrderedMoves(s.Move)},
	}
}

// orderedMap is a slice of key-value pairs that marshals as a JSON object
// with keys in the order they appear in the slice.
type orderedMap []keyValue

type keyValue struct {
	Key   string
	Value interface{}
}

func (om orderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, kv := range om {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyJSON, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')

		valJSON, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func buildOrderedMeta(m *Meta) orderedMap {
	result := make(orderedMap, 0, 3)

	// Fields in lexicographic order
	if m.GeneratedAt != "" {
		result = append(result, keyValue{"generated_at", m.GeneratedAt})
	}
	result = append(result, keyValue{"schema_version", m.SchemaVersion})
	if m.SnapshotRev != "" {
		result = append(result, keyValue{"snapshot_rev", m.SnapshotRev})
	}

	return result
}

func buildOrderedBoards(boards map[domain.BoardID]domain.Board) orderedMap {
	ids := make([]string, 0, len(boards))
	for id := range boards {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	result := make(orderedMap, 0, len(boards))
	for _, id := range ids {
		b := boards[domain.BoardID(id)]
		result = append(result, keyValue{id, buildOrderedBoard(&b)})
	}
	return result
}

func buildOrderedBoard(b *domain.Board) orderedMap {
	result := make(orderedMap, 0, 10)

	// Fields in lexicographic order
	result = append(result, keyValue{"_id", b.ID})
	result = append(result, keyValue{"description", b.Description})
	result = append(result, keyValue{"doneList", b.DoneList})
	if b.DueTime != 0 {
		result = append(result, keyValue{"dueTime", b.DueTime})
	}
	result = append(result, keyValue{"focusedList", b.FocusedList})
	result = append(result, keyValue{"lists", nonNil(b.Lists)})
	result = append(result, keyValue{"name", b.Name})
	if b.Pin {
		result = append(result, keyValue{"pin", true})
	}
	result = append(result, keyValue{"relatedSessions", nonNil(b.RelatedSessions)})
	result = append(result, keyValue{"spentHours", b.SpentHours})

	return result
}

func buildOrderedLists(lists map[domain.ListID]domain.List) orderedMap {
	ids := make([]string, 0, len(lists))
	for id := range lists {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	result := make(orderedMap, 0, len(lists))
	for _, id := range ids {
		l := lists[domain.ListID(id)]
		result = append(result, keyValue{id, orderedMap{
			{"_id", l.ID},
			{"cards", nonNil(l.Cards)},
			{"title", l.Title},
		}})
	}
	return result
}

func buildOrderedCards(cards map[domain.CardID]domain.Card) orderedMap {
	ids := make([]string, 0, len(cards))
	for id := range cards {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	result := make(orderedMap, 0, len(cards))
	for _, id := range ids {
		c := cards[domain.CardID(id)]
		result = append(result, keyValue{id, orderedMap{
			{"_id", c.ID},
			{"content", c.Content},
			{"sessionIds", nonNil(c.SessionIDs)},
			{"spentTimeInHour", orderedMap{
				{"actual", c.SpentTimeInHour.Actual},
				{"estimated", c.SpentTimeInHour.Estimated},
			}},
			{"title", c.Title},
		}})
	}
	return result
}

func buildOrderedRecords(records []domain.Session) []orderedMap {
	sorted := make([]domain.Session, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	result := make([]orderedMap, 0, len(sorted))
	for i := range sorted {
		result = append(result, buildOrderedSession(&sorted[i]))
	}
	return result
}

func buildOrderedSession(s *domain.Session) orderedMap {
	result := make(orderedMap, 0, 7)

	names := make([]string, 0, len(s.Apps))
	for name := range s.Apps {
		names = append(names, name)
	}
	sort.Strings(names)
	apps := make(orderedMap, 0, len(names))
	for _, name := range names {
		u := s.Apps[name]
		app := orderedMap{{"appName", u.AppName}}
		if u.ScreenStaticDuration != 0 {
			app = append(app, keyValue{"screenStaticDuration", u.ScreenStaticDuration})
		}
		app = append(app, keyValue{"spentTimeInHour", u.SpentTimeInHour})
		if len(u.TitleSpentTime) > 0 {
			// encoding/json sorts map keys
			app = append(app, keyValue{"titleSpentTime", u.TitleSpentTime})
		}
		apps = append(apps, keyValue{name, app})
	}

	// Fields in lexicographic order
	result = append(result, keyValue{"_id", s.ID})
	result = append(result, keyValue{"apps", apps})
	if s.ScreenStaticDuration != 0 {
		result = append(result, keyValue{"screenStaticDuration", s.ScreenStaticDuration})
	}
	result = append(result, keyValue{"spentTimeInHour", s.SpentTimeInHour})
	result = append(result, keyValue{"startTime", s.StartTime})
	result = append(result, keyValue{"switchTimes", s.SwitchTimes})

	return result
}

// Moves keep their chronological order
func buildOrderedMoves(moves []domain.MoveEvent) []orderedMap {
	result := make([]orderedMap, 0, len(moves))
	for _, m := range moves {
		result = append(result, orderedMap{
			{"cardId", m.CardID},
			{"fromListId", m.FromListID},
			{"time", m.Time},
			{"toListId", m.ToListID},
		})
	}
	return result
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// PrettyJSON produces human-readable indented JSON (non-canonical).
// Useful for debugging but not for deterministic comparison.
func PrettyJSON(s *Snapshot) ([]byte, error) {
	data, err := CanonicalJSON(s)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
