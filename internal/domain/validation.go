package domain

import (
	"fmt"
	"sort"
)

// MalformedError describes the first shape violation found in a dataset
type MalformedError struct {
	Entity EntityKind
	ID     string
	Field  string
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s %q: %s", e.Entity, e.ID, e.Reason)
	}
	return fmt.Sprintf("%s %q field %s: %s", e.Entity, e.ID, e.Field, e.Reason)
}

func malformed(kind EntityKind, id, field, format string, args ...any) error {
	return &MalformedError{Entity: kind, ID: id, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the shape invariants of a single dataset: keys agree with
// entity ids, hours are non-negative, every reference resolves, a card sits in
// exactly one list, a list sits on exactly one board, and moves reference
// known cards and lists. Entities are visited in sorted order so the reported
// violation is deterministic.
func Validate(d *Dataset) error {
	for _, sid := range d.SessionIDs() {
		s := d.Records[sid]
		if s.ID != sid {
			return malformed(KindSession, string(sid), "_id", "key does not match id %q", s.ID)
		}
		if s.SpentTimeInHour < 0 {
			return malformed(KindSession, string(sid), "spentTimeInHour", "negative time %v", s.SpentTimeInHour)
		}
	}

	for _, cid := range d.CardIDs() {
		c := d.Cards[cid]
		if c.ID != cid {
			return malformed(KindCard, string(cid), "_id", "key does not match id %q", c.ID)
		}
		if c.SpentTimeInHour.Actual < 0 || c.SpentTimeInHour.Estimated < 0 {
			return malformed(KindCard, string(cid), "spentTimeInHour", "negative time")
		}
		seen := make(map[SessionID]bool, len(c.SessionIDs))
		for _, sid := range c.SessionIDs {
			if seen[sid] {
				return malformed(KindCard, string(cid), "sessionIds", "duplicate session %q", sid)
			}
			seen[sid] = true
			if _, ok := d.Records[sid]; !ok {
				return malformed(KindCard, string(cid), "sessionIds", "unknown session %q", sid)
			}
		}
	}

	cardOwner := make(map[CardID]ListID, len(d.Cards))
	for _, lid := range d.ListIDs() {
		l := d.Lists[lid]
		if l.ID != lid {
			return malformed(KindList, string(lid), "_id", "key does not match id %q", l.ID)
		}
		for _, cid := range l.Cards {
			if _, ok := d.Cards[cid]; !ok {
				return malformed(KindList, string(lid), "cards", "unknown card %q", cid)
			}
			if owner, ok := cardOwner[cid]; ok {
				return malformed(KindList, string(lid), "cards", "card %q already belongs to list %q", cid, owner)
			}
			cardOwner[cid] = lid
		}
	}
	for _, cid := range d.CardIDs() {
		if _, ok := cardOwner[cid]; !ok {
			return malformed(KindCard, string(cid), "", "card is not in any list")
		}
	}

	listOwner := make(map[ListID]BoardID, len(d.Lists))
	for _, bid := range d.BoardIDs() {
		b := d.Boards[bid]
		if b.ID != bid {
			return malformed(KindBoard, string(bid), "_id", "key does not match id %q", b.ID)
		}
		if b.SpentHours < 0 {
			return malformed(KindBoard, string(bid), "spentHours", "negative time %v", b.SpentHours)
		}
		members := make(map[ListID]bool, len(b.Lists))
		for _, lid := range b.Lists {
			if _, ok := d.Lists[lid]; !ok {
				return malformed(KindBoard, string(bid), "lists", "unknown list %q", lid)
			}
			if owner, ok := listOwner[lid]; ok {
				return malformed(KindBoard, string(bid), "lists", "list %q already belongs to board %q", lid, owner)
			}
			listOwner[lid] = bid
			members[lid] = true
		}
		if b.DoneList != "" && !members[b.DoneList] {
			return malformed(KindBoard, string(bid), "doneList", "list %q is not on the board", b.DoneList)
		}
		if b.FocusedList != "" && !members[b.FocusedList] {
			return malformed(KindBoard, string(bid), "focusedList", "list %q is not on the board", b.FocusedList)
		}
		related := make(map[SessionID]bool, len(b.RelatedSessions))
		for _, sid := range b.RelatedSessions {
			if related[sid] {
				return malformed(KindBoard, string(bid), "relatedSessions", "duplicate session %q", sid)
			}
			related[sid] = true
			if _, ok := d.Records[sid]; !ok {
				return malformed(KindBoard, string(bid), "relatedSessions", "unknown session %q", sid)
			}
		}
	}
	for _, lid := range d.ListIDs() {
		if _, ok := listOwner[lid]; !ok {
			return malformed(KindList, string(lid), "", "list has no corresponding board")
		}
	}

	for i, m := range d.Moves {
		key := fmt.Sprintf("#%d", i)
		if _, ok := d.Cards[m.CardID]; !ok {
			return malformed(KindMove, key, "cardId", "unknown card %q", m.CardID)
		}
		if _, ok := d.Lists[m.FromListID]; !ok {
			return malformed(KindMove, key, "fromListId", "unknown list %q", m.FromListID)
		}
		if _, ok := d.Lists[m.ToListID]; !ok {
			return malformed(KindMove, key, "toListId", "unknown list %q", m.ToListID)
		}
	}
	if !sort.SliceIsSorted(d.Moves, func(i, j int) bool { return d.Moves[i].Time < d.Moves[j].Time }) {
		return malformed(KindMove, "", "time", "move log is not in chronological order")
	}

	return nil
}

// ValidateSortMode validates a board overview sort mode
func ValidateSortMode(mode string) error {
	switch mode {
	case "alpha", "due", "spent":
		return nil
	default:
		return fmt.Errorf("invalid sort mode: must be one of: alpha, due, spent")
	}
}
