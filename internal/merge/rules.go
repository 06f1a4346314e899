package merge

import (
	"sort"

	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/id"
)

// stage merges one incoming collection into a merged collection that already
// holds every local entity. Identity is all-or-nothing: an incoming entity
// either matches its local namesake exactly or is inserted under a new id.
type stage[K ~string, V any] struct {
	kind        domain.EntityKind
	alloc       *id.Allocator[K]
	fingerprint func(V) string
	rewrite     func(V) V
	withID      func(V, K) V
}

// run returns the merged ids of incoming entities that were inserted, in
// the sorted order of their original ids.
func (s stage[K, V]) run(merged, local, incoming map[K]V, rep *Report) []K {
	var added []K
	for _, k := range sortedKeys(incoming) {
		in := s.rewrite(incoming[k])
		existing, collides := local[k]
		switch {
		case !collides:
			s.alloc.Keep(id.Incoming, k)
			merged[k] = in
			added = append(added, k)
		case s.fingerprint(existing) == s.fingerprint(in):
			s.alloc.Keep(id.Incoming, k)
			rep.collapse(s.kind, string(k))
		default:
			nk := s.alloc.Rename(id.Incoming, k)
			merged[nk] = s.withID(in, nk)
			rep.rename(s.kind, id.Incoming, string(k), string(nk), ReasonCollision)
			added = append(added, nk)
		}
	}
	return added
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// claimCards makes every inserted incoming list the sole owner of its cards.
// A card already held by another merged list, which happens when the card
// collapsed into a local one, is cloned for the new list.
func (m *merger) claimCards(added []domain.ListID) {
	isAdded := make(map[domain.ListID]bool, len(added))
	for _, lid := range added {
		isAdded[lid] = true
	}
	owner := make(map[domain.CardID]domain.ListID)
	for _, lid := range m.out.ListIDs() {
		if isAdded[lid] {
			continue
		}
		for _, cid := range m.out.Lists[lid].Cards {
			owner[cid] = lid
		}
	}
	for _, lid := range added {
		l := m.out.Lists[lid]
		for i, cid := range l.Cards {
			if _, taken := owner[cid]; taken {
				cid = m.cloneCard(cid)
				l.Cards[i] = cid
			}
			owner[cid] = lid
		}
		m.out.Lists[lid] = l
	}
}

// claimLists does for boards what claimCards does for lists. A shared list is
// cloned together with its cards so card ownership stays exclusive.
func (m *merger) claimLists(added []domain.BoardID) {
	isAdded := make(map[domain.BoardID]bool, len(added))
	for _, bid := range added {
		isAdded[bid] = true
	}
	owner := make(map[domain.ListID]domain.BoardID)
	for _, bid := range m.out.BoardIDs() {
		if isAdded[bid] {
			continue
		}
		for _, lid := range m.out.Boards[bid].Lists {
			owner[lid] = bid
		}
	}
	for _, bid := range added {
		b := m.out.Boards[bid]
		for i, lid := range b.Lists {
			if _, taken := owner[lid]; taken {
				clone := m.cloneList(lid)
				b.Lists[i] = clone
				if b.DoneList == lid {
					b.DoneList = clone
				}
				if b.FocusedList == lid {
					b.FocusedList = clone
				}
				lid = clone
			}
			owner[lid] = bid
		}
		m.out.Boards[bid] = b
	}
}

// cloneCard copies a shared card for an incoming parent. The copy becomes
// incoming's identity for the card, so its moves follow the copy.
func (m *merger) cloneCard(cid domain.CardID) domain.CardID {
	c := m.out.Cards[cid]
	nid := m.cards.Fresh(cid)
	c.ID = nid
	c.SessionIDs = append([]domain.SessionID(nil), c.SessionIDs...)
	m.out.Cards[nid] = c
	if v, ok := m.cards.Mapped(id.Incoming, cid); ok && v == cid {
		m.cards.Reassign(id.Incoming, cid, nid)
		m.report.uncollapse(domain.KindCard, string(cid))
	}
	m.report.rename(domain.KindCard, id.Incoming, string(cid), string(nid), ReasonSharedOwnership)
	return nid
}

func (m *merger) cloneList(lid domain.ListID) domain.ListID {
	l := m.out.Lists[lid]
	nid := m.lists.Fresh(lid)
	l.ID = nid
	cards := make([]domain.CardID, len(l.Cards))
	for i, cid := range l.Cards {
		cards[i] = m.cloneCard(cid)
	}
	l.Cards = cards
	m.out.Lists[nid] = l
	if v, ok := m.lists.Mapped(id.Incoming, lid); ok && v == lid {
		m.lists.Reassign(id.Incoming, lid, nid)
		m.report.uncollapse(domain.KindList, string(lid))
	}
	m.report.rename(domain.KindList, id.Incoming, string(lid), string(nid), ReasonSharedOwnership)
	return nid
}
