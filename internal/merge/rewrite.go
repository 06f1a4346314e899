package merge

import (
	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/id"
)

// rewriteCard returns a copy of c with sessionIds mapped to merged ids
func (m *merger) rewriteCard(src id.Source, c domain.Card) domain.Card {
	c.SessionIDs = remapSet(m.sessions, src, c.SessionIDs)
	return c
}

// rewriteList returns a copy of l with its cards mapped, order preserved
func (m *merger) rewriteList(src id.Source, l domain.List) domain.List {
	l.Cards = remapSeq(m.cards, src, l.Cards)
	return l
}

func (m *merger) rewriteBoard(src id.Source, b domain.Board) domain.Board {
	b.Lists = remapSet(m.lists, src, b.Lists)
	b.DoneList = remapRef(m.lists, src, b.DoneList)
	b.FocusedList = remapRef(m.lists, src, b.FocusedList)
	b.RelatedSessions = remapSet(m.sessions, src, b.RelatedSessions)
	return b
}

func (m *merger) rewriteMove(src id.Source, mv domain.MoveEvent) domain.MoveEvent {
	mv.CardID = m.cards.Remap(src, mv.CardID)
	mv.FromListID = m.lists.Remap(src, mv.FromListID)
	mv.ToListID = m.lists.Remap(src, mv.ToListID)
	return mv
}

func remapRef[K ~string](a *id.Allocator[K], src id.Source, ref K) K {
	if ref == "" {
		return ref
	}
	return a.Remap(src, ref)
}

func remapSeq[K ~string](a *id.Allocator[K], src id.Source, in []K) []K {
	if in == nil {
		return nil
	}
	out := make([]K, len(in))
	for i, v := range in {
		out[i] = a.Remap(src, v)
	}
	return out
}

// remapSet maps every member and drops repeats, keeping first occurrence
func remapSet[K ~string](a *id.Allocator[K], src id.Source, in []K) []K {
	if in == nil {
		return nil
	}
	out := make([]K, 0, len(in))
	seen := make(map[K]bool, len(in))
	for _, v := range in {
		v = a.Remap(src, v)
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
