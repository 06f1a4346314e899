// Package merge combines two independently evolved kanban datasets into one
// referentially consistent dataset.
//
// Collections are merged leaf to root: sessions, cards, lists, boards, then
// the move log. Each incoming entity is rewritten to merged identifiers before
// it is compared with its local namesake, so identity covers the entity graph
// below it. Board spent hours are recomputed from the result.
package merge

import (
	"fmt"
	"sort"

	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/id"
)

type merger struct {
	local    *domain.Dataset
	incoming *domain.Dataset
	out      *domain.Dataset
	report   *Report

	sessions *id.Allocator[domain.SessionID]
	cards    *id.Allocator[domain.CardID]
	lists    *id.Allocator[domain.ListID]
	boards   *id.Allocator[domain.BoardID]
}

// Merge combines local and incoming into a new dataset. Neither input is
// modified. A nil dataset is treated as empty.
//
// Both inputs are validated first; a violation returns *MalformedInputError.
// If the merged dataset has an unresolved reference, Merge returns
// *DanglingReferenceError together with a report listing the failures and no
// dataset.
func Merge(local, incoming *domain.Dataset) (*domain.Dataset, *Report, error) {
	if local == nil {
		local = domain.NewDataset()
	}
	if incoming == nil {
		incoming = domain.NewDataset()
	}
	if err := domain.Validate(local); err != nil {
		return nil, nil, &MalformedInputError{Source: id.Local, Err: err}
	}
	if err := domain.Validate(incoming); err != nil {
		return nil, nil, &MalformedInputError{Source: id.Incoming, Err: err}
	}

	m := newMerger(local.Clone(), incoming.Clone())
	m.run()

	if failures := checkClosure(m.out); len(failures) > 0 {
		m.report.Failures = failures
		return nil, m.report, &DanglingReferenceError{Failures: failures}
	}
	return m.out, m.report, nil
}

func newMerger(local, incoming *domain.Dataset) *merger {
	m := &merger{
		local:    local,
		incoming: incoming,
		report:   &Report{},
		sessions: id.NewAllocator(append(local.SessionIDs(), incoming.SessionIDs()...)...),
		cards:    id.NewAllocator(append(local.CardIDs(), incoming.CardIDs()...)...),
		lists:    id.NewAllocator(append(local.ListIDs(), incoming.ListIDs()...)...),
		boards:   id.NewAllocator(append(local.BoardIDs(), incoming.BoardIDs()...)...),
	}
	for _, k := range local.SessionIDs() {
		m.sessions.Keep(id.Local, k)
	}
	for _, k := range local.CardIDs() {
		m.cards.Keep(id.Local, k)
	}
	for _, k := range local.ListIDs() {
		m.lists.Keep(id.Local, k)
	}
	for _, k := range local.BoardIDs() {
		m.boards.Keep(id.Local, k)
	}
	return m
}

func (m *merger) run() {
	m.out = m.local.Clone()
	m.out.Moves = nil

	stage[domain.SessionID, domain.Session]{
		kind:        domain.KindSession,
		alloc:       m.sessions,
		fingerprint: domain.FingerprintSession,
		rewrite:     func(s domain.Session) domain.Session { return s },
		withID:      func(s domain.Session, k domain.SessionID) domain.Session { s.ID = k; return s },
	}.run(m.out.Records, m.local.Records, m.incoming.Records, m.report)

	stage[domain.CardID, domain.Card]{
		kind:        domain.KindCard,
		alloc:       m.cards,
		fingerprint: domain.FingerprintCard,
		rewrite:     func(c domain.Card) domain.Card { return m.rewriteCard(id.Incoming, c) },
		withID:      func(c domain.Card, k domain.CardID) domain.Card { c.ID = k; return c },
	}.run(m.out.Cards, m.local.Cards, m.incoming.Cards, m.report)

	addedLists := stage[domain.ListID, domain.List]{
		kind:        domain.KindList,
		alloc:       m.lists,
		fingerprint: domain.FingerprintList,
		rewrite:     func(l domain.List) domain.List { return m.rewriteList(id.Incoming, l) },
		withID:      func(l domain.List, k domain.ListID) domain.List { l.ID = k; return l },
	}.run(m.out.Lists, m.local.Lists, m.incoming.Lists, m.report)
	m.claimCards(addedLists)

	addedBoards := stage[domain.BoardID, domain.Board]{
		kind:        domain.KindBoard,
		alloc:       m.boards,
		fingerprint: domain.FingerprintBoard,
		rewrite:     func(b domain.Board) domain.Board { return m.rewriteBoard(id.Incoming, b) },
		withID:      func(b domain.Board, k domain.BoardID) domain.Board { b.ID = k; return b },
	}.run(m.out.Boards, m.local.Boards, m.incoming.Boards, m.report)
	m.claimLists(addedBoards)

	incomingMoves := make([]domain.MoveEvent, len(m.incoming.Moves))
	for i, mv := range m.incoming.Moves {
		incomingMoves[i] = m.rewriteMove(id.Incoming, mv)
	}
	m.out.Moves = reconcileMoves(m.local.Moves, incomingMoves, m.report)

	Recompute(m.out)
	m.tally()
}

func (m *merger) tally() {
	lc, ic, oc := m.local.Counts(), m.incoming.Counts(), m.out.Counts()
	st := &m.report.Stats
	st.Sessions.Local, st.Sessions.Incoming, st.Sessions.Merged = lc.Records, ic.Records, oc.Records
	st.Cards.Local, st.Cards.Incoming, st.Cards.Merged = lc.Cards, ic.Cards, oc.Cards
	st.Lists.Local, st.Lists.Incoming, st.Lists.Merged = lc.Lists, ic.Lists, oc.Lists
	st.Boards.Local, st.Boards.Incoming, st.Boards.Merged = lc.Boards, ic.Boards, oc.Boards
	st.Moves.Local, st.Moves.Incoming, st.Moves.Merged = lc.Moves, ic.Moves, oc.Moves
}

// checkClosure lists every relationship field of d that does not resolve,
// plus any card or list claimed by more than one parent.
func checkClosure(d *domain.Dataset) []Failure {
	var failures []Failure
	fail := func(kind domain.EntityKind, entityID, field, ref string) {
		failures = append(failures, Failure{Entity: kind, ID: entityID, Field: field, Ref: ref})
	}

	for _, cid := range d.CardIDs() {
		for _, sid := range d.Cards[cid].SessionIDs {
			if _, ok := d.Records[sid]; !ok {
				fail(domain.KindCard, string(cid), "sessionIds", string(sid))
			}
		}
	}

	cardOwner := make(map[domain.CardID]bool, len(d.Cards))
	for _, lid := range d.ListIDs() {
		for _, cid := range d.Lists[lid].Cards {
			if _, ok := d.Cards[cid]; !ok {
				fail(domain.KindList, string(lid), "cards", string(cid))
				continue
			}
			if cardOwner[cid] {
				fail(domain.KindList, string(lid), "cards", string(cid))
			}
			cardOwner[cid] = true
		}
	}

	listOwner := make(map[domain.ListID]bool, len(d.Lists))
	for _, bid := range d.BoardIDs() {
		b := d.Boards[bid]
		members := make(map[domain.ListID]bool, len(b.Lists))
		for _, lid := range b.Lists {
			members[lid] = true
			if _, ok := d.Lists[lid]; !ok {
				fail(domain.KindBoard, string(bid), "lists", string(lid))
				continue
			}
			if listOwner[lid] {
				fail(domain.KindBoard, string(bid), "lists", string(lid))
			}
			listOwner[lid] = true
		}
		if b.DoneList != "" && !members[b.DoneList] {
			fail(domain.KindBoard, string(bid), "doneList", string(b.DoneList))
		}
		if b.FocusedList != "" && !members[b.FocusedList] {
			fail(domain.KindBoard, string(bid), "focusedList", string(b.FocusedList))
		}
		for _, sid := range b.RelatedSessions {
			if _, ok := d.Records[sid]; !ok {
				fail(domain.KindBoard, string(bid), "relatedSessions", string(sid))
			}
		}
	}

	for i, mv := range d.Moves {
		key := fmt.Sprintf("#%d", i)
		if _, ok := d.Cards[mv.CardID]; !ok {
			fail(domain.KindMove, key, "cardId", string(mv.CardID))
		}
		if _, ok := d.Lists[mv.FromListID]; !ok {
			fail(domain.KindMove, key, "fromListId", string(mv.FromListID))
		}
		if _, ok := d.Lists[mv.ToListID]; !ok {
			fail(domain.KindMove, key, "toListId", string(mv.ToListID))
		}
	}
	if !sort.SliceIsSorted(d.Moves, func(i, j int) bool { return d.Moves[i].Time < d.Moves[j].Time }) {
		fail(domain.KindMove, "", "time", "")
	}

	return failures
}
