// Package check runs consistency checks over a stored dataset. They look for
// things the shape validation accepts but that usually point at a bad merge or
// an interrupted write: a move history that does not chain, a last move that
// disagrees with the current list, stale board aggregates and sessions a board
// claims but cannot reach.
package check

import (
	"fmt"
	"math"

	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/merge"
)

// Statuses
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// Result is the outcome of one named check
type Result struct {
	Name    string   `json:"name"`
	Status  string   `json:"status"` // "ok", "warning", "error"
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

// Report holds all check results and their tally
type Report struct {
	Checks        []Result `json:"checks"`
	Warnings      int      `json:"warnings"`
	Errors        int      `json:"errors"`
	OverallStatus string   `json:"overall_status"`
}

// Add appends a result and updates the tally
func (r *Report) Add(res Result) {
	r.Checks = append(r.Checks, res)
	switch res.Status {
	case StatusWarning:
		r.Warnings++
		if r.OverallStatus == StatusOK {
			r.OverallStatus = StatusWarning
		}
	case StatusError:
		r.Errors++
		r.OverallStatus = StatusError
	}
}

// NewReport returns an empty report with overall status ok
func NewReport() *Report {
	return &Report{Checks: []Result{}, OverallStatus: StatusOK}
}

// Run executes every dataset check. A dataset failing shape validation yields
// a single error result since the other checks assume resolvable references.
func Run(ds *domain.Dataset) *Report {
	rep := NewReport()
	if err := domain.Validate(ds); err != nil {
		rep.Add(Result{Name: "dataset_shape", Status: StatusError, Message: err.Error()})
		return rep
	}
	rep.Add(Result{Name: "dataset_shape", Status: StatusOK, Message: fmt.Sprintf("%d boards, %d lists, %d cards, %d sessions, %d moves",
		len(ds.Boards), len(ds.Lists), len(ds.Cards), len(ds.Records), len(ds.Moves))})
	rep.Add(MoveChain(ds))
	rep.Add(LastMove(ds))
	rep.Add(SpentHours(ds))
	rep.Add(RelatedSessions(ds))
	return rep
}

// MoveChain replays the move log and reports every move whose source list is
// not the list the previous move of the same card ended in.
func MoveChain(ds *domain.Dataset) Result {
	res := Result{Name: "move_chain", Status: StatusOK}
	at := make(map[domain.CardID]domain.ListID)
	for i, mv := range ds.Moves {
		if prev, ok := at[mv.CardID]; ok && prev != mv.FromListID {
			res.Details = append(res.Details, fmt.Sprintf("move #%d: card %s moved from %s but was in %s", i, mv.CardID, mv.FromListID, prev))
		}
		if mv.FromListID == mv.ToListID {
			res.Details = append(res.Details, fmt.Sprintf("move #%d: card %s moved onto its own list %s", i, mv.CardID, mv.ToListID))
		}
		at[mv.CardID] = mv.ToListID
	}
	return finish(res, "%d moves replay cleanly", len(ds.Moves))
}

// LastMove reports cards whose most recent move ends in a list other than the
// one holding the card now.
func LastMove(ds *domain.Dataset) Result {
	res := Result{Name: "last_move", Status: StatusOK}
	owner := cardOwners(ds)
	last := make(map[domain.CardID]domain.ListID)
	for _, mv := range ds.Moves {
		last[mv.CardID] = mv.ToListID
	}
	for _, cid := range ds.CardIDs() {
		to, ok := last[cid]
		if !ok {
			continue
		}
		if owner[cid] != to {
			res.Details = append(res.Details, fmt.Sprintf("card %s: last move ends in %s, card is in %s", cid, to, owner[cid]))
		}
	}
	return finish(res, "%d moved cards are where their last move left them", len(last))
}

// SpentHours reports boards whose stored spentHours differs from the sum over
// their cards.
func SpentHours(ds *domain.Dataset) Result {
	res := Result{Name: "spent_hours", Status: StatusOK}
	for _, bid := range ds.BoardIDs() {
		b := ds.Boards[bid]
		want := merge.BoardSpentHours(ds, b)
		if math.Abs(b.SpentHours-want) > 1e-9 {
			res.Details = append(res.Details, fmt.Sprintf("board %s: spentHours %g, cards sum to %g", bid, b.SpentHours, want))
		}
	}
	return finish(res, "%d boards have current aggregates", len(ds.Boards))
}

// RelatedSessions reports board sessions that no card on the board references.
func RelatedSessions(ds *domain.Dataset) Result {
	res := Result{Name: "related_sessions", Status: StatusOK}
	for _, bid := range ds.BoardIDs() {
		b := ds.Boards[bid]
		reachable := make(map[domain.SessionID]bool)
		for _, cid := range ds.BoardCards(b) {
			for _, sid := range ds.Cards[cid].SessionIDs {
				reachable[sid] = true
			}
		}
		for _, sid := range b.RelatedSessions {
			if !reachable[sid] {
				res.Details = append(res.Details, fmt.Sprintf("board %s: session %s is not on any of its cards", bid, sid))
			}
		}
	}
	return finish(res, "every related session is reachable")
}

func finish(res Result, okFormat string, args ...any) Result {
	if len(res.Details) > 0 {
		res.Status = StatusWarning
		res.Message = fmt.Sprintf("%d issue(s)", len(res.Details))
		return res
	}
	res.Message = fmt.Sprintf(okFormat, args...)
	return res
}

func cardOwners(ds *domain.Dataset) map[domain.CardID]domain.ListID {
	owner := make(map[domain.CardID]domain.ListID, len(ds.Cards))
	for lid, l := range ds.Lists {
		for _, cid := range l.Cards {
			owner[cid] = lid
		}
	}
	return owner
}
