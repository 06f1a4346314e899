package merge

import (
	"fmt"

	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/id"
)

// Rename reasons
const (
	ReasonCollision       = "collision"
	ReasonSharedOwnership = "shared_ownership"
)

// Report is the structured outcome of one merge run
type Report struct {
	Renames   []Rename   `json:"renames,omitempty"`
	Collapsed []Collapse `json:"collapsed,omitempty"`
	Failures  []Failure  `json:"failures,omitempty"`
	Stats     Stats      `json:"stats"`
}

// Rename records an identifier that changed on its way into the merged dataset
type Rename struct {
	Entity domain.EntityKind `json:"entity"`
	Source id.Source         `json:"source"`
	From   string            `json:"from"`
	To     string            `json:"to"`
	Reason string            `json:"reason"`
}

// Collapse records an incoming entity identical to its local counterpart
type Collapse struct {
	Entity domain.EntityKind `json:"entity"`
	ID     string            `json:"id"`
}

// Failure is one unresolved relationship in the merged dataset
type Failure struct {
	Entity domain.EntityKind `json:"entity"`
	ID     string            `json:"id"`
	Field  string            `json:"field"`
	Ref    string            `json:"ref"`
}

// Stats holds per-collection counts
type Stats struct {
	Sessions Counts `json:"sessions"`
	Cards    Counts `json:"cards"`
	Lists    Counts `json:"lists"`
	Boards   Counts `json:"boards"`
	Moves    Counts `json:"moves"`
}

// Counts tallies one entity collection across a merge
type Counts struct {
	Local     int `json:"local"`
	Incoming  int `json:"incoming"`
	Merged    int `json:"merged"`
	Collapsed int `json:"collapsed"`
	Renamed   int `json:"renamed"`
	Cloned    int `json:"cloned"`
}

func (s *Stats) of(kind domain.EntityKind) *Counts {
	switch kind {
	case domain.KindSession:
		return &s.Sessions
	case domain.KindCard:
		return &s.Cards
	case domain.KindList:
		return &s.Lists
	case domain.KindBoard:
		return &s.Boards
	default:
		return &s.Moves
	}
}

func (r *Report) rename(kind domain.EntityKind, src id.Source, from, to, reason string) {
	r.Renames = append(r.Renames, Rename{Entity: kind, Source: src, From: from, To: to, Reason: reason})
	if reason == ReasonSharedOwnership {
		r.Stats.of(kind).Cloned++
	} else {
		r.Stats.of(kind).Renamed++
	}
}

func (r *Report) collapse(kind domain.EntityKind, entityID string) {
	r.Collapsed = append(r.Collapsed, Collapse{Entity: kind, ID: entityID})
	r.Stats.of(kind).Collapsed++
}

// uncollapse withdraws a collapse entry for an entity that turned out to need
// its own copy after all
func (r *Report) uncollapse(kind domain.EntityKind, entityID string) {
	for i, c := range r.Collapsed {
		if c.Entity == kind && c.ID == entityID {
			r.Collapsed = append(r.Collapsed[:i], r.Collapsed[i+1:]...)
			if len(r.Collapsed) == 0 {
				r.Collapsed = nil
			}
			r.Stats.of(kind).Collapsed--
			return
		}
	}
}

// RenamesOf returns the renames of one entity kind, in report order
func (r *Report) RenamesOf(kind domain.EntityKind) []Rename {
	var out []Rename
	for _, rn := range r.Renames {
		if rn.Entity == kind {
			out = append(out, rn)
		}
	}
	return out
}

// Summary is the one-line outcome shown to the user
func (r *Report) Summary() string {
	return fmt.Sprintf("%d items renamed to avoid conflicts, %d duplicates merged", len(r.Renames), len(r.Collapsed))
}
