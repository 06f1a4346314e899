package merge

import (
	"fmt"
	"sort"

	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/id"
)

type sourcedMove struct {
	domain.MoveEvent
	src   id.Source
	index int
}

func sourceRank(src id.Source) int {
	if src == id.Local {
		return 0
	}
	return 1
}

// reconcileMoves merges two move logs into one sequence ordered by time, then
// source (local first), then original position. Exact duplicates keep their
// first occurrence.
func reconcileMoves(local, incoming []domain.MoveEvent, rep *Report) []domain.MoveEvent {
	all := make([]sourcedMove, 0, len(local)+len(incoming))
	for i, mv := range local {
		all = append(all, sourcedMove{MoveEvent: mv, src: id.Local, index: i})
	}
	for i, mv := range incoming {
		all = append(all, sourcedMove{MoveEvent: mv, src: id.Incoming, index: i})
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if ra, rb := sourceRank(a.src), sourceRank(b.src); ra != rb {
			return ra < rb
		}
		return a.index < b.index
	})

	var out []domain.MoveEvent
	seen := make(map[domain.MoveEvent]bool, len(all))
	for _, mv := range all {
		if seen[mv.MoveEvent] {
			rep.collapse(domain.KindMove, fmt.Sprintf("%s#%d", mv.src, mv.index))
			continue
		}
		seen[mv.MoveEvent] = true
		out = append(out, mv.MoveEvent)
	}
	return out
}
