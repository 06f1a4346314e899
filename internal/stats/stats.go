// Package stats computes the per-board overview figures.
package stats

import (
	"math"
	"sort"

	"github.com/lherron/pomokan/internal/domain"
)

// Board overview sort modes
const (
	SortAlpha = "alpha"
	SortDue   = "due"
	SortSpent = "spent"
)

// BoardStats is the overview row of one board
type BoardStats struct {
	ID                  domain.BoardID `json:"id"`
	Name                string         `json:"name"`
	Pin                 bool           `json:"pin,omitempty"`
	DueTime             int64          `json:"due_time,omitempty"`
	SpentHours          float64        `json:"spent_hours"`
	EstimatedLeftHours  float64        `json:"estimated_left_hours"`
	ActualHours         float64        `json:"actual_hours"`
	PomodoroCount       int            `json:"pomodoro_count"`
	MeanPercentageError *float64       `json:"mean_percentage_error,omitempty"`
}

// ForBoard computes the overview figures of b. Cards on the done list count
// towards the estimate error; every other card counts towards the hours left.
func ForBoard(ds *domain.Dataset, b domain.Board) BoardStats {
	st := BoardStats{
		ID:            b.ID,
		Name:          b.Name,
		Pin:           b.Pin,
		DueTime:       b.DueTime,
		SpentHours:    b.SpentHours,
		PomodoroCount: len(b.RelatedSessions),
	}

	var errSum float64
	var done int
	for _, lid := range b.Lists {
		isDone := lid == b.DoneList
		for _, cid := range ds.Lists[lid].Cards {
			h := ds.Cards[cid].SpentTimeInHour
			st.ActualHours += h.Actual
			if !isDone {
				st.EstimatedLeftHours += math.Max(0, h.Estimated-h.Actual)
				continue
			}
			done++
			if h.Actual != 0 && h.Estimated != 0 {
				errSum += math.Abs(h.Estimated-h.Actual) / h.Actual * 100
			}
		}
	}
	if done > 0 {
		mpe := errSum / float64(done)
		st.MeanPercentageError = &mpe
	}
	return st
}

// Overview returns the stats of every board ordered by mode. Pinned boards
// always come first.
func Overview(ds *domain.Dataset, mode string) ([]BoardStats, error) {
	if err := domain.ValidateSortMode(mode); err != nil {
		return nil, err
	}
	out := make([]BoardStats, 0, len(ds.Boards))
	for _, bid := range ds.BoardIDs() {
		out = append(out, ForBoard(ds, ds.Boards[bid]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Pin != b.Pin {
			return a.Pin
		}
		switch mode {
		case SortDue:
			// boards without a due time sort last
			if (a.DueTime == 0) != (b.DueTime == 0) {
				return b.DueTime == 0
			}
			return a.DueTime < b.DueTime
		case SortSpent:
			return a.SpentHours > b.SpentHours
		default:
			return a.Name < b.Name
		}
	})
	return out, nil
}
