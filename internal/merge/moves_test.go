package merge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lherron/pomokan/internal/check"
	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/merge"
	"github.com/lherron/pomokan/internal/testutil"
)

// withFinishMove records card_a going from focused to done
func withFinishMove(d *domain.Dataset, at int64) *domain.Dataset {
	d.Moves = append(d.Moves, domain.MoveEvent{Time: at, CardID: "card_a", FromListID: "focused", ToListID: "done"})
	return d
}

func TestMerge_IncomingMovesFollowFinalIDs(t *testing.T) {
	renamedDone := testutil.Case0()
	l := renamedDone.Lists["done"]
	l.Title = "finished"
	renamedDone.Lists["done"] = l

	tests := []struct {
		name      string
		local     *domain.Dataset
		incoming  *domain.Dataset
		want      []domain.MoveEvent
		collapsed []merge.Collapse
	}{
		{
			name:     "divergent content",
			local:    testutil.Case0(),
			incoming: withFinishMove(testutil.Case0Divergent(), 200),
			want: []domain.MoveEvent{
				{Time: 200, CardID: "card_a_2", FromListID: "focused_2", ToListID: "done_2"},
			},
		},
		{
			name:     "moves on both sides",
			local:    withFinishMove(testutil.Case0(), 100),
			incoming: withFinishMove(testutil.Case0Divergent(), 200),
			want: []domain.MoveEvent{
				{Time: 100, CardID: "card_a", FromListID: "focused", ToListID: "done"},
				{Time: 200, CardID: "card_a_2", FromListID: "focused_2", ToListID: "done_2"},
			},
		},
		{
			name:     "identical card in renamed list",
			local:    withFinishMove(testutil.Case0(), 100),
			incoming: withFinishMove(renamedDone, 100),
			want: []domain.MoveEvent{
				{Time: 100, CardID: "card_a", FromListID: "focused", ToListID: "done"},
				{Time: 100, CardID: "card_a_2", FromListID: "focused_2", ToListID: "done_2"},
			},
			collapsed: []merge.Collapse{{Entity: domain.KindSession, ID: "sess0"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, report, err := merge.Merge(tt.local, tt.incoming)
			require.NoError(t, err)

			assert.Equal(t, tt.want, merged.Moves)
			assert.Equal(t, []domain.CardID{"card_a_2"}, merged.Lists["done_2"].Cards)
			assert.Equal(t, []domain.ListID{"done_2", "focused_2"}, merged.Boards["a_2"].Lists)
			assert.ElementsMatch(t, tt.collapsed, report.Collapsed)

			for _, res := range []check.Result{check.MoveChain(merged), check.LastMove(merged)} {
				assert.Equal(t, check.StatusOK, res.Status, "%s: %v", res.Name, res.Details)
			}
			assert.Equal(t, check.StatusOK, check.Run(merged).OverallStatus)
		})
	}
}
