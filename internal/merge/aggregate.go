package merge

import "github.com/lherron/pomokan/internal/domain"

// Recompute sets every board's SpentHours from the cards reachable through its
// lists. Stored values are ignored.
func Recompute(d *domain.Dataset) {
	for _, bid := range d.BoardIDs() {
		b := d.Boards[bid]
		b.SpentHours = BoardSpentHours(d, b)
		d.Boards[bid] = b
	}
}

// BoardSpentHours sums the actual hours of the cards on a board
func BoardSpentHours(d *domain.Dataset, b domain.Board) float64 {
	var total float64
	for _, cid := range d.BoardCards(b) {
		total += d.Cards[cid].SpentTimeInHour.Actual
	}
	return total
}
