package store

import (
	"database/sql"
	"fmt"

	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/events"
	"github.com/lherron/pomokan/internal/id"
)

// BoardStore handles board persistence operations.
type BoardStore struct {
	store *Store
}

// BoardCreateParams contains parameters for creating a new board.
type BoardCreateParams struct {
	ID          domain.BoardID // optional: force a specific id instead of generating one
	Name        string
	Description string
	Pin         bool
	DueTime     int64
}

// Default columns of a new board, in order
var defaultListTitles = []string{"Todo", "Focused", "Done"}

// Create creates a board with Todo, Focused and Done lists and logs a
// board.created event.
func (bs *BoardStore) Create(params BoardCreateParams) (*domain.Board, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("board name is required")
	}
	board := &domain.Board{
		ID:              params.ID,
		Name:            params.Name,
		Description:     params.Description,
		RelatedSessions: []domain.SessionID{},
		Pin:             params.Pin,
		DueTime:         params.DueTime,
	}
	if board.ID == "" {
		board.ID = domain.BoardID(id.New())
	}

	err := bs.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		lists := make([]domain.ListID, len(defaultListTitles))
		for i, title := range defaultListTitles {
			lid := domain.ListID(id.New())
			if _, err := tx.Exec(`INSERT INTO lists (id, title) VALUES (?, ?)`, lid, title); err != nil {
				return fmt.Errorf("failed to create list %q: %w", title, err)
			}
			lists[i] = lid
		}
		board.Lists = lists
		board.FocusedList = lists[1]
		board.DoneList = lists[2]

		if err := insertBoard(tx, *board); err != nil {
			return err
		}
		if err := ew.LogBoardCreated(tx, board); err != nil {
			return fmt.Errorf("failed to log event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return board, nil
}

// boardOfList returns the board that owns a list
func boardOfList(q queryer, listID domain.ListID) (domain.BoardID, error) {
	var bid domain.BoardID
	err := q.QueryRow(`SELECT board_id FROM board_lists WHERE list_id = ?`, listID).Scan(&bid)
	if err == sql.ErrNoRows {
		return "", &NotFoundError{Kind: "list", ID: string(listID)}
	}
	if err != nil {
		return "", fmt.Errorf("failed to find board of list %s: %w", listID, err)
	}
	return bid, nil
}

// refreshBoardHours recomputes a board's spent hours from its cards, summing
// in list order then card order.
func refreshBoardHours(tx *sql.Tx, boardID domain.BoardID) error {
	rows, err := tx.Query(`
		SELECT c.actual_hours
		FROM board_lists bl
		JOIN list_cards lc ON lc.list_id = bl.list_id
		JOIN cards c ON c.id = lc.card_id
		WHERE bl.board_id = ?
		ORDER BY bl.position, lc.position
	`, boardID)
	if err != nil {
		return fmt.Errorf("failed to sum board hours: %w", err)
	}
	var total float64
	for rows.Next() {
		var h float64
		if err := rows.Scan(&h); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan card hours: %w", err)
		}
		total += h
	}
	if err := closeRows(rows); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE boards SET spent_hours = ? WHERE id = ?`, total, boardID); err != nil {
		return fmt.Errorf("failed to update board hours: %w", err)
	}
	return nil
}
