package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/events"
	"github.com/lherron/pomokan/internal/id"
)

// CardStore handles card persistence operations.
type CardStore struct {
	store *Store
}

// CardCreateParams contains parameters for creating a new card.
type CardCreateParams struct {
	ID             domain.CardID // optional
	ListID         domain.ListID
	Title          string
	Content        string
	EstimatedHours float64
}

// Create appends a new card to the end of a list and logs a card.created event.
func (cs *CardStore) Create(params CardCreateParams) (*domain.Card, error) {
	if params.Title == "" {
		return nil, fmt.Errorf("card title is required")
	}
	if params.EstimatedHours < 0 {
		return nil, fmt.Errorf("estimated hours must be >= 0")
	}
	card := &domain.Card{
		ID:              params.ID,
		Title:           params.Title,
		Content:         params.Content,
		SessionIDs:      []domain.SessionID{},
		SpentTimeInHour: domain.SpentTime{Estimated: params.EstimatedHours},
	}
	if card.ID == "" {
		card.ID = domain.CardID(id.New())
	}

	err := cs.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		if _, err := boardOfList(tx, params.ListID); err != nil {
			return err
		}
		if err := insertCard(tx, *card); err != nil {
			return err
		}
		if err := appendToList(tx, params.ListID, card.ID); err != nil {
			return err
		}
		if err := ew.LogCardCreated(tx, params.ListID, card); err != nil {
			return fmt.Errorf("failed to log event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// Move moves a card to the end of another list, appends a move event and
// refreshes the hours of the boards involved. The event time never precedes
// the last recorded move so the log stays chronological.
func (cs *CardStore) Move(cardID domain.CardID, to domain.ListID, at time.Time) (*domain.MoveEvent, error) {
	var move *domain.MoveEvent

	err := cs.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		from, err := listOfCard(tx, cardID)
		if err != nil {
			return err
		}
		if from == to {
			return fmt.Errorf("card %s is already in list %s", cardID, to)
		}
		toBoard, err := boardOfList(tx, to)
		if err != nil {
			return err
		}
		fromBoard, err := boardOfList(tx, from)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(`DELETE FROM list_cards WHERE card_id = ?`, cardID); err != nil {
			return fmt.Errorf("failed to detach card: %w", err)
		}
		if err := appendToList(tx, to, cardID); err != nil {
			return err
		}

		ms := at.UnixMilli()
		var last sql.NullInt64
		if err := tx.QueryRow(`SELECT MAX(time) FROM moves`).Scan(&last); err != nil {
			return fmt.Errorf("failed to read move log: %w", err)
		}
		if last.Valid && last.Int64 > ms {
			ms = last.Int64
		}
		move = &domain.MoveEvent{Time: ms, CardID: cardID, FromListID: from, ToListID: to}
		if err := insertMove(tx, *move); err != nil {
			return err
		}

		if err := refreshBoardHours(tx, toBoard); err != nil {
			return err
		}
		if fromBoard != toBoard {
			if err := refreshBoardHours(tx, fromBoard); err != nil {
				return err
			}
		}
		if err := ew.LogCardMoved(tx, move); err != nil {
			return fmt.Errorf("failed to log event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return move, nil
}

func listOfCard(q queryer, cardID domain.CardID) (domain.ListID, error) {
	var lid domain.ListID
	err := q.QueryRow(`SELECT list_id FROM list_cards WHERE card_id = ?`, cardID).Scan(&lid)
	if err == sql.ErrNoRows {
		return "", &NotFoundError{Kind: "card", ID: string(cardID)}
	}
	if err != nil {
		return "", fmt.Errorf("failed to find list of card %s: %w", cardID, err)
	}
	return lid, nil
}

func appendToList(tx *sql.Tx, listID domain.ListID, cardID domain.CardID) error {
	_, err := tx.Exec(`
		INSERT INTO list_cards (list_id, card_id, position)
		SELECT ?, ?, COALESCE(MAX(position), -1) + 1 FROM list_cards WHERE list_id = ?
	`, listID, cardID, listID)
	if err != nil {
		return fmt.Errorf("failed to add card %s to list %s: %w", cardID, listID, err)
	}
	return nil
}
