package events

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lherron/pomokan/internal/domain"
)

// Writer handles writing events to the event log
type Writer struct {
	db *sql.DB
}

// NewWriter creates a new event writer
func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db}
}

// LogEvent writes an event to the event log
func (w *Writer) LogEvent(tx *sql.Tx, event *domain.Event) error {
	query := `
		INSERT INTO event_log (resource_type, resource_id, event_type, payload)
		VALUES (?, ?, ?, ?)
	`

	executor := w.getExecutor(tx)
	_, err := executor.Exec(query, event.ResourceType, event.ResourceID, event.EventType, event.Payload)
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

func (w *Writer) logWithPayload(tx *sql.Tx, resourceType, resourceID, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	payloadStr := string(data)
	event := &domain.Event{
		ResourceType: resourceType,
		EventType:    eventType,
		Payload:      &payloadStr,
	}
	if resourceID != "" {
		event.ResourceID = &resourceID
	}
	return w.LogEvent(tx, event)
}

// LogBoardCreated logs a board creation event
func (w *Writer) LogBoardCreated(tx *sql.Tx, board *domain.Board) error {
	return w.logWithPayload(tx, "board", string(board.ID), "board.created", map[string]interface{}{
		"name":  board.Name,
		"lists": board.Lists,
	})
}

// LogCardCreated logs a card creation event
func (w *Writer) LogCardCreated(tx *sql.Tx, listID domain.ListID, card *domain.Card) error {
	return w.logWithPayload(tx, "card", string(card.ID), "card.created", map[string]interface{}{
		"title":   card.Title,
		"list_id": listID,
	})
}

// LogCardMoved logs a card moving between lists
func (w *Writer) LogCardMoved(tx *sql.Tx, move *domain.MoveEvent) error {
	return w.logWithPayload(tx, "card", string(move.CardID), "card.moved", move)
}

// LogSessionAdded logs a focus session recorded against a card
func (w *Writer) LogSessionAdded(tx *sql.Tx, cardID domain.CardID, session *domain.Session) error {
	return w.logWithPayload(tx, "session", string(session.ID), "session.added", map[string]interface{}{
		"card_id":     cardID,
		"spent_hours": session.SpentTimeInHour,
	})
}

// LogDatasetReplaced logs a wholesale replacement of the stored dataset
func (w *Writer) LogDatasetReplaced(tx *sql.Tx, reason string, counts domain.Counts) error {
	return w.logWithPayload(tx, "dataset", "", "dataset.replaced", map[string]interface{}{
		"reason": reason,
		"counts": counts,
	})
}

// getExecutor returns the appropriate executor (tx or db)
func (w *Writer) getExecutor(tx *sql.Tx) interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
} {
	if tx != nil {
		return tx
	}
	return w.db
}
