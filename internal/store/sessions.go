package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/events"
	"github.com/lherron/pomokan/internal/id"
)

// SessionStore handles focus-session persistence operations.
type SessionStore struct {
	store *Store
}

// SessionAddParams describes one finished pomodoro.
type SessionAddParams struct {
	ID          domain.SessionID // optional
	CardID      domain.CardID
	Start       time.Time
	Duration    time.Duration
	SwitchTimes int
	Apps        map[string]domain.AppUsage
}

// Add records a session against a card. The card's actual hours grow by the
// session length, the session joins the owning board's related sessions, and
// the board's spent hours are recomputed.
func (ss *SessionStore) Add(params SessionAddParams) (*domain.Session, error) {
	if params.Duration <= 0 {
		return nil, fmt.Errorf("session duration must be positive")
	}
	sess := &domain.Session{
		ID:              params.ID,
		StartTime:       params.Start.UnixMilli(),
		SpentTimeInHour: params.Duration.Hours(),
		SwitchTimes:     params.SwitchTimes,
		Apps:            params.Apps,
	}
	if sess.ID == "" {
		sess.ID = domain.SessionID(id.New())
	}
	if sess.Apps == nil {
		sess.Apps = map[string]domain.AppUsage{}
	}

	err := ss.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		lid, err := listOfCard(tx, params.CardID)
		if err != nil {
			return err
		}
		bid, err := boardOfList(tx, lid)
		if err != nil {
			return err
		}

		if err := insertSession(tx, *sess); err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO card_sessions (card_id, session_id, position)
			SELECT ?, ?, COALESCE(MAX(position), -1) + 1 FROM card_sessions WHERE card_id = ?
		`, params.CardID, sess.ID, params.CardID)
		if err != nil {
			return fmt.Errorf("failed to link session to card: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO board_sessions (board_id, session_id, position)
			SELECT ?, ?, COALESCE(MAX(position), -1) + 1 FROM board_sessions WHERE board_id = ?
		`, bid, sess.ID, bid)
		if err != nil {
			return fmt.Errorf("failed to link session to board: %w", err)
		}
		if _, err := tx.Exec(`UPDATE cards SET actual_hours = actual_hours + ? WHERE id = ?`, sess.SpentTimeInHour, params.CardID); err != nil {
			return fmt.Errorf("failed to update card hours: %w", err)
		}
		if err := refreshBoardHours(tx, bid); err != nil {
			return err
		}
		if err := ew.LogSessionAdded(tx, params.CardID, sess); err != nil {
			return fmt.Errorf("failed to log event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}
