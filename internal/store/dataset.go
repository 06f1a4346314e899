package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/events"
)

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Load reads the complete stored dataset
func (s *Store) Load() (*domain.Dataset, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	return loadDataset(tx)
}

// Replace swaps the stored dataset for ds in one transaction. ds must satisfy
// the dataset shape invariants.
func (s *Store) Replace(ds *domain.Dataset, reason string) error {
	if err := domain.Validate(ds); err != nil {
		return fmt.Errorf("refusing to store invalid dataset: %w", err)
	}
	return s.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		return replaceDataset(tx, ew, ds, reason)
	})
}

// Swap applies fn to the current dataset and stores its result while holding
// the exclusive store lock. The read and the write share one transaction, so
// readers see either the old dataset or the new one. If fn returns an error,
// or returns nil for the dataset, nothing is written.
func (s *Store) Swap(reason string, fn func(current *domain.Dataset) (*domain.Dataset, error)) (*domain.Dataset, error) {
	var result *domain.Dataset
	err := s.withLock(func() error {
		return s.withTx(func(tx *sql.Tx, ew *events.Writer) error {
			current, err := loadDataset(tx)
			if err != nil {
				return err
			}
			next, err := fn(current)
			if err != nil {
				return err
			}
			if next == nil {
				result = current
				return nil
			}
			if err := domain.Validate(next); err != nil {
				return fmt.Errorf("refusing to store invalid dataset: %w", err)
			}
			if err := replaceDataset(tx, ew, next, reason); err != nil {
				return err
			}
			result = next
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func loadDataset(q queryer) (*domain.Dataset, error) {
	ds := domain.NewDataset()

	rows, err := q.Query(`SELECT id, start_time, spent_hours, switch_times, screen_static_duration, apps FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	for rows.Next() {
		var sess domain.Session
		var apps string
		if err := rows.Scan(&sess.ID, &sess.StartTime, &sess.SpentTimeInHour, &sess.SwitchTimes, &sess.ScreenStaticDuration, &apps); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if err := json.Unmarshal([]byte(apps), &sess.Apps); err != nil {
			rows.Close()
			return nil, fmt.Errorf("session %s: invalid apps: %w", sess.ID, err)
		}
		ds.Records[sess.ID] = sess
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = q.Query(`SELECT id, title, content, estimated_hours, actual_hours FROM cards`)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(&c.ID, &c.Title, &c.Content, &c.SpentTimeInHour.Estimated, &c.SpentTimeInHour.Actual); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		c.SessionIDs = []domain.SessionID{}
		ds.Cards[c.ID] = c
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	err = scanLinks(q, `SELECT card_id, session_id FROM card_sessions ORDER BY card_id, position`, func(owner, member string) {
		c := ds.Cards[domain.CardID(owner)]
		c.SessionIDs = append(c.SessionIDs, domain.SessionID(member))
		ds.Cards[c.ID] = c
	})
	if err != nil {
		return nil, err
	}

	rows, err = q.Query(`SELECT id, title FROM lists`)
	if err != nil {
		return nil, fmt.Errorf("failed to load lists: %w", err)
	}
	for rows.Next() {
		var l domain.List
		if err := rows.Scan(&l.ID, &l.Title); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		l.Cards = []domain.CardID{}
		ds.Lists[l.ID] = l
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	err = scanLinks(q, `SELECT list_id, card_id FROM list_cards ORDER BY list_id, position`, func(owner, member string) {
		l := ds.Lists[domain.ListID(owner)]
		l.Cards = append(l.Cards, domain.CardID(member))
		ds.Lists[l.ID] = l
	})
	if err != nil {
		return nil, err
	}

	rows, err = q.Query(`SELECT id, name, description, COALESCE(done_list, ''), COALESCE(focused_list, ''), spent_hours, pin, due_time FROM boards`)
	if err != nil {
		return nil, fmt.Errorf("failed to load boards: %w", err)
	}
	for rows.Next() {
		var b domain.Board
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.DoneList, &b.FocusedList, &b.SpentHours, &b.Pin, &b.DueTime); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		b.Lists = []domain.ListID{}
		b.RelatedSessions = []domain.SessionID{}
		ds.Boards[b.ID] = b
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	err = scanLinks(q, `SELECT board_id, list_id FROM board_lists ORDER BY board_id, position`, func(owner, member string) {
		b := ds.Boards[domain.BoardID(owner)]
		b.Lists = append(b.Lists, domain.ListID(member))
		ds.Boards[b.ID] = b
	})
	if err != nil {
		return nil, err
	}
	err = scanLinks(q, `SELECT board_id, session_id FROM board_sessions ORDER BY board_id, position`, func(owner, member string) {
		b := ds.Boards[domain.BoardID(owner)]
		b.RelatedSessions = append(b.RelatedSessions, domain.SessionID(member))
		ds.Boards[b.ID] = b
	})
	if err != nil {
		return nil, err
	}

	rows, err = q.Query(`SELECT time, card_id, from_list_id, to_list_id FROM moves ORDER BY time, seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to load moves: %w", err)
	}
	ds.Moves = []domain.MoveEvent{}
	for rows.Next() {
		var mv domain.MoveEvent
		if err := rows.Scan(&mv.Time, &mv.CardID, &mv.FromListID, &mv.ToListID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan move: %w", err)
		}
		ds.Moves = append(ds.Moves, mv)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	return ds, nil
}

func scanLinks(q queryer, query string, add func(owner, member string)) error {
	rows, err := q.Query(query)
	if err != nil {
		return fmt.Errorf("failed to load links: %w", err)
	}
	for rows.Next() {
		var owner, member string
		if err := rows.Scan(&owner, &member); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan link: %w", err)
		}
		add(owner, member)
	}
	return closeRows(rows)
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("error iterating rows: %w", err)
	}
	return rows.Close()
}

// replaceDataset clears every dataset table and inserts ds, children first
func replaceDataset(tx *sql.Tx, ew *events.Writer, ds *domain.Dataset, reason string) error {
	for _, table := range []string{"moves", "board_sessions", "board_lists", "boards", "list_cards", "lists", "card_sessions", "cards", "sessions"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, sid := range ds.SessionIDs() {
		if err := insertSession(tx, ds.Records[sid]); err != nil {
			return err
		}
	}

	for _, cid := range ds.CardIDs() {
		c := ds.Cards[cid]
		if err := insertCard(tx, c); err != nil {
			return err
		}
	}

	for _, lid := range ds.ListIDs() {
		l := ds.Lists[lid]
		if _, err := tx.Exec(`INSERT INTO lists (id, title) VALUES (?, ?)`, l.ID, l.Title); err != nil {
			return fmt.Errorf("failed to insert list %s: %w", l.ID, err)
		}
		for pos, cid := range l.Cards {
			if _, err := tx.Exec(`INSERT INTO list_cards (list_id, card_id, position) VALUES (?, ?, ?)`, l.ID, cid, pos); err != nil {
				return fmt.Errorf("failed to link card %s to list %s: %w", cid, l.ID, err)
			}
		}
	}

	for _, bid := range ds.BoardIDs() {
		if err := insertBoard(tx, ds.Boards[bid]); err != nil {
			return err
		}
	}

	for _, mv := range ds.Moves {
		if err := insertMove(tx, mv); err != nil {
			return err
		}
	}

	return ew.LogDatasetReplaced(tx, reason, ds.Counts())
}

func insertSession(tx *sql.Tx, sess domain.Session) error {
	apps := sess.Apps
	if apps == nil {
		apps = map[string]domain.AppUsage{}
	}
	appsJSON, err := json.Marshal(apps)
	if err != nil {
		return fmt.Errorf("failed to encode apps for session %s: %w", sess.ID, err)
	}
	_, err = tx.Exec(`
		INSERT INTO sessions (id, start_time, spent_hours, switch_times, screen_static_duration, apps)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.StartTime, sess.SpentTimeInHour, sess.SwitchTimes, sess.ScreenStaticDuration, string(appsJSON))
	if err != nil {
		return fmt.Errorf("failed to insert session %s: %w", sess.ID, err)
	}
	return nil
}

func insertCard(tx *sql.Tx, c domain.Card) error {
	_, err := tx.Exec(`
		INSERT INTO cards (id, title, content, estimated_hours, actual_hours)
		VALUES (?, ?, ?, ?, ?)
	`, c.ID, c.Title, c.Content, c.SpentTimeInHour.Estimated, c.SpentTimeInHour.Actual)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", c.ID, err)
	}
	for pos, sid := range c.SessionIDs {
		if _, err := tx.Exec(`INSERT INTO card_sessions (card_id, session_id, position) VALUES (?, ?, ?)`, c.ID, sid, pos); err != nil {
			return fmt.Errorf("failed to link session %s to card %s: %w", sid, c.ID, err)
		}
	}
	return nil
}

func insertBoard(tx *sql.Tx, b domain.Board) error {
	_, err := tx.Exec(`
		INSERT INTO boards (id, name, description, done_list, focused_list, spent_hours, pin, due_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Name, b.Description, nullString(string(b.DoneList)), nullString(string(b.FocusedList)), b.SpentHours, b.Pin, b.DueTime)
	if err != nil {
		return fmt.Errorf("failed to insert board %s: %w", b.ID, err)
	}
	for pos, lid := range b.Lists {
		if _, err := tx.Exec(`INSERT INTO board_lists (board_id, list_id, position) VALUES (?, ?, ?)`, b.ID, lid, pos); err != nil {
			return fmt.Errorf("failed to link list %s to board %s: %w", lid, b.ID, err)
		}
	}
	for pos, sid := range b.RelatedSessions {
		if _, err := tx.Exec(`INSERT INTO board_sessions (board_id, session_id, position) VALUES (?, ?, ?)`, b.ID, sid, pos); err != nil {
			return fmt.Errorf("failed to link session %s to board %s: %w", sid, b.ID, err)
		}
	}
	return nil
}

func insertMove(tx *sql.Tx, mv domain.MoveEvent) error {
	_, err := tx.Exec(`
		INSERT INTO moves (time, card_id, from_list_id, to_list_id)
		VALUES (?, ?, ?, ?)
	`, mv.Time, mv.CardID, mv.FromListID, mv.ToListID)
	if err != nil {
		return fmt.Errorf("failed to insert move of card %s: %w", mv.CardID, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
