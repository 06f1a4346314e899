// Package store provides a persistence layer that abstracts database operations,
// keeping derived board hours current and logging every mutation.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"

	"github.com/lherron/pomokan/internal/db"
	"github.com/lherron/pomokan/internal/events"
)

const (
	defaultLockTimeout = 5 * time.Second
	lockRetryDelay     = 50 * time.Millisecond
)

// ErrLocked is returned when the exclusive store lock could not be acquired
var ErrLocked = errors.New("store is locked by another process")

// NotFoundError reports a missing entity
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// Store is the root store that provides access to domain-specific stores.
type Store struct {
	db          *db.DB
	lockTimeout time.Duration

	// Domain-specific stores
	Boards   *BoardStore
	Cards    *CardStore
	Sessions *SessionStore
}

// New creates a new Store wrapping the given database connection.
func New(database *db.DB) *Store {
	s := &Store{db: database, lockTimeout: defaultLockTimeout}
	s.Boards = &BoardStore{store: s}
	s.Cards = &CardStore{store: s}
	s.Sessions = &SessionStore{store: s}
	return s
}

// SetLockTimeout bounds how long Swap waits for the exclusive lock.
// Non-positive values restore the default.
func (s *Store) SetLockTimeout(d time.Duration) {
	if d <= 0 {
		d = defaultLockTimeout
	}
	s.lockTimeout = d
}

// DB returns the underlying database connection (for read-only queries).
func (s *Store) DB() *db.DB {
	return s.db
}

// LockPath is the file guarding exclusive access to the store
func (s *Store) LockPath() string {
	return s.db.Path() + ".lock"
}

// withTx executes fn within a transaction. If fn returns nil, the transaction
// is committed; otherwise it is rolled back.
func (s *Store) withTx(fn func(tx *sql.Tx, ew *events.Writer) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ew := events.NewWriter(s.db.DB)
	if err := fn(tx, ew); err != nil {
		return err
	}

	return tx.Commit()
}

// withLock runs fn while holding the inter-process store lock
func (s *Store) withLock(fn func() error) error {
	lock := flock.New(s.LockPath())
	ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("acquiring store lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w (%s)", ErrLocked, s.LockPath())
	}
	defer func() { _ = lock.Unlock() }()

	return fn()
}
