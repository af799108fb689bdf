package gostore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txState int

const (
	txActive txState = iota
	txCommitted
	txRolledBack
)

func (s txState) String() string {
	switch s {
	case txActive:
		return "active"
	case txCommitted:
		return "committed"
	case txRolledBack:
		return "rolled back"
	default:
		return "unknown"
	}
}

// Transaction wraps one database transaction. It is finished by exactly one
// Commit or Rollback and released by Close. A Transaction must not be used
// from several goroutines at once.
type Transaction struct {
	id      uuid.UUID
	tx      *gorm.DB
	level   sql.IsolationLevel
	state   txState
	closed  bool
	logger  *slog.Logger
	// onFinish runs once the transaction is committed or rolled back.
	onFinish func()
	onClose  func()
}

func beginTransaction(ctx context.Context, db *gorm.DB, level sql.IsolationLevel, logger *slog.Logger) (*Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tx := db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: level})
	if tx.Error != nil {
		return nil, fmt.Errorf("cannot begin transaction: %w", tx.Error)
	}

	t := &Transaction{
		id:     uuid.New(),
		tx:     tx,
		level:  level,
		logger: logger,
	}

	t.logger.Debug("transaction started",
		slog.String("transaction", t.id.String()),
		slog.String("isolation", level.String()),
	)

	return t, nil
}

// ID returns the identifier assigned when the transaction began.
func (t *Transaction) ID() (uuid.UUID, error) {
	if t.closed {
		return uuid.Nil, ErrDisposed
	}

	return t.id, nil
}

// IsolationLevel returns the level the transaction was started with.
func (t *Transaction) IsolationLevel() sql.IsolationLevel {
	return t.level
}

// DB returns the session bound to the transaction. Statements run through it
// take part in the transaction.
func (t *Transaction) DB() (*gorm.DB, error) {
	if t.closed || t.state != txActive {
		return nil, ErrDisposed
	}

	return t.tx.Session(&gorm.Session{}), nil
}

// Commit commits the transaction. ctx is checked before COMMIT is sent;
// after that the outcome belongs to the database.
func (t *Transaction) Commit(ctx context.Context) error {
	if t.closed || t.state != txActive {
		return fmt.Errorf("cannot commit %s transaction: %w", t.state, ErrDisposed)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := t.tx.Commit().Error; err != nil {
		// database/sql finishes the transaction even when COMMIT fails.
		t.finish(txRolledBack)
		return fmt.Errorf("cannot commit transaction: %w", err)
	}

	t.finish(txCommitted)
	t.logger.Debug("transaction committed", slog.String("transaction", t.id.String()))

	return nil
}

// Rollback aborts the transaction. A transaction already aborted by the
// driver, for example after its context was cancelled, counts as rolled back.
func (t *Transaction) Rollback() error {
	if t.closed || t.state != txActive {
		return fmt.Errorf("cannot roll back %s transaction: %w", t.state, ErrDisposed)
	}

	t.finish(txRolledBack)

	if err := t.tx.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("cannot roll back transaction: %w", err)
	}

	t.logger.Debug("transaction rolled back", slog.String("transaction", t.id.String()))

	return nil
}

func (t *Transaction) finish(state txState) {
	t.state = state
	if t.onFinish != nil {
		t.onFinish()
	}
}

// Close releases the transaction, rolling it back if it is still active.
// Closing twice is a no-op.
func (t *Transaction) Close() error {
	if t.closed {
		return nil
	}

	var err error
	if t.state == txActive {
		err = t.Rollback()
	}

	t.closed = true
	if t.onClose != nil {
		t.onClose()
	}

	return err
}
