package gostore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// change is one staged write. It runs against the session it is flushed to.
type change func(db *gorm.DB) *gorm.DB

// Option configures a UnitOfWork.
type Option func(u *UnitOfWork)

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(u *UnitOfWork) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// WithRetryStrategy sets the strategy used by ExecuteInResilientTransaction.
// NoRetry is used otherwise.
func WithRetryStrategy(strategy RetryStrategy) Option {
	return func(u *UnitOfWork) {
		if strategy != nil {
			u.strategy = strategy
		}
	}
}

// withCloser makes Close release the underlying connection pool as well.
func withCloser(fn func() error) Option {
	return func(u *UnitOfWork) {
		u.closer = fn
	}
}

// UnitOfWork groups repository writes and runs work inside transactions.
//
// A UnitOfWork is not safe for concurrent use; create one per request or
// goroutine. Distinct units over the same *gorm.DB are independent.
type UnitOfWork struct {
	db       *gorm.DB
	logger   *slog.Logger
	strategy RetryStrategy
	closer   func() error

	current *Transaction
	pending []change
	closed  bool
}

// NewUnitOfWork creates a unit of work over db.
func NewUnitOfWork(db *gorm.DB, opts ...Option) (*UnitOfWork, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: db is nil", ErrInvalidArgument)
	}

	u := &UnitOfWork{
		db:       db.Session(&gorm.Session{}),
		logger:   slog.Default(),
		strategy: NoRetry,
	}

	for _, opt := range opts {
		opt(u)
	}

	return u, nil
}

func (u *UnitOfWork) trace(method string, args ...any) {
	u.logger.Debug("method called", append([]any{slog.String("method", method)}, args...)...)
}

// session returns the active transaction session, or the plain one.
func (u *UnitOfWork) session(ctx context.Context) (*gorm.DB, error) {
	if u.closed {
		return nil, ErrDisposed
	}

	if u.current != nil {
		db, err := u.current.DB()
		if err != nil {
			return nil, err
		}

		return db.WithContext(ctx), nil
	}

	return u.db.WithContext(ctx), nil
}

func (u *UnitOfWork) stage(c change) error {
	if u.closed {
		return ErrDisposed
	}

	u.pending = append(u.pending, c)

	return nil
}

// discard drops changes staged after mark.
func (u *UnitOfWork) discard(mark int) {
	if len(u.pending) > mark {
		clear(u.pending[mark:])
		u.pending = u.pending[:mark]
	}
}

// Pending returns the number of staged changes.
func (u *UnitOfWork) Pending() int {
	return len(u.pending)
}

// Transaction returns the active transaction, or nil. A committed or rolled
// back transaction is no longer returned.
func (u *UnitOfWork) Transaction() *Transaction {
	return u.current
}

// BeginTransaction starts a transaction at the given isolation level;
// sql.LevelDefault leaves the choice to the database. Only one transaction
// may be active per unit of work; once it is committed or rolled back the
// unit is free for the next one.
func (u *UnitOfWork) BeginTransaction(ctx context.Context, level sql.IsolationLevel) (*Transaction, error) {
	if u.closed {
		return nil, ErrDisposed
	}

	u.trace("BeginTransaction", slog.String("isolation", level.String()))

	if u.current != nil {
		return nil, ErrTransactionActive
	}

	tx, err := beginTransaction(ctx, u.db, level, u.logger)
	if err != nil {
		return nil, err
	}

	detach := func() {
		if u.current == tx {
			u.current = nil
		}
	}
	tx.onFinish, tx.onClose = detach, detach
	u.current = tx

	return tx, nil
}

// Commit flushes staged changes and returns the number of affected rows.
// Inside an active transaction the changes join it; otherwise they are
// written in a transaction of their own. With nothing staged, Commit does no
// I/O.
func (u *UnitOfWork) Commit(ctx context.Context) (int64, error) {
	if u.closed {
		return 0, ErrDisposed
	}

	u.trace("Commit", slog.Int("pending", len(u.pending)))

	if len(u.pending) == 0 {
		return 0, nil
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var (
		affected int64
		err      error
	)

	if u.current != nil {
		var db *gorm.DB
		if db, err = u.current.DB(); err != nil {
			return 0, err
		}

		affected, err = flush(db.WithContext(ctx), u.pending)
	} else {
		err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var ferr error
			affected, ferr = flush(tx, u.pending)
			return ferr
		})
	}

	if err != nil {
		return 0, err
	}

	u.discard(0)

	return affected, nil
}

func flush(db *gorm.DB, changes []change) (int64, error) {
	var affected int64
	for _, c := range changes {
		res := c(db)
		if res.Error != nil {
			return 0, fmt.Errorf("cannot flush changes: %w", res.Error)
		}

		affected += res.RowsAffected
	}

	return affected, nil
}

// ExecuteInResilientTransaction runs fn inside a transaction under the retry
// strategy of the unit of work.
//
// When fn returns true the transaction is committed, when it returns false
// it is rolled back; neither is a failure. When fn fails, the transaction is
// rolled back and the very error of fn is returned. A panic in fn rolls back
// before it propagates. Changes staged by an unsuccessful attempt are
// discarded so that a retried attempt starts clean.
func (u *UnitOfWork) ExecuteInResilientTransaction(
	ctx context.Context,
	fn func(ctx context.Context) (bool, error),
	level sql.IsolationLevel,
) error {
	const method = "ExecuteInResilientTransaction"

	if u.closed {
		return ErrDisposed
	}

	if fn == nil {
		return fmt.Errorf("%w: callback is nil", ErrInvalidArgument)
	}

	u.trace(method, slog.String("isolation", level.String()))

	return u.strategy.Execute(ctx, func(ctx context.Context) error {
		return u.attempt(ctx, method, fn, level)
	})
}

func (u *UnitOfWork) attempt(
	ctx context.Context,
	method string,
	fn func(ctx context.Context) (bool, error),
	level sql.IsolationLevel,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := u.BeginTransaction(ctx, level)
	if err != nil {
		return err
	}

	defer u.release(tx, method)

	mark := len(u.pending)

	defer func() {
		if r := recover(); r != nil {
			u.discard(mark)
			u.rollback(tx, method)
			panic(r)
		}
	}()

	shouldCommit, err := fn(ctx)
	if err != nil {
		u.logger.Error("failed running in transaction",
			slog.String("method", method),
			slog.Any("error", err),
		)
		u.discard(mark)
		u.rollback(tx, method)

		return err
	}

	if !shouldCommit {
		u.logger.Debug("rolling back transaction", slog.String("method", method))
		u.discard(mark)

		return tx.Rollback()
	}

	u.logger.Debug("committing transaction", slog.String("method", method))

	if err = tx.Commit(ctx); err != nil {
		u.discard(mark)
		return err
	}

	return nil
}

// rollback rolls tx back on a failure path. Its own error is logged only,
// the original failure is what the caller sees.
func (u *UnitOfWork) rollback(tx *Transaction, method string) {
	if tx.state != txActive {
		return
	}

	if err := tx.Rollback(); err != nil {
		u.logger.Error("cannot roll back transaction",
			slog.String("method", method),
			slog.Any("error", err),
		)
	}
}

func (u *UnitOfWork) release(tx *Transaction, method string) {
	if err := tx.Close(); err != nil {
		u.logger.Error("cannot close transaction",
			slog.String("method", method),
			slog.Any("error", err),
		)
	}
}

// Close rolls back the active transaction, drops staged changes and releases
// the connection pool when the unit of work owns it. Closing twice is a no-op.
func (u *UnitOfWork) Close() error {
	if u.closed {
		return nil
	}

	u.trace("Close")

	var errs []error
	if u.current != nil {
		errs = append(errs, u.current.Close())
	}

	u.discard(0)
	u.closed = true

	if u.closer != nil {
		errs = append(errs, u.closer())
	}

	return errors.Join(errs...)
}
