package gostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository gives typed access to the entities of T through a UnitOfWork.
// Reads run immediately on the current session of the unit; writes are
// staged and reach the database on UnitOfWork.Commit.
type Repository[T any] struct {
	uow    *UnitOfWork
	logger *slog.Logger
	closed bool
}

// NewRepository binds a repository of T to uow.
func NewRepository[T any](uow *UnitOfWork) (*Repository[T], error) {
	if uow == nil {
		return nil, fmt.Errorf("%w: unit of work is nil", ErrInvalidArgument)
	}

	return &Repository[T]{
		uow:    uow,
		logger: uow.logger.With(slog.String("entity", fmt.Sprintf("%T", lo.Empty[T]()))),
	}, nil
}

func (r *Repository[T]) trace(method string, args ...any) {
	r.logger.Debug("method called", append([]any{slog.String("method", method)}, args...)...)
}

func (r *Repository[T]) session(ctx context.Context) (*gorm.DB, error) {
	if r.closed {
		return nil, ErrDisposed
	}

	db, err := r.uow.session(ctx)
	if err != nil {
		return nil, err
	}

	return db.Model(new(T)), nil
}

// Query returns a session scoped to T for custom reads. Wrap it with
// NewGORMSource to paginate by key.
func (r *Repository[T]) Query(ctx context.Context) (*gorm.DB, error) {
	r.trace("Query")
	return r.session(ctx)
}

// Find loads the entity with the given primary key. A missing entity is not
// an error: Find returns nil.
func (r *Repository[T]) Find(ctx context.Context, id any) (*T, error) {
	r.trace("Find", slog.Any("id", id))

	if id == nil {
		return nil, fmt.Errorf("%w: id is nil", ErrInvalidArgument)
	}

	db, err := r.session(ctx)
	if err != nil {
		return nil, err
	}

	r.logger.Info("searching by id", slog.Any("id", id))

	entity := new(T)
	err = db.Where(clause.Eq{Column: clause.PrimaryColumn, Value: id}).Take(entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("cannot find entity: %w", err)
	}

	return entity, nil
}

// Paginate returns the given 1-based page of all entities, ordered by
// primary key so that consecutive pages neither skip nor repeat rows. T must
// have a primary key.
func (r *Repository[T]) Paginate(ctx context.Context, page, size int) (*Page[T], error) {
	r.trace("Paginate", slog.Int("page", page), slog.Int("size", size))

	db, err := r.session(ctx)
	if err != nil {
		return nil, err
	}

	db = db.Order(clause.OrderByColumn{Column: clause.PrimaryColumn})

	return Paginate[T](ctx, NewGORMSource[T, any](db), page, size)
}

// Add stages the insertion of entities.
func (r *Repository[T]) Add(ctx context.Context, entities ...*T) error {
	r.trace("Add", slog.Int("count", len(entities)))
	return r.stage(ctx, "adding entities", entities, func(db *gorm.DB, e *T) *gorm.DB {
		return db.Create(e)
	})
}

// Update stages a full update of entities.
func (r *Repository[T]) Update(ctx context.Context, entities ...*T) error {
	r.trace("Update", slog.Int("count", len(entities)))
	return r.stage(ctx, "updating entities", entities, func(db *gorm.DB, e *T) *gorm.DB {
		return db.Save(e)
	})
}

// Remove stages the deletion of entities.
func (r *Repository[T]) Remove(ctx context.Context, entities ...*T) error {
	r.trace("Remove", slog.Int("count", len(entities)))
	return r.stage(ctx, "removing entities", entities, func(db *gorm.DB, e *T) *gorm.DB {
		return db.Delete(e)
	})
}

func (r *Repository[T]) stage(ctx context.Context, msg string, entities []*T, fn func(db *gorm.DB, e *T) *gorm.DB) error {
	if r.closed {
		return ErrDisposed
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if lo.Contains(entities, nil) {
		r.logger.Error("entity is nil")
		return fmt.Errorf("%w: entity is nil", ErrInvalidArgument)
	}

	r.logger.Info(msg, slog.Int("count", len(entities)))

	for _, e := range entities {
		if err := r.uow.stage(func(db *gorm.DB) *gorm.DB { return fn(db, e) }); err != nil {
			return err
		}
	}

	return nil
}

// Close detaches the repository. The unit of work stays open.
func (r *Repository[T]) Close() error {
	if !r.closed {
		r.trace("Close")
		r.closed = true
	}

	return nil
}
