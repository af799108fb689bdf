package gostore

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// GORMSource is a Source over a GORM query. Every builder call works on a
// fresh statement, so derived sources never leak conditions into each other.
//
// The base query must not carry its own ORDER BY: Min and Max run aggregate
// queries over it, which some dialects reject when ordered.
type GORMSource[T any, K any] struct {
	db  *gorm.DB
	err error
}

// NewGORMSource wraps db. When db has neither a model nor a table, the model
// of T is used. A nil db yields a source failing with ErrInvalidArgument.
//
//	src := gostore.NewGORMSource[User, int64](db.Where("active"))
func NewGORMSource[T any, K any](db *gorm.DB) *GORMSource[T, K] {
	if db == nil {
		return &GORMSource[T, K]{err: fmt.Errorf("%w: db is nil", ErrInvalidArgument)}
	}

	if db.Statement.Model == nil && db.Statement.Table == "" {
		db = db.Model(new(T))
	}

	return &GORMSource[T, K]{
		db:  db.Session(&gorm.Session{}),
		err: db.Error,
	}
}

func (s *GORMSource[T, K]) derive(fn func(db *gorm.DB) *gorm.DB) *GORMSource[T, K] {
	if s.err != nil {
		return s
	}

	return &GORMSource[T, K]{db: fn(s.db).Session(&gorm.Session{})}
}

func (s *GORMSource[T, K]) fail(err error) *GORMSource[T, K] {
	return &GORMSource[T, K]{db: s.db, err: lo.CoalesceOrEmpty(s.err, err)}
}

// Where - implements Source.
func (s *GORMSource[T, K]) Where(key Key[T, K], op Operator, value K) Source[T, K] {
	if err := key.ValidateColumn(); err != nil {
		return s.fail(err)
	}

	p, err := newKeyPredicate(key, op, value)
	if err != nil {
		return s.fail(err)
	}

	return s.derive(func(db *gorm.DB) *gorm.DB {
		return db.Clauses(p.toGORMExpression())
	})
}

// OrderBy - implements Source.
func (s *GORMSource[T, K]) OrderBy(key Key[T, K], direction Direction) Source[T, K] {
	if err := key.ValidateColumn(); err != nil {
		return s.fail(err)
	}

	if !direction.Valid() {
		return s.fail(fmt.Errorf("%w: invalid ordering direction '%s'", ErrInvalidArgument, direction))
	}

	return s.derive(func(db *gorm.DB) *gorm.DB {
		return db.Order(orderSQL(key.Column, direction))
	})
}

// Limit - implements Source.
func (s *GORMSource[T, K]) Limit(n int) Source[T, K] {
	return s.derive(func(db *gorm.DB) *gorm.DB {
		return db.Limit(max(n, 0))
	})
}

// Find - implements Source.
func (s *GORMSource[T, K]) Find(ctx context.Context) ([]T, error) {
	if s.err != nil {
		return nil, s.err
	}

	var items []T
	if err := s.db.WithContext(ctx).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("cannot find items: %w", err)
	}

	return items, nil
}

// Count - implements Source.
func (s *GORMSource[T, K]) Count(ctx context.Context) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}

	var total int64
	if err := s.db.WithContext(ctx).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("cannot count items: %w", err)
	}

	return total, nil
}

// Min - implements Source.
func (s *GORMSource[T, K]) Min(ctx context.Context, key Key[T, K]) (K, error) {
	return s.aggregate(ctx, "MIN", key)
}

// Max - implements Source.
func (s *GORMSource[T, K]) Max(ctx context.Context, key Key[T, K]) (K, error) {
	return s.aggregate(ctx, "MAX", key)
}

func (s *GORMSource[T, K]) aggregate(ctx context.Context, fn string, key Key[T, K]) (K, error) {
	if s.err != nil {
		return lo.Empty[K](), s.err
	}

	if err := key.ValidateColumn(); err != nil {
		return lo.Empty[K](), err
	}

	expr := fmt.Sprintf("%s(%s)", fn, key.Column)

	var values []K
	if err := s.db.WithContext(ctx).Select(expr).Pluck(expr, &values).Error; err != nil {
		return lo.Empty[K](), fmt.Errorf("cannot select %s: %w", expr, err)
	}

	return lo.FirstOrEmpty(values), nil
}

// FindRange - implements Pageable.
func (s *GORMSource[T, K]) FindRange(ctx context.Context, offset, limit int) ([]T, error) {
	if s.err != nil {
		return nil, s.err
	}

	var items []T
	if err := s.db.WithContext(ctx).Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("cannot find items: %w", err)
	}

	return items, nil
}

var (
	_ Source[int, int] = (*GORMSource[int, int])(nil)
	_ Pageable[int]    = (*GORMSource[int, int])(nil)
)
