package bunstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/uptrace/bun"

	"github.com/Alp4ka/gostore"
)

type queryMod func(q *bun.SelectQuery) *bun.SelectQuery

// Source is a gostore.Source over the table of model T. Conditions are kept
// as query modifiers and replayed on a fresh SelectQuery for every I/O
// call, so derived sources share nothing.
type Source[T any, K any] struct {
	db   bun.IDB
	mods []queryMod
	err  error
}

// NewSource returns a source over every row of T. Pass base modifiers to
// narrow it down:
//
//	src := bunstore.NewSource[User, int64](db, func(q *bun.SelectQuery) *bun.SelectQuery {
//		return q.Where("active")
//	})
func NewSource[T any, K any](db bun.IDB, base ...func(q *bun.SelectQuery) *bun.SelectQuery) *Source[T, K] {
	s := &Source[T, K]{db: db}
	if db == nil {
		s.err = fmt.Errorf("%w: db is nil", gostore.ErrInvalidArgument)
	}

	for _, m := range base {
		s.mods = append(s.mods, m)
	}

	return s
}

func (s *Source[T, K]) with(m queryMod) *Source[T, K] {
	return &Source[T, K]{
		db:   s.db,
		mods: append(slices.Clip(s.mods), m),
		err:  s.err,
	}
}

func (s *Source[T, K]) fail(err error) *Source[T, K] {
	return &Source[T, K]{db: s.db, mods: s.mods, err: lo.CoalesceOrEmpty(s.err, err)}
}

func (s *Source[T, K]) query() *bun.SelectQuery {
	q := s.db.NewSelect().Model((*T)(nil))
	for _, m := range s.mods {
		q = m(q)
	}

	return q
}

// Where - implements gostore.Source.
func (s *Source[T, K]) Where(key gostore.Key[T, K], op gostore.Operator, value K) gostore.Source[T, K] {
	if err := key.ValidateColumn(); err != nil {
		return s.fail(err)
	}

	if !op.Valid() {
		return s.fail(fmt.Errorf("%w: invalid key operator '%s'", gostore.ErrInvalidArgument, op))
	}

	return s.with(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where(fmt.Sprintf("? %s ?", op), bun.Ident(key.Column), value)
	})
}

// OrderBy - implements gostore.Source.
func (s *Source[T, K]) OrderBy(key gostore.Key[T, K], direction gostore.Direction) gostore.Source[T, K] {
	if err := key.ValidateColumn(); err != nil {
		return s.fail(err)
	}

	if !direction.Valid() {
		return s.fail(fmt.Errorf("%w: invalid ordering direction '%s'", gostore.ErrInvalidArgument, direction))
	}

	return s.with(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr(fmt.Sprintf("? %s", direction), bun.Ident(key.Column))
	})
}

// Limit - implements gostore.Source.
func (s *Source[T, K]) Limit(n int) gostore.Source[T, K] {
	return s.with(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Limit(max(n, 0))
	})
}

// Find - implements gostore.Source.
func (s *Source[T, K]) Find(ctx context.Context) ([]T, error) {
	if s.err != nil {
		return nil, s.err
	}

	var items []T
	if err := s.query().Scan(ctx, &items); err != nil {
		return nil, fmt.Errorf("cannot find items: %w", err)
	}

	return items, nil
}

// Count - implements gostore.Source.
func (s *Source[T, K]) Count(ctx context.Context) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}

	total, err := s.query().Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot count items: %w", err)
	}

	return int64(total), nil
}

// Min - implements gostore.Source.
func (s *Source[T, K]) Min(ctx context.Context, key gostore.Key[T, K]) (K, error) {
	return s.aggregate(ctx, "MIN", key)
}

// Max - implements gostore.Source.
func (s *Source[T, K]) Max(ctx context.Context, key gostore.Key[T, K]) (K, error) {
	return s.aggregate(ctx, "MAX", key)
}

func (s *Source[T, K]) aggregate(ctx context.Context, fn string, key gostore.Key[T, K]) (K, error) {
	var value K

	if s.err != nil {
		return value, s.err
	}

	if err := key.ValidateColumn(); err != nil {
		return value, err
	}

	err := s.query().ColumnExpr(fn+"(?)", bun.Ident(key.Column)).Scan(ctx, &value)
	if err != nil {
		return lo.Empty[K](), fmt.Errorf("cannot select %s(%s): %w", fn, key.Column, err)
	}

	return value, nil
}

// FindRange - implements gostore.Pageable.
func (s *Source[T, K]) FindRange(ctx context.Context, offset, limit int) ([]T, error) {
	if s.err != nil {
		return nil, s.err
	}

	var items []T
	if err := s.query().Offset(offset).Limit(limit).Scan(ctx, &items); err != nil {
		return nil, fmt.Errorf("cannot find items: %w", err)
	}

	return items, nil
}

var (
	_ gostore.Source[int, int] = (*Source[int, int])(nil)
	_ gostore.Pageable[int]    = (*Source[int, int])(nil)
)
