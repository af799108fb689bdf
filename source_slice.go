package gostore

import (
	"context"
	"slices"

	"github.com/samber/lo"
)

// SliceSource is an in-memory Source over a slice. The backing slice is
// never modified.
type SliceSource[T any, K any] struct {
	items      []T
	predicates []func(T) bool
	order      func(a, b T) int
	limit      int
	err        error
}

// NewSliceSource wraps items into a Source.
func NewSliceSource[T any, K any](items []T) *SliceSource[T, K] {
	return &SliceSource[T, K]{
		items: items,
		limit: -1,
	}
}

func (s *SliceSource[T, K]) clone() *SliceSource[T, K] {
	c := *s
	c.predicates = slices.Clip(s.predicates)

	return &c
}

// Where - implements Source.
func (s *SliceSource[T, K]) Where(key Key[T, K], op Operator, value K) Source[T, K] {
	c := s.clone()

	p, err := newKeyPredicate(key, op, value)
	if err == nil {
		err = key.Validate()
	}
	if err != nil {
		c.err = err
		return c
	}

	c.predicates = append(c.predicates, p.match)

	return c
}

// OrderBy - implements Source.
func (s *SliceSource[T, K]) OrderBy(key Key[T, K], direction Direction) Source[T, K] {
	c := s.clone()
	if err := key.Validate(); err != nil {
		c.err = err
		return c
	}

	c.order = func(a, b T) int {
		r := key.Compare(key.Value(a), key.Value(b))
		return lo.Ternary(direction == DirectionDESC, -r, r)
	}

	return c
}

// Limit - implements Source.
func (s *SliceSource[T, K]) Limit(n int) Source[T, K] {
	c := s.clone()
	c.limit = max(n, 0)

	return c
}

// Find - implements Source.
func (s *SliceSource[T, K]) Find(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.err != nil {
		return nil, s.err
	}

	ret := lo.Filter(s.items, func(item T, _ int) bool {
		return lo.EveryBy(s.predicates, func(p func(T) bool) bool { return p(item) })
	})

	if s.order != nil {
		slices.SortStableFunc(ret, s.order)
	}

	if s.limit >= 0 && len(ret) > s.limit {
		ret = ret[:s.limit]
	}

	return ret, nil
}

// Count - implements Source.
func (s *SliceSource[T, K]) Count(ctx context.Context) (int64, error) {
	items, err := s.Find(ctx)
	if err != nil {
		return 0, err
	}

	return int64(len(items)), nil
}

// Min - implements Source.
func (s *SliceSource[T, K]) Min(ctx context.Context, key Key[T, K]) (K, error) {
	return s.bound(ctx, key, -1)
}

// Max - implements Source.
func (s *SliceSource[T, K]) Max(ctx context.Context, key Key[T, K]) (K, error) {
	return s.bound(ctx, key, 1)
}

func (s *SliceSource[T, K]) bound(ctx context.Context, key Key[T, K], sign int) (K, error) {
	if err := key.Validate(); err != nil {
		return lo.Empty[K](), err
	}

	items, err := s.Find(ctx)
	if err != nil || len(items) == 0 {
		return lo.Empty[K](), err
	}

	best := lo.MaxBy(items, func(a, b T) bool {
		return sign*key.Compare(key.Value(a), key.Value(b)) > 0
	})

	return key.Value(best), nil
}

// FindRange - implements Pageable.
func (s *SliceSource[T, K]) FindRange(ctx context.Context, offset, limit int) ([]T, error) {
	items, err := s.Find(ctx)
	if err != nil {
		return nil, err
	}

	if offset >= len(items) {
		return []T{}, nil
	}

	return lo.Slice(items, offset, offset+min(limit, len(items)-offset)), nil
}

var (
	_ Source[int, int] = (*SliceSource[int, int])(nil)
	_ Pageable[int]    = (*SliceSource[int, int])(nil)
)
