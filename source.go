package gostore

import "context"

// Source is a queryable, immutable sequence of T ordered and filtered by a
// key of type K. Builder methods return a new Source and never modify the
// receiver, so a filtered Source can be reused for both the page query and
// the bound queries.
//
// Builder methods do no I/O. Find, Count, Min and Max do, and must honour
// ctx.
type Source[T any, K any] interface {
	// Where keeps the items for which "key op value" holds.
	Where(key Key[T, K], op Operator, value K) Source[T, K]
	// OrderBy orders the items by key.
	OrderBy(key Key[T, K], direction Direction) Source[T, K]
	// Limit keeps at most n items.
	Limit(n int) Source[T, K]

	Find(ctx context.Context) ([]T, error)
	Count(ctx context.Context) (int64, error)
	// Min and Max return the smallest and largest key. They are only called on
	// non-empty sets.
	Min(ctx context.Context, key Key[T, K]) (K, error)
	Max(ctx context.Context, key Key[T, K]) (K, error)
}

// Pageable is the subset of a source needed for offset pagination.
type Pageable[T any] interface {
	Count(ctx context.Context) (int64, error)
	FindRange(ctx context.Context, offset, limit int) ([]T, error)
}
