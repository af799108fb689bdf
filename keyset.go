package gostore

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// KeysetPage is one ordered window of a keyset pagination.
//
// MinKey and MaxKey are the bounds of the key over the whole filtered set,
// not only over the returned items, so callers can tell whether more items
// exist past either edge of the page. For an empty page they are the zero
// value of K and carry no meaning.
type KeysetPage[T any, K any] struct {
	items     []T
	minKey    K
	maxKey    K
	size      int
	direction Direction
	first     K
	last      K
	hasNext   bool
}

// Items returns a copy of the page items in traversal order.
func (p *KeysetPage[T, K]) Items() []T {
	return slices.Clone(p.items)
}

func (p *KeysetPage[T, K]) Len() int {
	return len(p.items)
}

func (p *KeysetPage[T, K]) IsEmpty() bool {
	return len(p.items) == 0
}

func (p *KeysetPage[T, K]) MinKey() K {
	return p.minKey
}

func (p *KeysetPage[T, K]) MaxKey() K {
	return p.maxKey
}

// Size returns the requested page size.
func (p *KeysetPage[T, K]) Size() int {
	return p.size
}

func (p *KeysetPage[T, K]) Direction() Direction {
	return p.direction
}

// HasNext reports whether the filtered set holds items past the last item of
// the page in traversal order.
func (p *KeysetPage[T, K]) HasNext() bool {
	return p.hasNext
}

// Next returns the cursor of the following page, or NoCursor when there is
// none.
func (p *KeysetPage[T, K]) Next() Cursor[K] {
	if !p.hasNext {
		return NoCursor[K]()
	}

	return After(p.last)
}

// Previous returns the cursor reading back from the first item of the page.
// Paginated with Direction().Reverse(), it yields the preceding items,
// closest first. An empty page has no Previous.
func (p *KeysetPage[T, K]) Previous() Cursor[K] {
	if p.IsEmpty() {
		return NoCursor[K]()
	}

	return After(p.first)
}

type keysetPageJSON[T any, K any] struct {
	Items     []T    `json:"items"`
	MinKey    *K     `json:"minKey,omitempty"`
	MaxKey    *K     `json:"maxKey,omitempty"`
	Size      int    `json:"size"`
	NextToken string `json:"nextToken,omitempty"`
}

// MarshalJSON - implements json.Marshaler. Bounds are omitted for an empty
// page.
func (p *KeysetPage[T, K]) MarshalJSON() ([]byte, error) {
	out := keysetPageJSON[T, K]{
		Items:     lo.Ternary(p.items == nil, []T{}, p.items),
		Size:      p.size,
		NextToken: p.Next().String(),
	}

	if !p.IsEmpty() {
		out.MinKey, out.MaxKey = &p.minKey, &p.maxKey
	}

	return json.Marshal(out)
}

// PaginateKeyset fetches one keyset page from src.
//
// The page holds at most size items ordered by key in the given direction,
// starting strictly past the cursor. Before(x) keeps keys the traversal has
// already passed (< x ascending, > x descending), After(x) keeps the others.
// A non-positive size yields an empty page.
//
// When the page is not empty, two more queries compute the key bounds over
// the filtered set.
func PaginateKeyset[T any, K any](
	ctx context.Context,
	src Source[T, K],
	key Key[T, K],
	size int,
	cursor Cursor[K],
	direction Direction,
) (*KeysetPage[T, K], error) {
	if src == nil {
		return nil, fmt.Errorf("cannot paginate: %w: source is nil", ErrInvalidArgument)
	}

	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	if !direction.Valid() {
		return nil, fmt.Errorf("cannot paginate: %w: invalid ordering direction '%s'", ErrInvalidArgument, direction)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page := &KeysetPage[T, K]{
		size:      size,
		direction: direction,
	}

	if size <= 0 {
		return page, nil
	}

	filtered := src
	if value, ok := cursor.Key(); ok {
		filtered = filtered.Where(key, cursor.operator(direction), value)
	}

	items, err := filtered.OrderBy(key, direction).Limit(size).Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch keyset page: %w", err)
	}

	if len(items) == 0 {
		return page, nil
	}

	// Bounds come from the filtered set, not the page: they tell whether the
	// page touches the edge of the data.
	if page.minKey, err = filtered.Min(ctx, key); err != nil {
		return nil, fmt.Errorf("cannot fetch minimum key: %w", err)
	}

	if page.maxKey, err = filtered.Max(ctx, key); err != nil {
		return nil, fmt.Errorf("cannot fetch maximum key: %w", err)
	}

	page.items = items
	page.first = key.Value(items[0])
	page.last = key.Value(items[len(items)-1])
	page.hasNext = lo.Ternary(
		direction == DirectionASC,
		key.Compare(page.last, page.maxKey) < 0,
		key.Compare(page.last, page.minKey) > 0,
	)

	return page, nil
}
