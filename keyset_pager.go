package gostore

import (
	"context"
	"fmt"
)

// RawKeysetPager is intended for API payloads. For proper code generation, inline it:
//
//	type MyFilter struct {
//	    Paging RawKeysetPager `json:",inline"`
//	}
type RawKeysetPager struct {
	// Limit - maximum number of records to return in the response.
	Limit int `json:"limit"`
	// Before - cursor token obtained via Cursor.String() or KeysetPage.Previous().
	Before string `json:"before"`
	// After - cursor token obtained via Cursor.String() or KeysetPage.Next().
	After string `json:"after"`
	// Order - "asc" or "desc". Empty means ascending.
	Order string `json:"order"`
}

// DecodeKeysetPager converts a RawKeysetPager into a *KeysetPager, normalizing
// Limit and validating the tokens. Supplying both Before and After fails with
// ErrInvalidArgument.
func DecodeKeysetPager[T any, K any](raw RawKeysetPager, key Key[T, K]) (*KeysetPager[T, K], error) {
	if raw.Before != "" && raw.After != "" {
		return nil, fmt.Errorf("%w: optionally supply either a before or after token, but not both", ErrInvalidArgument)
	}

	direction, err := ParseDirection(raw.Order)
	if err != nil {
		return nil, err
	}

	token := raw.After
	if raw.Before != "" {
		token = raw.Before
	}

	cursor, err := DecodeCursor[K](token)
	if err != nil {
		return nil, err
	}

	// A token must sit in the field matching its kind.
	if (raw.Before != "" && cursor.Kind() != CursorBefore) || (raw.After != "" && cursor.Kind() != CursorAfter) {
		return nil, fmt.Errorf("%w: cursor token of kind '%s' in the wrong field", ErrInvalidArgument, cursor.Kind())
	}

	return NewKeysetPager(key).
		WithSize(NormalizeLimit(raw.Limit)).
		WithCursor(cursor).
		WithDirection(direction), nil
}

// KeysetPager holds the parameters of a keyset page request.
type KeysetPager[T any, K any] struct {
	key       Key[T, K]
	size      int
	cursor    Cursor[K]
	direction Direction
}

// NewKeysetPager returns an ascending pager of DefaultLimit items starting
// at the beginning of the data.
func NewKeysetPager[T any, K any](key Key[T, K]) *KeysetPager[T, K] {
	return &KeysetPager[T, K]{
		key:       key,
		size:      DefaultLimit,
		direction: DirectionASC,
	}
}

// WithSize sets the page size as is. Non-positive sizes produce empty pages.
func (p *KeysetPager[T, K]) WithSize(size int) *KeysetPager[T, K] {
	if p == nil {
		p = new(KeysetPager[T, K])
	}

	p.size = size

	return p
}

// WithCursor sets the cursor explicitly.
func (p *KeysetPager[T, K]) WithCursor(cursor Cursor[K]) *KeysetPager[T, K] {
	if p == nil {
		p = new(KeysetPager[T, K])
	}

	p.cursor = cursor

	return p
}

// WithDirection sets the traversal direction.
func (p *KeysetPager[T, K]) WithDirection(direction Direction) *KeysetPager[T, K] {
	if p == nil {
		p = new(KeysetPager[T, K])
	}

	p.direction = direction

	return p
}

func (p *KeysetPager[T, K]) GetSize() int {
	if p == nil {
		return 0
	}

	return p.size
}

func (p *KeysetPager[T, K]) GetCursor() Cursor[K] {
	if p == nil {
		return NoCursor[K]()
	}

	return p.cursor
}

func (p *KeysetPager[T, K]) GetDirection() Direction {
	if p == nil {
		return ""
	}

	return p.direction
}

// Paginate fetches the page described by the pager from src.
func (p *KeysetPager[T, K]) Paginate(ctx context.Context, src Source[T, K]) (*KeysetPage[T, K], error) {
	if p == nil {
		return nil, fmt.Errorf("cannot paginate: %w: keyset pager is nil", ErrInvalidArgument)
	}

	return PaginateKeyset(ctx, src, p.key, p.size, p.cursor, p.direction)
}
