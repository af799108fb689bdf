package gostore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"
)

// Page is one window of a LIMIT/OFFSET pagination.
type Page[T any] struct {
	items []T
	total int64
	size  int
	page  int
}

// NewPage builds a page from already fetched items.
func NewPage[T any](items []T, total int64, size, page int) *Page[T] {
	return &Page[T]{
		items: items,
		total: total,
		size:  size,
		page:  page,
	}
}

// Items returns a copy of the page items.
func (p *Page[T]) Items() []T {
	return slices.Clone(p.items)
}

// Total returns the number of items in the whole data set.
func (p *Page[T]) Total() int64 {
	return p.total
}

// Size returns the requested page size.
func (p *Page[T]) Size() int {
	return p.size
}

// Number returns the 1-based page number.
func (p *Page[T]) Number() int {
	return p.page
}

// TotalPages returns ceil(Total/Size), or 0 when Size is not positive.
func (p *Page[T]) TotalPages() int {
	if p.size <= 0 {
		return 0
	}

	return int((p.total + int64(p.size) - 1) / int64(p.size))
}

// Offset returns the number of items preceding the page.
func (p *Page[T]) Offset() int {
	return (p.page - 1) * p.size
}

type pageJSON[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Size       int   `json:"size"`
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
}

// MarshalJSON - implements json.Marshaler.
func (p *Page[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(pageJSON[T]{
		Items:      lo.Ternary(p.items == nil, []T{}, p.items),
		Total:      p.total,
		Size:       p.size,
		Page:       p.page,
		TotalPages: p.TotalPages(),
	})
}

// Paginate fetches the given 1-based page of src. Page numbers below 1 are
// treated as the first page; a page whose offset does not fit in an int
// fails with ErrInvalidArgument. When the data set is empty or size is not
// positive, only the count query runs.
func Paginate[T any](ctx context.Context, src Pageable[T], page, size int) (*Page[T], error) {
	if src == nil {
		return nil, fmt.Errorf("cannot paginate: %w: source is nil", ErrInvalidArgument)
	}

	page = NormalizePage(page)
	if size > 0 && page-1 > math.MaxInt/size {
		return nil, fmt.Errorf("cannot paginate: %w: page %d of size %d is out of range", ErrInvalidArgument, page, size)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ret := NewPage[T](nil, 0, size, page)

	total, err := src.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}
	ret.total = total

	if total == 0 || size <= 0 {
		return ret, nil
	}

	ret.items, err = src.FindRange(ctx, ret.Offset(), size)
	if err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	return ret, nil
}

// RawPager is the offset counterpart of RawKeysetPager for API payloads.
type RawPager struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Normalize returns the page number and size to pass to Paginate.
func (r RawPager) Normalize() (page, size int) {
	return NormalizePage(r.Page), NormalizeLimit(r.Limit)
}
