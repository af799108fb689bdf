package gostore

import (
	"cmp"
	"fmt"
	"time"

	"github.com/samber/lo"
)

// Key describes the ordering key of a keyset page.
//
// Column is used by SQL-backed sources, Value by in-memory sources and to
// read the edges of a fetched page. Compare must define a total order over K
// that agrees with the store's ordering of Column.
type Key[T any, K any] struct {
	Column  string
	Value   func(T) K
	Compare func(a, b K) int
}

// OrderedKey builds a Key for any cmp.Ordered key type.
//
//	gostore.OrderedKey("id", func(u User) int64 { return u.ID })
func OrderedKey[T any, K cmp.Ordered](column string, value func(T) K) Key[T, K] {
	return Key[T, K]{
		Column:  column,
		Value:   value,
		Compare: cmp.Compare[K],
	}
}

// TimeKey builds a Key over a time.Time column.
func TimeKey[T any](column string, value func(T) time.Time) Key[T, time.Time] {
	return Key[T, time.Time]{
		Column:  column,
		Value:   value,
		Compare: func(a, b time.Time) int { return a.Compare(b) },
	}
}

var _availableColumnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

// Validate checks that the key can be used by any source.
func (k Key[T, K]) Validate() error {
	if k.Value == nil {
		return fmt.Errorf("%w: key value extractor is nil", ErrInvalidArgument)
	}

	if k.Compare == nil {
		return fmt.Errorf("%w: key comparator is nil", ErrInvalidArgument)
	}

	// Guard against SQL injection by restricting allowed characters in column names.
	if !lo.Every(_availableColumnNameSymbols, []rune(k.Column)) {
		return fmt.Errorf("%w: key column name contains forbidden symbols '%s'", ErrInvalidArgument, k.Column)
	}

	return nil
}

// ValidateColumn is Validate for SQL-backed sources, which cannot work
// without a column name.
func (k Key[T, K]) ValidateColumn() error {
	if k.Column == "" {
		return fmt.Errorf("%w: key column is empty", ErrInvalidArgument)
	}

	return k.Validate()
}
