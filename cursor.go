package gostore

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

var _encoder = base64.RawURLEncoding

// CursorKind tells which side of a key a Cursor points to.
type CursorKind uint8

const (
	CursorNone CursorKind = iota
	CursorBefore
	CursorAfter
)

func (k CursorKind) String() string {
	switch k {
	case CursorBefore:
		return "before"
	case CursorAfter:
		return "after"
	default:
		return "none"
	}
}

// Cursor is the starting point of a keyset page: None, Before(key) or
// After(key). "Before" always means the side the traversal has already
// passed, "after" the side it has not reached yet, whatever the Direction.
//
// The zero value is None.
type Cursor[K any] struct {
	kind CursorKind
	key  K
}

// NoCursor returns the cursor of the first page.
func NoCursor[K any]() Cursor[K] {
	return Cursor[K]{}
}

// Before returns a cursor selecting keys the traversal has already passed.
func Before[K any](key K) Cursor[K] {
	return Cursor[K]{kind: CursorBefore, key: key}
}

// After returns a cursor selecting keys the traversal has not reached yet.
func After[K any](key K) Cursor[K] {
	return Cursor[K]{kind: CursorAfter, key: key}
}

// CursorOf builds a cursor from two optional values. Supplying both is a
// contract violation and fails with ErrInvalidArgument.
func CursorOf[K any](before, after *K) (Cursor[K], error) {
	switch {
	case before != nil && after != nil:
		return Cursor[K]{}, fmt.Errorf("%w: optionally supply either a before or after key, but not both", ErrInvalidArgument)
	case before != nil:
		return Before(*before), nil
	case after != nil:
		return After(*after), nil
	default:
		return NoCursor[K](), nil
	}
}

func (c Cursor[K]) Kind() CursorKind {
	return c.kind
}

// Key returns the cursor key. The flag is false for NoCursor.
func (c Cursor[K]) Key() (K, bool) {
	return c.key, c.kind != CursorNone
}

// IsEmpty reports whether the cursor is None.
func (c Cursor[K]) IsEmpty() bool {
	return c.kind == CursorNone
}

// operator returns the comparison keeping keys on the cursor's side for the
// given traversal direction.
func (c Cursor[K]) operator(d Direction) Operator {
	if c.kind == CursorBefore {
		return d.ForOperator().Negate()
	}

	return d.ForOperator()
}

type cursorToken[K any] struct {
	Kind string `json:"d"`
	Key  K      `json:"k"`
}

// String encodes the cursor as an opaque base64 token. NoCursor encodes to "".
func (c Cursor[K]) String() string {
	if c.IsEmpty() {
		return ""
	}

	jTok, err := json.Marshal(cursorToken[K]{Kind: c.kind.String(), Key: c.key})
	if err != nil {
		panic(fmt.Errorf("cannot marshal cursor value: %w", err))
	}

	return _encoder.EncodeToString(jTok)
}

// DecodeCursor parses a token produced by Cursor.String. An empty token
// decodes to NoCursor.
func DecodeCursor[K any](b64String string) (Cursor[K], error) {
	if len(b64String) == 0 {
		return NoCursor[K](), nil
	}

	jsonData, err := _encoder.DecodeString(b64String)
	if err != nil {
		return Cursor[K]{}, fmt.Errorf("%w: failed to decode base64 encoded cursor: %w", ErrInvalidArgument, err)
	}

	var tok cursorToken[K]
	if err = json.Unmarshal(jsonData, &tok); err != nil {
		return Cursor[K]{}, fmt.Errorf("%w: failed to unmarshal json encoded cursor: %w", ErrInvalidArgument, err)
	}

	switch tok.Kind {
	case CursorBefore.String():
		return Before(tok.Key), nil
	case CursorAfter.String():
		return After(tok.Key), nil
	default:
		return Cursor[K]{}, fmt.Errorf("%w: unexpected cursor kind '%s'", ErrInvalidArgument, tok.Kind)
	}
}

var _ fmt.Stringer = Cursor[int]{}
