package gostore

import (
	"fmt"
	"strings"
)

// Direction defines the traversal order of a keyset page.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

func (o Direction) Valid() bool {
	return o == DirectionASC || o == DirectionDESC
}

// ForOperator returns the operator selecting keys the traversal has not
// reached yet, i.e. the "after" side.
func (o Direction) ForOperator() Operator {
	switch o {
	case DirectionASC:
		return OperatorGT
	case DirectionDESC:
		return OperatorLT
	default:
		panic(fmt.Errorf("cannot map direction '%s' to operator", o))
	}
}

// Reverse returns the opposite direction.
func (o Direction) Reverse() Direction {
	if o == DirectionDESC {
		return DirectionASC
	}

	return DirectionDESC
}

// ParseDirection parses "asc"/"desc" in any case. An empty string yields
// DirectionASC.
func ParseDirection(s string) (Direction, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DirectionASC, nil
	}

	d := Direction(strings.ToUpper(s))
	if !d.Valid() {
		return "", fmt.Errorf("%w: invalid ordering direction '%s'", ErrInvalidArgument, s)
	}

	return d, nil
}

// orderSQL renders "<column> <direction>" for ORDER BY clauses.
func orderSQL(column string, d Direction) string {
	return fmt.Sprintf("%s %s", column, d)
}
