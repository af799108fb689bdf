package gostore

import "fmt"

// Operator defines a strict comparison between a key and a cursor value.
type Operator string

func (o Operator) Valid() bool {
	return o == OperatorLT || o == OperatorGT
}

// ForOrdering returns the direction in which the operator selects the keys
// that come after the cursor.
func (o Operator) ForOrdering() Direction {
	switch o {
	case OperatorGT:
		return DirectionASC
	case OperatorLT:
		return DirectionDESC
	default:
		panic(fmt.Errorf("cannot map operator '%s' to ordering", o))
	}
}

// Negate swaps "<" and ">".
func (o Operator) Negate() Operator {
	switch o {
	case OperatorGT:
		return OperatorLT
	case OperatorLT:
		return OperatorGT
	default:
		panic(fmt.Errorf("cannot negate operator '%s'", o))
	}
}

// matches reports whether compare(key, value) satisfies the operator.
func (o Operator) matches(cmp int) bool {
	switch o {
	case OperatorGT:
		return cmp > 0
	case OperatorLT:
		return cmp < 0
	default:
		return false
	}
}

const (
	OperatorGT Operator = ">"
	OperatorLT Operator = "<"
)
