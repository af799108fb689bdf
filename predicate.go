package gostore

import (
	"fmt"

	"gorm.io/gorm/clause"
)

// keyPredicate is the condition Operator(Key, Value). It is the only filter
// the keyset engine ever builds, and every source renders it in its own
// terms: a GORM expression, a SQL fragment or a Go closure.
type keyPredicate[T any, K any] struct {
	key      Key[T, K]
	operator Operator
	value    K
}

func newKeyPredicate[T any, K any](key Key[T, K], op Operator, value K) (keyPredicate[T, K], error) {
	if !op.Valid() {
		return keyPredicate[T, K]{}, fmt.Errorf("%w: invalid key operator '%s'", ErrInvalidArgument, op)
	}

	return keyPredicate[T, K]{key: key, operator: op, value: value}, nil
}

// toSQLClause renders "column op ?" with the placeholder value.
//
// Example:
//
//	keyPredicate{key: {Column: "id"}, operator: ">", value: 123}
//
// Result:
//
//	("id > ?", 123)
func (p keyPredicate[T, K]) toSQLClause() (string, any) {
	return fmt.Sprintf("%s %s ?", p.key.Column, p.operator), p.value
}

// toGORMExpression wraps toSQLClause into a clause.Expression.
func (p keyPredicate[T, K]) toGORMExpression() clause.Expression {
	sqlClause, arg := p.toSQLClause()

	return clause.Expr{
		SQL:  sqlClause,
		Vars: []any{arg},
	}
}

// match evaluates the predicate against an in-memory item.
func (p keyPredicate[T, K]) match(item T) bool {
	return p.operator.matches(p.key.Compare(p.key.Value(item), p.value))
}
