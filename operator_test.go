package gostore

import "testing"

func Test_Operator_Valid_And_ForOrdering(t *testing.T) {
	tests := []struct {
		name     string
		in       Operator
		valid    bool
		ordering Direction
		negated  Operator
	}{
		{"GT valid maps to ASC", OperatorGT, true, DirectionASC, OperatorLT},
		{"LT valid maps to DESC", OperatorLT, true, DirectionDESC, OperatorGT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Valid(); got != tt.valid {
				t.Errorf("%s: Valid=%v want %v", tt.name, got, tt.valid)
			}
			if got := tt.in.ForOrdering(); got != tt.ordering {
				t.Errorf("%s: ForOrdering=%v want %v", tt.name, got, tt.ordering)
			}
			if got := tt.in.Negate(); got != tt.negated {
				t.Errorf("%s: Negate=%v want %v", tt.name, got, tt.negated)
			}
		})
	}
}

func Test_Operator_Invalid(t *testing.T) {
	for _, op := range []Operator{"", "=", ">=", "<="} {
		if op.Valid() {
			t.Errorf("%q reported valid", op)
		}
		if op.matches(0) || op.matches(1) || op.matches(-1) {
			t.Errorf("%q matched a comparison", op)
		}
	}
}

func Test_Operator_matches(t *testing.T) {
	tests := []struct {
		op   Operator
		cmp  int
		want bool
	}{
		{OperatorGT, 1, true},
		{OperatorGT, 0, false},
		{OperatorGT, -1, false},
		{OperatorLT, -1, true},
		{OperatorLT, 0, false},
		{OperatorLT, 1, false},
	}
	for _, tt := range tests {
		if got := tt.op.matches(tt.cmp); got != tt.want {
			t.Errorf("%s.matches(%d)=%v want %v", tt.op, tt.cmp, got, tt.want)
		}
	}
}
