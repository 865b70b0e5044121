package domain

import (
	"fmt"
	"strings"
)

type Op string

const (
	OpEq  Op = "="
	OpNe  Op = "!="
	OpLt  Op = "<"
	OpLte Op = "<="
	OpGt  Op = ">"
	OpGte Op = ">="
)

var knownOps = []Op{OpEq, OpNe, OpLt, OpLte, OpGt, OpGte}

func ParseOp(s string) (Op, error) {
	op := Op(strings.TrimSpace(s))
	if op == "==" {
		op = OpEq
	}
	if !op.Valid() {
		return "", fmt.Errorf("%w: unknown operator %q", ErrInvalidExpression, s)
	}
	return op, nil
}

func (op Op) Valid() bool {
	for _, known := range knownOps {
		if op == known {
			return true
		}
	}
	return false
}

// Holds interprets the result of CompareValues(lhs, rhs) under op.
func (op Op) Holds(c int) bool {
	switch op {
	case OpEq:
		return c == 0
	case OpNe:
		return c != 0
	case OpLt:
		return c < 0
	case OpLte:
		return c <= 0
	case OpGt:
		return c > 0
	case OpGte:
		return c >= 0
	}
	return false
}

// FilterExpr is the closed set of filter and option values:
// Literal, ParamRef and Comparison.
type FilterExpr interface {
	fmt.Stringer
	filterExpr()
}

type Literal struct {
	Value any
}

type ParamRef struct {
	Name string
}

// Comparison applies Op between a field and its operand, which is a Literal or a ParamRef.
type Comparison struct {
	Op      Op
	Operand FilterExpr
}

func (Literal) filterExpr()    {}
func (ParamRef) filterExpr()   {}
func (Comparison) filterExpr() {}

func (l Literal) String() string    { return fmt.Sprintf("%v", l.Value) }
func (p ParamRef) String() string   { return ":" + p.Name }
func (c Comparison) String() string { return fmt.Sprintf("%s %v", c.Op, c.Operand) }

func Lit(v any) Literal {
	return Literal{Value: v}
}

func Param(name string) ParamRef {
	return ParamRef{Name: name}
}

func Compare(op Op, operand FilterExpr) Comparison {
	return Comparison{Op: op, Operand: operand}
}

// Filter binds an expression to the field it constrains.
// A bare Literal or ParamRef means equality.
type Filter struct {
	Field string
	Expr  FilterExpr
}

// Condition is a fully resolved filter: field, operator and concrete value.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// ConditionOf turns a resolved expression (Literal or Comparison over a Literal) into a Condition.
func ConditionOf(field string, expr FilterExpr) (Condition, error) {
	switch e := expr.(type) {
	case Literal:
		return Condition{Field: field, Op: OpEq, Value: e.Value}, nil
	case Comparison:
		lit, ok := e.Operand.(Literal)
		if !ok || !e.Op.Valid() {
			return Condition{}, fmt.Errorf("%w: unresolved comparison %v on %q", ErrInvalidExpression, e, field)
		}
		return Condition{Field: field, Op: e.Op, Value: lit.Value}, nil
	}
	return Condition{}, fmt.Errorf("%w: unresolved expression %v on %q", ErrInvalidExpression, expr, field)
}

// Matches applies the condition to a row value. Values of different classes never match.
func (c Condition) Matches(v any) bool {
	if !Comparable(v, c.Value) {
		return false
	}
	return c.Op.Holds(CompareValues(v, c.Value))
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}
