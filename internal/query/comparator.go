package query

import (
	"fmt"
	"strings"
)

// Comparator is one of the value-matching operations of an evaluation.
type Comparator string

const (
	Equal          Comparator = "="
	NotEqual       Comparator = "!="
	Contains       Comparator = "."
	Greater        Comparator = ">"
	GreaterOrEqual Comparator = ">="
	Less           Comparator = "<"
	LessOrEqual    Comparator = "<="
	StartsWith     Comparator = "sw"
)

// Comparators lists every supported comparator in picker order.
var Comparators = []Comparator{Equal, NotEqual, StartsWith, Greater, GreaterOrEqual, Less, LessOrEqual, Contains}

// ParseComparator returns the comparator spelled by s.
func ParseComparator(s string) (Comparator, error) {
	c := Comparator(s)
	if !c.Valid() {
		return "", &ComparatorError{Comparator: s}
	}
	return c, nil
}

// Valid reports whether c is a known comparator.
func (c Comparator) Valid() bool {
	switch c {
	case Equal, NotEqual, Contains, Greater, GreaterOrEqual, Less, LessOrEqual, StartsWith:
		return true
	}
	return false
}

// Match applies the comparator to a stored value and the value it is compared
// against. Every comparison is on strings: ordering comparators are
// lexicographic, so "10" < "9".
func (c Comparator) Match(stored, value string) bool {
	switch c {
	case Equal:
		return stored == value
	case NotEqual:
		return stored != value
	case Contains:
		return strings.Contains(stored, value)
	case Greater:
		return stored > value
	case GreaterOrEqual:
		return stored >= value
	case Less:
		return stored < value
	case LessOrEqual:
		return stored <= value
	case StartsWith:
		return strings.HasPrefix(stored, value)
	}
	return false
}

// Describe returns a short human description of the comparator.
func (c Comparator) Describe() string {
	switch c {
	case Equal:
		return "equals"
	case NotEqual:
		return "does not equal"
	case Contains:
		return "contains"
	case Greater:
		return "sorts after"
	case GreaterOrEqual:
		return "sorts after or equals"
	case Less:
		return "sorts before"
	case LessOrEqual:
		return "sorts before or equals"
	case StartsWith:
		return "starts with"
	}
	return fmt.Sprintf("unknown comparator %q", string(c))
}

// ParseOperator returns the operator spelled by s (case-insensitive).
func ParseOperator(s string) (Operator, bool) {
	switch Operator(strings.ToUpper(s)) {
	case And:
		return And, true
	case Or:
		return Or, true
	}
	return "", false
}

// Apply combines two result sets: AND intersects, OR unions.
func (op Operator) Apply(a, b Set) Set {
	if op == And {
		return a.Intersect(b)
	}
	return a.Union(b)
}
