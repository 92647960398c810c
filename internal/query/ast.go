// Package query implements the property query language: a flat, two-level
// boolean expression of groups and evaluations, its parser, evaluator and
// serializer.
//
// A query string looks like
//
//	(['IfcType' = 'IFCBEAM'] AND ['Storey' sw 'Level 1']) OR (['Name' . 'Slab'])
//
// Groups are parenthesized; evaluations are bracketed; property names and
// values are single-quoted. Groups cannot nest.
package query

import "strings"

// Operator joins two evaluations or two groups.
type Operator string

const (
	And Operator = "AND"
	Or  Operator = "OR"
)

// Query is an ordered sequence of groups joined pairwise by operators.
// len(Operators) is len(Groups)-1; the first group is folded into the empty
// result with an implicit OR. A missing operator reads as OR.
type Query struct {
	Groups    []Group
	Operators []Operator
}

// Group is an ordered sequence of evaluations joined pairwise by operators.
type Group struct {
	Evaluations []Evaluation
	Operators   []Operator
}

// Evaluation compares one property's stored values against a value.
type Evaluation struct {
	Property   string
	Comparator Comparator
	Value      string
}

// String renders the evaluation without brackets: 'prop' op 'value'.
func (e Evaluation) String() string {
	return "'" + e.Property + "' " + string(e.Comparator) + " '" + e.Value + "'"
}

// String renders the group in canonical form: [..] OP [..] wrapped in parentheses.
func (g Group) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	for i, e := range g.Evaluations {
		if i > 0 {
			sb.WriteString(" " + string(operatorBefore(g.Operators, i)) + " ")
		}
		sb.WriteString("[" + e.String() + "]")
	}
	sb.WriteString(")")
	return sb.String()
}

// String renders the query in canonical text form. Parsing the result yields
// an equal Query.
func (q *Query) String() string {
	if q == nil {
		return ""
	}
	var sb strings.Builder
	for i, g := range q.Groups {
		if i > 0 {
			sb.WriteString(" " + string(operatorBefore(q.Operators, i)) + " ")
		}
		sb.WriteString(g.String())
	}
	return sb.String()
}

// operatorBefore returns the operator joining operand i to the ones before it.
// The first operand, and any operand past the end of ops, is joined with OR.
func operatorBefore(ops []Operator, i int) Operator {
	if i == 0 || i > len(ops) {
		return Or
	}
	return ops[i-1]
}

// Validate checks a query built by hand rather than by Parse: every
// comparator must be known, and every operator AND or OR.
func (q *Query) Validate() error {
	if q == nil {
		return nil
	}
	for _, op := range q.Operators {
		if err := validOperator(op); err != nil {
			return err
		}
	}
	for _, g := range q.Groups {
		for _, op := range g.Operators {
			if err := validOperator(op); err != nil {
				return err
			}
		}
		for _, e := range g.Evaluations {
			if !e.Comparator.Valid() {
				return &ComparatorError{Comparator: string(e.Comparator)}
			}
		}
	}
	return nil
}

func validOperator(op Operator) error {
	if op != And && op != Or {
		return &SyntaxError{Fragment: string(op), Reason: "unknown operator"}
	}
	return nil
}

// IsEmpty reports whether the query has no groups.
func (q *Query) IsEmpty() bool {
	return q == nil || len(q.Groups) == 0
}

// Properties returns the distinct property names referenced by the query, in
// first-use order.
func (q *Query) Properties() []string {
	if q == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, g := range q.Groups {
		for _, e := range g.Evaluations {
			if !seen[e.Property] {
				seen[e.Property] = true
				out = append(out, e.Property)
			}
		}
	}
	return out
}
