package query

import (
	"errors"

	"github.com/aidanlsb/ifcq/internal/model"
)

// Index is the read side of a property index that evaluation needs: the
// value→elements mapping of one property.
type Index interface {
	ValuesFor(property string) (map[string][]model.ElementID, bool)
}

// Evaluate runs a parsed query against an index. Evaluations and groups are
// folded strictly left to right with no precedence: acc = OR(∅, first), then
// acc = op(acc, next) for each following operand.
//
// Evaluate does not validate q. A missing operator folds as OR and an
// evaluation with an unknown comparator matches nothing; check hand-built
// queries with Validate first.
func Evaluate(q *Query, idx Index) Set {
	result := make(Set)
	if q == nil || idx == nil {
		return result
	}
	for i, g := range q.Groups {
		result = operatorBefore(q.Operators, i).Apply(result, evaluateGroup(g, idx))
	}
	return result
}

func evaluateGroup(g Group, idx Index) Set {
	result := make(Set)
	for i, e := range g.Evaluations {
		result = operatorBefore(g.Operators, i).Apply(result, evaluateOne(e, idx))
	}
	return result
}

// evaluateOne scans every distinct stored value of the property and unions the
// elements of those that match. An unknown property matches nothing.
func evaluateOne(e Evaluation, idx Index) Set {
	result := make(Set)
	values, ok := idx.ValuesFor(e.Property)
	if !ok {
		return result
	}
	for stored, ids := range values {
		if e.Comparator.Match(stored, e.Value) {
			result.Add(ids...)
		}
	}
	return result
}

// Options controls Search.
type Options struct {
	// Strict surfaces malformed query text as an error instead of an empty
	// result.
	Strict bool
}

// Search parses and evaluates input against idx.
//
// Malformed text matches nothing and is not an error unless opts.Strict is set.
// An invalid comparator is always returned as an error.
func Search(input string, idx Index, opts Options) (Set, error) {
	q, err := Parse(input)
	if err != nil {
		if errors.Is(err, ErrMalformed) && !opts.Strict {
			return make(Set), nil
		}
		return nil, err
	}
	return Evaluate(q, idx), nil
}

// Named pairs an index with the model it was built from.
type Named struct {
	ModelID string
	Index   Index
}

// ModelResult is the match set of one model.
type ModelResult struct {
	ModelID string
	IDs     Set
}

// EvaluateAll runs q against every index in order. Models with no matches are
// included with an empty set.
func EvaluateAll(q *Query, indexes []Named) []ModelResult {
	out := make([]ModelResult, 0, len(indexes))
	for _, n := range indexes {
		out = append(out, ModelResult{ModelID: n.ModelID, IDs: Evaluate(q, n.Index)})
	}
	return out
}
