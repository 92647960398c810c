package query

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// A top-level span is either a parenthesized group or a bracketed
	// evaluation standing on its own. Neither may contain its closing character.
	topLevelSpan   = regexp.MustCompile(`\(([^)]+)\)|\[([^\]]+)\]`)
	evaluationSpan = regexp.MustCompile(`\[([^\]]+)\]`)
	quotedSpan     = regexp.MustCompile(`'([^']+)'`)
)

// Parse converts query text into a Query.
//
// Malformed text returns a *SyntaxError (errors.Is ErrMalformed). A comparator
// outside the known set returns a *ComparatorError (errors.Is
// ErrInvalidComparator). Empty or blank input parses to an empty Query.
func Parse(input string) (*Query, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return &Query{}, nil
	}

	spans, gaps := split(input, topLevelSpan)
	if len(spans) == 0 {
		return nil, &SyntaxError{Fragment: input, Reason: "no group or evaluation found"}
	}
	ops, err := operators(gaps, input)
	if err != nil {
		return nil, err
	}

	q := &Query{Operators: ops}
	for _, span := range spans {
		g, err := parseGroup(span)
		if err != nil {
			return nil, err
		}
		q.Groups = append(q.Groups, *g)
	}
	return q, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level query constants.
func MustParse(input string) *Query {
	q, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return q
}

func parseGroup(text string) (*Group, error) {
	spans, gaps := split(text, evaluationSpan)
	if len(spans) == 0 {
		return nil, &SyntaxError{Fragment: text, Reason: "group has no evaluations"}
	}
	ops, err := operators(gaps, text)
	if err != nil {
		return nil, err
	}

	g := &Group{Operators: ops}
	for _, span := range spans {
		e, err := parseEvaluation(span)
		if err != nil {
			return nil, err
		}
		g.Evaluations = append(g.Evaluations, *e)
	}
	return g, nil
}

func parseEvaluation(text string) (*Evaluation, error) {
	matches := quotedSpan.FindAllStringSubmatchIndex(text, -1)
	if len(matches) != 2 {
		return nil, &SyntaxError{Fragment: text, Reason: "expected 'property' comparator 'value'"}
	}
	if stripSpace(text[:matches[0][0]]) != "" || stripSpace(text[matches[1][1]:]) != "" {
		return nil, &SyntaxError{Fragment: text, Reason: "unexpected text outside quotes"}
	}

	token := stripSpace(text[matches[0][1]:matches[1][0]])
	if token == "" {
		return nil, &SyntaxError{Fragment: text, Reason: "missing comparator"}
	}
	cmp, err := ParseComparator(token)
	if err != nil {
		return nil, err
	}

	return &Evaluation{
		Property:   text[matches[0][2]:matches[0][3]],
		Comparator: cmp,
		Value:      text[matches[1][2]:matches[1][3]],
	}, nil
}

// split returns the inner text of every span matched by re together with the
// whitespace-stripped text around them. len(gaps) == len(spans)+1.
func split(text string, re *regexp.Regexp) (spans, gaps []string) {
	last := 0
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		gaps = append(gaps, stripSpace(text[last:m[0]]))
		spans = append(spans, inner(text, m))
		last = m[1]
	}
	gaps = append(gaps, stripSpace(text[last:]))
	return spans, gaps
}

// inner returns the first participating capture group of a match. A bracketed
// evaluation matched at the top level is returned with its brackets so it can
// be parsed as a one-evaluation group.
func inner(text string, m []int) string {
	if m[2] >= 0 {
		return text[m[2]:m[3]]
	}
	return text[m[0]:m[1]]
}

// operators validates the gaps around spans: the outer gaps must be empty and
// each inner gap must be a single operator.
func operators(gaps []string, fragment string) ([]Operator, error) {
	if gaps[0] != "" {
		return nil, &SyntaxError{Fragment: fragment, Reason: "unexpected text " + quote(gaps[0]) + " before first span"}
	}
	if n := len(gaps) - 1; gaps[n] != "" {
		return nil, &SyntaxError{Fragment: fragment, Reason: "unexpected text " + quote(gaps[n]) + " after last span"}
	}

	ops := make([]Operator, 0, len(gaps)-2)
	for _, gap := range gaps[1 : len(gaps)-1] {
		if gap == "" {
			return nil, &SyntaxError{Fragment: fragment, Reason: "missing operator between spans"}
		}
		op, ok := ParseOperator(gap)
		if !ok {
			return nil, &SyntaxError{Fragment: fragment, Reason: "unknown operator " + quote(gap)}
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func quote(s string) string { return "'" + s + "'" }
