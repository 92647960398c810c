package query

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/aidanlsb/ifcq/internal/model"
)

// mapIndex is a property -> value -> elements table.
type mapIndex map[string]map[string][]model.ElementID

func (m mapIndex) ValuesFor(property string) (map[string][]model.ElementID, bool) {
	v, ok := m[property]
	return v, ok
}

func beamsAndSlabs() mapIndex {
	return mapIndex{
		"IfcType": {
			"BEAM": {1, 3},
			"SLAB": {2},
		},
		"Name": {
			"---":     {2},
			"Beam 01": {1},
			"Beam 02": {3},
		},
		"Count": {
			"2":  {1},
			"10": {2},
		},
	}
}

func ids(values ...model.ElementID) Set { return NewSet(values...) }

func TestEvaluate(t *testing.T) {
	idx := beamsAndSlabs()
	tests := []struct {
		name  string
		query string
		want  Set
	}{
		{"equal", "(['IfcType' = 'BEAM'])", ids(1, 3)},
		{"contains or equal", "(['IfcType' . 'BEA']) OR (['IfcType' = 'SLAB'])", ids(1, 2, 3)},
		{"not equal", "(['IfcType' != 'BEAM'])", ids(2)},
		{"starts with", "(['Name' sw 'Beam'])", ids(1, 3)},
		{"empty value placeholder", "(['Name' = '---'])", ids(2)},
		{"unknown property", "(['Nonexistent' = 'x'])", ids()},
		{"lexicographic greater", "(['Count' > '9'])", ids()},
		{"lexicographic less", "(['Count' < '9'])", ids(1, 2)},
		{"lexicographic bounds", "(['Count' >= '10'] AND ['Count' <= '2'])", ids(1, 2)},
		{"and within group", "(['IfcType' = 'BEAM'] AND ['Name' = 'Beam 02'])", ids(3)},
		{"and across groups", "(['IfcType' = 'BEAM']) AND (['Name' sw 'Beam 0'])", ids(1, 3)},
		{"unknown property in and", "(['IfcType' = 'BEAM']) AND (['Nonexistent' = 'x'])", ids()},
		{"unknown property in or", "(['IfcType' = 'SLAB']) OR (['Nonexistent' = 'x'])", ids(2)},
		{"no precedence", "(['IfcType' = 'SLAB'] OR ['IfcType' = 'BEAM'] AND ['Name' = 'Beam 01'])", ids(1)},
		{"empty query", "", ids()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(MustParse(tt.query), idx)
			if !got.Equal(tt.want) {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.query, got.Sorted(), tt.want.Sorted())
			}
		})
	}
}

func TestEvaluateEmptyStringNeverMatches(t *testing.T) {
	// '' is not expressible in query text; the placeholder is the only way in.
	if _, err := Parse("(['Name' = ''])"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestEvaluateNilInputs(t *testing.T) {
	if got := Evaluate(nil, beamsAndSlabs()); got.Len() != 0 {
		t.Errorf("Evaluate(nil, idx) = %v, want empty", got.Sorted())
	}
	if got := Evaluate(MustParse("(['IfcType' = 'BEAM'])"), nil); got.Len() != 0 {
		t.Errorf("Evaluate(q, nil) = %v, want empty", got.Sorted())
	}
}

func TestEvaluateHandBuiltQuery(t *testing.T) {
	idx := beamsAndSlabs()
	beams := Group{Evaluations: []Evaluation{{Property: "IfcType", Comparator: Equal, Value: "BEAM"}}}
	slabs := Group{Evaluations: []Evaluation{
		{Property: "IfcType", Comparator: Equal, Value: "SLAB"},
		{Property: "Name", Comparator: Equal, Value: "Beam 01"},
	}}

	q := &Query{Groups: []Group{beams, slabs}}
	if got := Evaluate(q, idx); !got.Equal(ids(1, 2, 3)) {
		t.Errorf("missing operators: got %v, want [1 2 3]", got.Sorted())
	}
	if got, want := q.String(), "(['IfcType' = 'BEAM']) OR (['IfcType' = 'SLAB'] OR ['Name' = 'Beam 01'])"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if err := q.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	bad := &Query{Groups: []Group{{Evaluations: []Evaluation{{Property: "IfcType", Comparator: "~", Value: "BEAM"}}}}}
	if got := Evaluate(bad, idx); got.Len() != 0 {
		t.Errorf("unknown comparator matched %v", got.Sorted())
	}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidComparator) {
		t.Errorf("Validate() = %v, want ErrInvalidComparator", err)
	}

	xor := &Query{Groups: []Group{beams, slabs}, Operators: []Operator{"XOR"}}
	if err := xor.Validate(); !errors.Is(err, ErrMalformed) {
		t.Errorf("Validate() = %v, want ErrMalformed", err)
	}
	if err := MustParse("(['a' = '1'] and ['b' = '2']) or (['c' = '3'])").Validate(); err != nil {
		t.Errorf("parsed query failed Validate: %v", err)
	}
}

func TestSearch(t *testing.T) {
	idx := beamsAndSlabs()

	got, err := Search("(['IfcType' = 'BEAM'])", idx, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(ids(1, 3)) {
		t.Errorf("got %v, want [1 3]", got.Sorted())
	}

	got, err = Search("IfcType = BEAM", idx, Options{})
	if err != nil {
		t.Fatalf("lenient search returned error: %v", err)
	}
	if got.Len() != 0 {
		t.Errorf("malformed lenient search = %v, want empty", got.Sorted())
	}

	if _, err := Search("IfcType = BEAM", idx, Options{Strict: true}); !errors.Is(err, ErrMalformed) {
		t.Errorf("strict search: expected ErrMalformed, got %v", err)
	}

	if _, err := Search("(['IfcType' ~ 'BEAM'])", idx, Options{}); !errors.Is(err, ErrInvalidComparator) {
		t.Errorf("expected ErrInvalidComparator, got %v", err)
	}
}

func TestEvaluateAll(t *testing.T) {
	other := mapIndex{"IfcType": {"BEAM": {7}}}
	results := EvaluateAll(MustParse("(['IfcType' = 'BEAM'])"), []Named{
		{ModelID: "house", Index: beamsAndSlabs()},
		{ModelID: "empty", Index: mapIndex{}},
		{ModelID: "shed", Index: other},
	})
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	want := []struct {
		model string
		ids   Set
	}{
		{"house", ids(1, 3)},
		{"empty", ids()},
		{"shed", ids(7)},
	}
	for i, w := range want {
		if results[i].ModelID != w.model {
			t.Errorf("result %d model = %q, want %q", i, results[i].ModelID, w.model)
		}
		if !results[i].IDs.Equal(w.ids) {
			t.Errorf("result %d ids = %v, want %v", i, results[i].IDs.Sorted(), w.ids.Sorted())
		}
	}
}

func TestComparatorMatch(t *testing.T) {
	tests := []struct {
		cmp           Comparator
		stored, value string
		want          bool
	}{
		{Equal, "BEAM", "BEAM", true},
		{Equal, "BEAM", "beam", false},
		{NotEqual, "BEAM", "SLAB", true},
		{Contains, "IFCBEAM", "BEA", true},
		{Contains, "IFCBEAM", "SLAB", false},
		{StartsWith, "Level 1", "Level", true},
		{StartsWith, "Level 1", "1", false},
		{Greater, "2", "9", false},
		{Greater, "10", "9", false},
		{Greater, "b", "a", true},
		{GreaterOrEqual, "a", "a", true},
		{Less, "10", "9", true},
		{LessOrEqual, "9", "9", true},
		{Comparator("~"), "a", "a", false},
	}
	for _, tt := range tests {
		if got := tt.cmp.Match(tt.stored, tt.value); got != tt.want {
			t.Errorf("%q %s %q = %v, want %v", tt.stored, tt.cmp, tt.value, got, tt.want)
		}
	}
}

func TestParseOperator(t *testing.T) {
	for _, s := range []string{"AND", "and", "And"} {
		if op, ok := ParseOperator(s); !ok || op != And {
			t.Errorf("ParseOperator(%q) = %q, %v", s, op, ok)
		}
	}
	if op, ok := ParseOperator("or"); !ok || op != Or {
		t.Errorf("ParseOperator(or) = %q, %v", op, ok)
	}
	if _, ok := ParseOperator("XOR"); ok {
		t.Error("ParseOperator(XOR) should fail")
	}
}

func TestSetAlgebra(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	randomSet := func() Set {
		s := make(Set)
		for i := 0; i < rng.Intn(8); i++ {
			s.Add(model.ElementID(rng.Intn(10)))
		}
		return s
	}
	for i := 0; i < 200; i++ {
		a, b := randomSet(), randomSet()
		for _, op := range []Operator{And, Or} {
			if !op.Apply(a, a).Equal(a) {
				t.Fatalf("%s not idempotent for %v", op, a.Sorted())
			}
			if !op.Apply(a, b).Equal(op.Apply(b, a)) {
				t.Fatalf("%s not commutative for %v, %v", op, a.Sorted(), b.Sorted())
			}
		}
		if !Or.Apply(make(Set), a).Equal(a) {
			t.Fatalf("empty set is not neutral for OR: %v", a.Sorted())
		}
		if And.Apply(make(Set), a).Len() != 0 {
			t.Fatalf("empty set is not absorbing for AND: %v", a.Sorted())
		}
	}
}
