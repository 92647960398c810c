package index

import (
	"sort"

	"github.com/aidanlsb/ifcq/internal/model"
)

// Entry is the index of one property name.
//
// Elements and each Values list are multisets: they keep one entry per triple
// in extraction order, so an element extracted twice appears twice. Query
// evaluation deduplicates through set algebra.
type Entry struct {
	Elements []model.ElementID
	Values   map[string][]model.ElementID
}

// PropertyIndex is the inverted property index of one model: property name to
// the elements carrying it and the elements per textual value.
type PropertyIndex struct {
	ModelID string
	entries map[string]*Entry
}

// Build indexes triples for a model. Triples with a missing value are skipped
// and empty values are stored as model.EmptyValue. The returned element
// properties hold the last value seen per (element, property) for display.
//
// Build never merges with an earlier index: every call starts from scratch.
func Build(modelID string, triples []model.PropertyTriple) (*PropertyIndex, model.ElementProperties) {
	idx := &PropertyIndex{ModelID: modelID, entries: make(map[string]*Entry)}
	props := make(model.ElementProperties)

	for _, t := range triples {
		if !t.HasValue() {
			continue
		}
		value := *t.Value
		if value == "" {
			value = model.EmptyValue
		}

		e, ok := idx.entries[t.Name]
		if !ok {
			e = &Entry{Values: make(map[string][]model.ElementID)}
			idx.entries[t.Name] = e
		}
		e.Elements = append(e.Elements, t.ElementID)
		e.Values[value] = append(e.Values[value], t.ElementID)

		props.Set(t.ElementID, t.Name, model.PropertyValue{Value: value, Group: t.Group})
	}

	return idx, props
}

// Len returns the number of distinct property names.
func (idx *PropertyIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Lookup returns the entry of a property name.
func (idx *PropertyIndex) Lookup(property string) (*Entry, bool) {
	if idx == nil {
		return nil, false
	}
	e, ok := idx.entries[property]
	return e, ok
}

// ValuesFor returns the value→elements mapping of a property. The map is
// owned by the index and must not be modified.
func (idx *PropertyIndex) ValuesFor(property string) (map[string][]model.ElementID, bool) {
	e, ok := idx.Lookup(property)
	if !ok {
		return nil, false
	}
	return e.Values, true
}

// PropertyNames returns every indexed property name, sorted.
func (idx *PropertyIndex) PropertyNames() []string {
	if idx == nil {
		return nil
	}
	names := make([]string, 0, len(idx.entries))
	for name := range idx.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Values returns the distinct values of a property, sorted. It is empty for an
// unknown property.
func (idx *PropertyIndex) Values(property string) []string {
	e, ok := idx.Lookup(property)
	if !ok {
		return nil
	}
	values := make([]string, 0, len(e.Values))
	for v := range e.Values {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// PropertySummary describes one property for listings.
type PropertySummary struct {
	Name     string `json:"name"`
	Elements int    `json:"elements"`
	Values   int    `json:"values"`
}

// Summaries returns a summary per property, sorted by name.
func (idx *PropertyIndex) Summaries() []PropertySummary {
	names := idx.PropertyNames()
	out := make([]PropertySummary, 0, len(names))
	for _, name := range names {
		e := idx.entries[name]
		out = append(out, PropertySummary{Name: name, Elements: len(e.Elements), Values: len(e.Values)})
	}
	return out
}
