package model

import "sort"

// PropertyValue is a property's value together with its display group.
type PropertyValue struct {
	Value string `json:"value"`
	Group string `json:"group"`
}

// ElementProperties maps each element to its properties by name. It is used for
// detail display only and is never queried.
type ElementProperties map[ElementID]map[string]PropertyValue

// Set records a property for an element, overwriting any previous value.
func (p ElementProperties) Set(id ElementID, name string, v PropertyValue) {
	props, ok := p[id]
	if !ok {
		props = make(map[string]PropertyValue)
		p[id] = props
	}
	props[name] = v
}

// IDs returns the element ids in ascending order.
func (p ElementProperties) IDs() []ElementID {
	ids := make([]ElementID, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	SortIDs(ids)
	return ids
}

// GroupedProperty is one row of an element's property listing.
type GroupedProperty struct {
	Group string `json:"group"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Grouped returns an element's properties ordered by group then name.
func (p ElementProperties) Grouped(id ElementID) []GroupedProperty {
	props := p[id]
	out := make([]GroupedProperty, 0, len(props))
	for name, v := range props {
		out = append(out, GroupedProperty{Group: v.Group, Name: name, Value: v.Value})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// SortIDs sorts ids in ascending order.
func SortIDs(ids []ElementID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
