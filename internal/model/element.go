// Package model defines the shared data types of the property index: element
// identifiers, extracted property triples and the per-element property bag.
package model

import "strconv"

// ElementID identifies an element within one building model (the IFC express id).
type ElementID int64

// String returns the decimal form of the id.
func (id ElementID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseElementID parses a decimal element id.
func ParseElementID(s string) (ElementID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ElementID(n), nil
}

// EmptyValue replaces empty string values in the index so that an empty value
// stays queryable and distinct from an absent property.
const EmptyValue = "---"

// Well-known display groups.
const (
	GroupInstance = "Instance Properties"
	GroupBuilding = "Building Properties"
)

// Well-known property names produced for every element.
const (
	PropertyType   = "IfcType"
	PropertyStorey = "Storey"
	// PropertyName is the Name attribute most providers export.
	PropertyName = "Name"
)

// PropertyTriple is one (element, property, value, group) fact produced by
// extraction. A nil Value marks a property whose value is missing; the index
// builder skips it.
type PropertyTriple struct {
	ElementID ElementID `json:"element_id"`
	Name      string    `json:"name"`
	Value     *string   `json:"value"`
	Group     string    `json:"group"`
}

// NewTriple returns a triple with a present value.
func NewTriple(id ElementID, name, value, group string) PropertyTriple {
	return PropertyTriple{ElementID: id, Name: name, Value: &value, Group: group}
}

// HasValue reports whether the triple carries a value.
func (t PropertyTriple) HasValue() bool { return t.Value != nil }
