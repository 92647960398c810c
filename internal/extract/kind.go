package extract

import (
	"fmt"
	"strings"

	"github.com/aidanlsb/ifcq/internal/model"
)

// PropertySetKind identifies the kind of set a property comes from.
type PropertySetKind int

const (
	// KindPropertySet is an IfcPropertySet attached to the element.
	KindPropertySet PropertySetKind = iota
	// KindQuantitySet is an IfcElementQuantity attached to the element.
	KindQuantitySet
	// KindTypePropertySet is a property set inherited from the element's type object.
	KindTypePropertySet
)

func (k PropertySetKind) String() string {
	switch k {
	case KindPropertySet:
		return "IfcPropertySet"
	case KindQuantitySet:
		return "IfcElementQuantity"
	case KindTypePropertySet:
		return "IfcTypeObject"
	default:
		return fmt.Sprintf("PropertySetKind(%d)", int(k))
	}
}

// ParseKind maps an IFC set entity name to its kind. Matching ignores case.
func ParseKind(s string) (PropertySetKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "IFCPROPERTYSET", "PSET":
		return KindPropertySet, nil
	case "IFCELEMENTQUANTITY", "QTO", "QSET":
		return KindQuantitySet, nil
	case "IFCTYPEOBJECT", "TYPE":
		return KindTypePropertySet, nil
	}
	return 0, fmt.Errorf("unknown property set kind %q", s)
}

// setTriples dispatches a set to the handler of its kind. Properties that
// cannot be indexed are left out and reported; the rest of the set is kept.
func setTriples(id model.ElementID, set PropertySet) ([]model.PropertyTriple, []PropertyError) {
	switch set.Kind {
	case KindPropertySet:
		return propertySetTriples(id, set)
	case KindQuantitySet:
		return quantitySetTriples(id, set)
	case KindTypePropertySet:
		return typePropertySetTriples(id, set)
	}
	return nil, []PropertyError{newPropertyError(id, set.Name, "", fmt.Errorf("unsupported kind %s", set.Kind))}
}

func propertySetTriples(id model.ElementID, set PropertySet) ([]model.PropertyTriple, []PropertyError) {
	out := make([]model.PropertyTriple, 0, len(set.Properties))
	var dropped []PropertyError
	for _, p := range set.Properties {
		value, err := FormatValue(p.Value)
		if err != nil {
			dropped = append(dropped, newPropertyError(id, set.Name, p.Name, err))
			continue
		}
		out = append(out, model.PropertyTriple{ElementID: id, Name: p.Name, Value: value, Group: set.Name})
	}
	return out, dropped
}

// quantitySetTriples only accepts numeric (or missing) quantities.
func quantitySetTriples(id model.ElementID, set PropertySet) ([]model.PropertyTriple, []PropertyError) {
	out := make([]model.PropertyTriple, 0, len(set.Properties))
	var dropped []PropertyError
	for _, p := range set.Properties {
		if p.Value != nil && !isNumber(p.Value) {
			dropped = append(dropped, newPropertyError(id, set.Name, p.Name, fmt.Errorf("quantity is not numeric (%T)", p.Value)))
			continue
		}
		value, err := FormatValue(p.Value)
		if err != nil {
			dropped = append(dropped, newPropertyError(id, set.Name, p.Name, err))
			continue
		}
		out = append(out, model.PropertyTriple{ElementID: id, Name: p.Name, Value: value, Group: set.Name})
	}
	return out, dropped
}

func typePropertySetTriples(id model.ElementID, set PropertySet) ([]model.PropertyTriple, []PropertyError) {
	triples, dropped := propertySetTriples(id, set)
	for i := range triples {
		triples[i].Group = "Type: " + set.Name
	}
	return triples, dropped
}
