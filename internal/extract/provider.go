// Package extract turns the elements of a building model into property
// triples. Model parsing itself lives behind the Provider interface.
package extract

import (
	"context"

	"github.com/aidanlsb/ifcq/internal/model"
)

// Provider supplies element data for a model. Implementations wrap whatever
// reads the model file; they are called element by element.
type Provider interface {
	// ElementIDs lists the elements of a model in a stable order.
	ElementIDs(ctx context.Context, modelID string) ([]model.ElementID, error)
	// Element returns one element with its attributes and property sets.
	Element(ctx context.Context, modelID string, id model.ElementID) (*Element, error)
}

// Element is one model element as seen by the provider.
type Element struct {
	ID model.ElementID
	// Type is the IFC entity name, e.g. IFCBEAM.
	Type string
	// Attributes are the element's direct attributes (Name, GlobalId, Tag...).
	Attributes []Property
	// Storey is the name of the containing building storey, if any.
	Storey       string
	PropertySets []PropertySet
}

// PropertySet is a named bundle of properties or quantities.
type PropertySet struct {
	Kind       PropertySetKind
	Name       string
	Properties []Property
}

// Property is a single named value. A nil Value means the provider had no
// value for it.
type Property struct {
	Name  string
	Value any
}
