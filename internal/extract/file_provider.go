package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/ifcq/internal/model"
	"github.com/aidanlsb/ifcq/internal/slugs"
)

// ErrModelNotLoaded is returned for a model id the provider has not loaded.
var ErrModelNotLoaded = errors.New("model not loaded")

// ErrElementNotFound is returned for an element id absent from a loaded model.
var ErrElementNotFound = errors.New("element not found")

// ErrInvalidDump is returned for dump content that cannot be decoded or
// registered.
var ErrInvalidDump = errors.New("invalid model dump")

// Dump is the on-disk property export of one model, as written by an IFC
// toolchain (JSON or YAML).
type Dump struct {
	Model    string        `json:"model" yaml:"model"`
	Elements []DumpElement `json:"elements" yaml:"elements"`
}

// DumpElement is one element of a Dump.
type DumpElement struct {
	ID           int64          `json:"id" yaml:"id"`
	Type         string         `json:"type" yaml:"type"`
	Storey       string         `json:"storey,omitempty" yaml:"storey,omitempty"`
	Attributes   []DumpProperty `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	PropertySets []DumpSet      `json:"property_sets,omitempty" yaml:"property_sets,omitempty"`
}

// DumpSet is one property or quantity set of a DumpElement.
type DumpSet struct {
	Kind       string         `json:"kind,omitempty" yaml:"kind,omitempty"`
	Name       string         `json:"name" yaml:"name"`
	Properties []DumpProperty `json:"properties" yaml:"properties"`
}

// DumpProperty is one named value. A missing or null value is kept as nil.
type DumpProperty struct {
	Name  string `json:"name" yaml:"name"`
	Value any    `json:"value" yaml:"value"`
}

// ReadDump reads a dump file. Files ending in .yaml or .yml are decoded as
// YAML, everything else as JSON.
func ReadDump(path string) (*Dump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model dump: %w", err)
	}
	return DecodeDump(data, isYAML(path))
}

// DecodeDump decodes dump content.
func DecodeDump(data []byte, asYAML bool) (*Dump, error) {
	var d Dump
	if asYAML {
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDump, err)
		}
		return &d, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDump, err)
	}
	return &d, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

type loadedModel struct {
	path  string
	order []model.ElementID
	byID  map[model.ElementID]*DumpElement
}

// FileProvider serves elements from loaded dump files. It is safe for
// concurrent use.
type FileProvider struct {
	mu     sync.RWMutex
	models map[string]*loadedModel
}

// NewFileProvider returns an empty provider.
func NewFileProvider() *FileProvider {
	return &FileProvider{models: make(map[string]*loadedModel)}
}

// LoadFile reads a dump and registers it under modelID. An empty modelID
// falls back to the dump's model field, then to the file name. It returns the
// model id used. Loading the same id again replaces the earlier dump.
func (p *FileProvider) LoadFile(path, modelID string) (string, error) {
	d, err := ReadDump(path)
	if err != nil {
		return "", err
	}
	if modelID == "" {
		modelID = slugs.ModelID(d.Model)
	}
	if modelID == "" {
		modelID = slugs.ModelIDFromPath(path)
	}
	if err := p.Add(modelID, path, d); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return modelID, nil
}

// Add registers an already decoded dump.
func (p *FileProvider) Add(modelID, path string, d *Dump) error {
	m := &loadedModel{path: path, byID: make(map[model.ElementID]*DumpElement, len(d.Elements))}
	for i := range d.Elements {
		el := &d.Elements[i]
		id := model.ElementID(el.ID)
		if _, dup := m.byID[id]; dup {
			return fmt.Errorf("%w: duplicate element id %d", ErrInvalidDump, el.ID)
		}
		m.byID[id] = el
		m.order = append(m.order, id)
	}

	p.mu.Lock()
	p.models[modelID] = m
	p.mu.Unlock()
	return nil
}

// Path returns the file a model was loaded from.
func (p *FileProvider) Path(modelID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.models[modelID]
	if !ok {
		return "", false
	}
	return m.path, true
}

func (p *FileProvider) model(modelID string) (*loadedModel, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.models[modelID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotLoaded, modelID)
	}
	return m, nil
}

// ElementIDs implements Provider.
func (p *FileProvider) ElementIDs(ctx context.Context, modelID string) ([]model.ElementID, error) {
	m, err := p.model(modelID)
	if err != nil {
		return nil, err
	}
	ids := make([]model.ElementID, len(m.order))
	copy(ids, m.order)
	return ids, nil
}

// Element implements Provider.
func (p *FileProvider) Element(ctx context.Context, modelID string, id model.ElementID) (*Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := p.model(modelID)
	if err != nil {
		return nil, err
	}
	d, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrElementNotFound, id)
	}

	el := &Element{
		ID:         id,
		Type:       d.Type,
		Storey:     d.Storey,
		Attributes: properties(d.Attributes),
	}
	for _, s := range d.PropertySets {
		kind, err := ParseKind(s.Kind)
		if err != nil {
			return nil, err
		}
		el.PropertySets = append(el.PropertySets, PropertySet{Kind: kind, Name: s.Name, Properties: properties(s.Properties)})
	}
	return el, nil
}

func properties(in []DumpProperty) []Property {
	out := make([]Property, len(in))
	for i, p := range in {
		out[i] = Property{Name: p.Name, Value: p.Value}
	}
	return out
}
