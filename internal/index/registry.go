package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aidanlsb/ifcq/internal/extract"
	"github.com/aidanlsb/ifcq/internal/model"
	"github.com/aidanlsb/ifcq/internal/query"
)

// ErrModelNotFound indicates no index has been published for a model.
var ErrModelNotFound = errors.New("model not indexed")

// Snapshot is one published, immutable index generation of a model.
type Snapshot struct {
	ModelID    string
	Generation uint64
	Index      *PropertyIndex
	Elements   model.ElementProperties
	// Triples are the normalized triples the index was built from, kept so
	// the snapshot can be persisted.
	Triples []model.PropertyTriple
	BuiltAt time.Time
	Stats   extract.Stats
}

// ElementCount returns the number of elements with at least one property.
func (s *Snapshot) ElementCount() int {
	if s == nil {
		return 0
	}
	return len(s.Elements)
}

// NewSnapshot builds the index of triples into an unpublished snapshot.
// Missing values are dropped and empty values normalized, so Triples reads
// back identically.
func NewSnapshot(modelID string, triples []model.PropertyTriple) *Snapshot {
	idx, props := Build(modelID, triples)
	return &Snapshot{
		ModelID:  modelID,
		Index:    idx,
		Elements: props,
		Triples:  normalize(triples),
		BuiltAt:  time.Now(),
	}
}

func normalize(triples []model.PropertyTriple) []model.PropertyTriple {
	out := make([]model.PropertyTriple, 0, len(triples))
	for _, t := range triples {
		if !t.HasValue() {
			continue
		}
		if *t.Value == "" {
			t = model.NewTriple(t.ElementID, t.Name, model.EmptyValue, t.Group)
		}
		out = append(out, t)
	}
	return out
}

// Registry holds the current snapshot of every model. Readers get whole
// snapshots; a rebuild publishes a new snapshot in one swap, so a reader sees
// either the old or the new index and never a partial one.
type Registry struct {
	mu         sync.RWMutex
	models     map[string]*Snapshot
	generation uint64
	onPublish  []func(*Snapshot)
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*Snapshot)}
}

// OnPublish registers a callback run after every publish.
func (r *Registry) OnPublish(fn func(*Snapshot)) {
	r.mu.Lock()
	r.onPublish = append(r.onPublish, fn)
	r.mu.Unlock()
}

// Publish makes s the current snapshot of its model, replacing any earlier
// one. It stamps the snapshot with the next generation number; s must not be
// modified afterwards.
func (r *Registry) Publish(s *Snapshot) *Snapshot {
	r.mu.Lock()
	r.generation++
	s.Generation = r.generation
	r.models[s.ModelID] = s
	hooks := r.onPublish
	r.mu.Unlock()

	for _, fn := range hooks {
		fn(s)
	}
	return s
}

// Get returns the current snapshot of a model.
func (r *Registry) Get(modelID string) (*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.models[modelID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelID)
	}
	return s, nil
}

// Remove drops a model. It reports whether the model was present.
func (r *Registry) Remove(modelID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.models[modelID]
	delete(r.models, modelID)
	return ok
}

// Models returns the ids of all published models, sorted.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.models))
	for id := range r.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshots returns the current snapshot of every model, sorted by model id.
func (r *Registry) Snapshots() []*Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Snapshot, 0, len(r.models))
	for _, s := range r.models {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModelID < out[j].ModelID })
	return out
}

// Indexes returns the current index of every model, sorted by model id, for
// query.EvaluateAll.
func (r *Registry) Indexes() []query.Named {
	snaps := r.Snapshots()
	out := make([]query.Named, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, query.Named{ModelID: s.ModelID, Index: s.Index})
	}
	return out
}

// Rebuild extracts a model from p, builds its index and publishes it. Nothing
// is published when extraction fails or ctx is cancelled.
func (r *Registry) Rebuild(ctx context.Context, p extract.Provider, modelID string, opts extract.Options) (*Snapshot, error) {
	res, err := extract.Extract(ctx, p, modelID, opts)
	if err != nil {
		return nil, err
	}
	s := NewSnapshot(modelID, res.Triples)
	s.Stats = res.Stats
	return r.Publish(s), nil
}
