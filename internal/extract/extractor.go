package extract

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/aidanlsb/ifcq/internal/model"
)

// ProgressFunc receives the number of processed elements and the total after
// each element. processed never decreases.
type ProgressFunc func(processed, total int)

// Options controls Extract.
type Options struct {
	// Workers bounds concurrent Element calls. 0 or 1 fetches elements one at
	// a time in order.
	Workers int
	// Progress is called after every element, failed ones included.
	Progress ProgressFunc
	// Logger receives per-element failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// ElementError records an element that was skipped.
type ElementError struct {
	ElementID model.ElementID `json:"element_id"`
	Err       error           `json:"-"`
	Message   string          `json:"message"`
}

func (e ElementError) Error() string {
	return fmt.Sprintf("element %d: %v", e.ElementID, e.Err)
}

// PropertyError records a property left out of an otherwise indexed element.
// Property is empty when a whole set was left out.
type PropertyError struct {
	ElementID model.ElementID `json:"element_id"`
	Set       string          `json:"set,omitempty"`
	Property  string          `json:"property,omitempty"`
	Err       error           `json:"-"`
	Message   string          `json:"message"`
}

func newPropertyError(id model.ElementID, set, property string, err error) PropertyError {
	return PropertyError{ElementID: id, Set: set, Property: property, Err: err, Message: err.Error()}
}

func (e PropertyError) Error() string {
	switch {
	case e.Set == "":
		return fmt.Sprintf("element %d property %q: %v", e.ElementID, e.Property, e.Err)
	case e.Property == "":
		return fmt.Sprintf("element %d set %q: %v", e.ElementID, e.Set, e.Err)
	}
	return fmt.Sprintf("element %d set %q property %q: %v", e.ElementID, e.Set, e.Property, e.Err)
}

// Stats summarises an extraction.
type Stats struct {
	Total     int            `json:"total"`
	Extracted int            `json:"extracted"`
	Skipped   int            `json:"skipped"`
	Triples   int            `json:"triples"`
	Failures  []ElementError `json:"failures,omitempty"`
	// Dropped lists properties left out of elements that were still indexed.
	Dropped []PropertyError `json:"dropped,omitempty"`
}

// Result is the output of Extract.
type Result struct {
	ModelID string
	Triples []model.PropertyTriple
	Stats   Stats
}

type slot struct {
	triples []model.PropertyTriple
	dropped []PropertyError
	err     error
}

// Extract walks every element of a model and returns its property triples in
// element order. A provider failure for one element skips that element; a
// property whose value cannot be indexed is dropped from its element. Neither
// fails the extraction. Cancelling ctx stops the walk and returns
// ctx.Err() with no result.
func Extract(ctx context.Context, p Provider, modelID string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ids, err := p.ElementIDs(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list elements of %s: %w", modelID, err)
	}

	slots := make([]slot, len(ids))
	if opts.Workers > 1 && len(ids) > 1 {
		err = extractPooled(ctx, p, modelID, ids, slots, opts)
	} else {
		err = extractSequential(ctx, p, modelID, ids, slots, opts.Progress)
	}
	if err != nil {
		return nil, err
	}

	res := &Result{ModelID: modelID, Stats: Stats{Total: len(ids)}}
	for i, s := range slots {
		if s.err != nil {
			fail := ElementError{ElementID: ids[i], Err: s.err, Message: s.err.Error()}
			res.Stats.Failures = append(res.Stats.Failures, fail)
			res.Stats.Skipped++
			logger.Warn("skipping element", "model", modelID, "element", int64(ids[i]), "error", s.err)
			continue
		}
		for _, d := range s.dropped {
			logger.Warn("dropping property", "model", modelID, "element", int64(d.ElementID), "set", d.Set, "property", d.Property, "error", d.Err)
		}
		res.Stats.Dropped = append(res.Stats.Dropped, s.dropped...)
		res.Stats.Extracted++
		res.Triples = append(res.Triples, s.triples...)
	}
	res.Stats.Triples = len(res.Triples)
	return res, nil
}

func extractSequential(ctx context.Context, p Provider, modelID string, ids []model.ElementID, slots []slot, progress ProgressFunc) error {
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		slots[i] = extractOne(ctx, p, modelID, id)
		if progress != nil {
			progress(i+1, len(ids))
		}
	}
	return ctx.Err()
}

func extractPooled(ctx context.Context, p Provider, modelID string, ids []model.ElementID, slots []slot, opts Options) error {
	pool, err := ants.NewPool(opts.Workers)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		processed int
	)
	done := func() {
		mu.Lock()
		processed++
		if opts.Progress != nil {
			opts.Progress(processed, len(ids))
		}
		mu.Unlock()
		wg.Done()
	}

	for i, id := range ids {
		if ctx.Err() != nil {
			break
		}
		i, id := i, id
		wg.Add(1)
		task := func() {
			defer done()
			if ctx.Err() != nil {
				return
			}
			slots[i] = extractOne(ctx, p, modelID, id)
		}
		if err := pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()
	return ctx.Err()
}

func extractOne(ctx context.Context, p Provider, modelID string, id model.ElementID) (s slot) {
	defer func() {
		if r := recover(); r != nil {
			s = slot{err: fmt.Errorf("provider panic: %v", r)}
		}
	}()

	el, err := p.Element(ctx, modelID, id)
	if err != nil {
		return slot{err: err}
	}
	if el == nil {
		return slot{err: fmt.Errorf("provider returned no element")}
	}
	triples, dropped := ElementTriples(el)
	return slot{triples: triples, dropped: dropped}
}

// ElementTriples returns the triples of one element: its IFC type, its direct
// attributes and storey, then the properties of each set in order. Properties
// whose values cannot be indexed are left out and returned as PropertyErrors.
func ElementTriples(el *Element) ([]model.PropertyTriple, []PropertyError) {
	var (
		out     []model.PropertyTriple
		dropped []PropertyError
	)
	if el.Type != "" {
		out = append(out, model.NewTriple(el.ID, model.PropertyType, el.Type, model.GroupInstance))
	}
	for _, attr := range el.Attributes {
		value, err := FormatValue(attr.Value)
		if err != nil {
			dropped = append(dropped, newPropertyError(el.ID, "", attr.Name, err))
			continue
		}
		out = append(out, model.PropertyTriple{ElementID: el.ID, Name: attr.Name, Value: value, Group: model.GroupInstance})
	}
	if el.Storey != "" {
		out = append(out, model.NewTriple(el.ID, model.PropertyStorey, el.Storey, model.GroupBuilding))
	}
	for _, set := range el.PropertySets {
		triples, bad := setTriples(el.ID, set)
		out = append(out, triples...)
		dropped = append(dropped, bad...)
	}
	return out, dropped
}
