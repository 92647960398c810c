package index

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aidanlsb/ifcq/internal/extract"
	"github.com/aidanlsb/ifcq/internal/model"
	"github.com/aidanlsb/ifcq/internal/query"
)

func TestRegistryPublish(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Get("house"); !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}

	var published []uint64
	r.OnPublish(func(s *Snapshot) { published = append(published, s.Generation) })

	first := r.Publish(NewSnapshot("house", sampleTriples()))
	second := r.Publish(NewSnapshot("shed", []model.PropertyTriple{triple(7, "IfcType", "BEAM")}))
	if first.Generation != 1 || second.Generation != 2 {
		t.Errorf("generations = %d, %d; want 1, 2", first.Generation, second.Generation)
	}
	if len(published) != 2 {
		t.Errorf("hook ran %d times, want 2", len(published))
	}

	got, err := r.Get("house")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != first {
		t.Error("Get returned a different snapshot")
	}
	if ids := r.Models(); len(ids) != 2 || ids[0] != "house" || ids[1] != "shed" {
		t.Errorf("Models() = %v", ids)
	}

	replacement := r.Publish(NewSnapshot("house", []model.PropertyTriple{triple(9, "IfcType", "WALL")}))
	got, _ = r.Get("house")
	if got != replacement || got.Generation != 3 {
		t.Errorf("replacement not current: generation %d", got.Generation)
	}
	if _, ok := got.Index.Lookup("Name"); ok {
		t.Error("replacement index still has properties of the old build")
	}

	if !r.Remove("shed") || r.Remove("shed") {
		t.Error("Remove should report presence once")
	}
}

func TestRegistryIndexes(t *testing.T) {
	r := NewRegistry()
	r.Publish(NewSnapshot("shed", []model.PropertyTriple{triple(7, "IfcType", "BEAM")}))
	r.Publish(NewSnapshot("house", sampleTriples()))

	results := query.EvaluateAll(query.MustParse("(['IfcType' = 'BEAM'])"), r.Indexes())
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ModelID != "house" || !results[0].IDs.Equal(query.NewSet(1, 3)) {
		t.Errorf("house = %v", results[0].IDs.Sorted())
	}
	if results[1].ModelID != "shed" || !results[1].IDs.Equal(query.NewSet(7)) {
		t.Errorf("shed = %v", results[1].IDs.Sorted())
	}
}

func TestRegistryConcurrentReaders(t *testing.T) {
	r := NewRegistry()
	r.Publish(NewSnapshot("m", []model.PropertyTriple{triple(1, "IfcType", "BEAM")}))
	q := query.MustParse("(['IfcType' = 'BEAM'])")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s, err := r.Get("m")
				if err != nil {
					t.Error(err)
					return
				}
				// Each snapshot is internally consistent: the id set matches its generation.
				got := query.Evaluate(q, s.Index)
				if got.Len() != 1 {
					t.Errorf("generation %d: got %v", s.Generation, got.Sorted())
					return
				}
			}
		}()
	}
	for i := 2; i < 50; i++ {
		r.Publish(NewSnapshot("m", []model.PropertyTriple{triple(model.ElementID(i), "IfcType", "BEAM")}))
	}
	wg.Wait()
}

func TestRegistryRebuild(t *testing.T) {
	p := extract.NewFileProvider()
	err := p.Add("house", "house.json", &extract.Dump{Elements: []extract.DumpElement{
		{ID: 1, Type: "IFCBEAM", Storey: "Level 1"},
		{ID: 2, Type: "IFCSLAB", PropertySets: []extract.DumpSet{
			{Name: "Pset_SlabCommon", Properties: []extract.DumpProperty{{Name: "IsExternal", Value: false}}},
		}},
	}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	r := NewRegistry()
	snap, err := r.Rebuild(context.Background(), p, "house", extract.Options{})
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if snap.Stats.Extracted != 2 || snap.ElementCount() != 2 {
		t.Errorf("stats = %+v, elements = %d", snap.Stats, snap.ElementCount())
	}
	got := query.Evaluate(query.MustParse("(['IsExternal' = 'false']) OR (['Storey' sw 'Level'])"), snap.Index)
	if !got.Equal(query.NewSet(1, 2)) {
		t.Errorf("got %v, want [1 2]", got.Sorted())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Rebuild(ctx, p, "house", extract.Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	current, _ := r.Get("house")
	if current != snap {
		t.Error("cancelled rebuild replaced the published snapshot")
	}

	if _, err := r.Rebuild(context.Background(), p, "missing", extract.Options{}); !errors.Is(err, extract.ErrModelNotLoaded) {
		t.Errorf("expected ErrModelNotLoaded, got %v", err)
	}
}
