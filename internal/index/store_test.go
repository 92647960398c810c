package index

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/aidanlsb/ifcq/internal/model"
	"github.com/aidanlsb/ifcq/internal/query"
)

func TestStore(t *testing.T) {
	t.Run("save and load", func(t *testing.T) {
		s, err := OpenInMemory()
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		defer s.Close()

		snap := NewSnapshot("house", sampleTriples())
		snap.Stats.Skipped = 4
		if err := s.Save(snap, "house.ifc.json"); err != nil {
			t.Fatalf("Save: %v", err)
		}

		loaded, err := s.Load("house")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if !reflect.DeepEqual(loaded.Triples, snap.Triples) {
			t.Errorf("triples differ:\n got %v\nwant %v", loaded.Triples, snap.Triples)
		}
		if loaded.Stats.Skipped != 4 {
			t.Errorf("Skipped = %d, want 4", loaded.Stats.Skipped)
		}
		got := query.Evaluate(query.MustParse("(['Name' = '---'])"), loaded.Index)
		if !got.Equal(query.NewSet(2)) {
			t.Errorf("loaded index: got %v, want [2]", got.Sorted())
		}
	})

	t.Run("save replaces and bumps revision", func(t *testing.T) {
		s, err := OpenInMemory()
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		defer s.Close()

		if err := s.Save(NewSnapshot("house", sampleTriples()), "a.json"); err != nil {
			t.Fatal(err)
		}
		if err := s.Save(NewSnapshot("house", []model.PropertyTriple{triple(9, "IfcType", "WALL")}), "b.json"); err != nil {
			t.Fatal(err)
		}

		infos, err := s.Models()
		if err != nil {
			t.Fatal(err)
		}
		if len(infos) != 1 {
			t.Fatalf("got %d models, want 1", len(infos))
		}
		info := infos[0]
		if info.Revision != 2 || info.Source != "b.json" || info.Triples != 1 || info.Elements != 1 {
			t.Errorf("info = %+v", info)
		}

		loaded, err := s.Load("house")
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := loaded.Index.Lookup("Name"); ok {
			t.Error("old triples survived the replace")
		}
	})

	t.Run("load into registry", func(t *testing.T) {
		s, err := OpenInMemory()
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		defer s.Close()

		for _, id := range []string{"shed", "house"} {
			if err := s.Save(NewSnapshot(id, sampleTriples()), ""); err != nil {
				t.Fatal(err)
			}
		}
		r := NewRegistry()
		ids, err := s.LoadInto(r)
		if err != nil {
			t.Fatalf("LoadInto: %v", err)
		}
		if !reflect.DeepEqual(ids, []string{"house", "shed"}) {
			t.Errorf("ids = %v", ids)
		}
		if !reflect.DeepEqual(r.Models(), []string{"house", "shed"}) {
			t.Errorf("registry models = %v", r.Models())
		}
	})

	t.Run("delete", func(t *testing.T) {
		s, err := OpenInMemory()
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		defer s.Close()

		if err := s.Save(NewSnapshot("house", sampleTriples()), ""); err != nil {
			t.Fatal(err)
		}
		if err := s.Delete("house"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if err := s.Delete("house"); err != nil {
			t.Fatalf("second Delete: %v", err)
		}
		if _, err := s.Load("house"); !errors.Is(err, ErrModelNotFound) {
			t.Errorf("expected ErrModelNotFound, got %v", err)
		}
	})
}

func TestStoreOnDisk(t *testing.T) {
	dir := t.TempDir()

	s, rebuilt, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if rebuilt {
		t.Error("fresh store reported as rebuilt")
	}
	if err := s.Save(NewSnapshot("house", sampleTriples()), "house.json"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Close()

	if _, err := os.Stat(DBPath(dir)); err != nil {
		t.Fatalf("database file missing: %v", err)
	}

	s, rebuilt, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if rebuilt {
		t.Error("current store reported as rebuilt")
	}
	if _, err := s.Load("house"); err != nil {
		t.Errorf("Load after reopen: %v", err)
	}
	s.Close()
}

func TestStoreSchemaMismatchRecreates(t *testing.T) {
	dir := t.TempDir()

	s, _, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(NewSnapshot("house", sampleTriples()), ""); err != nil {
		t.Fatal(err)
	}
	s.Close()

	db, err := sql.Open("sqlite", DBPath(dir))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("UPDATE meta SET value = '0' WHERE key = 'schema_version'"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	s, rebuilt, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if !rebuilt {
		t.Error("outdated store not reported as rebuilt")
	}
	infos, err := s.Models()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 0 {
		t.Errorf("outdated store kept %d models", len(infos))
	}
}

func TestStoreLocked(t *testing.T) {
	dir := t.TempDir()
	s, _, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	lock, err := acquireIndexLock(filepath.Join(dir, StateDir))
	if err != nil {
		t.Fatalf("acquireIndexLock: %v", err)
	}
	defer lock.Release()

	err = s.Save(NewSnapshot("house", sampleTriples()), "")
	if !errors.Is(err, ErrIndexLocked) {
		t.Fatalf("expected ErrIndexLocked, got %v", err)
	}
	if pid := strconv.Itoa(os.Getpid()); runtime.GOOS != "windows" && !strings.HasSuffix(err.Error(), "pid "+pid) {
		t.Errorf("error %q does not name the holder", err)
	}
	if err := s.Delete("house"); !errors.Is(err, ErrIndexLocked) {
		t.Errorf("Delete: expected ErrIndexLocked, got %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := s.Save(NewSnapshot("house", sampleTriples()), ""); err != nil {
		t.Errorf("Save after release: %v", err)
	}
}
