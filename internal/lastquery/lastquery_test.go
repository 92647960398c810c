package lastquery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aidanlsb/ifcq/internal/model"
)

func sample() *LastQuery {
	return New("(['IfcType' = 'IFCBEAM'])", "house", []ResultEntry{
		{Model: "house", ElementID: 12},
		{Model: "house", ElementID: 40},
		{Model: "house", ElementID: 41},
	})
}

func TestNewNumbersResults(t *testing.T) {
	lq := sample()
	for i, r := range lq.Results {
		if r.Num != i+1 {
			t.Errorf("result %d numbered %d", i, r.Num)
		}
	}
	if lq.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestWriteAndRead(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), ".ifcq")

	if err := Write(stateDir, sample()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := os.Stat(Path(stateDir)); err != nil {
		t.Fatalf("last-query.json was not created: %v", err)
	}

	lq, err := Read(stateDir)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if lq.Query != "(['IfcType' = 'IFCBEAM'])" || lq.Model != "house" {
		t.Errorf("read back %+v", lq)
	}
	if len(lq.Results) != 3 || lq.Results[1].ElementID != model.ElementID(40) {
		t.Errorf("results = %+v", lq.Results)
	}
}

func TestReadNoFile(t *testing.T) {
	if _, err := Read(t.TempDir()); !errors.Is(err, ErrNoLastQuery) {
		t.Errorf("expected ErrNoLastQuery, got %v", err)
	}
}

func TestReadCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(Path(dir), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(dir); err == nil || errors.Is(err, ErrNoLastQuery) {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestGetByNumbers(t *testing.T) {
	lq := sample()

	got, err := lq.GetByNumbers([]int{3, 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ElementID != 41 || got[1].ElementID != 12 {
		t.Errorf("GetByNumbers() = %+v", got)
	}

	for _, nums := range [][]int{{0}, {4}, {1, 9}} {
		if _, err := lq.GetByNumbers(nums); !errors.Is(err, ErrNumberOutOfRange) {
			t.Errorf("GetByNumbers(%v): expected ErrNumberOutOfRange, got %v", nums, err)
		}
	}
}
