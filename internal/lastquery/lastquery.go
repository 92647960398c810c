// Package lastquery persists the most recent query and its matches so that
// follow-up commands can refer to results by number.
package lastquery

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aidanlsb/ifcq/internal/atomicfile"
	"github.com/aidanlsb/ifcq/internal/model"
)

const fileName = "last-query.json"

// LastQuery stores the results of the most recent query.
type LastQuery struct {
	Query     string        `json:"query"`
	Model     string        `json:"model,omitempty"` // empty when run across all models
	Timestamp time.Time     `json:"timestamp"`
	Results   []ResultEntry `json:"results"`
}

// ResultEntry is one numbered match.
type ResultEntry struct {
	Num       int             `json:"num"` // 1-indexed number for user reference
	Model     string          `json:"model"`
	ElementID model.ElementID `json:"element_id"`
}

var (
	ErrNoLastQuery      = errors.New("no last query available")
	ErrInvalidNumber    = errors.New("invalid result number")
	ErrNumberOutOfRange = errors.New("result number out of range")
)

// Path returns the location of the last query file inside a state directory.
func Path(stateDir string) string {
	return filepath.Join(stateDir, fileName)
}

// New numbers the matches of a query in the given order.
func New(query, modelID string, matches []ResultEntry) *LastQuery {
	lq := &LastQuery{Query: query, Model: modelID, Timestamp: time.Now(), Results: make([]ResultEntry, len(matches))}
	for i, m := range matches {
		m.Num = i + 1
		lq.Results[i] = m
	}
	return lq
}

// Write saves the last query to the state directory atomically.
func Write(stateDir string, lq *LastQuery) error {
	err := atomicfile.Write(Path(stateDir), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(lq)
	})
	if err != nil {
		return fmt.Errorf("failed to write last query: %w", err)
	}
	return nil
}

// Read loads the last query from the state directory.
// Returns ErrNoLastQuery if no query has been saved.
func Read(stateDir string) (*LastQuery, error) {
	data, err := os.ReadFile(Path(stateDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoLastQuery
		}
		return nil, fmt.Errorf("failed to read last query: %w", err)
	}

	var lq LastQuery
	if err := json.Unmarshal(data, &lq); err != nil {
		return nil, fmt.Errorf("failed to parse last query: %w", err)
	}
	return &lq, nil
}

// GetByNumbers returns the entries with the given 1-indexed numbers.
func (lq *LastQuery) GetByNumbers(nums []int) ([]ResultEntry, error) {
	results := make([]ResultEntry, 0, len(nums))
	for _, num := range nums {
		if num < 1 || num > len(lq.Results) {
			return nil, fmt.Errorf("%w: %d (valid range: 1-%d)", ErrNumberOutOfRange, num, len(lq.Results))
		}
		results = append(results, lq.Results[num-1])
	}
	return results, nil
}
