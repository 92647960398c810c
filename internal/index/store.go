// Package index builds, holds and persists per-model property indexes.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aidanlsb/ifcq/internal/model"
	"github.com/aidanlsb/ifcq/internal/sqlutil"
)

// schemaVersion is bumped whenever the tables below change shape. A store
// with another version is dropped and recreated on open.
const schemaVersion = "1"

// StateDir is the per-project directory holding the index database.
const StateDir = ".ifcq"

var (
	// ErrIndexLocked indicates another process is writing the index.
	ErrIndexLocked = errors.New("index is locked for rebuild")
)

// Store persists model snapshots in SQLite.
type Store struct {
	db      *sql.DB
	lockDir string // empty for in-memory stores
}

// ModelInfo describes a stored model.
type ModelInfo struct {
	ModelID  string    `json:"model"`
	Source   string    `json:"source,omitempty"`
	Revision int       `json:"revision"`
	Elements int       `json:"elements"`
	Triples  int       `json:"triples"`
	Skipped  int       `json:"skipped"`
	BuiltAt  time.Time `json:"built_at"`
}

// DBPath returns the index database path for a project directory.
func DBPath(dir string) string {
	return filepath.Join(dir, StateDir, "index.db")
}

// Open opens or creates the store of a project directory, recreating it when
// its schema version is not the current one. The second return value reports
// whether the store was recreated.
func Open(dir string) (*Store, bool, error) {
	stateDir := filepath.Join(dir, StateDir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, false, fmt.Errorf("failed to create %s directory: %w", StateDir, err)
	}

	db, err := sql.Open("sqlite", DBPath(dir))
	if err != nil {
		return nil, false, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db, lockDir: stateDir}

	rebuilt, err := s.initialize()
	if err != nil {
		db.Close()
		return nil, false, err
	}
	return s, rebuilt, nil
}

// OpenInMemory opens an in-memory store (for testing).
func OpenInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if _, err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize() (bool, error) {
	if _, err := s.db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`); err != nil {
		return false, fmt.Errorf("failed to initialize database: %w", err)
	}

	var version string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	rebuilt := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return false, fmt.Errorf("failed to read schema version: %w", err)
	case version != schemaVersion:
		if _, err := s.db.Exec("DROP TABLE IF EXISTS triples; DROP TABLE IF EXISTS models;"); err != nil {
			return false, fmt.Errorf("failed to drop outdated schema: %w", err)
		}
		rebuilt = true
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS models (
			model_id TEXT PRIMARY KEY,
			source_path TEXT,
			revision INTEGER NOT NULL,
			element_count INTEGER NOT NULL,
			triple_count INTEGER NOT NULL,
			skipped_count INTEGER NOT NULL DEFAULT 0,
			built_at INTEGER NOT NULL
		);

		-- Normalized triples in extraction order; the in-memory index is
		-- rebuilt from them on load.
		CREATE TABLE IF NOT EXISTS triples (
			model_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			element_id INTEGER NOT NULL,
			property TEXT NOT NULL,
			value TEXT NOT NULL,
			grp TEXT NOT NULL,
			PRIMARY KEY (model_id, seq)
		);
		CREATE INDEX IF NOT EXISTS idx_triples_element ON triples(model_id, element_id);
	`); err != nil {
		return false, fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := s.db.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion,
	); err != nil {
		return false, fmt.Errorf("failed to record schema version: %w", err)
	}
	return rebuilt, nil
}

// Save replaces the stored copy of a snapshot's model in a single
// transaction: readers of the database see the previous revision until the
// commit.
func (s *Store) Save(snap *Snapshot, source string) (err error) {
	if s.lockDir != "" {
		lock, err := acquireIndexLock(s.lockDir)
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var revision int
	err = tx.QueryRow("SELECT revision FROM models WHERE model_id = ?", snap.ModelID).Scan(&revision)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read revision: %w", err)
	}

	if _, err = tx.Exec("DELETE FROM triples WHERE model_id = ?", snap.ModelID); err != nil {
		return fmt.Errorf("failed to clear triples: %w", err)
	}
	if _, err = tx.Exec(`INSERT OR REPLACE INTO models
		(model_id, source_path, revision, element_count, triple_count, skipped_count, built_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ModelID, source, revision+1, snap.ElementCount(), len(snap.Triples), snap.Stats.Skipped, snap.BuiltAt.Unix(),
	); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO triples (model_id, seq, element_id, property, value, grp) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range snap.Triples {
		if _, err = stmt.Exec(snap.ModelID, i, int64(t.ElementID), t.Name, *t.Value, t.Group); err != nil {
			return fmt.Errorf("failed to write triple %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Load reads a stored model and rebuilds its snapshot. The snapshot is not
// published.
func (s *Store) Load(modelID string) (*Snapshot, error) {
	var builtAt int64
	var skipped int
	err := s.db.QueryRow("SELECT built_at, skipped_count FROM models WHERE model_id = ?", modelID).Scan(&builtAt, &skipped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	rows, err := s.db.Query("SELECT element_id, property, value, grp FROM triples WHERE model_id = ? ORDER BY seq", modelID)
	if err != nil {
		return nil, fmt.Errorf("failed to read triples: %w", err)
	}
	triples, err := sqlutil.ScanRows(rows, func(rows *sql.Rows) (model.PropertyTriple, error) {
		var id int64
		var name, value, group string
		if err := rows.Scan(&id, &name, &value, &group); err != nil {
			return model.PropertyTriple{}, fmt.Errorf("failed to scan triple: %w", err)
		}
		return model.NewTriple(model.ElementID(id), name, value, group), nil
	})
	if err != nil {
		return nil, err
	}

	snap := NewSnapshot(modelID, triples)
	snap.BuiltAt = time.Unix(builtAt, 0)
	snap.Stats.Skipped = skipped
	return snap, nil
}

// LoadInto loads every stored model and publishes it to r. It returns the
// loaded model ids.
func (s *Store) LoadInto(r *Registry) ([]string, error) {
	infos, err := s.Models()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		snap, err := s.Load(info.ModelID)
		if err != nil {
			return ids, err
		}
		r.Publish(snap)
		ids = append(ids, info.ModelID)
	}
	return ids, nil
}

// Models lists the stored models, sorted by id.
func (s *Store) Models() ([]ModelInfo, error) {
	rows, err := s.db.Query(`SELECT model_id, COALESCE(source_path, ''), revision, element_count, triple_count, skipped_count, built_at
		FROM models ORDER BY model_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (ModelInfo, error) {
		var info ModelInfo
		var builtAt int64
		if err := rows.Scan(&info.ModelID, &info.Source, &info.Revision, &info.Elements, &info.Triples, &info.Skipped, &builtAt); err != nil {
			return ModelInfo{}, err
		}
		info.BuiltAt = time.Unix(builtAt, 0)
		return info, nil
	})
}

// Delete removes a stored model. Deleting an unknown model is not an error.
func (s *Store) Delete(modelID string) (err error) {
	if s.lockDir != "" {
		lock, err := acquireIndexLock(s.lockDir)
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.Exec("DELETE FROM triples WHERE model_id = ?", modelID); err != nil {
		return fmt.Errorf("failed to clear triples: %w", err)
	}
	if _, err = tx.Exec("DELETE FROM models WHERE model_id = ?", modelID); err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}
	return tx.Commit()
}
