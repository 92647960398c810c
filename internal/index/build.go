package index

import (
	"context"
	"fmt"

	"github.com/aidanlsb/ifcq/internal/extract"
)

// FileBuild describes one dump file to index.
type FileBuild struct {
	Path string
	// ModelID overrides the id derived from the dump.
	ModelID string
	Options extract.Options
}

// BuildFile loads a dump into p, rebuilds its model in r and, when s is not
// nil, persists the new snapshot. On failure the previously published
// snapshot stays current.
func BuildFile(ctx context.Context, p *extract.FileProvider, r *Registry, s *Store, b FileBuild) (*Snapshot, error) {
	modelID, err := p.LoadFile(b.Path, b.ModelID)
	if err != nil {
		return nil, err
	}
	snap, err := r.Rebuild(ctx, p, modelID, b.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to index %s: %w", modelID, err)
	}
	if s != nil {
		if err := s.Save(snap, b.Path); err != nil {
			return snap, fmt.Errorf("failed to save index of %s: %w", modelID, err)
		}
	}
	return snap, nil
}
