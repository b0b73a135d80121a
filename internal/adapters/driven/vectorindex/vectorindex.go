// Package vectorindex selects and opens a vector index backend.
package vectorindex

import (
	"fmt"

	"github.com/custodia-labs/caresync/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/caresync/internal/adapters/driven/vectorindex/sqlite"
	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driven"
)

// Open opens the index configured by settings. dim is used when settings
// do not pin a dimension.
func Open(settings domain.VectorIndexSettings, dim int) (driven.VectorIndex, error) {
	if settings.Dimensions > 0 {
		dim = settings.Dimensions
	}
	if settings.Path == "" {
		return nil, fmt.Errorf("%w: vector index path is not set", domain.ErrConfig)
	}

	backend := settings.Backend
	if backend == "" {
		backend = domain.IndexBackendFlat
	}

	switch backend {
	case domain.IndexBackendFlat:
		idx, err := flat.Open(settings.Path, dim)
		if err != nil {
			return nil, err
		}
		return idx, nil
	case domain.IndexBackendSQLite:
		idx, err := sqlite.Open(settings.Path, dim)
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("%w: unknown vector index backend %q", domain.ErrConfig, backend)
	}
}
