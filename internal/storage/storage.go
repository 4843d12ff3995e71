// Package storage persists resolved overlap runs for downstream review
// tooling. The engine itself keeps all state in memory; a store only
// receives finished results.
package storage

import (
	"context"

	"github.com/stephansanders/citation-overlap/internal/overlap"
)

// Store persists resolve results.
type Store interface {
	// SaveResult writes one run's stats and overlaps table.
	SaveResult(ctx context.Context, result *overlap.Result) error

	// Close releases the store's resources.
	Close() error
}
