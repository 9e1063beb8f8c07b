// Package snapshot persists JSON world dumps so a world can be inspected or restored after the
// process exits.
package snapshot

import (
	"context"

	"github.com/rotisserie/eris"
)

// ErrSnapshotNotFound is returned when no snapshot exists for the requested world and tick.
var ErrSnapshotNotFound = eris.New("snapshot not found")

// Storage persists world dumps keyed by world id and tick.
type Storage interface {
	// Save stores the dump taken at the given tick, replacing any previous dump at that tick.
	Save(ctx context.Context, worldID string, tick uint32, dump []byte) error
	// Load returns the dump taken at the given tick.
	Load(ctx context.Context, worldID string, tick uint32) ([]byte, error)
	// Latest returns the most recently saved dump and its tick.
	Latest(ctx context.Context, worldID string) ([]byte, uint32, error)
	// Close releases the backing connection.
	Close() error
}
