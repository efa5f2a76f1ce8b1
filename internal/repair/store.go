// Package repair scans stored revisions and heals drift left behind by
// historical schema and encryption changes.
//
// Every rule re-checks its own precondition and its action falsifies it, so
// a pass can be interrupted and restarted from the top at any time.
package repair

import (
	"context"
	"iter"

	"github.com/dmitrijs2005/passwords/internal/revisions"
)

// Store is the revision persistence the engine works against.
type Store interface {
	// StreamAll yields every revision of kind. Each call starts over from
	// the first revision.
	StreamAll(ctx context.Context, kind revisions.Kind) iter.Seq2[revisions.Revision, error]

	// FindFolderByUUID fails with common.ErrorNotFound or
	// common.ErrMultipleFound when the folder cannot be resolved.
	FindFolderByUUID(ctx context.Context, uuid string) (*revisions.Model, error)

	// FindModel resolves the parent item of a revision, with the same
	// failure modes as FindFolderByUUID.
	FindModel(ctx context.Context, kind revisions.Kind, uuid string) (*revisions.Model, error)

	// Save upserts rev.
	Save(ctx context.Context, rev revisions.Revision) error
}

// ConfigStore is the application configuration key-value store.
type ConfigStore interface {
	// Get returns ok=false when the key is not set.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Codec is the server-side encryption codec. *sse.Codec implements it.
type Codec interface {
	Encrypt(rev revisions.Revision) error
	Decrypt(rev revisions.Revision) error
}
