package revisions

import (
	"context"
	"iter"

	rv "github.com/dmitrijs2005/passwords/internal/revisions"
)

type Repository interface {
	StreamAll(ctx context.Context, kind rv.Kind) iter.Seq2[rv.Revision, error]
	FindFolderByUUID(ctx context.Context, uuid string) (*rv.Model, error)
	FindModel(ctx context.Context, kind rv.Kind, uuid string) (*rv.Model, error)
	Save(ctx context.Context, rev rv.Revision) error
}
