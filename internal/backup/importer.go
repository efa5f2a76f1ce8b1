package backup

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/passwords/internal/dbx"
	"github.com/dmitrijs2005/passwords/internal/keys"
	"github.com/dmitrijs2005/passwords/internal/logging"
	"github.com/dmitrijs2005/passwords/internal/repositories/repomanager"
	"github.com/dmitrijs2005/passwords/internal/revisions"
	"github.com/dmitrijs2005/passwords/internal/sse"
)

// Importer restores backup documents into the revision store.
type Importer struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       Codec
	storage     Storage
	logger      logging.Logger
}

// NewImporter returns an Importer sealing restored revisions with codec.
func NewImporter(db *sql.DB, repomanager repomanager.RepositoryManager, codec Codec, storage Storage, logger logging.Logger) *Importer {
	return &Importer{
		db:          db,
		repomanager: repomanager,
		codec:       codec,
		storage:     storage,
		logger:      logger,
	}
}

// Import restores the document stored under name and returns the number of
// revisions written. Records of an encrypted document are opened with the
// document's own keys when it carries them, and with the live keys
// otherwise. The restore is all-or-nothing.
func (i *Importer) Import(ctx context.Context, name string, passphrase []byte) (int, error) {
	data, err := i.storage.Get(ctx, name)
	if err != nil {
		return 0, err
	}

	doc, err := Unmarshal(data, passphrase)
	if err != nil {
		return 0, err
	}

	open := i.codec
	if doc.Encrypted && doc.Keys != nil {
		open = sse.NewCodec(keys.FromDocument(*doc.Keys))
	}

	var restored int
	err = dbx.WithTx(ctx, i.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := i.repomanager.Revisions(tx)

		for _, kind := range revisions.Kinds() {
			for _, record := range doc.Records[string(kind)] {
				rev, err := i.restore(record, kind, doc.Encrypted, open)
				if err != nil {
					return err
				}
				if err := repo.Save(ctx, rev); err != nil {
					return fmt.Errorf("save %s revision %s: %w", kind, rev.Header().ID, err)
				}
				restored++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	i.logger.Info(ctx, "backup restored", "name", name, "revisions", restored)
	return restored, nil
}

func (i *Importer) restore(record map[string]string, kind revisions.Kind, encrypted bool, open Codec) (revisions.Revision, error) {
	plain := record
	if encrypted {
		var err error
		plain, err = open.DecryptArray(record, string(kind))
		if err != nil {
			return nil, fmt.Errorf("open %s revision %s: %w", kind, record["id"], err)
		}
	}

	sealed, err := i.codec.EncryptArray(plain, string(kind))
	if err != nil {
		return nil, fmt.Errorf("seal %s revision %s: %w", kind, record["id"], err)
	}

	return revisions.FromFields(sealed, string(kind))
}
