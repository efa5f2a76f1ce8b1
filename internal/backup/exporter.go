package backup

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/dmitrijs2005/passwords/internal/keys"
	"github.com/dmitrijs2005/passwords/internal/logging"
	"github.com/dmitrijs2005/passwords/internal/revisions"
)

// Source streams stored revisions.
type Source interface {
	StreamAll(ctx context.Context, kind revisions.Kind) iter.Seq2[revisions.Revision, error]
}

// Codec converts backup field maps between ciphertext and plaintext.
// *sse.Codec implements it.
type Codec interface {
	DecryptArray(data map[string]string, kind string) (map[string]string, error)
	EncryptArray(data map[string]string, kind string) (map[string]string, error)
}

// ExportOptions select the shape of a backup document.
type ExportOptions struct {
	// Decrypt stores plaintext records.
	Decrypt bool
	// IncludeKeys embeds the server-side keys; it requires a passphrase.
	IncludeKeys bool
	Passphrase  []byte
}

var ErrKeysNeedPassphrase = errors.New("backup keys may only be exported under a passphrase")

// Exporter writes every stored revision to a backup document.
type Exporter struct {
	source  Source
	codec   Codec
	keys    *keys.Store
	storage Storage
	logger  logging.Logger
	now     func() time.Time
}

func NewExporter(source Source, codec Codec, keys *keys.Store, storage Storage, logger logging.Logger) *Exporter {
	return &Exporter{
		source:  source,
		codec:   codec,
		keys:    keys,
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// Export writes a document and returns its name. A codec error aborts the
// export before anything is written.
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) (string, error) {
	if opts.IncludeKeys && len(opts.Passphrase) == 0 {
		return "", ErrKeysNeedPassphrase
	}

	now := e.now()
	doc := &Document{
		Version:   FormatVersion,
		Created:   now.Unix(),
		Encrypted: !opts.Decrypt,
		Records:   make(map[string][]map[string]string),
	}
	if opts.IncludeKeys {
		d := e.keys.Document()
		doc.Keys = &d
	}

	for _, kind := range revisions.Kinds() {
		records := []map[string]string{}
		for rev, err := range e.source.StreamAll(ctx, kind) {
			if err != nil {
				return "", fmt.Errorf("stream %s revisions: %w", kind, err)
			}

			fields := revisions.ToFields(rev)
			if opts.Decrypt {
				fields, err = e.codec.DecryptArray(fields, string(kind))
				if err != nil {
					return "", fmt.Errorf("export %s revision %s: %w", kind, rev.Header().ID, err)
				}
			}
			records = append(records, fields)
		}
		doc.Records[string(kind)] = records
		e.logger.Debug(ctx, "revisions exported", "kind", string(kind), "count", len(records))
	}

	data, err := Marshal(doc, opts.Passphrase)
	if err != nil {
		return "", err
	}

	name := NewObjectName(now)
	if err := e.storage.Put(ctx, name, data); err != nil {
		return "", err
	}

	e.logger.Info(ctx, "backup written", "name", name, "encrypted", doc.Encrypted)
	return name, nil
}
