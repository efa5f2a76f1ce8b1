package cli

import (
	"context"
	"database/sql"
	"errors"
	"iter"

	"github.com/dmitrijs2005/passwords/internal/dbx"
	"github.com/dmitrijs2005/passwords/internal/keys"
	"github.com/dmitrijs2005/passwords/internal/logging"
	"github.com/dmitrijs2005/passwords/internal/repositories/appconfig"
	"github.com/dmitrijs2005/passwords/internal/repositories/revisions"
	rv "github.com/dmitrijs2005/passwords/internal/revisions"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

var errStoreDown = errors.New("store down")

// memRepo keeps rows as field maps, the way they come back from a table.
type memRepo struct {
	rows      map[rv.Kind][]map[string]string
	streamErr error
	saves     int
}

func (r *memRepo) StreamAll(_ context.Context, kind rv.Kind) iter.Seq2[rv.Revision, error] {
	return func(yield func(rv.Revision, error) bool) {
		if r.streamErr != nil {
			yield(nil, r.streamErr)
			return
		}
		for _, row := range r.rows[kind] {
			rev, err := rv.FromFields(row, string(kind))
			if !yield(rev, err) {
				return
			}
		}
	}
}

func (r *memRepo) FindFolderByUUID(_ context.Context, uuid string) (*rv.Model, error) {
	return &rv.Model{UUID: uuid}, nil
}

func (r *memRepo) FindModel(_ context.Context, _ rv.Kind, uuid string) (*rv.Model, error) {
	return &rv.Model{UUID: uuid}, nil
}

func (r *memRepo) Save(_ context.Context, rev rv.Revision) error {
	r.saves++
	fields := rv.ToFields(rev)
	rows := r.rows[rev.Kind()]
	for i, row := range rows {
		if row["id"] == fields["id"] {
			rows[i] = fields
			return nil
		}
	}
	r.rows[rev.Kind()] = append(rows, fields)
	return nil
}

type memConfig struct {
	values map[string]string
}

func (c *memConfig) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *memConfig) Set(_ context.Context, key, value string) error {
	c.values[key] = value
	return nil
}

type fakeManager struct {
	repo          *memRepo
	config        *memConfig
	migrationsErr error
	migrated      bool
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		repo:   &memRepo{rows: map[rv.Kind][]map[string]string{}},
		config: &memConfig{values: map[string]string{}},
	}
}

func (m *fakeManager) RunMigrations(context.Context, *sql.DB) error {
	m.migrated = true
	return m.migrationsErr
}

func (m *fakeManager) Revisions(dbx.DBTX) revisions.Repository {
	return m.repo
}

func (m *fakeManager) AppConfig(dbx.DBTX) appconfig.Repository {
	return m.config
}

func testKeys() *keys.Store {
	return keys.New([]byte("server-secret"), map[string][]byte{"alice": []byte("alice-secret")})
}

// driftedPassword is stored in plaintext with an empty custom fields object.
func driftedPassword() map[string]string {
	return map[string]string{
		"id": "p1", "modelId": "mp1", "userId": "alice", "cseType": "none", "sseType": "none",
		"label": "Bank", "username": "alice", "password": "hunter2", "customFields": "{}",
		"folder": "mf1", "statusCode": "GOOD",
	}
}

func plainFolder() map[string]string {
	return map[string]string{
		"id": "f1", "modelId": "mf1", "userId": "alice", "cseType": "none", "sseType": "none",
		"label": "Work", "parent": "00000000-0000-0000-0000-000000000000",
	}
}
