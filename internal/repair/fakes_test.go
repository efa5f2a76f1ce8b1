package repair

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/dmitrijs2005/passwords/internal/common"
	"github.com/dmitrijs2005/passwords/internal/keys"
	"github.com/dmitrijs2005/passwords/internal/logging"
	"github.com/dmitrijs2005/passwords/internal/revisions"
	"github.com/dmitrijs2005/passwords/internal/sse"
	"github.com/stretchr/testify/require"
)

// fakeStore keeps revisions as backup field maps, so every read returns a
// fresh, not yet decrypted revision the way a database would.
type fakeStore struct {
	rows map[revisions.Kind][]map[string]string

	// absent keys resolve successfully
	folders map[string]error
	models  map[string]error

	streamErr error
	saveErr   error

	saves         int
	folderLookups int
	modelLookups  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:    make(map[revisions.Kind][]map[string]string),
		folders: make(map[string]error),
		models:  make(map[string]error),
	}
}

func (s *fakeStore) add(revs ...revisions.Revision) {
	for _, rev := range revs {
		s.rows[rev.Kind()] = append(s.rows[rev.Kind()], revisions.ToFields(rev))
	}
}

func (s *fakeStore) row(kind revisions.Kind, id string) map[string]string {
	for _, r := range s.rows[kind] {
		if r["id"] == id {
			return r
		}
	}
	return nil
}

func (s *fakeStore) StreamAll(_ context.Context, kind revisions.Kind) iter.Seq2[revisions.Revision, error] {
	return func(yield func(revisions.Revision, error) bool) {
		for _, r := range s.rows[kind] {
			rev, err := revisions.FromFields(r, string(kind))
			if !yield(rev, err) {
				return
			}
		}
		if s.streamErr != nil {
			yield(nil, s.streamErr)
		}
	}
}

func (s *fakeStore) FindFolderByUUID(_ context.Context, uuid string) (*revisions.Model, error) {
	s.folderLookups++
	if err := s.folders[uuid]; err != nil {
		return nil, err
	}
	return &revisions.Model{UUID: uuid}, nil
}

func (s *fakeStore) FindModel(_ context.Context, _ revisions.Kind, uuid string) (*revisions.Model, error) {
	s.modelLookups++
	if err := s.models[uuid]; err != nil {
		return nil, err
	}
	return &revisions.Model{UUID: uuid}, nil
}

func (s *fakeStore) Save(_ context.Context, rev revisions.Revision) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++

	fields := revisions.ToFields(rev)
	rows := s.rows[rev.Kind()]
	for i, r := range rows {
		if r["id"] == rev.Header().ID {
			rows[i] = fields
			return nil
		}
	}
	s.rows[rev.Kind()] = append(rows, fields)
	return nil
}

type fakeConfig struct {
	values map[string]string
	getErr error
	setErr error
	sets   int
}

func newFakeConfig() *fakeConfig {
	return &fakeConfig{values: make(map[string]string)}
}

func (c *fakeConfig) Get(_ context.Context, key string) (string, bool, error) {
	if c.getErr != nil {
		return "", false, c.getErr
	}
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *fakeConfig) Set(_ context.Context, key, value string) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.sets++
	c.values[key] = value
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

var errStoreDown = errors.New("store down")

func testCodec() *sse.Codec {
	return sse.NewCodec(keys.New([]byte("server-secret"), map[string][]byte{
		"alice": []byte("alice-secret"),
	}))
}

func passwordFields(id string) map[string]string {
	return map[string]string{
		"id":           id,
		"modelId":      "model-" + id,
		"userId":       "alice",
		"cseType":      revisions.CSENone,
		"sseType":      revisions.SSEV1R1,
		"label":        "Bank",
		"username":     "alice",
		"password":     "hunter2",
		"url":          "https://bank.example",
		"notes":        "",
		"customFields": "[]",
		"folder":       common.BaseFolderUUID,
		"status":       "0",
		"statusCode":   revisions.StatusCodeGood,
	}
}

// encryptedPassword returns a password revision as it is read from storage.
// mutate edits the plaintext fields before encryption.
func encryptedPassword(t *testing.T, c *sse.Codec, id string, mutate func(map[string]string)) *revisions.Password {
	t.Helper()

	plain := passwordFields(id)
	if mutate != nil {
		mutate(plain)
	}

	enc, err := c.EncryptArray(plain, "password")
	require.NoError(t, err)

	rev, err := revisions.FromFields(enc, "password")
	require.NoError(t, err)
	return rev.(*revisions.Password)
}

// plainPassword returns a password revision stored without encryption.
func plainPassword(t *testing.T, id string, mutate func(map[string]string)) *revisions.Password {
	t.Helper()

	fields := passwordFields(id)
	fields["sseType"] = revisions.SSENone
	if mutate != nil {
		mutate(fields)
	}

	rev, err := revisions.FromFields(fields, "password")
	require.NoError(t, err)
	return rev.(*revisions.Password)
}

func strPtr(s string) *string { return &s }
