package backup

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/dmitrijs2005/passwords/internal/dbx"
	"github.com/dmitrijs2005/passwords/internal/keys"
	"github.com/dmitrijs2005/passwords/internal/logging"
	"github.com/dmitrijs2005/passwords/internal/repositories/repomanager"
	"github.com/dmitrijs2005/passwords/internal/repositories/revisions"
	rv "github.com/dmitrijs2005/passwords/internal/revisions"
	"github.com/dmitrijs2005/passwords/internal/sse"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

var errNotStored = errors.New("not stored")

type memStorage struct {
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (s *memStorage) Put(_ context.Context, name string, data []byte) error {
	s.objects[name] = append([]byte(nil), data...)
	return nil
}

func (s *memStorage) Get(_ context.Context, name string) ([]byte, error) {
	data, ok := s.objects[name]
	if !ok {
		return nil, errNotStored
	}
	return data, nil
}

type fakeSource struct {
	revs map[rv.Kind][]rv.Revision
	err  error
}

func (s *fakeSource) StreamAll(_ context.Context, kind rv.Kind) iter.Seq2[rv.Revision, error] {
	return func(yield func(rv.Revision, error) bool) {
		for _, r := range s.revs[kind] {
			if !yield(r, nil) {
				return
			}
		}
		if s.err != nil {
			yield(nil, s.err)
		}
	}
}

type fakeRevisionRepo struct {
	revisions.Repository
	saved   []rv.Revision
	saveErr error
}

func (r *fakeRevisionRepo) Save(_ context.Context, rev rv.Revision) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, rev)
	return nil
}

type fakeRepoMgr struct {
	repomanager.RepositoryManager
	repo *fakeRevisionRepo
}

func (m *fakeRepoMgr) Revisions(_ dbx.DBTX) revisions.Repository {
	return m.repo
}

func oldKeys() *keys.Store {
	return keys.New([]byte("old-server"), map[string][]byte{"alice": []byte("old-alice")})
}

func liveKeys() *keys.Store {
	return keys.New([]byte("live-server"), map[string][]byte{"alice": []byte("live-alice")})
}

// sealed builds a revision as stored under ks.
func sealed(t *testing.T, ks *keys.Store, kind string, plain map[string]string) rv.Revision {
	t.Helper()
	enc, err := sse.NewCodec(ks).EncryptArray(plain, kind)
	require.NoError(t, err)
	rev, err := rv.FromFields(enc, kind)
	require.NoError(t, err)
	return rev
}

func sampleSource(t *testing.T, ks *keys.Store) *fakeSource {
	t.Helper()
	return &fakeSource{revs: map[rv.Kind][]rv.Revision{
		rv.KindFolder: {sealed(t, ks, "folder", map[string]string{
			"id": "f1", "modelId": "mf1", "userId": "alice", "cseType": "none", "sseType": "SSEv1r2",
			"label": "Work", "parent": "00000000-0000-0000-0000-000000000000",
		})},
		rv.KindPassword: {sealed(t, ks, "password", map[string]string{
			"id": "p1", "modelId": "mp1", "userId": "alice", "cseType": "none", "sseType": "SSEv1r1",
			"label": "Bank", "username": "alice", "password": "hunter2", "customFields": "[]",
			"folder": "mf1", "statusCode": "GOOD",
		})},
	}}
}
