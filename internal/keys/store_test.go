package keys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/passwords/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `{
  "server": {"SSEv1ServerKey": "server-secret"},
  "users": {
    "alice": {"SSEv1UserKey": "alice-secret"},
    "bob":   {"SSEv1UserKey": ""}
  }
}`

func TestParse_Lookup(t *testing.T) {
	s, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	k, err := s.ServerKey()
	require.NoError(t, err)
	assert.Equal(t, []byte("server-secret"), k)

	k, err = s.UserKey("alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("alice-secret"), k)
}

func TestLookup_MissingIsAnError(t *testing.T) {
	s, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	_, err = s.UserKey("carol")
	require.ErrorIs(t, err, common.ErrKeyNotFound)

	// empty secrets are not a default
	_, err = s.UserKey("bob")
	require.ErrorIs(t, err, common.ErrKeyNotFound)

	_, err = New(nil, nil).ServerKey()
	require.ErrorIs(t, err, common.ErrKeyNotFound)
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{ not json`))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	_, err = s.UserKey("alice")
	require.NoError(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestNew_CopiesInput(t *testing.T) {
	server := []byte("server")
	s := New(server, map[string][]byte{"u": []byte("user")})
	server[0] = 'X'

	k, err := s.ServerKey()
	require.NoError(t, err)
	assert.Equal(t, []byte("server"), k)
}

func TestDocument_RoundTrip(t *testing.T) {
	s, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	d := s.Document()
	assert.Equal(t, "server-secret", d.Server.SSEv1ServerKey)
	assert.Equal(t, "alice-secret", d.Users["alice"].SSEv1UserKey)
	assert.NotContains(t, d.Users, "bob")

	again := FromDocument(d)
	k, err := again.UserKey("alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("alice-secret"), k)
}
