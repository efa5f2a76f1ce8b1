// Package keys holds the already-issued server and per-user secrets used for
// server-side encryption. It is a pure lookup table: no generation, no
// rotation.
package keys

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/passwords/internal/common"
)

// Document is the JSON form of a key set, as it appears in backup files:
//
//	{
//	  "server": {"SSEv1ServerKey": "..."},
//	  "users":  {"alice": {"SSEv1UserKey": "..."}}
//	}
type Document struct {
	Server ServerKeys          `json:"server"`
	Users  map[string]UserKeys `json:"users"`
}

// ServerKeys holds the server-wide secret.
type ServerKeys struct {
	SSEv1ServerKey string `json:"SSEv1ServerKey"`
}

// UserKeys holds the secret of a single user.
type UserKeys struct {
	SSEv1UserKey string `json:"SSEv1UserKey"`
}

// Store resolves server and user secrets. The zero value has no keys.
type Store struct {
	server []byte
	users  map[string][]byte
}

// New builds a Store from raw secrets. Empty secrets are treated as absent.
func New(server []byte, users map[string][]byte) *Store {
	s := &Store{users: make(map[string][]byte, len(users))}
	if len(server) > 0 {
		s.server = append([]byte(nil), server...)
	}
	for id, k := range users {
		if len(k) == 0 {
			continue
		}
		s.users[id] = append([]byte(nil), k...)
	}
	return s
}

// FromDocument converts a parsed key document into a Store.
func FromDocument(d Document) *Store {
	users := make(map[string][]byte, len(d.Users))
	for id, u := range d.Users {
		users[id] = []byte(u.SSEv1UserKey)
	}
	return New([]byte(d.Server.SSEv1ServerKey), users)
}

// Parse decodes a JSON key document.
func Parse(data []byte) (*Store, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse keys: %w", err)
	}
	return FromDocument(d), nil
}

// Load reads and parses a JSON key document from path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keys: %w", err)
	}
	return Parse(data)
}

// ServerKey returns the server-wide secret.
func (s *Store) ServerKey() ([]byte, error) {
	if len(s.server) == 0 {
		return nil, fmt.Errorf("%w: server", common.ErrKeyNotFound)
	}
	return s.server, nil
}

// UserKey returns the secret of userID.
func (s *Store) UserKey(userID string) ([]byte, error) {
	k, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %q", common.ErrKeyNotFound, userID)
	}
	return k, nil
}

// Document returns the JSON form of the store, used when a backup carries
// its own keys.
func (s *Store) Document() Document {
	d := Document{
		Server: ServerKeys{SSEv1ServerKey: string(s.server)},
		Users:  make(map[string]UserKeys, len(s.users)),
	}
	for id, k := range s.users {
		d.Users[id] = UserKeys{SSEv1UserKey: string(k)}
	}
	return d
}
