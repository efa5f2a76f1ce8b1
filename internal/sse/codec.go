// Package sse implements server-side encryption of revision fields.
//
// A Codec seals every sensitive field of a revision with AES-256-GCM under a
// key picked by the revision's SseType: the server-wide key for SSEv1r1, the
// owner's user key for SSEv1r2. Revisions with SseType "none" pass through.
package sse

import (
	"fmt"

	"github.com/dmitrijs2005/passwords/internal/common"
	"github.com/dmitrijs2005/passwords/internal/cryptox"
	"github.com/dmitrijs2005/passwords/internal/revisions"
)

// KeyStore resolves raw secrets. *keys.Store implements it.
type KeyStore interface {
	ServerKey() ([]byte, error)
	UserKey(userID string) ([]byte, error)
}

// Codec encrypts and decrypts revisions.
type Codec struct {
	keys KeyStore
}

// NewCodec returns a Codec using keys.
func NewCodec(keys KeyStore) *Codec {
	return &Codec{keys: keys}
}

// DecryptArray builds a revision of kind from an encrypted backup field map,
// decrypts it and returns the plaintext field map.
func (c *Codec) DecryptArray(data map[string]string, kind string) (map[string]string, error) {
	rev, err := revisions.FromFields(data, kind)
	if err != nil {
		return nil, err
	}

	if err := c.Decrypt(rev); err != nil {
		return nil, err
	}

	return revisions.ToFields(rev), nil
}

// EncryptArray builds a revision of kind from a plaintext backup field map,
// encrypts it and returns the encrypted field map.
func (c *Codec) EncryptArray(data map[string]string, kind string) (map[string]string, error) {
	rev, err := revisions.FromFields(data, kind)
	if err != nil {
		return nil, err
	}

	rev.Header().SetDecrypted(true)
	if err := c.Encrypt(rev); err != nil {
		return nil, err
	}

	return revisions.ToFields(rev), nil
}

// Decrypt replaces the sensitive fields of rev with their plaintext. It is a
// no-op for a revision that is already decrypted. A revision without
// server-side encryption is only marked decrypted. On error rev is left
// untouched.
func (c *Codec) Decrypt(rev revisions.Revision) error {
	h := rev.Header()
	if h.Decrypted() {
		return nil
	}
	if h.SseType == revisions.SSENone {
		h.SetDecrypted(true)
		return nil
	}

	key, err := c.fieldKey(h)
	if err != nil {
		return fmt.Errorf("decrypt %s revision %s: %w", rev.Kind(), h.ID, err)
	}
	defer key.Wipe()

	plain := make(map[string]string)
	for _, name := range revisions.SensitiveFields(rev.Kind()) {
		v, ok, err := rev.Value(name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		pt, err := cryptox.OpenField(key, v, additionalData(rev, name))
		if err != nil {
			return fmt.Errorf("decrypt %s revision %s field %s: %w", rev.Kind(), h.ID, name, err)
		}
		plain[name] = string(pt)
	}

	if err := assign(rev, plain); err != nil {
		return err
	}
	h.SetDecrypted(true)

	return nil
}

// Encrypt replaces the sensitive fields of a decrypted rev with their
// ciphertext. It is a no-op for a revision that is not decrypted and for
// revisions without server-side encryption. On error rev is left untouched.
func (c *Codec) Encrypt(rev revisions.Revision) error {
	h := rev.Header()
	if !h.Decrypted() || h.SseType == revisions.SSENone {
		return nil
	}

	key, err := c.fieldKey(h)
	if err != nil {
		return fmt.Errorf("encrypt %s revision %s: %w", rev.Kind(), h.ID, err)
	}
	defer key.Wipe()

	sealed := make(map[string]string)
	for _, name := range revisions.SensitiveFields(rev.Kind()) {
		v, ok, err := rev.Value(name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		ct, err := cryptox.SealField(key, []byte(v), additionalData(rev, name))
		if err != nil {
			return fmt.Errorf("encrypt %s revision %s field %s: %w", rev.Kind(), h.ID, name, err)
		}
		sealed[name] = ct
	}

	if err := assign(rev, sealed); err != nil {
		return err
	}
	h.SetDecrypted(false)

	return nil
}

func (c *Codec) fieldKey(h *revisions.Meta) (*cryptox.FieldKey, error) {
	var (
		secret []byte
		err    error
	)

	switch h.SseType {
	case revisions.SSEV1R1:
		secret, err = c.keys.ServerKey()
	case revisions.SSEV1R2:
		secret, err = c.keys.UserKey(h.UserID)
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedSSE, h.SseType)
	}
	if err != nil {
		return nil, err
	}

	return cryptox.DeriveFieldKey(secret)
}

// additionalData binds a ciphertext to its variant, revision and field.
func additionalData(rev revisions.Revision, field string) []byte {
	return []byte(string(rev.Kind()) + "|" + rev.Header().ID + "|" + field)
}

func assign(rev revisions.Revision, values map[string]string) error {
	for name, v := range values {
		if err := rev.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}
