// Package backup exports revisions to backup documents and restores them.
//
// A document holds the backup field maps of every revision grouped by kind.
// Records are either plaintext or still sealed with the server-side keys; in
// the latter case the keys may travel with the document. A document can be
// wrapped in a passphrase envelope.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/passwords/internal/common"
	"github.com/dmitrijs2005/passwords/internal/cryptox"
	"github.com/dmitrijs2005/passwords/internal/keys"
)

// FormatVersion is the document version written by this package.
const FormatVersion = 1

const envelopeKDF = "argon2id"

// ErrUnsupportedVersion is returned for documents written by a newer format.
var ErrUnsupportedVersion = errors.New("unsupported backup version")

// ErrPassphraseRequired is returned when reading an envelope without a
// passphrase.
var ErrPassphraseRequired = errors.New("backup is passphrase protected")

type Document struct {
	Version int   `json:"version"`
	Created int64 `json:"created"`
	// Encrypted is set when records hold server-side ciphertext.
	Encrypted bool `json:"encrypted"`
	// Keys are the secrets the records are sealed with.
	Keys    *keys.Document                 `json:"keys,omitempty"`
	Records map[string][]map[string]string `json:"records"`
}

type envelope struct {
	Version    int    `json:"version"`
	KDF        string `json:"kdf"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Marshal encodes doc, sealing it under passphrase when one is given.
func Marshal(doc *Document, passphrase []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return json.Marshal(doc)
	}

	salt, err := cryptox.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	key := cryptox.DeriveMasterKey(passphrase, salt)
	defer common.WipeByteArray(key)

	ciphertext, nonce, err := cryptox.EncryptEntry(doc, key)
	if err != nil {
		return nil, fmt.Errorf("seal backup: %w", err)
	}

	return json.Marshal(envelope{
		Version:    FormatVersion,
		KDF:        envelopeKDF,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	})
}

// Unmarshal decodes a document written by Marshal. A wrong passphrase fails
// with common.ErrAuthentication.
func Unmarshal(data, passphrase []byte) (*Document, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}

	var doc Document
	switch env.KDF {
	case "":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode backup: %w", err)
		}
	case envelopeKDF:
		if len(passphrase) == 0 {
			return nil, ErrPassphraseRequired
		}
		key := cryptox.DeriveMasterKey(passphrase, env.Salt)
		defer common.WipeByteArray(key)

		if err := cryptox.DecryptEntry(env.Ciphertext, env.Nonce, key, &doc); err != nil {
			return nil, fmt.Errorf("open backup: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: kdf %q", ErrUnsupportedVersion, env.KDF)
	}

	if doc.Version < 1 || doc.Version > FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	return &doc, nil
}
