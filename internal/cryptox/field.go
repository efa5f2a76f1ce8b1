package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dmitrijs2005/passwords/internal/common"
	"golang.org/x/crypto/hkdf"
)

const (
	fieldKeyInfo   = "passwords/sse-v1/field"
	fieldKeySize   = 32
	fieldNonceSize = 12
)

// FieldKey seals individual revision fields. It is derived from an opaque
// server or user secret and holds separate encryption and nonce keys.
type FieldKey struct {
	enc   []byte
	nonce []byte
}

// DeriveFieldKey expands secret into a FieldKey with HKDF-SHA256.
// The secret may have any non-zero length.
func DeriveFieldKey(secret []byte) (*FieldKey, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("derive field key: empty secret")
	}

	r := hkdf.New(sha256.New, secret, nil, []byte(fieldKeyInfo))
	buf := make([]byte, 2*fieldKeySize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("derive field key: %w", err)
	}

	return &FieldKey{enc: buf[:fieldKeySize], nonce: buf[fieldKeySize:]}, nil
}

// Wipe zeroes the key material. The key must not be used afterwards.
func (k *FieldKey) Wipe() {
	common.WipeByteArray(k.enc)
	common.WipeByteArray(k.nonce)
}

// SealField encrypts plaintext with AES-256-GCM and returns
// base64(nonce || ciphertext). aad is authenticated but not encrypted.
//
// The nonce is synthetic: HMAC-SHA256(nonceKey, aad, plaintext) truncated to
// 12 bytes. Sealing the same plaintext under the same aad yields the same
// output.
func SealField(k *FieldKey, plaintext, aad []byte) (string, error) {
	aesgcm, err := newGCM(k.enc)
	if err != nil {
		return "", err
	}

	nonce := syntheticNonce(k.nonce, plaintext, aad)
	sealed := aesgcm.Seal(nonce, nonce, plaintext, aad)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// OpenField reverses SealField. Any decoding or tag verification failure
// returns common.ErrAuthentication and no plaintext.
func OpenField(k *FieldKey, encoded string, aad []byte) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid encoding", common.ErrAuthentication)
	}

	aesgcm, err := newGCM(k.enc)
	if err != nil {
		return nil, err
	}
	if len(sealed) < fieldNonceSize+aesgcm.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", common.ErrAuthentication)
	}

	plaintext, err := aesgcm.Open(nil, sealed[:fieldNonceSize], sealed[fieldNonceSize:], aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrAuthentication, err)
	}

	return plaintext, nil
}

func syntheticNonce(key, plaintext, aad []byte) []byte {
	mac := hmac.New(sha256.New, key)

	// length prefix keeps (aad, plaintext) splits unambiguous
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(aad)))
	mac.Write(n[:])
	mac.Write(aad)
	mac.Write(plaintext)

	return mac.Sum(nil)[:fieldNonceSize:fieldNonceSize]
}
