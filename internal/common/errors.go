package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrMultipleFound = errors.New("multiple objects found")

	// Revision construction errors.
	ErrUnknownType  = errors.New("unknown object type")
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidField = errors.New("invalid field value")

	// Encryption errors.
	ErrKeyNotFound    = errors.New("encryption key not found")
	ErrAuthentication = errors.New("ciphertext authentication failed")
	ErrUnsupportedSSE = errors.New("unsupported server-side encryption type")

	// Repair errors.
	ErrMalformedCustomFields = errors.New("malformed custom fields")
)
