package revisions

import (
	"fmt"
	"maps"
	"slices"
)

// New returns an empty revision of kind, or nil for an unknown kind.
func New(kind Kind) Revision {
	switch kind {
	case KindPassword:
		return &Password{}
	case KindFolder:
		return &Folder{}
	case KindTag:
		return &Tag{}
	default:
		return nil
	}
}

// FromFields builds a typed revision from a backup field map. The returned
// revision holds the values as given and is not marked decrypted.
//
// It fails with common.ErrUnknownType for an unsupported kind,
// common.ErrUnknownField for a key outside the variant's table and
// common.ErrInvalidField for values that do not parse.
func FromFields(data map[string]string, kind string) (Revision, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}

	rev := New(k)
	for _, name := range slices.Sorted(maps.Keys(data)) {
		if err := rev.Set(name, data[name]); err != nil {
			return nil, fmt.Errorf("build %s revision: %w", k, err)
		}
	}

	return rev, nil
}

// ToFields projects a revision back to a backup field map. Null values are
// omitted.
func ToFields(rev Revision) map[string]string {
	return rev.fields()
}
