package repair

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/passwords/internal/common"
	"github.com/dmitrijs2005/passwords/internal/revisions"
)

// Rule is one idempotent fix-up step. Apply reports whether it changed rev.
type Rule interface {
	Name() string
	Apply(ctx context.Context, rev revisions.Revision) (bool, error)
}

// passReset is implemented by rules keeping state for the length of a pass.
type passReset interface {
	reset()
}

// PasswordRules returns the ordered core chain for password revisions.
// Later rules rely on earlier ones: the schema conversion expects the
// plaintext state the missing-fields rule may establish.
func PasswordRules(store Store, codec Codec, convertCustomFields bool) []Rule {
	return []Rule{
		EmptyCustomFieldsRule{},
		MissingCustomFieldsRule{codec: codec},
		CustomFieldsSchemaRule{codec: codec, enabled: convertCustomFields},
		SecurityStatusRule{},
		NewFolderRule(store),
	}
}

// GenericRules returns the rules applied to revisions of every kind after
// the kind-specific chain.
func GenericRules(store Store) []Rule {
	return []Rule{
		MissingEncryptionRule{},
		OrphanRevisionRule{store: store},
	}
}

// EmptyCustomFieldsRule nulls custom fields holding a bare "[]" on a
// revision that was not decrypted: stored ciphertext is never that literal.
type EmptyCustomFieldsRule struct{}

func (EmptyCustomFieldsRule) Name() string { return "empty-custom-fields" }

func (EmptyCustomFieldsRule) Apply(_ context.Context, rev revisions.Revision) (bool, error) {
	p, ok := rev.(*revisions.Password)
	if !ok {
		return false, nil
	}

	if p.Decrypted() || p.CustomFields == nil || *p.CustomFields != "[]" {
		return false, nil
	}

	p.SetCustomFields(nil)
	return true, nil
}

// MissingCustomFieldsRule initialises null custom fields of revisions the
// server can encrypt.
type MissingCustomFieldsRule struct {
	codec Codec
}

func (MissingCustomFieldsRule) Name() string { return "missing-custom-fields" }

func (r MissingCustomFieldsRule) Apply(_ context.Context, rev revisions.Revision) (bool, error) {
	p, ok := rev.(*revisions.Password)
	if !ok {
		return false, nil
	}

	if p.CustomFields != nil || p.CseType != revisions.CSENone {
		return false, nil
	}

	if err := r.codec.Decrypt(p); err != nil {
		return false, err
	}

	empty := "[]"
	p.SetCustomFields(&empty)
	return true, nil
}

// CustomFieldsSchemaRule converts schema v1 custom fields to schema v2.
// It only runs once the migration was enabled for the pass.
type CustomFieldsSchemaRule struct {
	codec   Codec
	enabled bool
}

func (CustomFieldsSchemaRule) Name() string { return "custom-fields-schema" }

func (r CustomFieldsSchemaRule) Apply(_ context.Context, rev revisions.Revision) (bool, error) {
	p, ok := rev.(*revisions.Password)
	if !ok {
		return false, nil
	}

	if !r.enabled || p.CseType != revisions.CSENone {
		return false, nil
	}

	if err := r.codec.Decrypt(p); err != nil {
		return false, err
	}

	if p.CustomFields == nil || strings.HasPrefix(*p.CustomFields, "[") {
		return false, nil
	}

	converted, err := ConvertCustomFields(*p.CustomFields)
	if err != nil {
		return false, err
	}

	p.SetCustomFields(&converted)
	return true, nil
}

// SecurityStatusRule clears the deprecated status of revisions whose last
// security check was good.
type SecurityStatusRule struct{}

func (SecurityStatusRule) Name() string { return "security-status" }

func (SecurityStatusRule) Apply(_ context.Context, rev revisions.Revision) (bool, error) {
	p, ok := rev.(*revisions.Password)
	if !ok {
		return false, nil
	}

	if p.Status != revisions.StatusDeprecated || p.StatusCode != revisions.StatusCodeGood {
		return false, nil
	}

	p.Status = revisions.StatusCurrent
	return true, nil
}

// FolderRule moves passwords whose folder cannot be resolved to the base
// folder. Lookups are cached for the length of a pass.
type FolderRule struct {
	store  Store
	exists map[string]bool
}

// NewFolderRule returns a FolderRule with an empty cache.
func NewFolderRule(store Store) *FolderRule {
	return &FolderRule{store: store, exists: make(map[string]bool)}
}

func (*FolderRule) Name() string { return "folder" }

func (r *FolderRule) Apply(ctx context.Context, rev revisions.Revision) (bool, error) {
	p, ok := rev.(*revisions.Password)
	if !ok {
		return false, nil
	}

	if p.Folder == common.BaseFolderUUID {
		return false, nil
	}

	exists, err := r.lookup(ctx, p.Folder)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	p.Folder = common.BaseFolderUUID
	return true, nil
}

func (r *FolderRule) lookup(ctx context.Context, uuid string) (bool, error) {
	if v, ok := r.exists[uuid]; ok {
		return v, nil
	}

	_, err := r.store.FindFolderByUUID(ctx, uuid)
	switch {
	case err == nil:
		r.exists[uuid] = true
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrMultipleFound):
		r.exists[uuid] = false
	default:
		return false, err
	}

	return r.exists[uuid], nil
}

func (r *FolderRule) reset() {
	clear(r.exists)
}

// MissingEncryptionRule enables server-side encryption on revisions that
// have neither client- nor server-side encryption.
type MissingEncryptionRule struct{}

func (MissingEncryptionRule) Name() string { return "missing-encryption" }

func (MissingEncryptionRule) Apply(_ context.Context, rev revisions.Revision) (bool, error) {
	h := rev.Header()
	if h.CseType != revisions.CSENone || h.SseType != revisions.SSENone {
		return false, nil
	}

	// fields are plaintext at rest; they get sealed on save
	h.SetDecrypted(true)
	h.SseType = revisions.SSEV1R1
	return true, nil
}

// OrphanRevisionRule marks revisions whose parent item no longer exists as
// deleted.
type OrphanRevisionRule struct {
	store Store
}

func (OrphanRevisionRule) Name() string { return "orphan-revision" }

func (r OrphanRevisionRule) Apply(ctx context.Context, rev revisions.Revision) (bool, error) {
	h := rev.Header()
	if h.Deleted {
		return false, nil
	}

	_, err := r.store.FindModel(ctx, rev.Kind(), h.ModelID)
	switch {
	case err == nil, errors.Is(err, common.ErrMultipleFound):
		return false, nil
	case errors.Is(err, common.ErrorNotFound):
		h.Deleted = true
		return true, nil
	default:
		return false, err
	}
}
