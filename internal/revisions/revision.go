// Package revisions defines the three closed revision variants (password,
// folder, tag), their field tables and the factory converting them from and
// to the flat string maps used in backups.
package revisions

import (
	"fmt"

	"github.com/dmitrijs2005/passwords/internal/common"
)

// Kind discriminates the revision variants.
type Kind string

const (
	KindPassword Kind = "password"
	KindFolder   Kind = "folder"
	KindTag      Kind = "tag"
)

// Kinds lists every variant in dependency order: folders and tags before the
// passwords referring to them.
func Kinds() []Kind {
	return []Kind{KindFolder, KindTag, KindPassword}
}

// ParseKind validates a discriminator.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPassword, KindFolder, KindTag:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrUnknownType, s)
	}
}

// Encryption scheme tags.
const (
	CSENone = "none"

	SSENone = "none"
	// SSEV1R1 encrypts with the server-wide key.
	SSEV1R1 = "SSEv1r1"
	// SSEV1R2 encrypts with the owner's user key.
	SSEV1R2 = "SSEv1r2"
)

// Security check outcomes stored in Password.StatusCode.
const (
	StatusCodeGood       = "GOOD"
	StatusCodeOutdated   = "OUTDATED"
	StatusCodeDuplicate  = "DUPLICATE"
	StatusCodeBreached   = "BREACHED"
	StatusCodeNotChecked = "NOT_CHECKED"
)

// Password status values.
const (
	StatusCurrent    = 0
	StatusDeprecated = 1
)

// Revision is implemented by *Password, *Folder and *Tag only.
type Revision interface {
	Kind() Kind
	Header() *Meta

	// Set assigns a field by its backup name through the variant's field
	// table. Unknown names fail with common.ErrUnknownField.
	Set(name, value string) error

	// Value reads a field by its backup name. ok is false for a null value.
	Value(name string) (value string, ok bool, err error)

	fields() map[string]string
}

// Meta holds the columns shared by every revision variant.
type Meta struct {
	ID       string
	ModelID  string
	UserID   string
	CseType  string
	CseKey   string
	SseType  string
	SseKey   string
	Hidden   bool
	Trashed  bool
	Favorite bool
	Deleted  bool
	Created  int64
	Updated  int64
	Edited   int64

	decrypted bool
}

// Header returns the shared columns.
func (m *Meta) Header() *Meta { return m }

// Decrypted reports whether the revision went through a decrypt since it
// was loaded. It is false for a fresh revision whatever its SseType.
func (m *Meta) Decrypted() bool {
	return m.decrypted
}

// SetDecrypted records the state of the sensitive fields. It is not
// persisted.
func (m *Meta) SetDecrypted(v bool) {
	m.decrypted = v
}

// Password is a revision of a password item.
type Password struct {
	Meta

	Hash         string
	Label        string
	Username     string
	Password     string
	URL          string
	Notes        string
	CustomFields *string
	Folder       string
	Status       int
	StatusCode   string
}

func (p *Password) Kind() Kind { return KindPassword }

func (p *Password) Set(name, value string) error { return passwordTable.set(p, name, value) }

func (p *Password) Value(name string) (string, bool, error) { return passwordTable.get(p, name) }

func (p *Password) fields() map[string]string { return passwordTable.toMap(p) }

// SetCustomFields assigns the custom fields; nil stores null.
func (p *Password) SetCustomFields(v *string) {
	if v == nil {
		p.CustomFields = nil
		return
	}
	s := *v
	p.CustomFields = &s
}

// Folder is a revision of a folder item.
type Folder struct {
	Meta

	Label  string
	Parent string
}

func (f *Folder) Kind() Kind { return KindFolder }

func (f *Folder) Set(name, value string) error { return folderTable.set(f, name, value) }

func (f *Folder) Value(name string) (string, bool, error) { return folderTable.get(f, name) }

func (f *Folder) fields() map[string]string { return folderTable.toMap(f) }

// Tag is a revision of a tag item.
type Tag struct {
	Meta

	Label string
	Color string
}

func (t *Tag) Kind() Kind { return KindTag }

func (t *Tag) Set(name, value string) error { return tagTable.set(t, name, value) }

func (t *Tag) Value(name string) (string, bool, error) { return tagTable.get(t, name) }

func (t *Tag) fields() map[string]string { return tagTable.toMap(t) }

// Model is the parent item owning a chain of revisions.
type Model struct {
	UUID     string
	UserID   string
	Revision string
	Deleted  bool
}
