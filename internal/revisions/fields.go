package revisions

import (
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/passwords/internal/common"
)

// FieldType is the storage type of a field.
type FieldType int

const (
	TypeText FieldType = iota
	TypeNullableText
	TypeInt
	TypeBool
)

// Field describes one entry of a variant's field table.
type Field struct {
	// Name is the key in the backup field map.
	Name string
	// Column is the SQL column name.
	Column    string
	Type      FieldType
	Sensitive bool
}

type accessor[T any] struct {
	Field
	get func(*T) (string, bool)
	set func(*T, string) error
}

type table[T any] struct {
	order  []accessor[T]
	byName map[string]int
}

func newTable[T any](accessors ...accessor[T]) *table[T] {
	t := &table[T]{order: accessors, byName: make(map[string]int, len(accessors))}
	for i, a := range accessors {
		if _, dup := t.byName[a.Name]; dup {
			panic("revisions: duplicate field " + a.Name)
		}
		t.byName[a.Name] = i
	}
	return t
}

func (t *table[T]) set(r *T, name, value string) error {
	i, ok := t.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", common.ErrUnknownField, name)
	}
	return t.order[i].set(r, value)
}

func (t *table[T]) get(r *T, name string) (string, bool, error) {
	i, ok := t.byName[name]
	if !ok {
		return "", false, fmt.Errorf("%w: %q", common.ErrUnknownField, name)
	}
	v, present := t.order[i].get(r)
	return v, present, nil
}

func (t *table[T]) toMap(r *T) map[string]string {
	m := make(map[string]string, len(t.order))
	for _, a := range t.order {
		if v, ok := a.get(r); ok {
			m[a.Name] = v
		}
	}
	return m
}

func (t *table[T]) describe() []Field {
	fs := make([]Field, len(t.order))
	for i, a := range t.order {
		fs[i] = a.Field
	}
	return fs
}

func text[T any](name, column string, sensitive bool, ref func(*T) *string) accessor[T] {
	return accessor[T]{
		Field: Field{Name: name, Column: column, Type: TypeText, Sensitive: sensitive},
		get:   func(r *T) (string, bool) { return *ref(r), true },
		set: func(r *T, v string) error {
			*ref(r) = v
			return nil
		},
	}
}

func nullableText[T any](name, column string, sensitive bool, ref func(*T) **string) accessor[T] {
	return accessor[T]{
		Field: Field{Name: name, Column: column, Type: TypeNullableText, Sensitive: sensitive},
		get: func(r *T) (string, bool) {
			p := *ref(r)
			if p == nil {
				return "", false
			}
			return *p, true
		},
		set: func(r *T, v string) error {
			*ref(r) = &v
			return nil
		},
	}
}

func integer[T any, N ~int | ~int64](name, column string, ref func(*T) *N) accessor[T] {
	return accessor[T]{
		Field: Field{Name: name, Column: column, Type: TypeInt},
		get:   func(r *T) (string, bool) { return strconv.FormatInt(int64(*ref(r)), 10), true },
		set: func(r *T, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: %s=%q", common.ErrInvalidField, name, v)
			}
			*ref(r) = N(n)
			return nil
		},
	}
}

func boolean[T any](name, column string, ref func(*T) *bool) accessor[T] {
	return accessor[T]{
		Field: Field{Name: name, Column: column, Type: TypeBool},
		get:   func(r *T) (string, bool) { return strconv.FormatBool(*ref(r)), true },
		set: func(r *T, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s=%q", common.ErrInvalidField, name, v)
			}
			*ref(r) = b
			return nil
		},
	}
}

func metaFields[T any](meta func(*T) *Meta) []accessor[T] {
	return []accessor[T]{
		text("id", "id", false, func(r *T) *string { return &meta(r).ID }),
		text("modelId", "model_id", false, func(r *T) *string { return &meta(r).ModelID }),
		text("userId", "user_id", false, func(r *T) *string { return &meta(r).UserID }),
		text("cseType", "cse_type", false, func(r *T) *string { return &meta(r).CseType }),
		text("cseKey", "cse_key", false, func(r *T) *string { return &meta(r).CseKey }),
		text("sseType", "sse_type", false, func(r *T) *string { return &meta(r).SseType }),
		text("sseKey", "sse_key", false, func(r *T) *string { return &meta(r).SseKey }),
		boolean("hidden", "hidden", func(r *T) *bool { return &meta(r).Hidden }),
		boolean("trashed", "trashed", func(r *T) *bool { return &meta(r).Trashed }),
		boolean("favorite", "favorite", func(r *T) *bool { return &meta(r).Favorite }),
		boolean("deleted", "deleted", func(r *T) *bool { return &meta(r).Deleted }),
		integer("created", "created", func(r *T) *int64 { return &meta(r).Created }),
		integer("updated", "updated", func(r *T) *int64 { return &meta(r).Updated }),
		integer("edited", "edited", func(r *T) *int64 { return &meta(r).Edited }),
	}
}

var passwordTable = newTable(append(metaFields(func(p *Password) *Meta { return &p.Meta }),
	text("hash", "hash", false, func(p *Password) *string { return &p.Hash }),
	text("label", "label", true, func(p *Password) *string { return &p.Label }),
	text("username", "username", true, func(p *Password) *string { return &p.Username }),
	text("password", "password", true, func(p *Password) *string { return &p.Password }),
	text("url", "url", true, func(p *Password) *string { return &p.URL }),
	text("notes", "notes", true, func(p *Password) *string { return &p.Notes }),
	nullableText("customFields", "custom_fields", true, func(p *Password) **string { return &p.CustomFields }),
	text("folder", "folder", false, func(p *Password) *string { return &p.Folder }),
	integer("status", "status", func(p *Password) *int { return &p.Status }),
	text("statusCode", "status_code", false, func(p *Password) *string { return &p.StatusCode }),
)...)

var folderTable = newTable(append(metaFields(func(f *Folder) *Meta { return &f.Meta }),
	text("label", "label", true, func(f *Folder) *string { return &f.Label }),
	text("parent", "parent", false, func(f *Folder) *string { return &f.Parent }),
)...)

var tagTable = newTable(append(metaFields(func(t *Tag) *Meta { return &t.Meta }),
	text("label", "label", true, func(t *Tag) *string { return &t.Label }),
	text("color", "color", true, func(t *Tag) *string { return &t.Color }),
)...)

// Fields returns the field table of kind in declaration order.
func Fields(kind Kind) []Field {
	switch kind {
	case KindPassword:
		return passwordTable.describe()
	case KindFolder:
		return folderTable.describe()
	case KindTag:
		return tagTable.describe()
	default:
		return nil
	}
}

// SensitiveFields returns the names of the fields protected by server-side
// encryption.
func SensitiveFields(kind Kind) []string {
	var names []string
	for _, f := range Fields(kind) {
		if f.Sensitive {
			names = append(names, f.Name)
		}
	}
	return names
}
