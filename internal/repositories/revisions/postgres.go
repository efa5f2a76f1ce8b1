// Package revisions provides the PostgreSQL-backed revision store used by the
// repair engine and the backup tooling.
package revisions

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/passwords/internal/common"
	"github.com/dmitrijs2005/passwords/internal/dbx"
	rv "github.com/dmitrijs2005/passwords/internal/revisions"
)

// DefaultPageSize is used when the repository is built with a non-positive
// page size.
const DefaultPageSize = 500

// PostgresRepository implements revision storage over a dbx.DBTX (*sql.DB or *sql.Tx).
// Each kind lives in its own <kind>_revisions table; parent items of every
// kind share the models table.
type PostgresRepository struct {
	db       dbx.DBTX
	pageSize int
}

// NewPostgresRepository constructs a repository bound to the given DBTX that
// reads revisions pageSize rows at a time.
func NewPostgresRepository(db dbx.DBTX, pageSize int) *PostgresRepository {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &PostgresRepository{db: db, pageSize: pageSize}
}

func tableName(kind rv.Kind) string {
	return string(kind) + "_revisions"
}

func columns(fields []rv.Field) []string {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Column
	}
	return cols
}

// StreamAll yields every revision of kind ordered by id. Pages are fetched
// with keyset pagination and fully read before they are yielded, so callers
// may write to the store while iterating.
func (r *PostgresRepository) StreamAll(ctx context.Context, kind rv.Kind) iter.Seq2[rv.Revision, error] {
	return func(yield func(rv.Revision, error) bool) {
		fields := rv.Fields(kind)
		if fields == nil {
			yield(nil, fmt.Errorf("%w: %q", common.ErrUnknownType, kind))
			return
		}

		after := ""
		for {
			page, err := r.page(ctx, kind, fields, after)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, rev := range page {
				if !yield(rev, nil) {
					return
				}
			}

			if len(page) < r.pageSize {
				return
			}
			after = page[len(page)-1].Header().ID
		}
	}
}

func (r *PostgresRepository) page(ctx context.Context, kind rv.Kind, fields []rv.Field, after string) ([]rv.Revision, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id > $1 ORDER BY id LIMIT $2`,
		strings.Join(columns(fields), ", "), tableName(kind))

	rows, err := r.db.QueryContext(ctx, query, after, r.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s revisions: %w", kind, err)
	}
	defer rows.Close()

	var result []rv.Revision
	for rows.Next() {
		rev, err := scanRevision(rows, kind, fields)
		if err != nil {
			return nil, err
		}
		result = append(result, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func scanRevision(rows *sql.Rows, kind rv.Kind, fields []rv.Field) (rv.Revision, error) {
	dest := make([]any, len(fields))
	for i, f := range fields {
		switch f.Type {
		case rv.TypeInt:
			dest[i] = new(int64)
		case rv.TypeBool:
			dest[i] = new(bool)
		default:
			dest[i] = new(sql.NullString)
		}
	}

	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan %s revision: %w", kind, err)
	}

	rev := rv.New(kind)
	for i, f := range fields {
		var value string
		switch v := dest[i].(type) {
		case *int64:
			value = strconv.FormatInt(*v, 10)
		case *bool:
			value = strconv.FormatBool(*v)
		case *sql.NullString:
			if !v.Valid && f.Type == rv.TypeNullableText {
				continue
			}
			value = v.String
		}
		if err := rev.Set(f.Name, value); err != nil {
			return nil, err
		}
	}

	return rev, nil
}

// Save upserts rev by id.
func (r *PostgresRepository) Save(ctx context.Context, rev rv.Revision) error {
	fields := rv.Fields(rev.Kind())

	args := make([]any, len(fields))
	placeholders := make([]string, len(fields))
	var updates []string

	for i, f := range fields {
		arg, err := columnValue(rev, f)
		if err != nil {
			return err
		}
		args[i] = arg
		placeholders[i] = "$" + strconv.Itoa(i+1)
		if f.Column != "id" {
			updates = append(updates, f.Column+" = EXCLUDED."+f.Column)
		}
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s`,
		tableName(rev.Kind()),
		strings.Join(columns(fields), ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func columnValue(rev rv.Revision, f rv.Field) (any, error) {
	v, ok, err := rev.Value(f.Name)
	if err != nil {
		return nil, err
	}

	switch f.Type {
	case rv.TypeNullableText:
		if !ok {
			return nil, nil
		}
		return v, nil
	case rv.TypeInt:
		return strconv.ParseInt(v, 10, 64)
	case rv.TypeBool:
		return strconv.ParseBool(v)
	default:
		return v, nil
	}
}

// FindFolderByUUID returns the live folder with the given uuid.
func (r *PostgresRepository) FindFolderByUUID(ctx context.Context, uuid string) (*rv.Model, error) {
	return r.FindModel(ctx, rv.KindFolder, uuid)
}

// FindModel returns the live item of kind with the given uuid. It fails with
// common.ErrorNotFound when there is none and common.ErrMultipleFound when
// the uuid is ambiguous.
func (r *PostgresRepository) FindModel(ctx context.Context, kind rv.Kind, uuid string) (*rv.Model, error) {
	query := `SELECT uuid, user_id, revision, deleted FROM models
		WHERE kind = $1 AND uuid = $2 AND deleted = FALSE
		LIMIT 2`

	rows, err := r.db.QueryContext(ctx, query, string(kind), uuid)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var found []*rv.Model
	for rows.Next() {
		var m rv.Model
		if err := rows.Scan(&m.UUID, &m.UserID, &m.Revision, &m.Deleted); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		found = append(found, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, common.ErrorNotFound
	case 1:
		return found[0], nil
	default:
		return nil, common.ErrMultipleFound
	}
}
