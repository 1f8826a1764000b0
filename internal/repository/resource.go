package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ngocthuan/blog-api/internal/apperror"
	"github.com/ngocthuan/blog-api/internal/query"
)

// Kind is the value type of a column, used to validate payloads and to
// convert scanned values into JSON-friendly Go types.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
)

// Column describes one writable column of a resource: its type, whether a
// create must supply it, an optional enum/bounds constraint, an optional
// custom format check and a default applied when a create omits it.
type Column struct {
	Name     string
	Kind     Kind
	Required bool
	Enum     []string
	Min, Max *float64
	Check    func(v any) error
	Default  any
}

// Resource is a storage-entity capability set: enough metadata for generic
// create/read/list/update/soft-delete over one table. Every read filters
// to active rows; deletes only ever flip the active flag. BeforeSave runs
// after validation and before the SQL write, so side effects such as
// password hashing stay visible at the call site instead of hiding in
// entity hooks.
type Resource struct {
	Name       string // singular, used in error messages
	Table      string
	Columns    []Column
	Exclude    []string // columns withheld from output on top of active
	BeforeSave func(payload map[string]any) error
}

// Row is a dynamic record: projection and per-resource exclusions make a
// fixed struct impractical here.
type Row = map[string]any

func floatPtr(v float64) *float64 { return &v }

// readable returns every selectable column including the implicit id and
// timestamps. The active flag is intentionally absent: it never appears
// in output and is not queryable.
func (r *Resource) readable() []Column {
	out := make([]Column, 0, len(r.Columns)+3)
	out = append(out, Column{Name: "id", Kind: KindInt})
	out = append(out, r.Columns...)
	out = append(out,
		Column{Name: "createdAt", Kind: KindTime},
		Column{Name: "updatedAt", Kind: KindTime},
	)
	return out
}

func (r *Resource) excluded(name string) bool {
	for _, e := range r.Exclude {
		if e == name {
			return true
		}
	}
	return false
}

func (r *Resource) column(name string) (Column, bool) {
	for _, c := range r.readable() {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (r *Resource) writable(name string) (Column, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// selectList resolves the output column list, applying an optional
// projection. Projected fields must exist and must not be withheld.
func (r *Resource) selectList(projection []string) ([]Column, error) {
	if len(projection) == 0 {
		cols := []Column{}
		for _, c := range r.readable() {
			if !r.excluded(c.Name) {
				cols = append(cols, c)
			}
		}
		return cols, nil
	}
	cols := make([]Column, 0, len(projection))
	for _, name := range projection {
		c, ok := r.column(name)
		if !ok || r.excluded(name) {
			return nil, apperror.Validation(fmt.Sprintf("unknown field %q", name))
		}
		cols = append(cols, c)
	}
	return cols, nil
}

func columnNames(cols []Column) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = "`" + c.Name + "`"
	}
	return strings.Join(names, ", ")
}

// whereClause builds the WHERE fragment for a filter plus the implicit
// active predicate. Field names are checked against the resource so no
// request-supplied identifier ever reaches the SQL text.
func (r *Resource) whereClause(preds []query.Predicate) (string, []any, error) {
	parts := []string{"active = TRUE"}
	args := []any{}
	for _, p := range preds {
		if _, ok := r.column(p.Field); !ok || r.excluded(p.Field) {
			return "", nil, apperror.Validation(fmt.Sprintf("unknown field %q", p.Field))
		}
		parts = append(parts, fmt.Sprintf("`%s` %s ?", p.Field, p.Op.SQL()))
		args = append(args, p.Value)
	}
	return strings.Join(parts, " AND "), args, nil
}

// ListResult carries one page of rows plus the pagination summary.
type ListResult struct {
	Items       []Row `json:"items"`
	TotalCount  int64 `json:"totalCount"`
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int64 `json:"currentPage"`
}

// FindAndCount lists active rows matching the filter with sort, projection
// and pagination applied, plus the unpaginated total.
func (r *Resource) FindAndCount(ctx context.Context, db DBTX, f query.Filter) (ListResult, error) {
	res := ListResult{Items: []Row{}}

	where, args, err := r.whereClause(f.Predicates)
	if err != nil {
		return res, err
	}

	countSQL := "SELECT COUNT(*) FROM `" + r.Table + "` WHERE " + where
	if err := db.QueryRowContext(ctx, countSQL, args...).Scan(&res.TotalCount); err != nil {
		return res, err
	}

	cols, err := r.selectList(f.Fields)
	if err != nil {
		return res, err
	}
	dataSQL := "SELECT " + columnNames(cols) + " FROM `" + r.Table + "` WHERE " + where

	if len(f.Sort) > 0 {
		order := make([]string, 0, len(f.Sort))
		for _, s := range f.Sort {
			if _, ok := r.column(s); !ok || r.excluded(s) {
				return res, apperror.Validation(fmt.Sprintf("unknown field %q", s))
			}
			order = append(order, "`"+s+"`")
		}
		dataSQL += " ORDER BY " + strings.Join(order, ", ")
	}

	dataArgs := append([]any{}, args...)
	if f.Limit >= 0 {
		dataSQL += " LIMIT ? OFFSET ?"
		dataArgs = append(dataArgs, f.Limit, f.Offset)
	}

	rows, err := db.QueryContext(ctx, dataSQL, dataArgs...)
	if err != nil {
		return res, err
	}
	defer rows.Close()

	for rows.Next() {
		row, err := scanRow(rows, cols)
		if err != nil {
			return res, err
		}
		res.Items = append(res.Items, row)
	}
	if err := rows.Err(); err != nil {
		return res, err
	}

	if f.Limit > 0 {
		res.TotalPages = int64(math.Ceil(float64(res.TotalCount) / float64(f.Limit)))
		res.CurrentPage = int64(f.Offset / f.Limit)
	} else {
		res.TotalPages = 1
	}
	return res, nil
}

// FindByID returns the active row with the given id.
func (r *Resource) FindByID(ctx context.Context, db DBTX, id uint64, projection []string) (Row, error) {
	cols, err := r.selectList(projection)
	if err != nil {
		return nil, err
	}
	q := "SELECT " + columnNames(cols) + " FROM `" + r.Table + "` WHERE id = ? AND active = TRUE LIMIT 1"
	rows, err := db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, apperror.NotFound(fmt.Sprintf("no %s found with that ID", r.Name))
	}
	return scanRow(rows, cols)
}

// Create validates the payload, applies defaults and inserts the row
// inside the caller's transaction, returning the stored record.
func (r *Resource) Create(ctx context.Context, tx DBTX, payload Row) (Row, error) {
	if err := r.checkPayloadKeys(payload); err != nil {
		return nil, err
	}
	for _, c := range r.Columns {
		v, present := payload[c.Name]
		if !present || v == nil {
			if c.Default != nil {
				payload[c.Name] = c.Default
				continue
			}
			if c.Required {
				return nil, apperror.Validation(fmt.Sprintf("%s must have %s", r.Name, c.Name))
			}
			continue
		}
		if err := c.validate(v); err != nil {
			return nil, err
		}
	}
	if r.BeforeSave != nil {
		if err := r.BeforeSave(payload); err != nil {
			return nil, err
		}
	}

	names := []string{}
	marks := []string{}
	args := []any{}
	for _, c := range r.Columns {
		if v, ok := payload[c.Name]; ok && v != nil {
			names = append(names, "`"+c.Name+"`")
			marks = append(marks, "?")
			args = append(args, v)
		}
	}
	q := "INSERT INTO `" + r.Table + "` (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	result, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		if derr := duplicateErr(err); derr != err {
			return nil, apperror.Validation(derr.Error())
		}
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, tx, uint64(id), nil)
}

// UpdateByID patches the active row with the given id. Touching the
// soft-delete flag is rejected outright, whatever else the payload holds.
// An explicit null clears a nullable column; on a required column it is a
// validation error.
func (r *Resource) UpdateByID(ctx context.Context, tx DBTX, id uint64, payload Row) (Row, error) {
	if err := r.checkPayloadKeys(payload); err != nil {
		return nil, err
	}
	for _, c := range r.Columns {
		v, ok := payload[c.Name]
		if !ok {
			continue
		}
		if v == nil {
			if c.Required {
				return nil, apperror.Validation(c.Name + " can't be emptied")
			}
			continue
		}
		if err := c.validate(v); err != nil {
			return nil, err
		}
	}
	if r.BeforeSave != nil {
		if err := r.BeforeSave(payload); err != nil {
			return nil, err
		}
	}

	// Existence check first: MySQL reports zero affected rows for no-op
	// value updates, which must not read as NotFound.
	var found uint64
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM `"+r.Table+"` WHERE id = ? AND active = TRUE LIMIT 1", id).Scan(&found)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound(fmt.Sprintf("no %s found with that ID", r.Name))
	}
	if err != nil {
		return nil, err
	}

	sets := []string{}
	args := []any{}
	for _, c := range r.Columns {
		if v, ok := payload[c.Name]; ok {
			sets = append(sets, "`"+c.Name+"` = ?")
			args = append(args, v)
		}
	}
	if len(sets) > 0 {
		args = append(args, id)
		q := "UPDATE `" + r.Table + "` SET " + strings.Join(sets, ", ") + " WHERE id = ? AND active = TRUE"
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			if derr := duplicateErr(err); derr != err {
				return nil, apperror.Validation(derr.Error())
			}
			return nil, err
		}
	}
	return r.FindByID(ctx, tx, id, nil)
}

// SoftDeleteByID flips active to false for a currently active row.
func (r *Resource) SoftDeleteByID(ctx context.Context, tx DBTX, id uint64) error {
	result, err := tx.ExecContext(ctx,
		"UPDATE `"+r.Table+"` SET active = FALSE WHERE id = ? AND active = TRUE", id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound(fmt.Sprintf("no %s found with that ID", r.Name))
	}
	return nil
}

// SoftDeleteAll flips active to false for every active row.
func (r *Resource) SoftDeleteAll(ctx context.Context, tx DBTX) error {
	_, err := tx.ExecContext(ctx, "UPDATE `"+r.Table+"` SET active = FALSE WHERE active = TRUE")
	return err
}

// checkPayloadKeys rejects writes to id and the soft-delete flag and any
// key that is not a writable column.
func (r *Resource) checkPayloadKeys(payload Row) error {
	for k := range payload {
		if k == "active" {
			return apperror.ForbiddenField("Can't update that field")
		}
		if k == "id" {
			return apperror.Validation("id cannot be set")
		}
		if _, ok := r.writable(k); !ok {
			return apperror.Validation(fmt.Sprintf("unknown field %q", k))
		}
	}
	return nil
}

// validate applies the column's type, enum, bounds and custom checks to a
// payload value.
func (c Column) validate(v any) error {
	switch c.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return apperror.Validation(c.Name + " must be a string")
		}
		if c.Required && strings.TrimSpace(s) == "" {
			return apperror.Validation(c.Name + " can't be emptied")
		}
		if len(c.Enum) > 0 {
			found := false
			for _, e := range c.Enum {
				if e == s {
					found = true
					break
				}
			}
			if !found {
				return apperror.Validation(fmt.Sprintf("%s must be one of these: %s", c.Name, strings.Join(c.Enum, ", ")))
			}
		}
	case KindInt:
		switch n := v.(type) {
		case float64:
			if n != math.Trunc(n) {
				return apperror.Validation(c.Name + " must be an integer")
			}
		case int, int64:
		default:
			return apperror.Validation(c.Name + " must be an integer")
		}
	case KindFloat:
		f, ok := toFloat(v)
		if !ok {
			return apperror.Validation(c.Name + " must be a number")
		}
		if c.Min != nil && f < *c.Min || c.Max != nil && f > *c.Max {
			return apperror.Validation(fmt.Sprintf("%s must be between %g and %g", c.Name, *c.Min, *c.Max))
		}
	case KindBool:
		if _, ok := v.(bool); !ok {
			return apperror.Validation(c.Name + " must be a boolean")
		}
	}
	if c.Check != nil {
		return c.Check(v)
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// scanRow reads the current result row into a map, converting driver
// values into the declared column kinds so JSON encoding stays faithful
// (the MySQL text protocol hands most values back as []byte).
func scanRow(rows *sql.Rows, cols []Column) (Row, error) {
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	out := make(Row, len(cols))
	for i, c := range cols {
		v, err := convertValue(c, vals[i])
		if err != nil {
			return nil, err
		}
		out[c.Name] = v
	}
	return out, nil
}

func convertValue(c Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		s := string(b)
		switch c.Kind {
		case KindInt:
			return strconv.ParseInt(s, 10, 64)
		case KindFloat:
			return strconv.ParseFloat(s, 64)
		case KindBool:
			return s == "1" || s == "true", nil
		default:
			return s, nil
		}
	}
	switch c.Kind {
	case KindBool:
		if n, ok := v.(int64); ok {
			return n != 0, nil
		}
	case KindFloat:
		if n, ok := v.(int64); ok {
			return float64(n), nil
		}
	case KindTime:
		if t, ok := v.(time.Time); ok {
			return t.UTC(), nil
		}
	}
	return v, nil
}
