package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownField is returned when a spec references a field the
// collection does not have. The pipeline itself never validates field
// names; rejection happens here, at the storage boundary.
var ErrUnknownField = errors.New("unknown field")

// Cond is a fixed condition a repository pins onto every query,
// independent of caller input (e.g. secret = false, tour_id = $1).
type Cond struct {
	Column string
	Op     Op
	Value  any
}

// Translator renders a Spec into a parameterized SQL query for one
// collection. Identifiers are validated against the column allowlist
// and quoted, so no caller input is ever interpolated into SQL text.
type Translator struct {
	// Table is the collection's table name.
	Table string
	// Columns lists every selectable column, in canonical order.
	Columns []string
	// VersionColumn is excluded from the default projection.
	// Empty means there is no version column.
	VersionColumn string
}

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// Translate renders the spec plus any fixed conditions into a SELECT
// statement with positional arguments. Fixed conditions always apply
// before (AND with) the spec's filters.
func (t *Translator) Translate(spec *Spec, fixed ...Cond) (string, []any, error) {
	cols, err := t.projectedColumns(spec.Projection)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(quoteIdent(t.Table))

	var args []any
	var conds []string

	for _, c := range fixed {
		if !t.hasColumn(c.Column) {
			return "", nil, fmt.Errorf("%w: %s", ErrUnknownField, c.Column)
		}
		args = append(args, c.Value)
		conds = append(conds, fmt.Sprintf("%s %s $%d", quoteIdent(c.Column), sqlOps[c.Op], len(args)))
	}

	for _, f := range spec.Filters {
		if !t.hasColumn(f.Field) {
			return "", nil, fmt.Errorf("%w: %s", ErrUnknownField, f.Field)
		}
		args = append(args, f.Value)
		conds = append(conds, fmt.Sprintf("%s %s $%d", quoteIdent(f.Field), sqlOps[f.Op], len(args)))
	}

	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	order, err := t.orderBy(spec.SortKeys)
	if err != nil {
		return "", nil, err
	}
	sb.WriteString(order)

	args = append(args, spec.PageSize)
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	args = append(args, spec.Skip())
	sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))

	return sb.String(), args, nil
}

// projectedColumns resolves the projection into quoted column names.
// An empty inclusion list means every column except the version column.
func (t *Translator) projectedColumns(p Projection) ([]string, error) {
	if len(p.Include) == 0 {
		cols := make([]string, 0, len(t.Columns))
		for _, col := range t.Columns {
			if col == t.VersionColumn {
				continue
			}
			cols = append(cols, quoteIdent(col))
		}
		return cols, nil
	}

	cols := make([]string, 0, len(p.Include))
	for _, col := range p.Include {
		if !t.hasColumn(col) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, col)
		}
		cols = append(cols, quoteIdent(col))
	}
	return cols, nil
}

// orderBy renders sort keys in priority order with an id tie-break so
// pagination is stable across identical sort values.
func (t *Translator) orderBy(keys []SortKey) (string, error) {
	if len(keys) == 0 {
		keys = []SortKey{DefaultSort}
	}

	parts := make([]string, 0, len(keys)+1)
	sawID := false
	for _, key := range keys {
		if !t.hasColumn(key.Field) {
			return "", fmt.Errorf("%w: %s", ErrUnknownField, key.Field)
		}
		dir := " ASC"
		if key.Desc {
			dir = " DESC"
		}
		parts = append(parts, quoteIdent(key.Field)+dir)
		if key.Field == "id" {
			sawID = true
		}
	}
	if !sawID && t.hasColumn("id") {
		parts = append(parts, quoteIdent("id")+" ASC")
	}

	return " ORDER BY " + strings.Join(parts, ", "), nil
}

func (t *Translator) hasColumn(name string) bool {
	for _, col := range t.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// quoteIdent double-quotes an identifier. Inputs reaching this point
// have already been matched against the column allowlist.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
