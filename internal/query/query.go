// Package query builds typed list-query specifications from raw HTTP
// query parameters: comparison filtering, sorting, field projection,
// and pagination. Building is pure and performs no schema validation;
// unknown fields are rejected by the storage translator.
package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Document is a projected row returned by a list query. Using a
// generic document keeps field projection honest: callers receive
// exactly the fields the spec selected, nothing more.
type Document map[string]any

// Op is a comparison operator in a filter.
type Op string

// Supported comparison operators.
const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

// Pagination defaults applied when page/limit are absent or malformed.
const (
	DefaultPage     = 1
	DefaultPageSize = 100
)

// reservedKeys never become filters; they drive the other stages.
var reservedKeys = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
}

// Filter is a single field comparison.
type Filter struct {
	Field string
	Op    Op
	Value string
}

// SortKey is one ordering criterion; earlier keys take priority.
type SortKey struct {
	Field string
	Desc  bool
}

// Projection selects the fields to return. An empty Include means the
// storage default: every field except the internal version column.
type Projection struct {
	Include []string
}

// Spec is the normalized representation of list-query intent.
// It is immutable once built and scoped to a single request.
type Spec struct {
	Filters    []Filter
	SortKeys   []SortKey
	Projection Projection
	Page       int
	PageSize   int
}

// Skip returns the number of rows to skip for the requested page.
// Always >= 0 because Page and PageSize are >= 1.
func (s *Spec) Skip() int {
	return (s.Page - 1) * s.PageSize
}

// DefaultSort is applied when no sort parameter is present.
var DefaultSort = SortKey{Field: "created_at", Desc: true}

// Build runs the full pipeline over raw query parameters.
// Stage order is fixed: filter, sort, project, paginate.
func Build(params url.Values) *Spec {
	return NewBuilder(params).Filter().Sort().Project().Paginate().Spec()
}

// Builder composes a Spec stage by stage. Each stage reads only the raw
// parameters and the in-progress spec, and returns the builder for
// chaining.
type Builder struct {
	params url.Values
	spec   *Spec
}

// NewBuilder creates a Builder over raw query parameters.
func NewBuilder(params url.Values) *Builder {
	return &Builder{
		params: params,
		spec: &Spec{
			Page:     DefaultPage,
			PageSize: DefaultPageSize,
		},
	}
}

// Filter translates every non-reserved parameter into a comparison
// filter. Keys use the price[gte]=100 convention; a bare key is an
// equality filter. Keys are processed in sorted order so identical
// input always yields an identical spec.
func (b *Builder) Filter() *Builder {
	keys := make([]string, 0, len(b.params))
	for key := range b.params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field, op := splitFilterKey(key)
		if reservedKeys[field] {
			continue
		}
		b.spec.Filters = append(b.spec.Filters, Filter{
			Field: field,
			Op:    op,
			Value: b.params.Get(key),
		})
	}
	return b
}

// Sort parses the comma-separated sort parameter. A leading '-' marks
// descending order. Absent sort falls back to DefaultSort.
func (b *Builder) Sort() *Builder {
	raw := b.params.Get("sort")
	if raw == "" {
		b.spec.SortKeys = []SortKey{DefaultSort}
		return b
	}

	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		key := SortKey{Field: field}
		if strings.HasPrefix(field, "-") {
			key.Field = field[1:]
			key.Desc = true
		}
		if key.Field != "" {
			b.spec.SortKeys = append(b.spec.SortKeys, key)
		}
	}

	if len(b.spec.SortKeys) == 0 {
		b.spec.SortKeys = []SortKey{DefaultSort}
	}
	return b
}

// Project parses the comma-separated fields parameter into an inclusion
// list. Absent fields leaves the storage default projection.
func (b *Builder) Project() *Builder {
	raw := b.params.Get("fields")
	if raw == "" {
		return b
	}

	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field != "" {
			b.spec.Projection.Include = append(b.spec.Projection.Include, field)
		}
	}
	return b
}

// Paginate parses page and limit. Non-numeric, missing, or non-positive
// values fall back to the defaults rather than failing. No upper bound
// is enforced on the page size.
func (b *Builder) Paginate() *Builder {
	if page, err := strconv.Atoi(b.params.Get("page")); err == nil && page > 0 {
		b.spec.Page = page
	}
	if limit, err := strconv.Atoi(b.params.Get("limit")); err == nil && limit > 0 {
		b.spec.PageSize = limit
	}
	return b
}

// Spec returns the built specification.
func (b *Builder) Spec() *Spec {
	return b.spec
}

// splitFilterKey parses "price[gte]" into ("price", OpGte).
// A key without a recognized operator suffix is an equality filter.
func splitFilterKey(key string) (string, Op) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return key, OpEq
	}

	field := key[:open]
	switch Op(key[open+1 : len(key)-1]) {
	case OpGt:
		return field, OpGt
	case OpGte:
		return field, OpGte
	case OpLt:
		return field, OpLt
	case OpLte:
		return field, OpLte
	default:
		// Unrecognized operator tokens fall through as part of the
		// field name and get rejected by the storage translator.
		return key, OpEq
	}
}
