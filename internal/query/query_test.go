package query

import (
	"net/url"
	"reflect"
	"testing"
)

func TestBuild_Defaults(t *testing.T) {
	spec := Build(url.Values{})

	if spec.Page != 1 || spec.PageSize != 100 {
		t.Fatalf("expected page 1 size 100, got page %d size %d", spec.Page, spec.PageSize)
	}
	if spec.Skip() != 0 {
		t.Fatalf("expected skip 0, got %d", spec.Skip())
	}
	if len(spec.Filters) != 0 {
		t.Fatalf("expected no filters, got %v", spec.Filters)
	}
	wantSort := []SortKey{{Field: "created_at", Desc: true}}
	if !reflect.DeepEqual(spec.SortKeys, wantSort) {
		t.Fatalf("expected default sort %v, got %v", wantSort, spec.SortKeys)
	}
	if len(spec.Projection.Include) != 0 {
		t.Fatalf("expected default projection, got %v", spec.Projection.Include)
	}
}

func TestBuild_CompositeScenario(t *testing.T) {
	params := url.Values{}
	params.Set("price[gte]", "100")
	params.Set("sort", "-ratings_average,price")
	params.Set("fields", "name,price")
	params.Set("page", "2")
	params.Set("limit", "5")

	spec := Build(params)

	wantFilters := []Filter{{Field: "price", Op: OpGte, Value: "100"}}
	if !reflect.DeepEqual(spec.Filters, wantFilters) {
		t.Fatalf("filters = %v, want %v", spec.Filters, wantFilters)
	}
	wantSort := []SortKey{
		{Field: "ratings_average", Desc: true},
		{Field: "price", Desc: false},
	}
	if !reflect.DeepEqual(spec.SortKeys, wantSort) {
		t.Fatalf("sortKeys = %v, want %v", spec.SortKeys, wantSort)
	}
	wantFields := []string{"name", "price"}
	if !reflect.DeepEqual(spec.Projection.Include, wantFields) {
		t.Fatalf("projection = %v, want %v", spec.Projection.Include, wantFields)
	}
	if spec.Page != 2 || spec.PageSize != 5 {
		t.Fatalf("page/size = %d/%d, want 2/5", spec.Page, spec.PageSize)
	}
	if spec.Skip() != 5 {
		t.Fatalf("skip = %d, want 5", spec.Skip())
	}
}

func TestBuild_Operators(t *testing.T) {
	tests := []struct {
		key  string
		want Filter
	}{
		{"duration", Filter{Field: "duration", Op: OpEq, Value: "5"}},
		{"duration[gt]", Filter{Field: "duration", Op: OpGt, Value: "5"}},
		{"duration[gte]", Filter{Field: "duration", Op: OpGte, Value: "5"}},
		{"duration[lt]", Filter{Field: "duration", Op: OpLt, Value: "5"}},
		{"duration[lte]", Filter{Field: "duration", Op: OpLte, Value: "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			params := url.Values{}
			params.Set(tt.key, "5")
			spec := Build(params)
			if len(spec.Filters) != 1 || spec.Filters[0] != tt.want {
				t.Fatalf("filters = %v, want [%v]", spec.Filters, tt.want)
			}
		})
	}
}

func TestBuild_UnknownOperatorStaysInFieldName(t *testing.T) {
	params := url.Values{}
	params.Set("price[between]", "100")

	spec := Build(params)

	// No validation here: the malformed key passes through as an
	// equality filter and is rejected by the storage translator.
	want := Filter{Field: "price[between]", Op: OpEq, Value: "100"}
	if len(spec.Filters) != 1 || spec.Filters[0] != want {
		t.Fatalf("filters = %v, want [%v]", spec.Filters, want)
	}
}

func TestBuild_ReservedKeysExcludedFromFilters(t *testing.T) {
	params := url.Values{}
	params.Set("page", "3")
	params.Set("sort", "price")
	params.Set("limit", "10")
	params.Set("fields", "name")
	params.Set("difficulty", "easy")

	spec := Build(params)

	if len(spec.Filters) != 1 || spec.Filters[0].Field != "difficulty" {
		t.Fatalf("expected single difficulty filter, got %v", spec.Filters)
	}
}

func TestBuild_MalformedPaginationFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		page  string
		limit string
	}{
		{"non-numeric", "abc", "xyz"},
		{"zero", "0", "0"},
		{"negative", "-2", "-5"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := url.Values{}
			if tt.page != "" {
				params.Set("page", tt.page)
			}
			if tt.limit != "" {
				params.Set("limit", tt.limit)
			}

			spec := Build(params)
			if spec.Page != DefaultPage || spec.PageSize != DefaultPageSize {
				t.Fatalf("page/size = %d/%d, want defaults", spec.Page, spec.PageSize)
			}
		})
	}
}

func TestBuild_SkipInvariant(t *testing.T) {
	cases := []struct{ page, limit string }{
		{"1", "100"}, {"2", "5"}, {"7", "13"}, {"1000", "1"}, {"x", "y"},
	}

	for _, c := range cases {
		params := url.Values{}
		params.Set("page", c.page)
		params.Set("limit", c.limit)

		spec := Build(params)
		if spec.PageSize <= 0 {
			t.Fatalf("pageSize must be positive, got %d", spec.PageSize)
		}
		if want := (spec.Page - 1) * spec.PageSize; spec.Skip() != want {
			t.Fatalf("skip = %d, want %d", spec.Skip(), want)
		}
		if spec.Skip() < 0 {
			t.Fatalf("skip must be >= 0, got %d", spec.Skip())
		}
	}
}

func TestBuild_Idempotent(t *testing.T) {
	params := url.Values{}
	params.Set("price[gte]", "100")
	params.Set("duration[lt]", "10")
	params.Set("difficulty", "easy")
	params.Set("sort", "-price,name")
	params.Set("fields", "name,price,duration")
	params.Set("page", "4")
	params.Set("limit", "25")

	first := Build(params)
	second := Build(params)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("build is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestBuild_SortEdgeCases(t *testing.T) {
	t.Run("empty segments skipped", func(t *testing.T) {
		params := url.Values{}
		params.Set("sort", "price,, ,-rating")
		spec := Build(params)
		want := []SortKey{{Field: "price"}, {Field: "rating", Desc: true}}
		if !reflect.DeepEqual(spec.SortKeys, want) {
			t.Fatalf("sortKeys = %v, want %v", spec.SortKeys, want)
		}
	})

	t.Run("only dashes falls back to default", func(t *testing.T) {
		params := url.Values{}
		params.Set("sort", "-")
		spec := Build(params)
		want := []SortKey{DefaultSort}
		if !reflect.DeepEqual(spec.SortKeys, want) {
			t.Fatalf("sortKeys = %v, want %v", spec.SortKeys, want)
		}
	})
}
