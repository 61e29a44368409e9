// Package listquery implements the in-memory pipeline the admin list pages
// run over a fully loaded collection: free-text search, facet filters,
// keyed sort and fixed-size pagination. The pipeline is pure; it never
// mutates the source slice.
package listquery

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xen-network/cms-api/pkg/dates"
)

// FacetAll is the sentinel facet value meaning "no constraint".
const FacetAll = "all"

// DefaultPageSize is applied when Params.PageSize is zero.
const DefaultPageSize = 10

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Params captures one list-page query.
type Params struct {
	Search        string
	Facets        map[string]string
	SortKey       string
	SortDirection Direction
	Page          int
	PageSize      int
}

// Schema describes how to read the queryable fields of a record kind.
// SearchText returns the free-text fields (absent fields as empty strings),
// FacetValue returns the record's value for a named facet and SortValue
// returns the raw value for a sort key. Date-like sort values may be
// returned in any representation dates.ToDate understands.
type Schema[T any] struct {
	SearchText func(r T) []string
	FacetValue func(r T, facet string) string
	SortValue  func(r T, key string) any
}

// Result is one page of the filtered collection plus paging metadata.
// Clamped is set when the requested page was out of range and the nearest
// valid page was returned instead.
type Result[T any] struct {
	Page       []T
	Total      int
	TotalPages int
	PageIndex  int
	Clamped    bool
}

// Apply runs the filter → sort → paginate pipeline over records.
func Apply[T any](records []T, params Params, schema Schema[T]) (Result[T], error) {
	if params.PageSize < 0 {
		return Result[T]{}, fmt.Errorf("listquery: page size must be positive, got %d", params.PageSize)
	}
	pageSize := params.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}

	filtered := filter(records, params, schema)

	if params.SortKey != "" && schema.SortValue != nil {
		sortRecords(filtered, params, schema)
	}

	total := len(filtered)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	page := params.Page
	clamped := false
	if page < 1 {
		page = 1
		clamped = params.Page != 0
	}
	if page > totalPages {
		page = totalPages
		clamped = true
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Result[T]{
		Page:       filtered[start:end],
		Total:      total,
		TotalPages: totalPages,
		PageIndex:  page,
		Clamped:    clamped,
	}, nil
}

func filter[T any](records []T, params Params, schema Schema[T]) []T {
	needle := strings.ToLower(strings.TrimSpace(params.Search))
	out := make([]T, 0, len(records))

	for _, r := range records {
		if needle != "" && !matchesSearch(r, needle, schema) {
			continue
		}
		if !matchesFacets(r, params.Facets, schema) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesSearch[T any](r T, needle string, schema Schema[T]) bool {
	if schema.SearchText == nil {
		return true
	}
	for _, field := range schema.SearchText(r) {
		if field == "" {
			continue
		}
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func matchesFacets[T any](r T, facets map[string]string, schema Schema[T]) bool {
	if len(facets) == 0 || schema.FacetValue == nil {
		return true
	}
	for facet, want := range facets {
		if want == "" || strings.EqualFold(want, FacetAll) {
			continue
		}
		if schema.FacetValue(r, facet) != want {
			return false
		}
	}
	return true
}

func sortRecords[T any](records []T, params Params, schema Schema[T]) {
	desc := params.SortDirection == Desc
	key := params.SortKey
	sort.SliceStable(records, func(i, j int) bool {
		c := compare(schema.SortValue(records[i], key), schema.SortValue(records[j], key))
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// compare orders two sort values: dates chronologically, numbers
// numerically, everything else lexicographically.
func compare(a, b any) int {
	if ta, aOK := asTime(a); aOK {
		if tb, bOK := asTime(b); bOK {
			switch {
			case ta.Before(tb):
				return -1
			case ta.After(tb):
				return 1
			default:
				return 0
			}
		}
	}

	if na, aOK := asFloat(a); aOK {
		if nb, bOK := asFloat(b); bOK {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			default:
				return 0
			}
		}
	}

	return strings.Compare(stringify(a), stringify(b))
}

func asTime(v any) (time.Time, bool) {
	switch v.(type) {
	case string, int, int32, int64, float32, float64:
		// Plain scalars sort by their native ordering, not as dates.
		return time.Time{}, false
	}
	return dates.ToDate(v)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
