package repository

import (
	"strings"

	"github.com/sakif/tenxdev/internal/model"
)

const (
	DefaultSortColumn = "created_at"
	MaxPageSize       = 100
)

// FilterAll is the filter value clients send to mean "no filter".
const FilterAll = "all"

// CardListParams are the raw list parameters as they arrive from a request.
// Page and Limit are pointers: pagination only applies when both are given.
type CardListParams struct {
	Tech        string
	Language    string
	ContentType string
	CardType    string
	Visibility  string
	Search      string
	SortBy      string
	SortOrder   string
	Page        *int
	Limit       *int

	// Viewer is the authenticated user id, "" for anonymous callers.
	Viewer string
	// ViewAll lifts the visibility restriction (admins).
	ViewAll bool
}

// Filter is an equality match on a whitelisted column.
type Filter struct {
	Column string
	Value  string
}

type Sort struct {
	Column string
	Desc   bool
}

// Range is an inclusive row window: From and To are both returned.
type Range struct {
	From int
	To   int
}

// Limit is the number of rows the range covers.
func (r Range) Limit() int {
	return r.To - r.From + 1
}

// CardQuery is a composed, store-independent description of a card listing.
type CardQuery struct {
	Filters []Filter
	// Search, when set, matches case-insensitively as a substring of any SearchColumns.
	Search        string
	SearchColumns []string
	Sort          Sort
	// Range is nil when the listing is unpaginated.
	Range   *Range
	Viewer  string
	ViewAll bool
}

var cardSearchColumns = []string{"title", "description", "tech"}

// sortColumns maps accepted sortBy values to columns.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"createdAt":  "created_at",
	"updated_at": "updated_at",
	"updatedAt":  "updated_at",
	"title":      "title",
	"tech":       "tech",
	"language":   "language",
}

// BuildCardQuery composes list parameters into a CardQuery.
//
// A filter value of "all" (or empty) is dropped. Unknown sort columns fall back
// to created_at, and anything but "asc" sorts descending. Pagination is applied
// only when both Page and Limit are set: from = (page-1)*limit and
// to = from+limit-1.
func BuildCardQuery(p CardListParams) CardQuery {
	q := CardQuery{
		Sort:    Sort{Column: DefaultSortColumn, Desc: true},
		Viewer:  p.Viewer,
		ViewAll: p.ViewAll,
	}

	for _, f := range []Filter{
		{"tech", p.Tech},
		{"language", p.Language},
		{"content_type", p.ContentType},
		{"card_type", p.CardType},
		{"visibility", p.Visibility},
	} {
		if v := filterValue(f.Value); v != "" {
			q.Filters = append(q.Filters, Filter{Column: f.Column, Value: v})
		}
	}

	if s := strings.TrimSpace(p.Search); s != "" {
		q.Search = s
		q.SearchColumns = cardSearchColumns
	}

	if col, ok := sortColumns[strings.TrimSpace(p.SortBy)]; ok {
		q.Sort.Column = col
	}
	if strings.EqualFold(strings.TrimSpace(p.SortOrder), "asc") {
		q.Sort.Desc = false
	}

	if p.Page != nil && p.Limit != nil {
		q.Range = PageRange(*p.Page, *p.Limit)
	}
	return q
}

// PageRange returns the inclusive range for a 1-based page. page < 1 is treated
// as 1 and limit is clamped to [1, MaxPageSize].
func PageRange(page, limit int) *Range {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	from := (page - 1) * limit
	return &Range{From: from, To: from + limit - 1}
}

func filterValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, FilterAll) {
		return ""
	}
	return v
}

// ContentQuery describes a content listing.
type ContentQuery struct {
	Type   model.ContentKind
	Search string
	Range  *Range
}
