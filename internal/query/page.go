package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Page is one immutable slice of a result set plus navigation metadata.
type Page[T any] struct {
	Items       []T   `json:"items"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalCount  int   `json:"total_count"`
	TotalPages  int   `json:"total_pages"`
	HasPrevious bool  `json:"has_previous"`
	HasNext     bool  `json:"has_next"`
	RangeStart  int   `json:"range_start"`
	RangeEnd    int   `json:"range_end"`
	Shown       int   `json:"shown"`
	Links       Links `json:"links"`
}

// Links are navigation URLs relative to the route the page was served from.
type Links struct {
	First    string `json:"first,omitempty"`
	Last     string `json:"last,omitempty"`
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
}

// BuildPage assembles a page from fetched items and the total matching count.
// Links are only produced when baseRoute is set; filters are echoed into them.
func BuildPage[T any](items []T, totalCount int, req PageRequest, baseRoute string, filters url.Values) Page[T] {
	req = req.Normalize()
	if items == nil {
		items = []T{}
	}

	totalPages := 0
	if totalCount > 0 {
		totalPages = (totalCount + req.PageSize - 1) / req.PageSize
	}

	page := Page[T]{
		Items:       items,
		CurrentPage: req.Page,
		PageSize:    req.PageSize,
		TotalCount:  totalCount,
		TotalPages:  totalPages,
		HasPrevious: req.Page > 1,
		HasNext:     req.Page < totalPages,
		RangeStart:  req.Offset() + 1,
		RangeEnd:    min(req.Page*req.PageSize, totalCount),
		Shown:       len(items),
	}

	if baseRoute == "" {
		return page
	}

	page.Links.First = pageLink(baseRoute, req, 1, filters)
	page.Links.Last = pageLink(baseRoute, req, max(totalPages, 1), filters)
	if page.HasPrevious {
		page.Links.Previous = pageLink(baseRoute, req, req.Page-1, filters)
	}
	if page.HasNext {
		page.Links.Next = pageLink(baseRoute, req, req.Page+1, filters)
	}

	return page
}

// Empty reports whether the page carries no items.
func (p Page[T]) Empty() bool {
	return len(p.Items) == 0
}

func pageLink(baseRoute string, req PageRequest, page int, filters url.Values) string {
	var b strings.Builder
	b.WriteString(baseRoute)
	b.WriteString("?page=")
	b.WriteString(strconv.Itoa(page))
	b.WriteString("&pageSize=")
	b.WriteString(strconv.Itoa(req.PageSize))

	if req.SortBy != "" {
		b.WriteString("&sortBy=")
		b.WriteString(url.QueryEscape(req.SortBy))
		b.WriteString("&sortDirection=")
		b.WriteString(string(req.SortDirection))
	}

	if req.SearchTerm != "" {
		b.WriteString("&searchTerm=")
		b.WriteString(url.QueryEscape(req.SearchTerm))
	}

	// Encode sorts by key, so links are stable across requests.
	if encoded := filters.Encode(); encoded != "" {
		b.WriteString("&")
		b.WriteString(encoded)
	}

	return b.String()
}
