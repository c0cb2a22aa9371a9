// Package query turns untyped page, sort, search and filter parameters into
// bounded, ordered and counted result pages over a pluggable row source.
package query

import (
	"math"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPage keeps Page*PageSize inside int for any normalized request.
	MaxPage = math.MaxInt / MaxPageSize
)

// Direction is the sort direction of a page request.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection maps any input to a valid direction; only "desc" (any case) sorts descending.
func ParseDirection(value string) Direction {
	if strings.EqualFold(strings.TrimSpace(value), string(Descending)) {
		return Descending
	}
	return Ascending
}

// PageRequest describes which slice of a result set the caller wants.
type PageRequest struct {
	Page          int
	PageSize      int
	SortBy        string
	SortDirection Direction
	SearchTerm    string
}

// Normalize returns a copy with every field inside its valid range. It never fails.
func (r PageRequest) Normalize() PageRequest {
	switch {
	case r.Page < 1:
		r.Page = DefaultPage
	case r.Page > MaxPage:
		r.Page = MaxPage
	}

	switch {
	case r.PageSize == 0:
		r.PageSize = DefaultPageSize
	case r.PageSize < 1:
		r.PageSize = 1
	case r.PageSize > MaxPageSize:
		r.PageSize = MaxPageSize
	}

	r.SortBy = strings.TrimSpace(r.SortBy)
	r.SortDirection = ParseDirection(string(r.SortDirection))
	r.SearchTerm = strings.TrimSpace(r.SearchTerm)

	return r
}

// Offset is the number of rows skipped before the requested page.
func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}
