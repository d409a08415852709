// Package pagination parses page/limit query parameters and builds the
// metadata block returned next to every paginated listing.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params are 1-based page coordinates.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type Meta struct {
	CurrentPage  int  `json:"current_page"`
	PerPage      int  `json:"per_page"`
	TotalPages   int  `json:"total_pages"`
	TotalRecords int  `json:"total_records"`
	HasNext      bool `json:"has_next"`
	HasPrevious  bool `json:"has_previous"`
}

// ParseParams reads page and limit from the request query, falling back to
// defaults on anything missing or invalid.
func ParseParams(r *http.Request) Params {
	page := DefaultPage
	limit := DefaultLimit

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
			if limit > MaxLimit {
				limit = MaxLimit
			}
		}
	}

	return Params{Page: page, Limit: limit}
}

// Validate clamps the parameters into their allowed ranges.
func (p *Params) Validate() {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// CalculateOffset returns the SQL OFFSET for the current page.
func (p *Params) CalculateOffset() int {
	return (p.Page - 1) * p.Limit
}

// CalculateMeta builds the metadata block for a known record count.
func (p *Params) CalculateMeta(totalRecords int) Meta {
	totalPages := (totalRecords + p.Limit - 1) / p.Limit
	if totalPages < 1 {
		totalPages = 1
	}

	return Meta{
		CurrentPage:  p.Page,
		PerPage:      p.Limit,
		TotalPages:   totalPages,
		TotalRecords: totalRecords,
		HasNext:      p.Page < totalPages,
		HasPrevious:  p.Page > 1,
	}
}

// Apply slices an already-loaded collection down to the requested page.
// A page past the end yields an empty slice, never an error.
func Apply[T any](items []T, p Params) ([]T, Meta) {
	meta := p.CalculateMeta(len(items))

	start := p.CalculateOffset()
	if start >= len(items) {
		return []T{}, meta
	}

	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}

	return items[start:end], meta
}
