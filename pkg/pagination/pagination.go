package pagination

import (
	"github.com/JaimeStill/churn/pkg/query"
)

// SortFields is a parsed sort order. It decodes from the
// comma-separated form ("model,-started_at") in TOML, JSON, and flags.
type SortFields []query.SortField

// UnmarshalText parses a comma-separated sort string.
func (s *SortFields) UnmarshalText(text []byte) error {
	*s = query.ParseSortFields(string(text))
	return nil
}

// PageRequest selects one page of a sorted listing.
type PageRequest struct {
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Sort     SortFields `json:"sort,omitempty"`
}

// NewPageRequest builds a normalized request from raw values, such as
// command-line flags.
func NewPageRequest(page, pageSize int, sort string, cfg Config) PageRequest {
	req := PageRequest{
		Page:     page,
		PageSize: pageSize,
		Sort:     query.ParseSortFields(sort),
	}
	req.Normalize(cfg)
	return req
}

// Normalize adjusts the request to ensure valid pagination values based on the config.
func (r *PageRequest) Normalize(cfg Config) {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	if r.PageSize > cfg.MaxPageSize {
		r.PageSize = cfg.MaxPageSize
	}
}

// Offset calculates the number of records to skip based on page and page size.
func (r *PageRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// PageResult holds a page of data along with pagination metadata.
type PageResult[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// NewPageResult creates a PageResult with calculated total pages.
func NewPageResult[T any](data []T, total, page, pageSize int) PageResult[T] {
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}
	if totalPages < 1 {
		totalPages = 1
	}

	if data == nil {
		data = []T{}
	}

	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
