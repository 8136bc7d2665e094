// Package common holds the small shared types that cross layer boundaries:
// entity identifiers and the page window of list queries.
package common

import "github.com/google/uuid"

// Pagination bounds applied by Normalize.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NewID returns a fresh UUID string for a new entity.
func NewID() string {
	return uuid.New().String()
}

// Pagination is the page window of a list query.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Normalize clamps the window: the first page when Page is unset,
// DefaultPageSize when the size is unset, MaxPageSize when it is larger.
func (p Pagination) Normalize() Pagination {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the row offset of the window for SQL queries.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TotalPages returns how many pages of the given size cover total rows.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
