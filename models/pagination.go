package models

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Pagination is a normalized page request.
type Pagination struct {
	Page  int
	Limit int
}

// NormalizePagination clamps page and limit into their allowed ranges.
func NormalizePagination(page, limit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// Skip returns the number of documents to skip for the page.
func (p Pagination) Skip() int64 {
	return int64((p.Page - 1) * p.Limit)
}

// Pages computes the page count for a total, never less than 1.
func (p Pagination) Pages(total int64) int64 {
	pages := (total + int64(p.Limit) - 1) / int64(p.Limit)
	if pages < 1 {
		pages = 1
	}
	return pages
}

// Paginated is the envelope returned by every listing operation.
type Paginated[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int64 `json:"pages"`
	Limit int   `json:"limit"`
}

// NewPaginated assembles the envelope, substituting an empty slice for nil
// data so JSON callers always see an array.
func NewPaginated[T any](data []T, total int64, p Pagination) Paginated[T] {
	if data == nil {
		data = []T{}
	}
	return Paginated[T]{
		Data:  data,
		Total: total,
		Page:  p.Page,
		Pages: p.Pages(total),
		Limit: p.Limit,
	}
}
