// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
)

// --- List Request ---

// ListQuery contains common list parameters.
type ListQuery struct {
	Search  string `form:"search"`
	OrderBy string `form:"orderBy"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset  int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts to the domain filter with paging defaults applied.
// An empty OrderBy leaves the repository's default order.
func (q ListQuery) ToFilter() domain.ListFilter {
	return domain.ListFilter{
		Search:  q.Search,
		OrderBy: q.OrderBy,
		Limit:   q.Limit,
		Offset:  q.Offset,
	}.Normalize()
}

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// FromListResult maps every item of a domain page.
func FromListResult[E any, T any](r domain.ListResult[E], mapFn func(E) T) ListResponse[T] {
	items := make([]T, len(r.Items))
	for i, e := range r.Items {
		items[i] = mapFn(e)
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: r.TotalCount,
		Limit:      r.Limit,
		Offset:     r.Offset,
	}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}
