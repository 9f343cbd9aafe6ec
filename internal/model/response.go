package model

// Pagination describes one page of a paginated list response.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes the page count for total records split into pages
// of limit records.
func NewPagination(total int64, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: pages,
	}
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// MessageResponse is the body of responses that only confirm an action.
type MessageResponse struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message"`
}
