package response

// PageResponse is the standard wrapper for offset-paginated list endpoints.
type PageResponse[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// NewPageResponse is a helper to quickly create a response
func NewPageResponse[T any](items []T, page, pageSize, total int) PageResponse[T] {
	// Handle empty slice to avoid JSON outputting null
	if items == nil {
		items = make([]T, 0)
	}

	return PageResponse[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}
}

// CursorPagination describes where a keyset page sits in the full result.
type CursorPagination struct {
	CurrentPage int    `json:"current_page"`
	TotalPages  int    `json:"total_pages"`
	MaxPageSize int    `json:"max_page_size"`
	HasNextPage bool   `json:"has_next_page"`
	NextCursor  string `json:"next_cursor,omitempty"`
	NextPage    string `json:"next_page,omitempty"`
}

// CursorPageResponse is the wrapper for keyset-paginated list endpoints.
type CursorPageResponse[T any] struct {
	Items      []T              `json:"items"`
	Pagination CursorPagination `json:"pagination"`
}

func NewCursorPageResponse[T any](items []T, pagination CursorPagination) CursorPageResponse[T] {
	if items == nil {
		items = make([]T, 0)
	}
	return CursorPageResponse[T]{
		Items:      items,
		Pagination: pagination,
	}
}
