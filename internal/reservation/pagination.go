package reservation

import (
	"context"
	"fmt"
)

// Pagination locates a keyset page within the full filtered result.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	PageSize    int
	HasNextPage bool
	NextCursor  *Cursor
}

// Counter counts reservations matching a filter.
type Counter interface {
	Count(ctx context.Context, f Filter) (int, error)
}

// PaginationCounter derives page numbers for keyset pages from two counts.
type PaginationCounter struct {
	counter Counter
}

func NewPaginationCounter(counter Counter) *PaginationCounter {
	return &PaginationCounter{counter: counter}
}

// Compute returns the pagination for a page that ended at last.
// base must not carry a cursor; last is nil when the page was empty.
func (p *PaginationCounter) Compute(ctx context.Context, base Filter, last *Reservation, limit int) (Pagination, error) {
	if last == nil {
		return Pagination{PageSize: limit}, nil
	}

	base.Before = nil
	base.Limit = 0
	base.ForUpdate = false

	total, err := p.counter.Count(ctx, base)
	if err != nil {
		return Pagination{}, fmt.Errorf("count reservations failed: %w", err)
	}

	cursor := last.Cursor()
	rest := base
	rest.Before = &cursor
	remaining, err := p.counter.Count(ctx, rest)
	if err != nil {
		return Pagination{}, fmt.Errorf("count remaining reservations failed: %w", err)
	}

	current, totalPages := pageNumbers(total, remaining, limit)
	pg := Pagination{
		CurrentPage: current,
		TotalPages:  totalPages,
		PageSize:    limit,
		HasNextPage: remaining > 0,
	}
	if pg.HasNextPage {
		pg.NextCursor = &cursor
	}
	return pg, nil
}

// pageNumbers returns (current page, total pages) given the total row count and
// the number of rows remaining after the current page.
func pageNumbers(total, remaining, limit int) (int, int) {
	if total <= 0 || limit <= 0 {
		return 0, 0
	}
	totalPages := ceilDiv(total, limit)
	return totalPages - ceilDiv(remaining, limit), totalPages
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
