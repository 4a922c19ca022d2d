package reservation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageNumbers(t *testing.T) {
	tests := []struct {
		total, remaining, limit int
		wantCurrent, wantTotal  int
	}{
		{0, 0, 5, 0, 0},
		{11, 6, 5, 1, 3},
		{11, 1, 5, 2, 3},
		{11, 0, 5, 3, 3},
		{10, 5, 5, 1, 2},
		{10, 0, 5, 2, 2},
		{3, 0, 5, 1, 1},
		{1, 0, 1, 1, 1},
		{7, 4, 2, 2, 4},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d/%d", tt.total, tt.remaining, tt.limit), func(t *testing.T) {
			current, totalPages := pageNumbers(tt.total, tt.remaining, tt.limit)
			assert.Equal(t, tt.wantCurrent, current)
			assert.Equal(t, tt.wantTotal, totalPages)
		})
	}
}

// sliceCounter counts an in-memory result set in (created_at DESC, id DESC) order.
type sliceCounter struct {
	rows  []*Reservation
	calls int
}

func (s *sliceCounter) Count(ctx context.Context, f Filter) (int, error) {
	s.calls++
	n := 0
	for _, r := range s.rows {
		if f.OwnerID != "" && r.UserID != f.OwnerID {
			continue
		}
		if f.Before != nil && !f.Before.after(r.CreatedAt, r.ID) {
			continue
		}
		n++
	}
	return n, nil
}

func newRows(n int) []*Reservation {
	created := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]*Reservation, n)
	for i := 0; i < n; i++ {
		// newest first
		rows[i] = &Reservation{
			ID:        fmt.Sprintf("r%02d", n-i),
			UserID:    "u1",
			CreatedAt: created.Add(time.Duration(n-i) * time.Second),
		}
	}
	return rows
}

func TestPaginationCounterWalk(t *testing.T) {
	rows := newRows(11)
	pc := NewPaginationCounter(&sliceCounter{rows: rows})
	ctx := context.Background()

	want := []struct {
		lastIdx int
		current int
		hasNext bool
	}{
		{4, 1, true},
		{9, 2, true},
		{10, 3, false},
	}

	for _, w := range want {
		pg, err := pc.Compute(ctx, Filter{OwnerID: "u1"}, rows[w.lastIdx], 5)
		require.NoError(t, err)
		assert.Equal(t, w.current, pg.CurrentPage)
		assert.Equal(t, 3, pg.TotalPages)
		assert.Equal(t, 5, pg.PageSize)
		assert.Equal(t, w.hasNext, pg.HasNextPage)
		if w.hasNext {
			require.NotNil(t, pg.NextCursor)
			assert.Equal(t, rows[w.lastIdx].ID, pg.NextCursor.ID)
		} else {
			assert.Nil(t, pg.NextCursor)
		}
	}
}

func TestPaginationCounterEmptyPage(t *testing.T) {
	counter := &sliceCounter{rows: newRows(3)}
	pg, err := NewPaginationCounter(counter).Compute(context.Background(), Filter{}, nil, 5)
	require.NoError(t, err)

	assert.Equal(t, Pagination{PageSize: 5}, pg)
	assert.Zero(t, counter.calls, "an empty page needs no counts")
}

func TestPaginationCounterIgnoresBaseCursor(t *testing.T) {
	rows := newRows(4)
	c := rows[0].Cursor()
	pg, err := NewPaginationCounter(&sliceCounter{rows: rows}).
		Compute(context.Background(), Filter{Before: &c, Limit: 2}, rows[1], 2)
	require.NoError(t, err)

	assert.Equal(t, 1, pg.CurrentPage)
	assert.Equal(t, 2, pg.TotalPages)
}
