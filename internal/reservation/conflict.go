package reservation

import (
	"context"
	"fmt"
)

// OverlapQuerier lists the reservations of a resource whose windows intersect w.
type OverlapQuerier interface {
	Overlapping(ctx context.Context, resourceID string, w Window, excludeID string) ([]*Reservation, error)
}

// FindConflict returns the earliest reservation on resourceID that overlaps w,
// ignoring excludeID, or nil when the window is free.
func FindConflict(ctx context.Context, q OverlapQuerier, resourceID string, w Window, excludeID string) (*Reservation, error) {
	candidates, err := q.Overlapping(ctx, resourceID, w, excludeID)
	if err != nil {
		return nil, fmt.Errorf("query overlapping reservations failed: %w", err)
	}

	for _, c := range candidates {
		if c.ID == excludeID || c.ResourceID != resourceID {
			continue
		}
		if c.Window().Overlaps(w) {
			return c, nil
		}
	}
	return nil, nil
}

// HasConflict reports whether any reservation on resourceID other than excludeID overlaps w.
func HasConflict(ctx context.Context, q OverlapQuerier, resourceID string, w Window, excludeID string) (bool, error) {
	c, err := FindConflict(ctx, q, resourceID, w, excludeID)
	if err != nil {
		return false, err
	}
	return c != nil, nil
}
