package reservation

import (
	"fmt"
	"time"

	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(apperror.KindNotFound, "reservation not found")
	ErrResourceNotFound   = apperror.New(apperror.KindNotFound, "resource not found")
	ErrInvalidTimeRange   = apperror.New(apperror.KindValidation, "start time must be before end time")
	ErrStartTimePast      = apperror.New(apperror.KindValidation, "cannot create reservation in the past")
	ErrReservationStarted = apperror.New(apperror.KindValidation, "cannot modify a reservation after it has started")
	ErrEmptyUpdate        = apperror.New(apperror.KindValidation, "at least one field must be provided")
	ErrInvalidCursor      = apperror.New(apperror.KindValidation, "invalid cursor")
	ErrTimeConflict       = apperror.New(apperror.KindConflict, "time slot already booked")
)

// Reservation occupies one resource for the half-open interval [StartTime, EndTime).
type Reservation struct {
	ID           string
	ResourceID   string
	ResourceName string // Populated from JOIN
	UserID       string
	StartTime    time.Time
	EndTime      time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r *Reservation) Window() Window {
	return Window{Start: r.StartTime, End: r.EndTime}
}

// Cursor returns the keyset position directly after r in recency order.
func (r *Reservation) Cursor() Cursor {
	return Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
}

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the window is non-empty.
func (w Window) Valid() bool {
	return w.Start.Before(w.End)
}

// Overlaps reports whether two windows share any instant.
// Windows that only touch at an endpoint do not overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// ConflictError reports the existing reservation window that a write collided with.
type ConflictError struct {
	ReservationID string
	Window        Window
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("parking spot is already booked from %s to %s",
		e.Window.Start.UTC().Format(time.RFC3339), e.Window.End.UTC().Format(time.RFC3339))
}

func (e *ConflictError) ErrorKind() apperror.Kind {
	return apperror.KindConflict
}

func (e *ConflictError) Unwrap() error {
	return ErrTimeConflict
}

// Filter selects reservations. Zero values mean "no constraint".
type Filter struct {
	ID         string
	OwnerID    string
	ResourceID string

	// Before restricts results to rows strictly after the cursor in recency order.
	Before *Cursor

	Limit     int
	ForUpdate bool
}

// normalizeTime drops the monotonic reading and sub-microsecond precision,
// matching what the stores can represent.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
