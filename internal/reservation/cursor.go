package reservation

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// Cursor is a keyset position in (created_at DESC, id DESC) order.
// A cursor without an ID selects every row created strictly before CreatedAt.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

type cursorPayload struct {
	CreatedAt int64  `json:"t"`
	ID        string `json:"id,omitempty"`
}

// Encode returns the opaque URL-safe form of the cursor.
func (c Cursor) Encode() string {
	b, _ := json.Marshal(cursorPayload{
		CreatedAt: c.CreatedAt.UnixMicro(),
		ID:        c.ID,
	})
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor parses a value produced by Cursor.Encode.
func DecodeCursor(s string) (Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	var p cursorPayload
	if err := json.Unmarshal(b, &p); err != nil || p.CreatedAt <= 0 {
		return Cursor{}, ErrInvalidCursor
	}

	return Cursor{
		CreatedAt: time.UnixMicro(p.CreatedAt).UTC(),
		ID:        p.ID,
	}, nil
}

// after reports whether a row at (createdAt, id) comes after the cursor in recency order.
func (c Cursor) after(createdAt time.Time, id string) bool {
	if createdAt.Before(c.CreatedAt) {
		return true
	}
	return c.ID != "" && createdAt.Equal(c.CreatedAt) && id < c.ID
}
