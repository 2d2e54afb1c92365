package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidToken is returned for tokens that were not produced by Encode.
var ErrInvalidToken = errors.New("invalid pagination token")

// Cursor is the opaque pagination state we encode/decode.
// ID + UnixMilli establish a stable position in a (time, id) ordering.
type Cursor struct {
	ID        string `json:"id"`
	UnixMilli int64  `json:"ts,omitempty"`
}

// At builds a cursor positioned at the given row.
func At(id string, ts time.Time) Cursor {
	return Cursor{ID: id, UnixMilli: ts.UnixMilli()}
}

// IsZero reports whether c is the start position.
func (c Cursor) IsZero() bool {
	return c.ID == "" && c.UnixMilli == 0
}

// Time returns the cursor timestamp in UTC.
func (c Cursor) Time() time.Time {
	return time.UnixMilli(c.UnixMilli).UTC()
}

// Encode converts a Cursor into a Base64 string.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// MustEncode is Encode for cursors built from known-good values.
func MustEncode(c Cursor) string {
	s, err := Encode(c)
	if err != nil {
		panic(err)
	}
	return s
}

// Decode parses a Base64 string into a Cursor.
// Empty token → empty cursor (first page).
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidToken
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, ErrInvalidToken
	}
	return c, nil
}
