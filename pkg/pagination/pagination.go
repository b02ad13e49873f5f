package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 24
	// MaxLimit caps how many items any listing can request.
	MaxLimit = 100
)

// Params holds cursor pagination inputs from controllers.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points just past the last item of the previous page.
type Cursor struct {
	Offset int
	LastID string
}

// ErrStaleCursor means the listing changed under the cursor.
var ErrStaleCursor = fmt.Errorf("cursor no longer matches listing")

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// EncodeCursor builds an opaque cursor string.
func EncodeCursor(cursor Cursor) string {
	payload := fmt.Sprintf("%d|%s", cursor.Offset, cursor.LastID)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes the cursor string back into its components. A blank
// value means the first page.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("invalid cursor format")
	}

	offset, err := strconv.Atoi(parts[0])
	if err != nil || offset <= 0 {
		return nil, fmt.Errorf("invalid cursor offset")
	}
	return &Cursor{Offset: offset, LastID: parts[1]}, nil
}

// Page returns one page of items and the cursor for the next page, which is
// empty on the last page.
func Page[T any](items []T, params Params, idOf func(T) string) ([]T, string, error) {
	limit := NormalizeLimit(params.Limit)
	cursor, err := ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	start := 0
	if cursor != nil {
		if cursor.Offset > len(items) || idOf(items[cursor.Offset-1]) != cursor.LastID {
			return nil, "", ErrStaleCursor
		}
		start = cursor.Offset
	}

	end := start + limit
	if end >= len(items) {
		return items[start:], "", nil
	}
	page := items[start:end]
	next := EncodeCursor(Cursor{Offset: end, LastID: idOf(items[end-1])})
	return page, next, nil
}
