// Package persistence contains helpers shared by store implementations.
package persistence

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tarushsinha/ATHOS/internal/domain"
)

const cursorSeparator = "|"

var errMalformedCursor = fmt.Errorf("%w: malformed cursor", domain.ErrValidation)

// EncodeCursor serialises the keyset position (start_ts, id) to a URL-safe token.
func EncodeCursor(c *domain.Cursor) string {
	if c == nil {
		return ""
	}
	raw := c.StartTS.UTC().Format(time.RFC3339Nano) + cursorSeparator + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor. An empty token is no cursor.
// Anything else that does not carry an RFC 3339 timestamp and a workout UUID is a
// validation error, so stores can bind both halves without further checks.
func DecodeCursor(token string) (*domain.Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, errMalformedCursor
	}
	rawTS, rawID, ok := strings.Cut(string(decoded), cursorSeparator)
	if !ok {
		return nil, errMalformedCursor
	}
	ts, err := time.Parse(time.RFC3339Nano, rawTS)
	if err != nil {
		return nil, errMalformedCursor
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, errMalformedCursor
	}
	return &domain.Cursor{StartTS: ts.UTC(), ID: id.String()}, nil
}
