// Package pagination provides token-based paging for list endpoints.
package pagination

import (
	"encoding/base64"
	"strconv"
)

const DefaultPageSize = 50

type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	TotalCount    int64  `json:"total_count,omitempty"`
}

// EncodeToken encodes the last seen numeric ID as an opaque cursor.
func EncodeToken(lastID int64) string {
	return base64.URLEncoding.EncodeToString([]byte(strconv.FormatInt(lastID, 10)))
}

// DecodeToken returns the cursor's numeric ID; an empty or malformed token
// decodes to zero, which callers treat as "from the beginning".
func DecodeToken(token string) int64 {
	if token == "" {
		return 0
	}
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// Limit clamps a requested page size to a sane window.
func Limit(requested int32) int {
	if requested <= 0 {
		return DefaultPageSize
	}
	if requested > 200 {
		return 200
	}
	return int(requested)
}
