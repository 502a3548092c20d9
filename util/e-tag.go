package util

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// GenerateETag returns a strong, quoted entity tag for content.
// []byte and string are hashed as is; other values are hashed as their JSON
// encoding, falling back to their %v form.
func GenerateETag(content any) string {
	var data []byte
	var err error

	switch v := content.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		data, err = json.Marshal(content)
		if err != nil {
			data = fmt.Appendf(nil, "%v", content)
		}
	}

	hash := sha1.Sum(data)
	return `"` + hex.EncodeToString(hash[:]) + `"`
}

// MatchesETag reports whether an If-None-Match header value names etag.
// Weak validators and the "*" wildcard match.
func MatchesETag(ifNoneMatch, etag string) bool {
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
