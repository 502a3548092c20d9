package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateETag(t *testing.T) {
	a := GenerateETag(map[string]int{"a": 1})
	assert.Equal(t, a, GenerateETag(map[string]int{"a": 1}))
	assert.NotEqual(t, a, GenerateETag(map[string]int{"a": 2}))
	assert.Equal(t, GenerateETag("x"), GenerateETag([]byte("x")))
	assert.Len(t, a, 42)
	assert.Equal(t, byte('"'), a[0])
}

func TestMatchesETag(t *testing.T) {
	etag := GenerateETag("movie")

	assert.True(t, MatchesETag(etag, etag))
	assert.True(t, MatchesETag(`"other", `+etag, etag))
	assert.True(t, MatchesETag("W/"+etag, etag))
	assert.True(t, MatchesETag("*", etag))
	assert.False(t, MatchesETag(`"other"`, etag))
	assert.False(t, MatchesETag("", etag))
}
