package driven

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKey(t *testing.T) {
	base := CacheKey("standardize", 1, "text", map[string]string{"lang": "en"})

	assert.Len(t, base, 64)
	assert.Equal(t, base, CacheKey("standardize", 1, "text", map[string]string{"lang": "en"}))
	assert.NotEqual(t, base, CacheKey("standardize", 2, "text", map[string]string{"lang": "en"}))
	assert.NotEqual(t, base, CacheKey("generate", 1, "text", map[string]string{"lang": "en"}))
	assert.NotEqual(t, base, CacheKey("standardize", 1, "other", map[string]string{"lang": "en"}))
	assert.NotEqual(t, CacheKey("op", 1, "ab", "c"), CacheKey("op", 1, "a", "bc"))
}

func TestCacheKey_UnencodableArg(t *testing.T) {
	ch := make(chan int)
	assert.Equal(t, CacheKey("op", 1, ch), CacheKey("op", 1, ch))
}
