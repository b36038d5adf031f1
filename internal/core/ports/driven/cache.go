package driven

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultCacheTTL applies when an entry is stored without a positive TTL.
const DefaultCacheTTL = time.Hour

// Cache stores LLM responses under derived keys.
// Callers decide per call whether to read from it; writes always happen.
type Cache interface {
	// Get returns the cached value and whether it was present and unexpired.
	Get(key string) (string, bool)

	// Put stores value under key for ttl.
	Put(key, value string, ttl time.Duration)
}

// CacheKey derives a cache key for an operation. Bumping version
// invalidates every entry the operation wrote before.
func CacheKey(operation string, version int, args ...any) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s@v%d", operation, version)
	for _, arg := range args {
		h.Write([]byte{0})
		b, err := json.Marshal(arg)
		if err != nil {
			// Unencodable args still need a stable, distinct key.
			fmt.Fprintf(h, "%#v", arg)
			continue
		}
		h.Write(b)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
