package openai

import "sync"

// keyRing hands out API keys round-robin. Safe for concurrent use.
type keyRing struct {
	mu   sync.Mutex
	keys []string
	next int
}

func newKeyRing(keys []string) *keyRing {
	var kept []string
	for _, k := range keys {
		if k != "" {
			kept = append(kept, k)
		}
	}
	return &keyRing{keys: kept}
}

// Next returns the index of the key to use for the next call.
func (r *keyRing) Next() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.next
	r.next = (r.next + 1) % len(r.keys)
	return i
}

// Len returns the number of usable keys.
func (r *keyRing) Len() int {
	return len(r.keys)
}
