package transport

import lru "github.com/hashicorp/golang-lru/v2"

// Dedupe is a bounded cache of recently-seen gossip message ids, used by
// both transport implementations to make SubmitTransaction (and any other
// message) re-delivery idempotent: a peer that re-broadcasts a message this
// node already applied must not cause it to be re-delivered.
type Dedupe struct {
	cache *lru.Cache[string, struct{}]
}

// NewDedupe builds a dedupe cache holding up to size recent message ids.
func NewDedupe(size int) *Dedupe {
	cache, err := lru.New[string, struct{}](size)
	if err != nil {
		// Only returns an error for size <= 0.
		panic(err)
	}
	return &Dedupe{cache: cache}
}

// SeenBefore reports whether id was already recorded, recording it if not.
func (d *Dedupe) SeenBefore(id string) bool {
	if _, ok := d.cache.Get(id); ok {
		return true
	}
	d.cache.Add(id, struct{}{})
	return false
}
