// Package dedupe provides id idempotency tracking. The fusion engine uses it
// to guarantee event-id uniqueness inside a timeline and the HTTP layer uses
// it to make analysis submission idempotent.
package dedupe

import (
	"context"
	"sync"
)

// defaultMaxSize bounds the registry; oldest ids are evicted first.
const defaultMaxSize = 100000

// Registry records seen ids for at-most-once processing.
type Registry interface {
	// SeenAndRecord atomically checks whether id was seen and records it
	// if not. Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an id, allowing it to be retried. Intended for the
	// submit-then-enqueue-failed rollback path.
	Unrecord(ctx context.Context, id string)

	// Size returns the number of recorded ids.
	Size() int
}

// inMemoryRegistry implements Registry with a mutex-guarded set plus a FIFO
// ring of insertion order for bounded eviction.
type inMemoryRegistry struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	head    int
	maxSize int
}

// Option configures the registry.
type Option func(*inMemoryRegistry)

// WithMaxSize bounds the number of retained ids. Zero or negative keeps the
// default bound.
func WithMaxSize(n int) Option {
	return func(r *inMemoryRegistry) {
		if n > 0 {
			r.maxSize = n
		}
	}
}

// NewRegistry creates a bounded in-memory registry.
func NewRegistry(opts ...Option) Registry {
	r := &inMemoryRegistry{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(r)
	}
	r.seen = make(map[string]struct{}, r.maxSize)
	r.order = make([]string, 0, r.maxSize)
	return r
}

func (r *inMemoryRegistry) SeenAndRecord(_ context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[id]; ok {
		return true
	}

	if len(r.seen) >= r.maxSize {
		r.evictOldest()
	}
	r.seen[id] = struct{}{}
	r.order = append(r.order, id)
	return false
}

func (r *inMemoryRegistry) Unrecord(_ context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.seen, id)
	// The order ring keeps a dangling entry; eviction skips ids that are
	// no longer in the set.
}

func (r *inMemoryRegistry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

// evictOldest removes the oldest still-recorded id. Must hold r.mu.
func (r *inMemoryRegistry) evictOldest() {
	for r.head < len(r.order) {
		id := r.order[r.head]
		r.head++
		if _, ok := r.seen[id]; ok {
			delete(r.seen, id)
			break
		}
	}
	// Compact the ring once the dead prefix dominates.
	if r.head > len(r.order)/2 {
		r.order = append(r.order[:0], r.order[r.head:]...)
		r.head = 0
	}
}
