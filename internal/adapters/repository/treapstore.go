package repository

import (
	"context"
	"sync"
	"time"

	"github.com/courtsight/courtsight/internal/domain/model"
	"github.com/courtsight/courtsight/pkg/logger"
	"github.com/courtsight/courtsight/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Each analysis owns one treap ordered by (timestamp ASC, event id ASC), so
// in-order traversal yields the timeline in playback order and range queries
// prune whole subtrees. Priorities are derived from the event id, which keeps
// the tree shape deterministic for a given result set.

// treap node keyed by (timestamp, id).
type node struct {
	id    string
	ts    float64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aTS, aID) plays before (bTS, bID).
func less(aTS float64, aID string, bTS float64, bID string) bool {
	if aTS != bTS {
		return aTS < bTS
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// idPriority hashes an event id into a heap priority (FNV-1a). Random enough
// to keep the treap balanced in expectation, stable across rebuilds.
func idPriority(id string) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for i := 0; i < len(id); i++ {
		h ^= uint64(id[i])
		h *= prime
	}
	return h
}

func insert(n *node, id string, ts float64) *node {
	if n == nil {
		return &node{id: id, ts: ts, prio: idPriority(id), size: 1}
	}
	if less(ts, id, n.ts, n.id) {
		n.left = insert(n.left, id, ts)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, ts)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// collectAll appends every event in playback order.
func collectAll(n *node, byID map[string]model.GameEvent, out *[]model.GameEvent) {
	if n == nil {
		return
	}
	collectAll(n.left, byID, out)
	if ev, ok := byID[n.id]; ok {
		*out = append(*out, ev)
	}
	collectAll(n.right, byID, out)
}

// collectRange appends events with from <= timestamp <= to in playback order,
// pruning subtrees outside the window.
func collectRange(n *node, from, to float64, byID map[string]model.GameEvent, out *[]model.GameEvent) {
	if n == nil {
		return
	}
	if n.ts > from {
		collectRange(n.left, from, to, byID, out)
	}
	if n.ts >= from && n.ts <= to {
		if ev, ok := byID[n.id]; ok {
			*out = append(*out, ev)
		}
	}
	if n.ts < to {
		collectRange(n.right, from, to, byID, out)
	}
}

// timeline is the stored result for a single analysis.
type timeline struct {
	root  *node
	byID  map[string]model.GameEvent
	clips []model.HighlightClip
}

// TimelineStore implements Store with one treap per analysis.
type TimelineStore struct {
	log logger.Logger

	mu        sync.RWMutex
	timelines map[string]*timeline
	events    int
}

// NewTimelineStore constructs an empty in-memory store.
func NewTimelineStore(opts ...Option) *TimelineStore {
	s := &TimelineStore{
		log:       logger.Get().Named("repository"),
		timelines: make(map[string]*timeline),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PutResult implements Store.PutResult. The timeline is rebuilt from scratch,
// so re-running an analysis replaces the previous result atomically.
func (s *TimelineStore) PutResult(ctx context.Context, analysisID string, events []model.GameEvent, clips []model.HighlightClip) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryPutLatency(float64(time.Since(start).Milliseconds()))
	}()

	tl := &timeline{
		byID:  make(map[string]model.GameEvent, len(events)),
		clips: append([]model.HighlightClip(nil), clips...),
	}
	for _, ev := range events {
		if _, dup := tl.byID[ev.ID]; dup {
			// Event ids are unique inside a timeline; the fusion engine
			// guarantees this, so a duplicate here is a programming error
			// worth surfacing loudly in logs.
			s.log.Error(ctx, "duplicate event id in timeline",
				logger.String("analysisID", analysisID),
				logger.String("eventID", ev.ID))
			continue
		}
		tl.byID[ev.ID] = ev
		tl.root = insert(tl.root, ev.ID, ev.Timestamp)
	}

	s.mu.Lock()
	if old, ok := s.timelines[analysisID]; ok {
		s.events -= len(old.byID)
	}
	s.timelines[analysisID] = tl
	s.events += len(tl.byID)
	total, analyses := s.events, len(s.timelines)
	s.mu.Unlock()

	metrics.UpdateRepositoryEventsTotal(total)
	metrics.UpdateRepositoryAnalysesTotal(analyses)
	return nil
}

// Events implements Store.Events.
func (s *TimelineStore) Events(ctx context.Context, analysisID string) ([]model.GameEvent, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	tl, ok := s.timelines[analysisID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, ErrNotFound
	}

	out := make([]model.GameEvent, 0, len(tl.byID))
	collectAll(tl.root, tl.byID, &out)
	return out, nil
}

// EventsInRange implements Store.EventsInRange.
func (s *TimelineStore) EventsInRange(ctx context.Context, analysisID string, from, to float64) ([]model.GameEvent, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if from > to {
		metrics.RecordErrorByComponent("repository", "invalid_range")
		return nil, ErrInvalidRange
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tl, ok := s.timelines[analysisID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, ErrNotFound
	}

	out := make([]model.GameEvent, 0)
	collectRange(tl.root, from, to, tl.byID, &out)
	return out, nil
}

// Clips implements Store.Clips.
func (s *TimelineStore) Clips(ctx context.Context, analysisID string) ([]model.HighlightClip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tl, ok := s.timelines[analysisID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, ErrNotFound
	}
	return append([]model.HighlightClip(nil), tl.clips...), nil
}

// EventCount implements Store.EventCount.
func (s *TimelineStore) EventCount(ctx context.Context, analysisID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if tl, ok := s.timelines[analysisID]; ok {
		return len(tl.byID)
	}
	return 0
}

// Drop implements Store.Drop.
func (s *TimelineStore) Drop(ctx context.Context, analysisID string) {
	s.mu.Lock()
	if tl, ok := s.timelines[analysisID]; ok {
		s.events -= len(tl.byID)
		delete(s.timelines, analysisID)
	}
	total, analyses := s.events, len(s.timelines)
	s.mu.Unlock()

	metrics.UpdateRepositoryEventsTotal(total)
	metrics.UpdateRepositoryAnalysesTotal(analyses)
}
