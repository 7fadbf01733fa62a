package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/courtsight/courtsight/internal/adapters/mq/queue"
	"github.com/courtsight/courtsight/internal/adapters/mq/worker"
	"github.com/courtsight/courtsight/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeEnricher struct {
	block bool
}

func (e *fakeEnricher) Enrich(ctx context.Context, b *model.DetectionBundle) error {
	if e.block {
		<-ctx.Done()
		return ctx.Err()
	}
	for i := range b.Frames {
		for j := range b.Frames[i].Detections {
			b.Frames[i].Detections[j].TeamID = model.TeamA
		}
	}
	return nil
}

// fakeFuser hangs on bundles with frames when slow is set, and tags its
// output so tests can tell the full path from the fallback path apart.
type fakeFuser struct {
	slow bool

	mu   sync.Mutex
	seen []model.DetectionBundle
}

func (f *fakeFuser) Fuse(ctx context.Context, b model.DetectionBundle) []model.GameEvent {
	f.mu.Lock()
	f.seen = append(f.seen, b)
	f.mu.Unlock()

	if f.slow && len(b.Frames) > 0 {
		<-ctx.Done()
		return nil
	}

	id := "full"
	if len(b.Frames) == 0 {
		id = "fallback"
	}
	return []model.GameEvent{{
		ID: id, Type: model.EventShotAttempt, TeamID: model.TeamA,
		Timestamp: 10, Confidence: 0.6, Source: model.SourceFallback,
	}}
}

func (f *fakeFuser) lastSeen() model.DetectionBundle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[0]
}

type fakeClipper struct{}

func (fakeClipper) Clips(_ context.Context, events []model.GameEvent, _ float64) []model.HighlightClip {
	clips := make([]model.HighlightClip, 0, len(events))
	for _, ev := range events {
		clips = append(clips, model.HighlightClip{ID: "clip-" + ev.ID, EventID: ev.ID})
	}
	return clips
}

type fakeSink struct {
	err error

	mu     sync.Mutex
	events []model.GameEvent
	clips  []model.HighlightClip
	done   chan struct{}
}

func newFakeSink(err error) *fakeSink {
	return &fakeSink{err: err, done: make(chan struct{})}
}

func (s *fakeSink) PutResult(_ context.Context, _ string, events []model.GameEvent, clips []model.HighlightClip) error {
	s.mu.Lock()
	s.events = events
	s.clips = clips
	s.mu.Unlock()
	close(s.done)
	return s.err
}

type fakeReporter struct {
	mu       sync.Mutex
	started  []string
	finished map[string]error
}

func newFakeReporter() *fakeReporter {
	return &fakeReporter{finished: make(map[string]error)}
}

func (r *fakeReporter) AnalysisStarted(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, id)
}

func (r *fakeReporter) AnalysisFinished(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished[id] = err
}

func bundleWithFrames() model.DetectionBundle {
	return model.DetectionBundle{
		Frames: []model.FrameDetectionSet{{
			FrameIndex: 0,
			Timestamp:  1,
			Detections: []model.PersonDetection{{BBox: model.BBox{X: 10, Y: 10, W: 40, H: 80}, Confidence: 0.9}},
		}},
		Duration:  120,
		FrameRate: 2,
	}
}

// runJob pushes one job through a fresh worker and waits for the sink.
func runJob(t *testing.T, w *worker.InMemoryWorker, q *queue.InMemoryQueue, sink *fakeSink, j queue.Job) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Run(ctx)
	if !q.Enqueue(ctx, j) {
		t.Fatal("enqueue failed")
	}

	select {
	case <-sink.done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not finish the job")
	}
}

func TestWorker(t *testing.T) {
	Convey("Given a healthy pipeline", t, func() {
		q := queue.NewInMemoryQueue()
		fuser := &fakeFuser{}
		sink := newFakeSink(nil)
		reporter := newFakeReporter()
		w := worker.NewInMemoryWorker(q, &fakeEnricher{}, fuser, fakeClipper{}, sink,
			worker.WithReporter(reporter))

		runJob(t, w, q, sink, queue.Job{AnalysisID: "game-1", Bundle: bundleWithFrames()})

		Convey("Then the enriched bundle reaches fusion", func() {
			So(fuser.lastSeen().Frames[0].Detections[0].TeamID, ShouldEqual, model.TeamA)
		})

		Convey("Then events and clips land in the sink", func() {
			So(len(sink.events), ShouldEqual, 1)
			So(sink.events[0].ID, ShouldEqual, "full")
			So(len(sink.clips), ShouldEqual, 1)
			So(sink.clips[0].EventID, ShouldEqual, "full")
		})

		Convey("Then the lifecycle is reported without error", func() {
			So(reporter.started, ShouldResemble, []string{"game-1"})
			So(reporter.finished["game-1"], ShouldBeNil)
		})
	})

	Convey("Given an enricher that never finishes", t, func() {
		q := queue.NewInMemoryQueue()
		fuser := &fakeFuser{}
		sink := newFakeSink(nil)
		w := worker.NewInMemoryWorker(q, &fakeEnricher{block: true}, fuser, fakeClipper{}, sink,
			worker.WithStageTimeouts(50*time.Millisecond, 0))

		runJob(t, w, q, sink, queue.Job{AnalysisID: "game-1", Bundle: bundleWithFrames()})

		Convey("Then fusion runs on the unattributed bundle", func() {
			So(fuser.lastSeen().Frames[0].Detections[0].TeamID, ShouldBeEmpty)
			So(sink.events[0].ID, ShouldEqual, "full")
		})
	})

	Convey("Given a fuser that never finishes", t, func() {
		q := queue.NewInMemoryQueue()
		fuser := &fakeFuser{slow: true}
		sink := newFakeSink(nil)
		w := worker.NewInMemoryWorker(q, &fakeEnricher{}, fuser, fakeClipper{}, sink,
			worker.WithStageTimeouts(0, 50*time.Millisecond))

		runJob(t, w, q, sink, queue.Job{AnalysisID: "game-1", Bundle: bundleWithFrames()})

		Convey("Then the timeline degrades to the fallback path", func() {
			So(len(sink.events), ShouldEqual, 1)
			So(sink.events[0].ID, ShouldEqual, "fallback")
		})
	})

	Convey("Given a failing sink", t, func() {
		q := queue.NewInMemoryQueue()
		sinkErr := errors.New("store unavailable")
		sink := newFakeSink(sinkErr)
		reporter := newFakeReporter()
		w := worker.NewInMemoryWorker(q, &fakeEnricher{}, &fakeFuser{}, fakeClipper{}, sink,
			worker.WithReporter(reporter))

		runJob(t, w, q, sink, queue.Job{AnalysisID: "game-1", Bundle: bundleWithFrames()})

		Convey("Then the failure is reported against the analysis", func() {
			// The reporter is notified after the sink returns.
			deadline := time.After(time.Second)
			for {
				reporter.mu.Lock()
				err, ok := reporter.finished["game-1"]
				reporter.mu.Unlock()
				if ok {
					So(errors.Is(err, sinkErr), ShouldBeTrue)
					break
				}
				select {
				case <-deadline:
					t.Fatal("analysis failure was not reported")
				default:
					time.Sleep(5 * time.Millisecond)
				}
			}
		})
	})

	Convey("Given a worker asked to shut down", t, func() {
		q := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(q, &fakeEnricher{}, &fakeFuser{}, fakeClipper{}, newFakeSink(nil))

		ctx := context.Background()
		go w.Run(ctx)

		Convey("Then shutdown completes promptly", func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			So(w.Shutdown(shutdownCtx), ShouldBeNil)
		})
	})
}
