package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/courtsight/courtsight/internal/adapters/mq/queue"
	"github.com/courtsight/courtsight/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func job(id string) queue.Job {
	return queue.Job{AnalysisID: id, Bundle: model.DetectionBundle{Duration: 120}}
}

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given an open queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		Convey("When jobs are enqueued within capacity", func() {
			So(q.Enqueue(ctx, job("a")), ShouldBeTrue)
			So(q.Enqueue(ctx, job("b")), ShouldBeTrue)

			Convey("Then Len reflects the backlog", func() {
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("Then a further enqueue is rejected when full", func() {
				So(q.Enqueue(ctx, job("c")), ShouldBeFalse)
			})

			Convey("Then dequeue yields jobs in order", func() {
				jobs := q.Dequeue(ctx)
				first := <-jobs
				second := <-jobs
				So(first.AnalysisID, ShouldEqual, "a")
				So(second.AnalysisID, ShouldEqual, "b")
			})
		})
	})

	Convey("Given a closed queue", t, func() {
		q := queue.NewInMemoryQueue()
		So(q.Enqueue(ctx, job("before")), ShouldBeTrue)
		So(q.Close(), ShouldBeNil)

		Convey("Then it reports closed and rejects new jobs", func() {
			So(q.IsClosed(), ShouldBeTrue)
			So(q.Enqueue(ctx, job("after")), ShouldBeFalse)
		})

		Convey("Then pending jobs drain before the channel closes", func() {
			jobs := q.Dequeue(ctx)
			j, ok := <-jobs
			So(ok, ShouldBeTrue)
			So(j.AnalysisID, ShouldEqual, "before")

			_, ok = <-jobs
			So(ok, ShouldBeFalse)
		})

		Convey("Then closing again is a no-op", func() {
			So(q.Close(), ShouldBeNil)
		})
	})

	Convey("Given a cancelled consumer context", t, func() {
		q := queue.NewInMemoryQueue()
		consumerCtx, cancel := context.WithCancel(ctx)
		jobs := q.Dequeue(consumerCtx)
		cancel()

		Convey("Then the dequeue channel closes without delivering", func() {
			So(q.Enqueue(ctx, job("late")), ShouldBeTrue)
			// Let the consumer goroutine observe the cancellation.
			time.Sleep(100 * time.Millisecond)
			select {
			case _, ok := <-jobs:
				So(ok, ShouldBeFalse)
			case <-time.After(time.Second):
				t.Fatal("dequeue channel did not close")
			}
		})
	})
}
