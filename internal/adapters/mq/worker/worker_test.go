package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/kpiboard/internal/adapters/mq/queue"
	"github.com/okian/kpiboard/internal/adapters/mq/worker"
	"github.com/okian/kpiboard/internal/domain/model"
	logging "github.com/okian/kpiboard/pkg/logger"
)

type mockQueue struct {
	jobs chan queue.Job
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

type mockRefresher struct {
	mu    sync.Mutex
	seen  []string
	fail  map[string]error
	delay time.Duration
}

func (mr *mockRefresher) Refresh(ctx context.Context, job queue.Job) error {
	if mr.delay > 0 {
		select {
		case <-time.After(mr.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.seen = append(mr.seen, job.ID)
	return mr.fail[job.ID]
}

func (mr *mockRefresher) processed() []string {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return append([]string(nil), mr.seen...)
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		q := newMockQueue()
		r := &mockRefresher{fail: map[string]error{"bad": errors.New("source down")}}
		w := worker.NewInMemoryWorker(q, r,
			worker.WithName("test-worker"),
			worker.WithLogger(logging.Get()),
			worker.WithJobTimeout(time.Second),
		)

		ctx, cancel := context.WithCancel(context.Background())
		convey.Reset(cancel)
		go w.Run(ctx)

		convey.Convey("Jobs run in order and a failure does not stop the loop", func() {
			for _, id := range []string{"a", "bad", "b"} {
				q.jobs <- model.RefreshJob{ID: id, Trigger: model.TriggerManual, RequestedAt: time.Now()}
			}
			convey.So(func() bool {
				deadline := time.Now().Add(2 * time.Second)
				for time.Now().Before(deadline) {
					if len(r.processed()) == 3 {
						return true
					}
					time.Sleep(5 * time.Millisecond)
				}
				return false
			}(), convey.ShouldBeTrue)
			convey.So(r.processed(), convey.ShouldResemble, []string{"a", "bad", "b"})

			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
		})

		convey.Convey("Closing the queue ends the loop", func() {
			close(q.jobs)
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()
			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
		})

		convey.Convey("Shutdown is safe to call twice", func() {
			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a refresh that outlives the job timeout", t, func() {
		q := newMockQueue()
		r := &mockRefresher{delay: time.Second}
		w := worker.NewInMemoryWorker(q, r, worker.WithJobTimeout(20*time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		q.jobs <- model.RefreshJob{ID: "slow"}
		time.Sleep(100 * time.Millisecond)

		convey.So(r.processed(), convey.ShouldBeEmpty)
		convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
	})
}
