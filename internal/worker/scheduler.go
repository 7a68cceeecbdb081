package worker

import (
	"context"
	"log"
	"sync"

	"housingsweep/internal/service/history"
	"housingsweep/internal/service/seen"

	"github.com/benbjohnson/clock"
)

// Snapshotter saves the changed zones of a store
type Snapshotter interface {
	Save(ctx context.Context, store *seen.Store) (int, error)
}

// Deps are the collaborators of the background workers. A nil Snapshotter or
// Sink leaves the corresponding worker stopped.
type Deps struct {
	Clock       clock.Clock
	Store       *seen.Store
	Snapshotter Snapshotter
	Recorder    *history.Recorder
	Sink        history.Sink
}

// StartAllWorkers initializes and starts all background workers. The returned
// group is done once every worker ran its final pass after ctx is cancelled.
func StartAllWorkers(ctx context.Context, deps Deps) *sync.WaitGroup {
	log.Println("Starting all workers...")

	if deps.Clock == nil {
		deps.Clock = clock.New()
	}

	var wg sync.WaitGroup
	if deps.Snapshotter != nil {
		StartSnapshotWorker(ctx, &wg, deps.Clock, deps.Snapshotter, deps.Store)
	}
	if deps.Sink != nil && deps.Recorder != nil {
		StartHistoryWorker(ctx, &wg, deps.Clock, deps.Recorder, deps.Sink)
	}

	log.Println("All workers started")
	return &wg
}

// runEvery calls fn on every tick until ctx is done, then once more
func runEvery(ctx context.Context, wg *sync.WaitGroup, ticker *clock.Ticker, fn func(context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				// final pass with a fresh context so pending changes are not lost
				fn(context.Background())
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}
