package worker

import (
	"context"
	"log"
	"sync"

	"housingsweep/internal/config"
	"housingsweep/internal/service/seen"

	"github.com/benbjohnson/clock"
)

// StartSnapshotWorker starts the worker that mirrors changed zones to Redis
func StartSnapshotWorker(ctx context.Context, wg *sync.WaitGroup, clk clock.Clock, snap Snapshotter, store *seen.Store) {
	ticker := clk.Ticker(config.SnapshotInterval)
	runEvery(ctx, wg, ticker, func(ctx context.Context) {
		if _, err := snap.Save(ctx, store); err != nil {
			log.Printf("Error saving to Redis: %v", err)
		}
	})

	log.Println("Snapshot worker started with interval:", config.SnapshotInterval)
}
