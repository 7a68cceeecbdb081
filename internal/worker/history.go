package worker

import (
	"context"
	"log"
	"sync"

	"housingsweep/internal/config"
	"housingsweep/internal/service/history"

	"github.com/benbjohnson/clock"
)

// StartHistoryWorker starts the worker that flushes recorded observations to PostgreSQL
func StartHistoryWorker(ctx context.Context, wg *sync.WaitGroup, clk clock.Clock, recorder *history.Recorder, sink history.Sink) {
	ticker := clk.Ticker(config.HistoryFlushInterval)
	runEvery(ctx, wg, ticker, func(context.Context) {
		if err := recorder.Flush(sink); err != nil {
			log.Printf("Error saving to PostgreSQL: %v", err)
		}
	})

	log.Println("History worker started with interval:", config.HistoryFlushInterval)
}
