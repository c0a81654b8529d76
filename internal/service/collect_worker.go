package service

import (
	"context"
	"log"
	"time"
)

// CollectWorker runs the collection pipeline on a fixed interval. Ticks
// run synchronously in the worker loop, so two runs can never overlap.
type CollectWorker struct {
	pipeline *Pipeline
	interval time.Duration
	stopCh   chan struct{}
}

// NewCollectWorker creates a worker that ticks every interval.
func NewCollectWorker(pipeline *Pipeline, interval time.Duration) *CollectWorker {
	return &CollectWorker{
		pipeline: pipeline,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic collection loop. It runs one tick immediately,
// then every interval.
func (w *CollectWorker) Start(ctx context.Context) {
	log.Printf("collect-worker: starting (interval=%s)", w.interval)

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			log.Println("collect-worker: stopping (context cancelled)")
			return
		case <-w.stopCh:
			log.Println("collect-worker: stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *CollectWorker) Stop() {
	close(w.stopCh)
}

// tick runs one collection run. Failures are logged, never fatal: the
// next tick gets a fresh attempt.
func (w *CollectWorker) tick(ctx context.Context) {
	start := time.Now()

	run, err := w.pipeline.Run(ctx)
	if err != nil {
		log.Printf("collect-worker: run error: %v", err)
		return
	}

	log.Printf("collect-worker: tick complete: run %s %s (%s)",
		run.RunID, run.Status, time.Since(start).Round(time.Millisecond))
}
