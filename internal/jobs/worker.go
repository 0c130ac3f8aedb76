package jobs

import (
	"context"
	"log"
	"sync"
	"time"
)

// JobProcessor defines the interface for processing jobs
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker polls a JobProcessor on a fixed interval until stopped
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
	stopOnce     sync.Once
}

// NewWorker creates a new Worker instance. A non-positive interval polls
// every 10 seconds.
func NewWorker(processor JobProcessor, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start runs one pass immediately, then one per poll interval. It blocks
// until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("index worker started with poll interval: %v", w.pollInterval)
	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("index worker stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Println("index worker stopped: stop signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	if err := w.processor.ProcessJobs(ctx); err != nil {
		log.Printf("index worker: error processing jobs: %v", err)
	}
}

// Stop signals the loop to exit and waits for the current pass to finish.
// It is safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
	<-w.doneChan
	log.Println("index worker shutdown complete")
}
