// Package worker provides an asynchronous worker pool that persists completed
// screens using the provided storage.Driver and then publishes a
// screens.screen.persisted event through the configured eventstream.Publisher.
//
// The pool decouples storage from the streaming hot path so that slow
// databases never stall the screens being pushed to a client.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/screens/pkg/eventstream"
	"github.com/papercomputeco/screens/pkg/generate"
	"github.com/papercomputeco/screens/pkg/logger"
	"github.com/papercomputeco/screens/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for persisting screens.
	Driver storage.Driver

	// Publisher is the optional event publisher. Events are only published
	// after the screen was stored.
	Publisher eventstream.Publisher

	// Source is stamped on every published event.
	Source eventstream.EventSource

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

// Pool processes storage jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan *generate.Screen
	wg     sync.WaitGroup
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, fmt.Errorf("worker pool requires a storage driver")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan *generate.Screen, c.QueueSize),
		logger: log,
		now:    time.Now,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a screen for persistence.
// Returns true if enqueued, false if the queue is full or the pool is
// closed, resulting in the screen being dropped.
func (p *Pool) Enqueue(s *generate.Screen) bool {
	if s == nil {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Error("screen not queued, pool closed", "screen_id", s.ID)
		return false
	}

	select {
	case p.queue <- s:
		p.logger.Debug("screen queued",
			"screen_id", s.ID,
			"generation_id", s.GenerationID,
		)
		return true
	default:
		p.logger.Error("screen not queued, queue full, screen dropped",
			"screen_id", s.ID,
			"generation_id", s.GenerationID,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
// Close is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for s := range p.queue {
		p.processJob(s)
	}

	p.logger.Debug("storage worker stopped", "worker_id", id)
}

// processJob stores the screen and publishes its event.
func (p *Pool) processJob(s *generate.Screen) {
	ctx := context.Background()

	if err := p.config.Driver.Put(ctx, s); err != nil {
		p.logger.Error("async screen storage failed",
			"screen_id", s.ID,
			"error", err,
		)
		return
	}

	p.logger.Info("screen stored",
		"screen_id", s.ID,
		"generation_id", s.GenerationID,
		"index", s.Index,
	)

	if p.config.Publisher == nil {
		return
	}

	event := eventstream.NewScreenPersistedEvent(s, p.config.Source, p.now())
	if err := p.config.Publisher.PublishScreen(ctx, event); err != nil {
		// The screen is durable already, so a publish failure only loses the event.
		p.logger.Warn("failed to publish screen event",
			"screen_id", s.ID,
			"event_id", event.EventID,
			"error", err,
		)
		return
	}

	p.logger.Debug("published screen event",
		"screen_id", s.ID,
		"event_id", event.EventID,
	)
}
