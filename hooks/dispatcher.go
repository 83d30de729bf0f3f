package hooks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	defaultDispatchWorkers = 4
	defaultDispatchBuffer  = 256
	defaultHandoffTimeout  = 25 * time.Millisecond
	defaultPersistTimeout  = 30 * time.Second
)

// Dispatcher runs persistence work off the gesture path. Jobs are handed to a
// bounded worker pool; when the hand-off cannot complete within the timeout the
// job runs inline on the caller so nothing is ever dropped.
type Dispatcher struct {
	jobs           chan func(context.Context)
	handoffTimeout time.Duration
	persistTimeout time.Duration
	logger         *log.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewDispatcher starts a dispatcher with the given worker count and buffer
// size. Non-positive values fall back to defaults.
func NewDispatcher(workers, buffer int, logger *log.Logger) *Dispatcher {
	if workers <= 0 {
		workers = defaultDispatchWorkers
	}
	if buffer <= 0 {
		buffer = defaultDispatchBuffer
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	d := &Dispatcher{
		jobs:           make(chan func(context.Context), buffer),
		handoffTimeout: defaultHandoffTimeout,
		persistTimeout: defaultPersistTimeout,
		logger:         logger,
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.jobs {
		d.run(job)
	}
}

func (d *Dispatcher) run(job func(context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), d.persistTimeout)
	defer cancel()
	job(ctx)
}

// Dispatch hands a job to the pool. It returns true when the job was queued
// and false when the job ran inline instead, either because the buffer was
// saturated or because the dispatcher was already closed. Dispatch must not
// be called concurrently with Close.
func (d *Dispatcher) Dispatch(job func(context.Context)) bool {
	if job == nil {
		return true
	}
	if d.closed.Load() {
		d.run(job)
		return false
	}
	timer := time.NewTimer(d.handoffTimeout)
	defer timer.Stop()
	select {
	case d.jobs <- job:
		return true
	case <-timer.C:
	}
	d.logger.Warn("dispatch buffer saturated; running job inline")
	d.run(job)
	return false
}

// Close stops accepting jobs and waits for queued work to drain.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.jobs)
	})
	d.wg.Wait()
}
