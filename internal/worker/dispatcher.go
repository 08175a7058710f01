// Package worker bounds concurrent calls to the analysis capability.
// The capability is the only operation that blocks for meaningful
// latency, so analyze jobs run on a small elastic pool: a fixed core of
// workers plus extras that spawn under load and retire when idle.
package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"printforge/internal/models"
)

// ErrDispatcherBusy is returned when the job queue is full.
var ErrDispatcherBusy = errors.New("analysis queue full")

// Analyzing is the analyzer contract the pool executes.
type Analyzing interface {
	Analyze(ctx context.Context, file *models.UploadedFile, specialRequests string) models.AnalysisResult
}

type DispatcherConfig struct {
	MinWorkers  int
	MaxWorkers  int
	QueueSize   int
	IdleTimeout time.Duration
}

const (
	defaultQueueSize  = 16
	defaultWorkerIdle = 30 * time.Second
)

type job struct {
	ctx             context.Context
	file            *models.UploadedFile
	specialRequests string
	resultCh        chan models.AnalysisResult
}

// Dispatcher feeds analyze jobs to the worker pool.
type Dispatcher struct {
	analyzer Analyzing
	jobQueue chan job
	stopCh   chan struct{}

	mu      sync.Mutex
	running int
	min     int
	max     int
	idle    time.Duration
}

func NewDispatcher(analyzer Analyzing, cfg DispatcherConfig) *Dispatcher {
	if cfg.MinWorkers <= 0 {
		cfg.MinWorkers = 1
	}
	if cfg.MaxWorkers < cfg.MinWorkers {
		cfg.MaxWorkers = cfg.MinWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultWorkerIdle
	}

	d := &Dispatcher{
		analyzer: analyzer,
		jobQueue: make(chan job, cfg.QueueSize),
		stopCh:   make(chan struct{}),
		min:      cfg.MinWorkers,
		max:      cfg.MaxWorkers,
		idle:     cfg.IdleTimeout,
	}
	for i := 0; i < d.min; i++ {
		d.spawnWorker(true)
	}
	return d
}

// Analyze enqueues a job and waits for its result. When the queue is
// full it tries to grow the pool once before reporting busy.
func (d *Dispatcher) Analyze(ctx context.Context, file *models.UploadedFile, specialRequests string) (models.AnalysisResult, error) {
	j := job{
		ctx:             ctx,
		file:            file,
		specialRequests: specialRequests,
		resultCh:        make(chan models.AnalysisResult, 1),
	}

	select {
	case d.jobQueue <- j:
	default:
		d.spawnWorker(false)
		select {
		case d.jobQueue <- j:
		default:
			return models.AnalysisResult{}, ErrDispatcherBusy
		}
	}

	select {
	case result := <-j.resultCh:
		return result, nil
	case <-ctx.Done():
		return models.AnalysisResult{}, ctx.Err()
	}
}

// Stop shuts the pool down. Queued jobs are abandoned; callers waiting
// in Analyze are released by their contexts.
func (d *Dispatcher) Stop() {
	close(d.stopCh)
}

func (d *Dispatcher) spawnWorker(core bool) {
	d.mu.Lock()
	if !core && d.running >= d.max {
		d.mu.Unlock()
		return
	}
	d.running++
	d.mu.Unlock()
	go d.runWorker(core)
}

func (d *Dispatcher) retireWorker() {
	d.mu.Lock()
	if d.running > 0 {
		d.running--
	}
	d.mu.Unlock()
}

// runWorker executes jobs until stopped. Extra workers retire after
// sitting idle; core workers stay for the life of the process.
func (d *Dispatcher) runWorker(core bool) {
	defer d.retireWorker()
	idleTimer := time.NewTimer(d.idle)
	defer idleTimer.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case j := <-d.jobQueue:
			j.resultCh <- d.analyzer.Analyze(j.ctx, j.file, j.specialRequests)
			if !idleTimer.Stop() {
				select {
				case <-idleTimer.C:
				default:
				}
			}
			idleTimer.Reset(d.idle)
		case <-idleTimer.C:
			if core {
				idleTimer.Reset(d.idle)
				continue
			}
			log.Printf("idle analysis worker retired")
			return
		}
	}
}

// Running reports the current pool size, for tests and debugging.
func (d *Dispatcher) Running() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}
