// Package taskrunner executes narration analysis jobs on a small in-process
// worker pool. It is the asynchronous boundary between the upload request and
// the external analyzer call.
package taskrunner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"storyreel/log"
)

const (
	defaultQueueSize   = 16
	defaultConcurrency = 1
)

var (
	ErrRunnerStopped = errors.New("task runner stopped")
	ErrQueueFull     = errors.New("task queue is full")
)

// Config controls in-process task runner behavior.
type Config struct {
	QueueSize   int
	Concurrency int
}

// DefaultConfig returns a single-project-friendly default config.
func DefaultConfig() Config {
	return Config{
		QueueSize:   defaultQueueSize,
		Concurrency: defaultConcurrency,
	}
}

// AnalysisPayload carries one narration analysis job. The generation pins the
// job to the upload that created it so stale results can be discarded.
type AnalysisPayload struct {
	Generation uint64 `json:"generation"`
	AudioPath  string `json:"audio_path"`
	MimeType   string `json:"mime_type"`
}

// AnalysisFunc processes one queued analysis job. It owns all failure
// reporting; the runner only recovers panics that escape it.
type AnalysisFunc func(payload AnalysisPayload)

// Runner executes queued analysis jobs with in-memory workers.
type Runner struct {
	process AnalysisFunc
	config  Config

	queue  chan AnalysisPayload
	ctx    context.Context
	cancel context.CancelFunc

	workerWg sync.WaitGroup
	closed   atomic.Bool

	// onPanic is invoked when a job panics, after logging. Lets the owner
	// move the project out of the analyzing state.
	onPanic func(payload AnalysisPayload, recovered any)
}

// New creates and starts a task runner.
func New(process AnalysisFunc, cfg Config) *Runner {
	cfg = normalizeConfig(cfg)
	ctx, cancel := context.WithCancel(context.Background())

	runner := &Runner{
		process: process,
		config:  cfg,
		queue:   make(chan AnalysisPayload, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < cfg.Concurrency; i++ {
		runner.workerWg.Add(1)
		go runner.worker(i + 1)
	}

	return runner
}

func normalizeConfig(cfg Config) Config {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return cfg
}

// OnPanic registers a handler for jobs that panic. Must be called before any
// Submit.
func (r *Runner) OnPanic(handler func(payload AnalysisPayload, recovered any)) {
	r.onPanic = handler
}

// Submit queues an analysis job.
func (r *Runner) Submit(payload AnalysisPayload) error {
	if payload.AudioPath == "" {
		return errors.New("analysis audio path is required")
	}
	if r.closed.Load() {
		return ErrRunnerStopped
	}

	select {
	case <-r.ctx.Done():
		return ErrRunnerStopped
	case r.queue <- payload:
		log.GetLogger().Info("[TaskRunner] analysis job submitted",
			zap.Uint64("generation", payload.Generation),
			zap.String("audio_path", payload.AudioPath))
		return nil
	default:
		return ErrQueueFull
	}
}

func (r *Runner) worker(workerID int) {
	defer r.workerWg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		select {
		case <-r.ctx.Done():
			return
		case payload := <-r.queue:
			r.processJob(workerID, payload)
		}
	}
}

func (r *Runner) processJob(workerID int, payload AnalysisPayload) {
	defer func() {
		if recovered := recover(); recovered != nil {
			log.GetLogger().Error("[TaskRunner] analysis job panicked",
				zap.Int("worker_id", workerID),
				zap.Uint64("generation", payload.Generation),
				zap.Any("panic", recovered))
			if r.onPanic != nil {
				r.onPanic(payload, recovered)
			}
		}
	}()

	r.process(payload)

	log.GetLogger().Info("[TaskRunner] analysis job finished",
		zap.Int("worker_id", workerID),
		zap.Uint64("generation", payload.Generation))
}

// Close stops workers and rejects new jobs.
func (r *Runner) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}

	r.cancel()
	r.workerWg.Wait()
}

// Pending returns the number of queued jobs waiting for workers.
func (r *Runner) Pending() int {
	return len(r.queue)
}
