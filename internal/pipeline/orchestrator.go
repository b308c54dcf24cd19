package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgallion1/regchunk/internal/config"
	"github.com/dgallion1/regchunk/internal/ingest"
	"github.com/dgallion1/regchunk/internal/parser"
)

// ErrStopped is returned by Submit once Stop has been called.
var ErrStopped = errors.New("pipeline is stopped")

// Orchestrator manages the document ingestion pipeline.
type Orchestrator struct {
	jobs      *JobStore
	queue     chan *Job
	publisher Publisher
	lookup    HashLookup
	log       *slog.Logger
	cfg       config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards stopped and sends on queue, so Submit never races the close.
	mu      sync.Mutex
	stopped bool
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, publisher Publisher, lookup HashLookup, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:      NewJobStore(cfg.JobTTL),
		queue:     make(chan *Job, cfg.MaxQueueSize),
		publisher: publisher,
		lookup:    lookup,
		log:       log,
		cfg:       cfg,
	}
}

func (o *Orchestrator) newWorker() *Worker {
	return NewWorker(o.publisher, o.lookup, o.log, o.ingestOptions(), parser.Options{
		PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext,
	})
}

func (o *Orchestrator) ingestOptions() ingest.Options {
	return ingest.Options{
		Chunking:        o.cfg.Chunking(),
		BodyStartMarker: o.cfg.TOCBodyMarker,
		StartInTOC:      o.cfg.TOCStartInTOC,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := o.newWorker()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					_ = w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new job for processing. Jobs submitted after Stop are
// recorded as failed and an error is returned.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		job.Fail("stopped", ErrStopped)
		return ErrStopped
	}
	select {
	case o.queue <- job:
		return nil
	default:
		job.Fail("queue_full", fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize))
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// Bootstrap makes sure the document at path is indexed under docID before
// the service starts answering queries. An existing non-empty index is
// reused as is; otherwise the document is ingested synchronously and any
// failure is returned.
func (o *Orchestrator) Bootstrap(ctx context.Context, path, docID string) error {
	log := o.log.With("doc_id", docID, "path", path)

	loaded, err := o.publisher.Loaded(ctx, docID)
	if err != nil {
		log.Warn("index check failed, rebuilding", "error", err)
	} else if loaded {
		log.Info("reusing existing index")
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read source document: %w", err)
	}
	job := NewJob(docID, filepath.Base(path), "", data)
	job.Force = true

	log.Info("building index")
	if err := o.Run(ctx, job); err != nil {
		return fmt.Errorf("bootstrap %s: %w", docID, err)
	}
	return nil
}

// Run processes job on the calling goroutine, bypassing the queue. The job
// is still tracked so its status can be polled.
func (o *Orchestrator) Run(ctx context.Context, job *Job) error {
	o.jobs.Put(job)
	return o.newWorker().Process(ctx, job)
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Options returns the default pass options, for dry runs that bypass the
// queue.
func (o *Orchestrator) Options() (ingest.Options, parser.Options) {
	return o.ingestOptions(), parser.Options{PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext}
}
