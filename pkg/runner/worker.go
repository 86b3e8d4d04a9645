package runner

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/TheDucky-2/DataLabX/pkg/classifier"
	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// WorkerState represents the current state of a worker
type WorkerState string

const (
	WorkerStateIdle      WorkerState = "idle"
	WorkerStateWorking   WorkerState = "working"
	WorkerStateCompleted WorkerState = "completed"
)

// Worker executes column jobs
type Worker struct {
	ID         int
	classifier *classifier.Classifier
	logger     *zap.Logger
	state      WorkerState
	currentJob *ColumnJob
	stateLock  sync.RWMutex
}

// NewWorker creates a new worker
func NewWorker(id int, c *classifier.Classifier, logger *zap.Logger) *Worker {
	return &Worker{
		ID:         id,
		classifier: c,
		logger:     logger.With(zap.Int("workerID", id)),
		state:      WorkerStateIdle,
	}
}

// GetState returns the current state of the worker
func (w *Worker) GetState() WorkerState {
	w.stateLock.RLock()
	defer w.stateLock.RUnlock()
	return w.state
}

func (w *Worker) setState(state WorkerState) {
	w.stateLock.Lock()
	defer w.stateLock.Unlock()

	prev := w.state
	w.state = state
	if prev != state {
		w.logger.Debug("Worker state changed",
			zap.String("from", string(prev)),
			zap.String("to", string(state)))
	}
}

// GetCurrentJob returns the job currently being processed
func (w *Worker) GetCurrentJob() *ColumnJob {
	w.stateLock.RLock()
	defer w.stateLock.RUnlock()
	return w.currentJob
}

func (w *Worker) setCurrentJob(job *ColumnJob) {
	w.stateLock.Lock()
	defer w.stateLock.Unlock()
	w.currentJob = job
}

// Start processes jobs until the channel closes or the context is done
func (w *Worker) Start(ctx context.Context, jobs <-chan ColumnJob, results chan<- ColumnResult) {
	w.setState(WorkerStateWorking)
	defer w.setState(WorkerStateCompleted)

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Worker stopping due to context cancellation")
			return

		case job, ok := <-jobs:
			if !ok {
				return
			}

			result := w.ProcessJob(ctx, job)

			select {
			case results <- result:
			case <-ctx.Done():
				w.logger.Warn("Context cancelled while sending result",
					zap.String("column", job.Column))
				return
			}
		}
	}
}

// ProcessJob runs a single column job
func (w *Worker) ProcessJob(ctx context.Context, job ColumnJob) ColumnResult {
	w.setCurrentJob(&job)
	defer w.setCurrentJob(nil)

	result := NewColumnResult(job, w.ID)

	var err error
	switch job.Kind {
	case JobDiagnose:
		err = w.diagnose(ctx, job, result)
	case JobClean:
		err = w.clean(ctx, job, result)
	default:
		err = fmt.Errorf("unknown job kind %q", job.Kind)
	}
	result.Complete(err)

	if err != nil {
		w.logger.Warn("Column job failed",
			zap.String("kind", string(job.Kind)),
			zap.String("column", job.Column),
			zap.String("category", model.Categorize(err).String()),
			zap.Error(err))
	} else {
		w.logger.Debug("Column job completed",
			zap.String("kind", string(job.Kind)),
			zap.String("column", job.Column),
			zap.Duration("duration", result.Duration))
	}

	return *result
}

func (w *Worker) diagnose(ctx context.Context, job ColumnJob, result *ColumnResult) error {
	cr, err := w.classifier.ClassifyColumn(ctx, job.table, job.Column, job.catalog)
	if err != nil {
		return err
	}
	result.report = cr
	result.Backend = cr.Backend
	result.Hits = cr.Counts()
	return nil
}

func (w *Worker) clean(ctx context.Context, job ColumnJob, result *ColumnResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cells, delta, outcome := job.pipeline.CleanColumn(job.data)
	result.cells = cells
	result.delta = delta
	result.outcome = outcome
	result.Changed = outcome.Changed()
	result.NotCleaned = outcome.NotCleaned()
	for _, s := range outcome.Stages {
		result.Failed += s.Failed
	}
	return nil
}
