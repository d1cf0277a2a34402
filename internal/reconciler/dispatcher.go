package reconciler

import (
	"context"
	"sync"
	"time"

	"gst-reconciliation-service/internal/ledger"
	"gst-reconciliation-service/pkg/errors"
	"gst-reconciliation-service/pkg/logger"
)

// Outcome is the result of a dispatched run
type Outcome struct {
	Report   *Report
	Err      error
	Duration time.Duration
}

// Stage names a point in a dispatched run's lifecycle
type Stage string

const (
	StageQueued    Stage = "queued"
	StageRunning   Stage = "running"
	StageCompleted Stage = "completed"
	StageFailed    Stage = "failed"
	StageDiscarded Stage = "discarded"
)

// Progress is reported to callbacks as a run moves through its stages
type Progress struct {
	Stage       Stage         `json:"stage"`
	RecordsA    int           `json:"records_a"`
	RecordsB    int           `json:"records_b"`
	Elapsed     time.Duration `json:"elapsed"`
	Discrepancy int           `json:"discrepancies"`
}

// ProgressCallback is called on every stage change
type ProgressCallback func(Progress)

// Dispatcher runs reconciliations on a background goroutine so the caller
// stays responsive. Runs are serialized, and each works on snapshots taken at
// submission, so later edits to the ledgers never reach a run in flight.
type Dispatcher struct {
	engine *Engine
	logger logger.Logger

	run       sync.Mutex
	cbMu      sync.RWMutex
	callbacks []ProgressCallback
}

// NewDispatcher creates a dispatcher for engine
func NewDispatcher(engine *Engine, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Dispatcher{
		engine: engine,
		logger: log.WithComponent("dispatcher"),
	}
}

// AddProgressCallback registers a progress callback
func (d *Dispatcher) AddProgressCallback(cb ProgressCallback) {
	d.cbMu.Lock()
	defer d.cbMu.Unlock()
	d.callbacks = append(d.callbacks, cb)
}

func (d *Dispatcher) notify(p Progress) {
	d.cbMu.RLock()
	defer d.cbMu.RUnlock()
	for _, cb := range d.callbacks {
		cb(p)
	}
}

// Submit snapshots both ledgers and reconciles them in the background. The
// returned channel receives exactly one Outcome. If ctx is done before the
// run finishes, the report is discarded and Err reports the cancellation.
func (d *Dispatcher) Submit(ctx context.Context, a, b *ledger.Ledger) <-chan Outcome {
	out := make(chan Outcome, 1)
	start := time.Now()

	var snapA, snapB *ledger.Ledger
	if a != nil {
		snapA = a.Snapshot()
	}
	if b != nil {
		snapB = b.Snapshot()
	}

	progress := Progress{RecordsA: snapA.Len(), RecordsB: snapB.Len()}
	progress.Stage = StageQueued
	d.notify(progress)

	go func() {
		defer close(out)

		d.run.Lock()
		defer d.run.Unlock()

		if err := ctx.Err(); err != nil {
			out <- d.discard(progress, start, err)
			return
		}

		progress.Stage = StageRunning
		progress.Elapsed = time.Since(start)
		d.notify(progress)

		report, err := d.engine.Reconcile(snapA, snapB)
		progress.Elapsed = time.Since(start)

		if err != nil {
			progress.Stage = StageFailed
			d.notify(progress)
			d.logger.WithError(err).Error("Dispatched reconciliation failed")
			out <- Outcome{Err: err, Duration: progress.Elapsed}
			return
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			out <- d.discard(progress, start, ctxErr)
			return
		}

		progress.Stage = StageCompleted
		progress.Discrepancy = report.Len()
		d.notify(progress)
		out <- Outcome{Report: report, Duration: progress.Elapsed}
	}()

	return out
}

func (d *Dispatcher) discard(p Progress, start time.Time, cause error) Outcome {
	p.Stage = StageDiscarded
	p.Elapsed = time.Since(start)
	d.notify(p)
	d.logger.WithField("reason", cause.Error()).Warn("Discarding reconciliation result")
	return Outcome{
		Err:      errors.ReconciliationError(errors.CodeRunDiscarded, "dispatch", cause),
		Duration: p.Elapsed,
	}
}
