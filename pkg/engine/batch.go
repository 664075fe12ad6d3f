package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

// Job is one batch invocation: a function, its arguments, and an
// optional per-job ledger time override.
type Job struct {
	Fn         string         `yaml:"fn"`
	Args       []ledger.Value `yaml:"args"`
	LedgerTime *uint64        `yaml:"ledger_time"`
}

// batchFile is the on-disk batch format. YAML; JSON parses as a subset.
type batchFile struct {
	Jobs []Job `yaml:"jobs"`
}

// LoadJobs reads an ordered batch job file.
func LoadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.InputError{
			Kind:    errors.InputBatch,
			Path:    path,
			Message: "cannot read batch file",
			Cause:   err,
		}
	}
	var file batchFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &errors.InputError{
			Kind:    errors.InputBatch,
			Path:    path,
			Message: "malformed batch file",
			Cause:   err,
		}
	}
	if len(file.Jobs) == 0 {
		return nil, &errors.InputError{
			Kind:    errors.InputBatch,
			Path:    path,
			Message: "batch file contains no jobs",
		}
	}
	for i, j := range file.Jobs {
		if j.Fn == "" {
			return nil, &errors.InputError{
				Kind:    errors.InputBatch,
				Path:    path,
				Message: fmt.Sprintf("job %d: fn is required", i),
			}
		}
	}
	return file.Jobs, nil
}

// JobStatus is the outcome of one batch job.
type JobStatus string

const (
	// JobSuccess means the job completed and its writes were committed.
	JobSuccess JobStatus = "success"
	// JobTrapped means the job aborted and its writes were discarded.
	JobTrapped JobStatus = "trapped"
)

// JobResult is the per-job record produced by a batch run.
type JobResult struct {
	Index       int
	Fn          string
	Status      JobStatus
	Result      ledger.Value
	Err         error
	Diff        []ledger.DiffEntry
	Events      []EventRecord
	WatchEvents []WatchEvent
	Duration    time.Duration
}

// Driver sequences batch jobs against one persistent overlay: each job's
// writes are committed on success, so later jobs observe earlier jobs'
// state, or discarded on trap. A trapped job is recorded but does not
// abort the batch.
type Driver struct {
	host       *Host
	overlay    *ledger.Overlay
	mgr        *Manager
	events     *EventLog
	contractID string
	logger     *slog.Logger
}

// NewDriver creates a batch replay driver for one contract.
func NewDriver(host *Host, overlay *ledger.Overlay, mgr *Manager, events *EventLog, contractID string, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		host:       host,
		overlay:    overlay,
		mgr:        mgr,
		events:     events,
		contractID: contractID,
		logger:     logger,
	}
}

// Run executes the jobs in order. Guest faults are converted into
// per-job failure results; engine invariant violations and context
// cancellation abort the batch and return the error alongside the
// results gathered so far.
func (d *Driver) Run(ctx context.Context, jobs []Job) ([]JobResult, error) {
	results := make([]JobResult, 0, len(jobs))

	// Buffer watch events per job, restoring any existing consumer after.
	var jobWatches []WatchEvent
	d.mgr.SetNotify(func(ev WatchEvent) {
		jobWatches = append(jobWatches, ev)
	})
	defer d.mgr.SetNotify(nil)

	for i, job := range jobs {
		jobWatches = nil
		startSeq := d.events.LastSequence()
		ledgerTime := d.overlay.LedgerTime()
		if job.LedgerTime != nil {
			ledgerTime = *job.LedgerTime
		}

		started := time.Now()
		ret, err := d.host.Invoke(ctx, d.contractID, job.Fn, job.Args, ledgerTime)
		elapsed := time.Since(started)

		res := JobResult{
			Index:       i,
			Fn:          job.Fn,
			Events:      d.events.Since(startSeq),
			WatchEvents: jobWatches,
			Duration:    elapsed,
		}

		switch {
		case err == nil:
			res.Status = JobSuccess
			res.Result = ret
			res.Diff = d.overlay.Diff()
			d.overlay.Commit()
			d.logger.Info("batch job completed",
				slog.Int("index", i),
				slog.String("fn", job.Fn),
				slog.Int("changes", len(res.Diff)))

		case errors.IsInvocationFault(err):
			res.Status = JobTrapped
			res.Err = err
			d.overlay.Discard()
			d.logger.Warn("batch job trapped",
				slog.Int("index", i),
				slog.String("fn", job.Fn),
				slog.String("error", err.Error()))

		default:
			// Invariant violation, bad input, or cancellation: the batch
			// cannot meaningfully continue.
			res.Status = JobTrapped
			res.Err = err
			d.overlay.Discard()
			return append(results, res), err
		}

		results = append(results, res)
	}
	return results, nil
}
