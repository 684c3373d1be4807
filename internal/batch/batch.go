// Package batch runs acquisition, submission and polling over a list of
// items, one at a time, and aggregates the outcomes.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/whisper-client/internal/acquisition"
	"github.com/jonathan/whisper-client/internal/observability"
	"github.com/jonathan/whisper-client/internal/types"
)

// Submitter uploads one audio file.
type Submitter interface {
	Submit(ctx context.Context, path string) (*types.JobSnapshot, error)
}

// JobPoller drives a submitted job to a terminal state.
type JobPoller interface {
	Poll(ctx context.Context, job types.Job) (types.Job, error)
}

// Acquirer turns a remote media URL into a local audio file.
type Acquirer interface {
	Run(ctx context.Context, req acquisition.Request) (*acquisition.Result, error)
}

// Reporter persists a completed transcript and returns where it was written.
type Reporter interface {
	Write(job types.Job) (string, error)
}

// Options configures a Driver. Acquirer is only needed for remote items and
// Reporter may be nil to skip writing reports.
type Options struct {
	Submitter   Submitter
	Poller      JobPoller
	Acquirer    Acquirer
	Reporter    Reporter
	OutputDir   string
	KeepAudio   bool
	KeepVideo   bool
	Logger      logrus.FieldLogger
	OnItemStart func(index, total int, item Item)
	OnItemDone  func(index, total int, outcome Outcome)
	OnStage     acquisition.StageFunc
}

// Driver processes items sequentially.
type Driver struct {
	opts Options
	log  logrus.FieldLogger
	now  func() time.Time
}

// NewDriver creates a driver.
func NewDriver(opts Options) (*Driver, error) {
	if opts.Submitter == nil {
		return nil, errors.New("batch: submitter is required")
	}
	if opts.Poller == nil {
		return nil, errors.New("batch: poller is required")
	}
	return &Driver{opts: opts, log: observability.OrDiscard(opts.Logger), now: time.Now}, nil
}

// Run processes every item and returns the aggregate summary. One item's
// failure never stops the batch; cancellation of ctx does, and every item not
// yet started is recorded as cancelled and not attempted.
func (d *Driver) Run(ctx context.Context, items []Item) *Summary {
	start := d.now()
	summary := newSummary(uuid.NewString(), len(items))
	log := d.log.WithField("run_id", summary.RunID)
	log.WithField("items", len(items)).Info("Starting batch")

	for i, item := range items {
		if ctx.Err() != nil {
			summary.Interrupted = true
			for _, rest := range items[i:] {
				summary.add(Outcome{Item: rest, State: types.StateCancelled, Detail: "not attempted"})
			}
			log.WithField("skipped", len(items)-i).Info("Batch cancelled")
			break
		}

		if d.opts.OnItemStart != nil {
			d.opts.OnItemStart(i+1, len(items), item)
		}
		itemStart := d.now()
		outcome := d.process(ctx, log.WithField("source", item.Source), item)
		outcome.Elapsed = d.now().Sub(itemStart)
		summary.add(outcome)
		log.WithFields(logrus.Fields{
			"source":  item.Source,
			"state":   outcome.State,
			"kind":    outcome.Kind(),
			"elapsed": outcome.Elapsed.Round(time.Millisecond),
		}).Debug("Item finished")
		if d.opts.OnItemDone != nil {
			d.opts.OnItemDone(i+1, len(items), outcome)
		}
	}

	if ctx.Err() != nil {
		summary.Interrupted = true
	}
	summary.Elapsed = d.now().Sub(start)
	log.WithFields(logrus.Fields{
		"completed": summary.Counts[types.StateCompleted],
		"elapsed":   summary.Elapsed.Round(time.Millisecond),
	}).Info("Batch finished")
	return summary
}

// process runs one item to a terminal outcome. Every error is folded into the outcome.
func (d *Driver) process(ctx context.Context, log logrus.FieldLogger, item Item) Outcome {
	outcome := Outcome{Item: item, Attempted: true}

	audio := item.Source
	sourceFile := item.Source
	if item.Remote {
		if d.opts.Acquirer == nil {
			return failed(outcome, errors.New("remote media is not supported by this driver"))
		}
		res, err := d.opts.Acquirer.Run(ctx, acquisition.Request{
			URL:       item.Source,
			OutputDir: d.opts.OutputDir,
			KeepAudio: d.opts.KeepAudio,
			KeepVideo: d.opts.KeepVideo,
			OnStage:   d.opts.OnStage,
		})
		if res != nil {
			defer res.Cleanup()
		}
		if err != nil {
			log.WithError(err).Warn("Acquisition did not produce audio")
			return failed(outcome, err)
		}
		audio = res.Audio
		sourceFile = audio
		if res.Destination != "" {
			sourceFile = res.Destination
		}
	}

	snap, err := d.opts.Submitter.Submit(ctx, audio)
	if err != nil {
		log.WithError(err).Warn("Submission failed")
		return failed(outcome, err)
	}

	job := types.Job{
		ID:          snap.JobID,
		State:       snap.State(),
		SubmittedAt: snap.Created(),
		SourceFile:  sourceFile,
		Last:        snap,
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = d.now()
	}
	outcome.JobID = job.ID
	log = log.WithField("job_id", job.ID)
	log.Info("Submitted job")

	job, err = d.opts.Poller.Poll(ctx, job)
	outcome.State = job.State
	outcome.Detail = job.Detail
	if err != nil {
		log.WithError(err).Warn("Polling failed")
		return failed(outcome, err)
	}
	if job.State != types.StateCompleted {
		return outcome
	}

	outcome.Transcript = job.Result
	if d.opts.Reporter != nil {
		path, err := d.opts.Reporter.Write(job)
		if err != nil {
			log.WithError(err).Warn("Failed to write transcript report")
			outcome.Err = fmt.Errorf("write report: %w", err)
		} else {
			outcome.ReportPath = path
		}
	}
	return outcome
}

// failed folds err into o. Cancellation is recorded as a cancelled outcome, not a failure.
func failed(o Outcome, err error) Outcome {
	if types.IsCancelled(err) {
		o.State = types.StateCancelled
		o.Detail = "cancelled by user"
		return o
	}
	o.State = types.StateFailed
	o.Err = err
	if o.Detail == "" {
		o.Detail = err.Error()
	}
	return o
}
