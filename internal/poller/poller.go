package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/whisper-client/internal/interrupt"
	"github.com/jonathan/whisper-client/internal/observability"
	"github.com/jonathan/whisper-client/internal/types"
)

// DefaultInterval is the fixed delay between status queries.
const DefaultInterval = 5 * time.Second

// DefaultTerminateTimeout bounds the best-effort terminate call made on cancellation.
const DefaultTerminateTimeout = 10 * time.Second

// ErrPollDeadline is returned when MaxDuration elapses before the job reaches a terminal state.
var ErrPollDeadline = errors.New("polling deadline exceeded")

// Details recorded when a completed job cannot be accepted.
const (
	detailNoResult      = "completed job carried no result"
	detailInvalidResult = "completed job carried an invalid transcript"
)

// StatusClient is the subset of the transport the poller needs.
type StatusClient interface {
	Status(ctx context.Context, jobID string) (*types.JobSnapshot, error)
	Terminate(ctx context.Context, jobID string) (*types.JobSnapshot, error)
}

// SnapshotFunc receives every snapshot the poller observes.
type SnapshotFunc func(snap *types.JobSnapshot)

// Options configures a Poller.
type Options struct {
	Interval         time.Duration
	MaxDuration      time.Duration // zero polls until a terminal state or cancellation
	TerminateTimeout time.Duration
	Logger           logrus.FieldLogger
	OnSnapshot       SnapshotFunc
}

// Poller owns a job for the duration of one polling session.
type Poller struct {
	client StatusClient
	opts   Options
	log    logrus.FieldLogger
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
}

// New creates a poller. Zero option values take the package defaults.
func New(client StatusClient, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.TerminateTimeout <= 0 {
		opts.TerminateTimeout = DefaultTerminateTimeout
	}
	return &Poller{
		client: client,
		opts:   opts,
		log:    observability.OrDiscard(opts.Logger),
		sleep:  interrupt.Sleep,
		now:    time.Now,
	}
}

// Poll queries job until it reaches a terminal state and returns the final record.
//
// Cancellation of ctx is checked before every query and interrupts the sleep
// between queries. When it happens Poll makes one best-effort terminate call and
// returns the job in StateCancelled with a nil error. Transport failures that
// survive the client's retry policy are returned as errors.
//
// A job that is already terminal is never queried. If it has not been settled
// yet, its last snapshot decides the outcome. A completed job whose transcript
// fails Validate is reported as failed.
func (p *Poller) Poll(ctx context.Context, job types.Job) (types.Job, error) {
	if job.State == "" {
		job.State = types.StateQueued
	}
	log := p.log.WithField("job_id", job.ID)
	if job.State.IsTerminal() {
		// The submission response can already be terminal; settle it from
		// that snapshot without querying the service.
		if job.Last != nil && job.Result == nil && job.Detail == "" {
			_, action := Observe(types.StateQueued, job.State)
			return settle(job, job.Last, action, log), nil
		}
		return job, nil
	}

	var deadline time.Time
	if p.opts.MaxDuration > 0 {
		deadline = p.now().Add(p.opts.MaxDuration)
	}

	for {
		if ctx.Err() != nil {
			return p.cancel(ctx, job, log), nil
		}
		if !deadline.IsZero() && !p.now().Before(deadline) {
			log.WithField("max_duration", p.opts.MaxDuration).Warn("Stopped polling before the job finished")
			return job, fmt.Errorf("job %s still %s after %s: %w", job.ID, job.State, p.opts.MaxDuration, ErrPollDeadline)
		}

		snap, err := p.client.Status(ctx, job.ID)
		if err != nil {
			if types.IsCancelled(err) || ctx.Err() != nil {
				return p.cancel(ctx, job, log), nil
			}
			return job, fmt.Errorf("poll job %s: %w", job.ID, err)
		}

		observed, known := types.ParseJobState(snap.Status)
		if !known {
			log.WithField("status", snap.Status).Warn("Unrecognised job status, treating as processing")
		}
		job.Last = snap
		if p.opts.OnSnapshot != nil {
			p.opts.OnSnapshot(snap)
		}

		next, action := Observe(job.State, observed)
		if next != job.State {
			log.WithFields(logrus.Fields{"from": job.State, "to": next}).Debug("Job state changed")
		}
		job.State = next

		if action == ActionContinue {
			if err := p.sleep(ctx, p.opts.Interval); err != nil {
				return p.cancel(ctx, job, log), nil
			}
			continue
		}
		return settle(job, snap, action, log), nil
	}
}

// settle records the outcome of a terminal observation on job.
func settle(job types.Job, snap *types.JobSnapshot, action Action, log logrus.FieldLogger) types.Job {
	switch action {
	case ActionEmitResult:
		if snap.Result == nil {
			job.State = types.StateFailed
			job.Detail = detailNoResult
			log.Warn("Service reported completion without a result")
			return job
		}
		if err := snap.Result.Validate(); err != nil {
			job.State = types.StateFailed
			job.Detail = fmt.Sprintf("%s: %v", detailInvalidResult, err)
			log.WithError(err).Warn("Service returned a malformed transcript")
			return job
		}
		job.Result = snap.Result
		job.Detail = snap.Message
		log.WithField("segments", len(snap.Result.Segments)).Info("Job completed")
	case ActionEmitError:
		job.Detail = detailOr(snap.Message, "transcription failed")
		log.WithField("detail", job.Detail).Warn("Job failed")
	case ActionEmitTerminated:
		job.Detail = detailOr(snap.Message, "externally terminated")
		log.WithField("detail", job.Detail).Info("Job was terminated outside this client")
	case ActionEmitCancelled:
		job.Detail = detailOr(snap.Message, "cancelled by the service")
		log.WithField("detail", job.Detail).Info("Job was cancelled")
	}
	return job
}

// cancel makes exactly one best-effort terminate call and marks the job cancelled.
// Terminate failures are logged, never returned.
func (p *Poller) cancel(ctx context.Context, job types.Job, log logrus.FieldLogger) types.Job {
	log.Info("Cancelling job on the service")

	termCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.TerminateTimeout)
	defer cancel()

	if snap, err := p.client.Terminate(termCtx, job.ID); err != nil {
		log.WithError(err).Warn("Failed to terminate job on the service")
	} else {
		job.Last = snap
		log.WithField("message", snap.Message).Info("Job terminated on the service")
	}

	job.State = types.StateCancelled
	job.Detail = "cancelled by user"
	return job
}

func detailOr(detail, fallback string) string {
	if detail != "" {
		return detail
	}
	return fallback
}
