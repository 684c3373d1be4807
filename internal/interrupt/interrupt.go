// Package interrupt turns operator interrupts into context cancellation.
// Every blocking call in the client takes the coordinator's context, so an
// interrupt unwinds sleeps, network waits and subprocess waits alike.
package interrupt

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/whisper-client/internal/observability"
	"github.com/jonathan/whisper-client/internal/types"
)

// Coordinator owns the process-wide cancellation token for one invocation.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc
	sigCh  chan os.Signal
	done   chan struct{}
	log    logrus.FieldLogger

	interrupted atomic.Bool
	stopOnce    sync.Once
}

// New starts watching sigs (default SIGINT and SIGTERM) and returns a coordinator
// whose context is cancelled on the first one received. After that first signal the
// default handling is restored, so a second interrupt terminates the process.
func New(parent context.Context, log logrus.FieldLogger, sigs ...os.Signal) *Coordinator {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, cancel := context.WithCancel(parent)
	c := &Coordinator{
		ctx:    ctx,
		cancel: cancel,
		sigCh:  make(chan os.Signal, 1),
		done:   make(chan struct{}),
		log:    observability.OrDiscard(log),
	}
	signal.Notify(c.sigCh, sigs...)
	go c.watch()
	return c
}

func (c *Coordinator) watch() {
	select {
	case sig := <-c.sigCh:
		signal.Stop(c.sigCh)
		c.log.WithField("signal", sig.String()).Warn("Interrupt received, cancelling current operation")
		c.interrupted.Store(true)
		c.cancel()
	case <-c.done:
	}
}

// Context returns the shared cancellation token.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// Interrupted reports whether cancellation came from an operator signal.
func (c *Coordinator) Interrupted() bool {
	return c.interrupted.Load()
}

// Stop releases the signal handler and cancels the context.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		signal.Stop(c.sigCh)
		close(c.done)
		c.cancel()
	})
}

// Sleep blocks for d or until ctx is done, whichever comes first.
// It returns an error wrapping types.ErrCancelled when the wait was cut short.
func Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", types.ErrCancelled, err)
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", types.ErrCancelled, ctx.Err())
	case <-timer.C:
		return nil
	}
}
