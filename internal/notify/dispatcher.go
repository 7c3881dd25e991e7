package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Dispatcher sends messages in the background on a bounded set of goroutines.
// Dispatch never blocks: when every slot is busy the message is dropped.
type Dispatcher struct {
	notifier Notifier
	address  AddressFunc
	timeout  time.Duration
	logger   *slog.Logger
	group    errgroup.Group
}

func NewDispatcher(n Notifier, address AddressFunc, workers int, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}
	d := &Dispatcher{notifier: n, address: address, timeout: timeout, logger: logger}
	d.group.SetLimit(workers)
	return d
}

// Dispatch queues msg and reports whether it was accepted.
func (d *Dispatcher) Dispatch(msg Message) bool {
	to, err := d.address(msg.Recipient)
	if err != nil {
		d.logger.Debug("notification skipped",
			"event", "notification_skipped",
			"module", "notify",
			"layer", "application",
			"user_id", msg.Recipient.ID,
			"reason", err.Error(),
		)
		return false
	}

	ok := d.group.TryGo(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.notifier.Notify(ctx, to, msg.Subject, msg.Body); err != nil {
			d.logger.Warn("notification failed",
				"event", "notification_failed",
				"module", "notify",
				"layer", "application",
				"user_id", msg.Recipient.ID,
				"subject", msg.Subject,
				"error", err.Error(),
			)
		}
		return nil
	})
	if !ok {
		d.logger.Warn("notification dropped",
			"event", "notification_dropped",
			"module", "notify",
			"layer", "application",
			"user_id", msg.Recipient.ID,
			"subject", msg.Subject,
		)
	}
	return ok
}

// Wait blocks until in-flight sends finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		_ = d.group.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("notifications still in flight"), ctx.Err())
	}
}
