package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// ErrDispatcherClosed is returned once Close has been called.
var ErrDispatcherClosed = errors.New("notification dispatcher closed")

type resultRecorder interface {
	IncNotification(ok bool)
}

// AsyncDispatcher sends confirmations in the background with bounded retries. Callers never
// wait for delivery and never see its failures.
type AsyncDispatcher struct {
	next    Dispatcher
	cfg     config.NotificationConfig
	logg    *logger.Logger
	metrics resultRecorder

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsyncDispatcher wraps next with background delivery.
func NewAsyncDispatcher(next Dispatcher, cfg config.NotificationConfig, logg *logger.Logger, metrics resultRecorder) (*AsyncDispatcher, error) {
	if next == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &AsyncDispatcher{next: next, cfg: cfg, logg: logg, metrics: metrics}, nil
}

// SendOrderConfirmation schedules delivery and returns immediately. The delivery outlives ctx
// cancellation but keeps its values for logging.
func (d *AsyncDispatcher) SendOrderConfirmation(ctx context.Context, msg Confirmation) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.wg.Add(1)
	d.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	go func() {
		defer d.wg.Done()
		d.deliver(detached, msg)
	}()
	return nil
}

func (d *AsyncDispatcher) deliver(ctx context.Context, msg Confirmation) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()
	ctx = d.logg.WithOrderNumber(ctx, msg.OrderNumber)

	attempts := 0
	backoff := retry.WithMaxRetries(d.cfg.MaxAttempts-1, retry.NewExponential(d.cfg.InitialBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) (err error) {
		attempts++
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("dispatcher panic: %v", r)
			}
		}()
		if sendErr := d.next.SendOrderConfirmation(ctx, msg); sendErr != nil {
			return retry.RetryableError(sendErr)
		}
		return nil
	})

	if d.metrics != nil {
		d.metrics.IncNotification(err == nil)
	}
	if err != nil {
		d.logg.Error(d.logg.WithField(ctx, "attempts", attempts), "notification.confirmation.failed", err)
		return
	}
	d.logg.Info(d.logg.WithField(ctx, "attempts", attempts), "notification.confirmation.sent")
}

// Close stops accepting work and waits for in-flight deliveries or ctx, whichever ends first.
func (d *AsyncDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
