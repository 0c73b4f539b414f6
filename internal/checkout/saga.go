package checkout

import (
	"context"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront/pkg/logger"
)

type compensationRecorder interface {
	IncCompensation(ok bool)
}

// sagaStep is one write of the commit. compensate undoes it after a later fatal failure.
// Optional steps log their failure and let the saga continue.
type sagaStep struct {
	name       string
	action     func(ctx context.Context) error
	compensate func(ctx context.Context) error
	optional   bool
}

type saga struct {
	steps   []sagaStep
	timeout time.Duration
	logg    *logger.Logger
	metrics compensationRecorder

	skipped []string
}

// stepFailure reports the fatal step and anything that went wrong while undoing earlier steps.
type stepFailure struct {
	step         string
	cause        error
	compensation error
}

func (f *stepFailure) Error() string {
	msg := "commit step " + f.step + ": " + f.cause.Error()
	if f.compensation != nil {
		msg += " (compensation: " + f.compensation.Error() + ")"
	}
	return msg
}

func (f *stepFailure) Unwrap() error {
	return multierr.Append(f.cause, f.compensation)
}

func (s *saga) run(ctx context.Context) error {
	completed := make([]sagaStep, 0, len(s.steps))
	for _, step := range s.steps {
		stepCtx, cancel := withStepTimeout(ctx, s.timeout)
		err := step.action(stepCtx)
		cancel()
		if err == nil {
			s.logg.Info(ctx, "checkout.commit."+step.name)
			completed = append(completed, step)
			continue
		}
		if step.optional {
			s.skipped = append(s.skipped, step.name)
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "checkout.commit."+step.name+".skipped")
			continue
		}
		s.logg.Error(ctx, "checkout.commit."+step.name+".failed", err)
		return &stepFailure{step: step.name, cause: err, compensation: s.rollback(ctx, completed)}
	}
	return nil
}

// rollback undoes completed steps in reverse order and keeps going past failures.
func (s *saga) rollback(ctx context.Context, completed []sagaStep) error {
	var errs error
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.compensate == nil {
			continue
		}
		stepCtx, cancel := withStepTimeout(ctx, s.timeout)
		err := step.compensate(stepCtx)
		cancel()
		if s.metrics != nil {
			s.metrics.IncCompensation(err == nil)
		}
		if err != nil {
			s.logg.Error(ctx, "checkout.commit."+step.name+".compensation_failed", err)
			errs = multierr.Append(errs, err)
			continue
		}
		s.logg.Info(ctx, "checkout.commit."+step.name+".compensated")
	}
	return errs
}

func withStepTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
