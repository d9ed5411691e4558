package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Step is a single forward action in a saga paired with its compensating
// action. Both operate on the shared saga context C, owned by exactly one
// in-flight execution. Compensate must tolerate being called after an Invoke
// whose real outcome is unknown (e.g. a timed out RPC).
type Step[C any] interface {
	Name() string
	Invoke(ctx context.Context, sc C) error
	Compensate(ctx context.Context, sc C) error
}

// CompensationFailure records a compensate call that itself failed. The
// affected step leaves the system in a state requiring manual reconciliation.
type CompensationFailure struct {
	Step string
	Err  error
}

// ExecutionError is returned when a saga aborts. Cause is the error raised by
// the failing step; compensation failures are attached so operators can
// observe partial rollbacks, but they never replace the original cause.
type ExecutionError struct {
	FailedStep           string
	Cause                error
	CompensationFailures []CompensationFailure
}

func (e *ExecutionError) Error() string {
	if len(e.CompensationFailures) > 0 {
		return fmt.Sprintf("saga step %s failed (%d compensation failures): %v",
			e.FailedStep, len(e.CompensationFailures), e.Cause)
	}
	return fmt.Sprintf("saga step %s failed: %v", e.FailedStep, e.Cause)
}

// Unwrap exposes the original cause so errs.StatusCode and errors.As keep
// seeing the failing step's error.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Manager executes a list of steps strictly in order. On any step failure it
// unwinds the completed steps' compensations in reverse order and returns the
// triggering error. The manager has no domain knowledge.
type Manager[C any] struct {
	logger      zerolog.Logger
	stepTimeout time.Duration
}

// Option configures a Manager
type Option[C any] func(*Manager[C])

// WithStepTimeout applies a deadline to every Invoke and Compensate call. A
// deadline expiry is treated like any other upstream failure and triggers
// compensation.
func WithStepTimeout[C any](d time.Duration) Option[C] {
	return func(m *Manager[C]) {
		m.stepTimeout = d
	}
}

// NewManager creates a saga manager
func NewManager[C any](logger zerolog.Logger, opts ...Option[C]) *Manager[C] {
	m := &Manager[C]{logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Execute runs the steps forward. Steps are never executed in parallel: each
// step's effect is a precondition for the next. If all steps succeed no
// compensation runs and Execute returns nil.
func (m *Manager[C]) Execute(ctx context.Context, steps []Step[C], sc C) error {
	completed := make([]Step[C], 0, len(steps))

	for _, step := range steps {
		m.logger.Debug().Str("step", step.Name()).Msg("invoking saga step")

		if err := m.invoke(ctx, step, sc); err != nil {
			m.logger.Error().Err(err).Str("step", step.Name()).
				Int("completed", len(completed)).
				Msg("saga step failed, compensating completed steps")

			failures := m.unwind(ctx, completed, sc)
			return &ExecutionError{
				FailedStep:           step.Name(),
				Cause:                err,
				CompensationFailures: failures,
			}
		}

		completed = append(completed, step)
	}

	return nil
}

func (m *Manager[C]) invoke(ctx context.Context, step Step[C], sc C) error {
	ctx, span := telemetry.StartSpan(ctx, "saga.invoke",
		trace.WithAttributes(attribute.String("saga.step", step.Name())))
	defer span.End()

	stepCtx, cancel := m.stepContext(ctx)
	defer cancel()

	err := step.Invoke(stepCtx, sc)
	if err != nil && stepCtx.Err() == context.DeadlineExceeded {
		// The downstream side effect's true outcome is unknown; compensation
		// must still be safe to apply.
		err = errs.Upstream(err, "step %s deadline exceeded", step.Name())
	}
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// unwind compensates completed steps in reverse chronological order. A
// compensation failure is recorded and does not stop compensation of the
// remaining earlier steps: rollback is best-effort, not atomic.
func (m *Manager[C]) unwind(ctx context.Context, completed []Step[C], sc C) []CompensationFailure {
	// Compensation still runs when the triggering failure was the caller's
	// own cancellation or deadline.
	base := context.WithoutCancel(ctx)

	var failures []CompensationFailure
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]

		spanCtx, span := telemetry.StartSpan(base, "saga.compensate",
			trace.WithAttributes(attribute.String("saga.step", step.Name())))
		stepCtx, cancel := m.stepContext(spanCtx)
		err := step.Compensate(stepCtx, sc)
		cancel()
		if err != nil {
			span.RecordError(err)
		}
		span.End()

		if err != nil {
			m.logger.Error().Err(err).Str("step", step.Name()).
				Msg("compensation failed, manual reconciliation required")
			failures = append(failures, CompensationFailure{
				Step: step.Name(),
				Err:  errs.Compensation(err, "compensation of step %s failed", step.Name()),
			})
			continue
		}

		m.logger.Info().Str("step", step.Name()).Msg("saga step compensated")
	}

	return failures
}

func (m *Manager[C]) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.stepTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.stepTimeout)
}
