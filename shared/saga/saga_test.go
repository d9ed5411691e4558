package saga

import (
	"context"
	"testing"
	"time"

	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects the order of invoke/compensate calls across steps
type recorder struct {
	calls []string
}

type fakeStep struct {
	name          string
	invokeErr     error
	compensateErr error
	invokeDelay   time.Duration
}

func (s *fakeStep) Name() string { return s.name }

func (s *fakeStep) Invoke(ctx context.Context, rec *recorder) error {
	if s.invokeDelay > 0 {
		select {
		case <-time.After(s.invokeDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	rec.calls = append(rec.calls, "invoke:"+s.name)
	return s.invokeErr
}

func (s *fakeStep) Compensate(ctx context.Context, rec *recorder) error {
	rec.calls = append(rec.calls, "compensate:"+s.name)
	return s.compensateErr
}

func TestManager_Execute_AllStepsSucceed(t *testing.T) {
	rec := &recorder{}
	steps := []Step[*recorder]{
		&fakeStep{name: "first"},
		&fakeStep{name: "second"},
		&fakeStep{name: "third"},
	}

	m := NewManager[*recorder](zerolog.Nop())
	err := m.Execute(context.Background(), steps, rec)

	require.NoError(t, err)
	assert.Equal(t, []string{"invoke:first", "invoke:second", "invoke:third"}, rec.calls)
}

func TestManager_Execute_FailureCompensatesInReverseOrder(t *testing.T) {
	boom := errors.New("charge declined")
	rec := &recorder{}
	steps := []Step[*recorder]{
		&fakeStep{name: "first"},
		&fakeStep{name: "second"},
		&fakeStep{name: "third", invokeErr: boom},
		&fakeStep{name: "fourth"},
	}

	m := NewManager[*recorder](zerolog.Nop())
	err := m.Execute(context.Background(), steps, rec)

	require.Error(t, err)
	assert.Equal(t, []string{
		"invoke:first",
		"invoke:second",
		"invoke:third",
		"compensate:second",
		"compensate:first",
	}, rec.calls)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "third", execErr.FailedStep)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, execErr.CompensationFailures)
}

func TestManager_Execute_FirstStepFailureCompensatesNothing(t *testing.T) {
	rec := &recorder{}
	steps := []Step[*recorder]{
		&fakeStep{name: "first", invokeErr: errors.New("no stock")},
		&fakeStep{name: "second"},
	}

	m := NewManager[*recorder](zerolog.Nop())
	err := m.Execute(context.Background(), steps, rec)

	require.Error(t, err)
	assert.Equal(t, []string{"invoke:first"}, rec.calls)
}

func TestManager_Execute_CompensationFailureDoesNotStopRollback(t *testing.T) {
	boom := errors.New("payment provider unavailable")
	rec := &recorder{}
	steps := []Step[*recorder]{
		&fakeStep{name: "first"},
		&fakeStep{name: "second", compensateErr: errors.New("release failed")},
		&fakeStep{name: "third", invokeErr: boom},
	}

	m := NewManager[*recorder](zerolog.Nop())
	err := m.Execute(context.Background(), steps, rec)

	require.Error(t, err)
	// second's compensation fails but first is still compensated
	assert.Equal(t, []string{
		"invoke:first",
		"invoke:second",
		"invoke:third",
		"compensate:second",
		"compensate:first",
	}, rec.calls)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Len(t, execErr.CompensationFailures, 1)
	assert.Equal(t, "second", execErr.CompensationFailures[0].Step)
	assert.Equal(t, errs.KindCompensation, errs.KindOf(execErr.CompensationFailures[0].Err))

	// the compensation failure never replaces the original cause
	assert.ErrorIs(t, err, boom)
}

func TestManager_Execute_StepTimeoutTriggersCompensation(t *testing.T) {
	rec := &recorder{}
	steps := []Step[*recorder]{
		&fakeStep{name: "first"},
		&fakeStep{name: "slow", invokeDelay: 200 * time.Millisecond},
	}

	m := NewManager(zerolog.Nop(), WithStepTimeout[*recorder](10*time.Millisecond))
	err := m.Execute(context.Background(), steps, rec)

	require.Error(t, err)
	assert.Equal(t, errs.KindUpstream, errs.KindOf(err))
	// the completed first step is still compensated despite the expired deadline
	assert.Equal(t, []string{"invoke:first", "compensate:first"}, rec.calls)
}

func TestManager_Execute_StatusCodeComesFromFailingStep(t *testing.T) {
	rec := &recorder{}
	steps := []Step[*recorder]{
		&fakeStep{name: "first", compensateErr: errors.New("ignored")},
		&fakeStep{name: "second", invokeErr: errs.Conflict("insufficient stock for product 42")},
	}

	m := NewManager[*recorder](zerolog.Nop())
	err := m.Execute(context.Background(), steps, rec)

	require.Error(t, err)
	assert.Equal(t, 409, errs.StatusCode(err))
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}
