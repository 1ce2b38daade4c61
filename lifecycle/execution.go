package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cdr.dev/slog/v3"

	"github.com/coder/phaseguard/clock"
)

// Execution is the state of one run of one Test. It is created by Class.Run
// and discarded when the run ends; nothing in it is shared with other runs.
//
// Execution satisfies testify's assert.TestingT and require.TestingT, so test
// code asserts against it directly. FailNow aborts the current step of the
// run, not the whole process.
type Execution struct {
	ID uuid.UUID

	ctx    context.Context
	t      TB
	class  *Class
	test   Test
	clock  clock.Clock
	logger slog.Logger

	phase    Phase
	values   map[any]any
	failures []Failure
}

// Failure is one failed assertion recorded during a run.
type Failure struct {
	Phase   Phase
	Message string
}

func newExecution(ctx context.Context, t TB, c *Class, test Test) *Execution {
	id := uuid.New()
	return &Execution{
		ID:    id,
		ctx:   ctx,
		t:     t,
		class: c,
		test:  test,
		clock: c.Clock(),
		logger: c.Logger().Named("exec").With(
			slog.F("class", c.Name()),
			slog.F("test", test.Name),
			slog.F("execution_id", id.String()),
		),
		phase:  PhaseNone,
		values: make(map[any]any),
	}
}

func (x *Execution) Context() context.Context {
	return x.ctx
}

func (x *Execution) Class() *Class {
	return x.class
}

// Name is the name of the test being run.
func (x *Execution) Name() string {
	return x.test.Name
}

// Phase returns the phase currently running.
func (x *Execution) Phase() Phase {
	return x.phase
}

func (x *Execution) Logger() slog.Logger {
	return x.logger
}

// Now reads the execution's clock. The clock is resolved once when the run
// starts.
func (x *Execution) Now(tags ...string) time.Time {
	return x.clock.Now(tags...)
}

// Value returns the behavior state stored under key.
func (x *Execution) Value(key any) any {
	return x.values[key]
}

// SetValue stores behavior state for the remainder of the run.
func (x *Execution) SetValue(key, value any) {
	x.values[key] = value
}

func (x *Execution) Helper() {
	x.t.Helper()
}

// Errorf records a failure against the current phase and reports it to the
// host TB.
func (x *Execution) Errorf(format string, args ...any) {
	x.t.Helper()
	x.failures = append(x.failures, Failure{
		Phase:   x.phase,
		Message: fmt.Sprintf(format, args...),
	})
	x.t.Errorf(format, args...)
}

// FailNow stops the current step. Callers normally reach it through
// require, which has already called Errorf.
func (x *Execution) FailNow() {
	if len(x.failures) == 0 {
		x.Errorf("%s: %s failed", x.test.Name, x.phase)
	}
	panic(abort{})
}

// Failed reports whether any failure was recorded so far.
func (x *Execution) Failed() bool {
	return len(x.failures) > 0
}

// abort is the panic value FailNow uses to unwind a step.
type abort struct{}

// capture runs fn and reports whether it was stopped by FailNow. Any other
// panic propagates.
func (x *Execution) capture(fn func()) (aborted bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(abort); ok {
				aborted = true
				return
			}
			panic(r)
		}
	}()
	fn()
	return false
}
