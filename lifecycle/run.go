package lifecycle

import (
	"context"

	"github.com/google/uuid"

	"cdr.dev/slog/v3"
)

// Test is a single test of a class. Any of the phase funcs may be nil.
type Test struct {
	Name     string
	Setup    func(x *Execution)
	Body     func(x *Execution)
	Teardown func(x *Execution)
}

// Result is the outcome of one Run.
type Result struct {
	Class       string
	Test        string
	ExecutionID uuid.UUID
	Failures    []Failure
}

// Passed reports whether the run recorded no failures.
func (r Result) Passed() bool {
	return len(r.Failures) == 0
}

// Run executes test as an instance of c in the fixed order: before_setup,
// setup, after_setup, body, before_teardown, teardown, after_teardown.
//
// Setup, its two boundaries and the body are one step; a FailNow in any of
// them skips the rest of that step. The teardown boundaries and teardown run
// as separate steps so they always execute. Failures are reported to t as
// they happen and collected in the Result.
func (c *Class) Run(ctx context.Context, t TB, test Test) Result {
	t.Helper()

	x := newExecution(ctx, t, c, test)
	chains := c.chains()
	x.logger.Debug(ctx, "run started")

	aborted := x.capture(func() {
		x.phase = PhaseSetup
		chains[BeforeSetup](x)
		call(x, test.Setup)
		chains[AfterSetup](x)
		x.phase = PhaseTest
		call(x, test.Body)
	})
	if aborted {
		x.logger.Debug(ctx, "setup or body aborted", slog.F("phase", x.phase.String()))
	}

	if x.phase < PhaseTest {
		// Teardown boundaries still run; behaviors see that the body never
		// started through their own state.
		x.phase = PhaseTest
	}
	x.capture(func() {
		chains[BeforeTeardown](x)
	})
	x.phase = PhaseTeardown
	x.capture(func() {
		call(x, test.Teardown)
	})
	x.capture(func() {
		chains[AfterTeardown](x)
	})
	x.phase = PhaseDone

	res := Result{
		Class:       c.Name(),
		Test:        test.Name,
		ExecutionID: x.ID,
		Failures:    x.failures,
	}
	x.logger.Debug(ctx, "run finished",
		slog.F("passed", res.Passed()),
		slog.F("failures", len(res.Failures)),
	)
	return res
}

func call(x *Execution, fn func(*Execution)) {
	if fn != nil {
		fn(x)
	}
}
