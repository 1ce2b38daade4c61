// Package guard enforces wall-clock budgets on the setup, body and teardown
// phases of lifecycle tests.
//
// A class adopts the guard with Adopt. After each phase the elapsed time is
// compared with the class's budget for that phase (see MaxFor) and the test
// fails with "max <phase> time exceeded" when it is over, unless the phase
// called the matching Permit function during this run. Budgets are checked
// after the fact; a slow phase is never interrupted.
package guard

import (
	"time"

	"github.com/stretchr/testify/assert"

	"cdr.dev/slog/v3"

	"github.com/coder/phaseguard/lifecycle"
)

// BehaviorName is the name the guard is adopted under.
const BehaviorName = "phaseguard"

type guard struct {
	metrics *Metrics
}

// Option is a functional option for the guard behavior.
type Option func(*guard)

// WithMetrics counts every check in m.
func WithMetrics(m *Metrics) Option {
	return func(g *guard) {
		g.metrics = m
	}
}

// Behavior returns the guard as a lifecycle behavior.
func Behavior(opts ...Option) lifecycle.Behavior {
	g := &guard{}
	for _, opt := range opts {
		opt(g)
	}
	return lifecycle.Behavior{
		Name:           BehaviorName,
		BeforeSetup:    g.beforeSetup,
		AfterSetup:     g.afterSetup,
		BeforeTeardown: g.beforeTeardown,
		AfterTeardown:  g.afterTeardown,
	}
}

// Adopt adds the guard to c and returns c. Adopting it again anywhere in the
// lineage has no effect.
func Adopt(c *lifecycle.Class, opts ...Option) *lifecycle.Class {
	return c.Adopt(Behavior(opts...))
}

type stateKey struct{}

// state holds the timestamps and permits of one execution. It is created at
// before_setup and lives as long as the execution.
type state struct {
	setupStart    time.Time
	testStart     time.Time
	teardownStart time.Time

	testStarted     bool
	teardownStarted bool

	permits map[lifecycle.Phase]bool
}

func stateOf(x *lifecycle.Execution) *state {
	st, _ := x.Value(stateKey{}).(*state)
	return st
}

func (*guard) beforeSetup(x *lifecycle.Execution, next func()) {
	next()

	st := &state{permits: make(map[lifecycle.Phase]bool, len(lifecycle.Phases))}
	x.SetValue(stateKey{}, st)
	st.setupStart = x.Now(BehaviorName, "setup")
}

func (g *guard) afterSetup(x *lifecycle.Execution, next func()) {
	if st := stateOf(x); st != nil {
		st.testStart = x.Now(BehaviorName, "test")
		st.testStarted = true
		g.check(x, st, lifecycle.PhaseSetup, st.testStart.Sub(st.setupStart))
	}

	next()
}

func (g *guard) beforeTeardown(x *lifecycle.Execution, next func()) {
	next()

	st := stateOf(x)
	if st == nil {
		return
	}
	st.teardownStart = x.Now(BehaviorName, "teardown")
	st.teardownStarted = true
	if !st.testStarted {
		// Setup never finished, so there is no body to time.
		st.permits[lifecycle.PhaseTest] = false
		x.Logger().Debug(x.Context(), "skipping test phase check, body never started")
		return
	}
	g.check(x, st, lifecycle.PhaseTest, st.teardownStart.Sub(st.testStart))
}

func (g *guard) afterTeardown(x *lifecycle.Execution, next func()) {
	if st := stateOf(x); st != nil && st.teardownStarted {
		g.check(x, st, lifecycle.PhaseTeardown, x.Now(BehaviorName, "done").Sub(st.teardownStart))
	}

	next()
}

// check compares elapsed with the budget for phase. The permit for phase is
// consumed whatever the outcome.
func (g *guard) check(x *lifecycle.Execution, st *state, phase lifecycle.Phase, elapsed time.Duration) {
	maxElapsed := MaxFor(x.Class(), phase)
	permitted := st.permits[phase]
	st.permits[phase] = false

	ctx := x.Context()
	logger := x.Logger().With(
		slog.F("phase", phase.String()),
		slog.F("elapsed", elapsed.String()),
		slog.F("max", maxElapsed.String()),
	)

	if permitted {
		g.metrics.observe(phase, resultPermitted)
		if elapsed > maxElapsed {
			logger.Debug(ctx, "slow phase permitted")
		}
		return
	}

	if assert.LessOrEqual(x, elapsed, maxElapsed, "max %s time exceeded", phase) {
		g.metrics.observe(phase, resultPass)
		logger.Debug(ctx, "phase within budget")
		return
	}
	g.metrics.observe(phase, resultFail)
	logger.Warn(ctx, "phase exceeded budget")
}
