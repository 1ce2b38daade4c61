package guard

import (
	"time"

	"github.com/coder/phaseguard/lifecycle"
)

// DefaultMax is the budget of a phase no class in the lineage declared.
const DefaultMax = time.Second

// Thresholds are the budgets of the three phases.
type Thresholds struct {
	Setup    time.Duration
	Test     time.Duration
	Teardown time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Setup:    DefaultMax,
		Test:     DefaultMax,
		Teardown: DefaultMax,
	}
}

// For returns the budget of phase, or DefaultMax for a phase that is not
// timed.
func (t Thresholds) For(phase lifecycle.Phase) time.Duration {
	switch phase {
	case lifecycle.PhaseSetup:
		return t.Setup
	case lifecycle.PhaseTest:
		return t.Test
	case lifecycle.PhaseTeardown:
		return t.Teardown
	default:
		return DefaultMax
	}
}

func maxKey(phase lifecycle.Phase) string {
	return BehaviorName + ".max_" + phase.String()
}

// SetMax declares the budget of phase on c. Subclasses that do not declare
// their own inherit it. Zero and negative budgets are allowed; they fail
// every run that is not permitted.
func SetMax(c *lifecycle.Class, phase lifecycle.Phase, d time.Duration) {
	c.SetVar(maxKey(phase), d)
}

// UnsetMax drops c's own declaration so the budget is inherited again.
func UnsetMax(c *lifecycle.Class, phase lifecycle.Phase) {
	c.UnsetVar(maxKey(phase))
}

// SetThresholds declares all three budgets on c.
func SetThresholds(c *lifecycle.Class, t Thresholds) {
	for _, phase := range lifecycle.Phases {
		SetMax(c, phase, t.For(phase))
	}
}

// MaxFor resolves the budget of phase for c: the closest declaration in the
// lineage, else DefaultMax.
func MaxFor(c *lifecycle.Class, phase lifecycle.Phase) time.Duration {
	v, ok := c.Var(maxKey(phase))
	if !ok {
		return DefaultMax
	}
	d, ok := v.(time.Duration)
	if !ok {
		return DefaultMax
	}
	return d
}

// Resolve returns every budget of c.
func Resolve(c *lifecycle.Class) Thresholds {
	return Thresholds{
		Setup:    MaxFor(c, lifecycle.PhaseSetup),
		Test:     MaxFor(c, lifecycle.PhaseTest),
		Teardown: MaxFor(c, lifecycle.PhaseTeardown),
	}
}
