// Package lifecycle is a small test harness that runs a test in three timed
// phases (setup, body, teardown) and lets classes of tests adopt behaviors
// that hook the four boundaries around those phases.
//
// A Class is a test-class descriptor. Classes form a lineage through Extend,
// and both adopted behaviors and class variables are inherited down that
// lineage. Class.Run executes one Test and returns its Result.
package lifecycle

// TB is the subset of testing.TB the harness reports to. *testing.T
// satisfies it.
type TB interface {
	Helper()
	Errorf(format string, args ...any)
	Name() string
}

// Phase is the segment of an execution that is currently running.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseSetup
	PhaseTest
	PhaseTeardown
	PhaseDone
)

// Phases lists the three timed phases in execution order.
var Phases = []Phase{PhaseSetup, PhaseTest, PhaseTeardown}

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseSetup:
		return "setup"
	case PhaseTest:
		return "test"
	case PhaseTeardown:
		return "teardown"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Boundary identifies one of the four hook points around the phases.
type Boundary int

const (
	BeforeSetup Boundary = iota
	AfterSetup
	BeforeTeardown
	AfterTeardown
)

var boundaries = []Boundary{BeforeSetup, AfterSetup, BeforeTeardown, AfterTeardown}

func (b Boundary) String() string {
	switch b {
	case BeforeSetup:
		return "before_setup"
	case AfterSetup:
		return "after_setup"
	case BeforeTeardown:
		return "before_teardown"
	case AfterTeardown:
		return "after_teardown"
	default:
		return "unknown"
	}
}
