package guard

import (
	"cdr.dev/slog/v3"

	"github.com/coder/phaseguard/lifecycle"
)

// Permit exempts the phase currently running from its next budget check. It
// only takes effect when called from inside phase itself: a permit for any
// other phase, or from a class that did not adopt the guard, is ignored.
func Permit(x *lifecycle.Execution, phase lifecycle.Phase) {
	st := stateOf(x)
	if st == nil || x.Phase() != phase {
		x.Logger().Debug(x.Context(), "ignoring permit outside its phase",
			slog.F("permit", phase.String()),
			slog.F("current_phase", x.Phase().String()),
		)
		return
	}
	st.permits[phase] = true
}

// PermitSlowSetup is called from setup code that is allowed to overrun its
// budget on this run.
func PermitSlowSetup(x *lifecycle.Execution) {
	Permit(x, lifecycle.PhaseSetup)
}

// PermitSlowTest is called from a test body that is allowed to overrun its
// budget on this run.
func PermitSlowTest(x *lifecycle.Execution) {
	Permit(x, lifecycle.PhaseTest)
}

// PermitSlowTeardown is called from teardown code that is allowed to overrun
// its budget on this run.
func PermitSlowTeardown(x *lifecycle.Execution) {
	Permit(x, lifecycle.PhaseTeardown)
}
