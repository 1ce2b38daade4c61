package lifecycle

// Hook runs at a lifecycle boundary. next continues the chain into the
// behaviors composed before this one; a hook decides whether its own work
// happens before or after calling it. A hook that never calls next cuts the
// chain short.
type Hook func(x *Execution, next func())

// Behavior is a named bundle of boundary hooks that a Class can adopt. Nil
// hooks are skipped.
type Behavior struct {
	Name string

	BeforeSetup    Hook
	AfterSetup     Hook
	BeforeTeardown Hook
	AfterTeardown  Hook
}

func (b Behavior) hook(bd Boundary) Hook {
	switch bd {
	case BeforeSetup:
		return b.BeforeSetup
	case AfterSetup:
		return b.AfterSetup
	case BeforeTeardown:
		return b.BeforeTeardown
	case AfterTeardown:
		return b.AfterTeardown
	default:
		return nil
	}
}

// chain is the composed hook chain for one boundary.
type chain func(x *Execution)

// compose builds the chain for bd out of behaviors ordered from the first
// adopted to the last. The last adopted behavior is the outermost link, so
// its next reaches the behavior adopted just before it.
func compose(behaviors []Behavior, bd Boundary) chain {
	run := chain(func(*Execution) {})
	for _, b := range behaviors {
		h := b.hook(bd)
		if h == nil {
			continue
		}
		inner := run
		run = func(x *Execution) {
			h(x, func() { inner(x) })
		}
	}
	return run
}
