// Package clock is the time source used to measure test phases. It exports an interface Clock
// that is satisfied by quartz clocks. In production the process default calls thru to the real
// clock. In testing a quartz.Mock, a Fixed instant or a Func is injected to precisely control the
// measured durations.
package clock

import (
	"time"

	"github.com/coder/quartz"
	"go.uber.org/atomic"
)

type Clock interface {
	// Now returns the current time. Tags are passed along to quartz traps when the underlying
	// clock is a mock.
	Now(tags ...string) time.Time
}

// Func adapts a plain function into a Clock.
type Func func() time.Time

func (f Func) Now(...string) time.Time {
	return f()
}

// Fixed returns a Clock that always reports t. Every duration measured with it is zero.
func Fixed(t time.Time) Clock {
	return Func(func() time.Time { return t })
}

// Real returns a Clock backed by the system wall clock.
func Real() Clock {
	return quartz.NewReal()
}

type holder struct {
	c Clock
}

var current = atomic.NewPointer(&holder{c: Real()})

// Default returns the process-wide Clock used by classes that were not given one.
func Default() Clock {
	return current.Load().c
}

// Swap replaces the process-wide Clock and returns a function that restores the previous one.
// The replacement is visible immediately to every execution that reads the default. A nil c
// resets to the real clock.
func Swap(c Clock) (restore func()) {
	if c == nil {
		c = Real()
	}
	prev := current.Swap(&holder{c: c})
	return func() {
		current.Store(prev)
	}
}

// Now reads the process-wide Clock.
func Now(tags ...string) time.Time {
	return Default().Now(tags...)
}

type process struct{}

func (process) Now(tags ...string) time.Time {
	return Now(tags...)
}

// Process returns a Clock that reads the process-wide Clock on every call, so
// a Swap takes effect in the middle of a measurement.
func Process() Clock {
	return process{}
}
