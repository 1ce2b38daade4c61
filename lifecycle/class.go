package lifecycle

import (
	"slices"
	"sync"

	"cdr.dev/slog/v3"

	"github.com/coder/phaseguard/clock"
)

// Class describes a group of tests that share adopted behaviors and class
// variables. A subclass created with Extend inherits both from its parent.
type Class struct {
	name   string
	parent *Class

	// logger and clock are unset when inherited.
	logger *slog.Logger
	clock  clock.Clock

	mu        sync.RWMutex
	behaviors []Behavior
	vars      map[string]any
}

// ClassOption is a functional option for Class.
type ClassOption func(*Class)

// WithLogger sets the logger executions of the class log to. Subclasses
// inherit it unless they set their own.
func WithLogger(logger slog.Logger) ClassOption {
	return func(c *Class) {
		c.logger = &logger
	}
}

// WithClock sets the time source for executions of the class. Without it
// the class inherits its parent's clock, and the root falls back to the
// process default from clock.Default at run time.
func WithClock(clk clock.Clock) ClassOption {
	return func(c *Class) {
		c.clock = clk
	}
}

// NewClass returns a root class.
func NewClass(name string, opts ...ClassOption) *Class {
	c := &Class{
		name: name,
		vars: make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Extend returns a subclass of c.
func (c *Class) Extend(name string, opts ...ClassOption) *Class {
	sub := NewClass(name, opts...)
	sub.parent = c
	return sub
}

func (c *Class) Name() string {
	return c.name
}

// Parent returns nil for a root class.
func (c *Class) Parent() *Class {
	return c.parent
}

// Lineage returns c followed by its ancestors up to the root.
func (c *Class) Lineage() []*Class {
	var lineage []*Class
	for cur := c; cur != nil; cur = cur.parent {
		lineage = append(lineage, cur)
	}
	return lineage
}

// Adopt adds b to the class. Adopting a behavior whose name is already
// adopted anywhere in the lineage does nothing.
func (c *Class) Adopt(b Behavior) *Class {
	if b.Name != "" && c.parent != nil && c.parent.Adopted(b.Name) {
		return c
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if b.Name != "" && slices.ContainsFunc(c.behaviors, func(own Behavior) bool {
		return own.Name == b.Name
	}) {
		return c
	}
	c.behaviors = append(c.behaviors, b)
	return c
}

// Adopted reports whether a behavior called name is adopted by c or an
// ancestor.
func (c *Class) Adopted(name string) bool {
	for _, cur := range c.Lineage() {
		cur.mu.RLock()
		for _, b := range cur.behaviors {
			if b.Name == name {
				cur.mu.RUnlock()
				return true
			}
		}
		cur.mu.RUnlock()
	}
	return false
}

// SetVar declares a class variable on c. It shadows any value of the same
// key declared by an ancestor, for c and for subclasses that do not declare
// their own.
func (c *Class) SetVar(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vars[key] = value
}

// UnsetVar removes c's own declaration of key so lookups fall through to the
// ancestors again.
func (c *Class) UnsetVar(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.vars, key)
}

// Var walks the lineage from c toward the root and returns the first
// declared value for key.
func (c *Class) Var(key string) (any, bool) {
	for _, cur := range c.Lineage() {
		cur.mu.RLock()
		v, ok := cur.vars[key]
		cur.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// Logger returns the closest logger in the lineage. The zero result discards
// everything.
func (c *Class) Logger() slog.Logger {
	for _, cur := range c.Lineage() {
		if cur.logger != nil {
			return *cur.logger
		}
	}
	return slog.Make()
}

// Clock returns the closest clock in the lineage. Without one, the result
// follows the process clock, including swaps made after it was returned.
func (c *Class) Clock() clock.Clock {
	for _, cur := range c.Lineage() {
		if cur.clock != nil {
			return cur.clock
		}
	}
	return clock.Process()
}

// chains snapshots the adopted behaviors, root ancestor first, and composes
// one chain per boundary.
func (c *Class) chains() map[Boundary]chain {
	lineage := c.Lineage()
	var behaviors []Behavior
	for i := len(lineage) - 1; i >= 0; i-- {
		cur := lineage[i]
		cur.mu.RLock()
		behaviors = append(behaviors, cur.behaviors...)
		cur.mu.RUnlock()
	}
	chains := make(map[Boundary]chain, len(boundaries))
	for _, bd := range boundaries {
		chains[bd] = compose(behaviors, bd)
	}
	return chains
}
