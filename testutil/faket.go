package testutil

import (
	"fmt"
	"sync"
)

// FakeT records the failures reported to it instead of failing the real
// test. It stands in for the host TB when a test needs to observe whether a
// lifecycle execution passed.
type FakeT struct {
	name string

	mu     sync.Mutex
	errors []string
}

func NewFakeT(name string) *FakeT {
	return &FakeT{name: name}
}

func (*FakeT) Helper() {}

func (f *FakeT) Name() string {
	return f.name
}

func (f *FakeT) Errorf(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, fmt.Sprintf(format, args...))
}

func (f *FakeT) Failed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errors) > 0
}

// Errors returns a copy of every message passed to Errorf.
func (f *FakeT) Errors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.errors...)
}
