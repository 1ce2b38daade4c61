package testutil

import (
	"context"
	"testing"
	"time"
)

// Constants for timing out operations, usable for creating contexts that
// time out.
const (
	WaitShort = 10 * time.Second
	WaitLong  = 25 * time.Second
)

// Context returns a context that is canceled after dur or when the test
// ends, whichever comes first.
func Context(t testing.TB, dur time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), dur)
	t.Cleanup(cancel)
	return ctx
}
