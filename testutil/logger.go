package testutil

import (
	"testing"

	"cdr.dev/slog/v3"
	"cdr.dev/slog/v3/sloggers/slogtest"
)

// Logger returns a "standard" testing logger at debug level. Errors logged
// through it fail the test, so code under test must keep timing violations
// at warn.
func Logger(t testing.TB) slog.Logger {
	return slogtest.Make(t, nil).Leveled(slog.LevelDebug)
}
