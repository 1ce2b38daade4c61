// Package cli implements the phaseguard command line, used by CI operators
// to inspect the budgets a test run will enforce.
package cli

import (
	"github.com/spf13/afero"

	"cdr.dev/slog/v3"
	"cdr.dev/slog/v3/sloggers/sloghuman"
	"github.com/coder/serpent"
)

const varVerbose = "verbose"

type RootCmd struct {
	fs      afero.Fs
	verbose bool
}

// New returns the root command reading config files from fs. A nil fs is
// the OS filesystem.
func New(fs afero.Fs) *RootCmd {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &RootCmd{fs: fs}
}

func (r *RootCmd) Command() *serpent.Command {
	return &serpent.Command{
		Use:   "phaseguard",
		Short: "Inspect the phase budgets enforced on lifecycle tests",
		Options: serpent.OptionSet{
			{
				Name:        varVerbose,
				Description: "Enable verbose logging.",
				Flag:        varVerbose,
				Env:         "PHASEGUARD_VERBOSE",
				Value:       serpent.BoolOf(&r.verbose),
			},
		},
		Children: []*serpent.Command{
			r.budgets(),
			r.version(),
		},
	}
}

func (r *RootCmd) logger(inv *serpent.Invocation) slog.Logger {
	logger := slog.Make(sloghuman.Sink(inv.Stderr))
	if r.verbose {
		return logger.Leveled(slog.LevelDebug)
	}
	return logger.Leveled(slog.LevelWarn)
}
