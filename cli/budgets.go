package cli

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/xerrors"

	"cdr.dev/slog/v3"
	"github.com/coder/serpent"

	"github.com/coder/phaseguard/guard"
	"github.com/coder/phaseguard/lifecycle"
)

type budgetRow struct {
	Phase  string `json:"phase"`
	Max    string `json:"max"`
	Source string `json:"source"`
}

func budgetRows(cfg guard.Config) []budgetRow {
	effective := cfg.Over(guard.DefaultThresholds())
	rows := make([]budgetRow, 0, len(lifecycle.Phases))
	for _, phase := range lifecycle.Phases {
		source := "default"
		if cfg.For(phase).Declared {
			source = "config"
		}
		rows = append(rows, budgetRow{
			Phase:  phase.String(),
			Max:    effective.For(phase).String(),
			Source: source,
		})
	}
	return rows
}

func (r *RootCmd) budgets() *serpent.Command {
	var (
		configPath string
		output     string
		flags      guard.Config
	)
	// Budget flags are the last layer. The environment and the file are
	// read by LoadConfig, so only the flag half of each option is bound here.
	budgetFlags := flags.Options()
	for i := range budgetFlags {
		budgetFlags[i].Env = ""
		budgetFlags[i].YAML = ""
	}
	cmd := &serpent.Command{
		Use:   "budgets",
		Short: "Print the effective setup, test and teardown budgets",
		Long: "Budgets start at " + guard.DefaultMax.String() + " per phase, are overridden by the YAML " +
			"file given with --config, then by " + guard.EnvMaxSetup + ", " + guard.EnvMaxTest +
			" and " + guard.EnvMaxTeardown + ", and last by the --max-* flags. Budgets declared in test " +
			"code are not shown.",
		Middleware: serpent.RequireNArgs(0),
		Options: append(serpent.OptionSet{
			{
				Name:        "config",
				Description: "Path to a YAML file of budgets.",
				Flag:        "config",
				Env:         guard.ConfigPathEnv,
				Value:       serpent.StringOf(&configPath),
			},
			{
				Name:          "output",
				Description:   "Output format.",
				Flag:          "output",
				FlagShorthand: "o",
				Default:       "table",
				Value:         serpent.EnumOf(&output, "table", "json"),
			},
		}, budgetFlags...),
		Handler: func(inv *serpent.Invocation) error {
			ctx := inv.Context()
			logger := r.logger(inv)

			cfg, err := guard.LoadConfig(r.fs, configPath, inv.Environ)
			if err != nil {
				return xerrors.Errorf("load budgets: %w", err)
			}
			cfg.Merge(flags)
			logger.Debug(ctx, "loaded budgets", slog.F("config", configPath))

			rows := budgetRows(cfg)
			if output == "json" {
				enc := json.NewEncoder(inv.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			tableWriter := table.NewWriter()
			tableWriter.SetStyle(table.StyleLight)
			tableWriter.Style().Options.SeparateColumns = false
			tableWriter.AppendHeader(table.Row{"Phase", "Max", "Source"})
			for _, row := range rows {
				tableWriter.AppendRow(table.Row{row.Phase, row.Max, row.Source})
			}
			_, err = fmt.Fprintln(inv.Stdout, tableWriter.Render())
			return err
		},
	}
	return cmd
}
