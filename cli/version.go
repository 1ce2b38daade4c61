package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/coder/phaseguard/buildinfo"
	"github.com/coder/serpent"
)

func (*RootCmd) version() *serpent.Command {
	var output string
	return &serpent.Command{
		Use:        "version",
		Short:      "Show phaseguard version",
		Middleware: serpent.RequireNArgs(0),
		Options: serpent.OptionSet{
			{
				Name:          "output",
				Description:   "Output format.",
				Flag:          "output",
				FlagShorthand: "o",
				Default:       "text",
				Value:         serpent.EnumOf(&output, "text", "json"),
			},
		},
		Handler: func(inv *serpent.Invocation) error {
			info := buildinfo.Read()
			if output == "json" {
				enc := json.NewEncoder(inv.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			var str strings.Builder
			_, _ = str.WriteString("phaseguard " + info.Version)
			if info.Modified {
				_, _ = str.WriteString(" (modified)")
			}
			if !info.BuildTime.IsZero() {
				_, _ = str.WriteString(" " + info.BuildTime.Format(time.UnixDate))
			}
			_, _ = str.WriteString("\n" + info.ExternalURL)
			_, err := fmt.Fprintln(inv.Stdout, str.String())
			return err
		},
	}
}
