package guard

import (
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"github.com/coder/phaseguard/lifecycle"
	"github.com/coder/serpent"
)

const (
	// ConfigPathEnv names a YAML file of budgets.
	ConfigPathEnv = "PHASEGUARD_CONFIG"

	EnvMaxSetup    = "PHASEGUARD_MAX_SETUP"
	EnvMaxTest     = "PHASEGUARD_MAX_TEST"
	EnvMaxTeardown = "PHASEGUARD_MAX_TEARDOWN"
)

// Budget is a phase budget read from configuration. Declared is false until
// a value is set, so an absent setting leaves the class's own budget alone.
type Budget struct {
	Duration time.Duration
	Declared bool
}

var (
	_ pflag.Value      = (*Budget)(nil)
	_ yaml.Unmarshaler = (*Budget)(nil)
)

// Set accepts a Go duration ("250ms") or a number of seconds ("0.25").
func (b *Budget) Set(s string) error {
	d, err := parseBudget(s)
	if err != nil {
		return err
	}
	b.Duration = d
	b.Declared = true
	return nil
}

func (b *Budget) String() string {
	if !b.Declared {
		return ""
	}
	return b.Duration.String()
}

func (*Budget) Type() string {
	return "duration"
}

func (b *Budget) UnmarshalYAML(n *yaml.Node) error {
	return b.Set(n.Value)
}

func parseBudget(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, xerrors.Errorf("invalid budget %q: want a duration like 250ms or seconds like 0.25", s)
	}
	ns := math.Round(secs * float64(time.Second))
	// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
	if math.IsNaN(ns) || ns < math.MinInt64 || ns >= math.MaxInt64 {
		return 0, xerrors.Errorf("invalid budget %q: out of range", s)
	}
	return time.Duration(ns), nil
}

// Config holds budgets from the environment or a YAML file. It overrides the
// budgets declared in code so CI can tighten or relax them per run.
type Config struct {
	MaxSetup    Budget
	MaxTest     Budget
	MaxTeardown Budget
}

// Options binds the config to flags, environment variables and YAML keys.
func (c *Config) Options() serpent.OptionSet {
	return serpent.OptionSet{
		{
			Name:        "Max Setup Time",
			Description: "Budget for the setup phase of each test.",
			Flag:        "max-setup",
			Env:         EnvMaxSetup,
			YAML:        "maxSetup",
			Value:       &c.MaxSetup,
		},
		{
			Name:        "Max Test Time",
			Description: "Budget for the body of each test.",
			Flag:        "max-test",
			Env:         EnvMaxTest,
			YAML:        "maxTest",
			Value:       &c.MaxTest,
		},
		{
			Name:        "Max Teardown Time",
			Description: "Budget for the teardown phase of each test.",
			Flag:        "max-teardown",
			Env:         EnvMaxTeardown,
			YAML:        "maxTeardown",
			Value:       &c.MaxTeardown,
		},
	}
}

// For returns the budget of phase, or nil for a phase that is not timed.
func (c *Config) For(phase lifecycle.Phase) *Budget {
	switch phase {
	case lifecycle.PhaseSetup:
		return &c.MaxSetup
	case lifecycle.PhaseTest:
		return &c.MaxTest
	case lifecycle.PhaseTeardown:
		return &c.MaxTeardown
	default:
		return nil
	}
}

// Apply declares every budget set in c on class.
func (c *Config) Apply(class *lifecycle.Class) {
	for _, phase := range lifecycle.Phases {
		if b := c.For(phase); b.Declared {
			SetMax(class, phase, b.Duration)
		}
	}
}

// Merge declares every budget set in o on c, replacing c's own.
func (c *Config) Merge(o Config) {
	for _, phase := range lifecycle.Phases {
		if b := o.For(phase); b.Declared {
			*c.For(phase) = *b
		}
	}
}

// Over returns base with every declared budget of c replacing its value.
func (c *Config) Over(base Thresholds) Thresholds {
	if c.MaxSetup.Declared {
		base.Setup = c.MaxSetup.Duration
	}
	if c.MaxTest.Declared {
		base.Test = c.MaxTest.Duration
	}
	if c.MaxTeardown.Declared {
		base.Teardown = c.MaxTeardown.Duration
	}
	return base
}

// LoadConfig reads the YAML file at path, when path is not empty, and then
// the PHASEGUARD_MAX_* variables in env. The environment wins over the file.
func LoadConfig(fs afero.Fs, path string, env serpent.Environ) (Config, error) {
	var cfg Config
	opts := cfg.Options()

	if path != "" {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return Config{}, xerrors.Errorf("read config: %w", err)
		}
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Config{}, xerrors.Errorf("parse config %q: %w", path, err)
		}
		// An empty file decodes to a document without content.
		if len(doc.Content) > 0 {
			if err := opts.UnmarshalYAML(doc.Content[0]); err != nil {
				return Config{}, xerrors.Errorf("load config %q: %w", path, err)
			}
		}
	}

	if err := opts.ParseEnv(env); err != nil {
		return Config{}, xerrors.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// ConfigFromEnv loads the config of the current process, taking the YAML
// path from PHASEGUARD_CONFIG.
func ConfigFromEnv(fs afero.Fs) (Config, error) {
	env := serpent.ParseEnviron(os.Environ(), "")
	return LoadConfig(fs, env.Get(ConfigPathEnv), env)
}
