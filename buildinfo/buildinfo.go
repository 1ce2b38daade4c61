// Package buildinfo reports the version of the phaseguard binary from the
// Go build info and the tag injected at link time.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/mod/semver"
)

// Injected with ldflags at build!
var tag string

const repo = "https://github.com/coder/phaseguard"

// Info describes the running build.
type Info struct {
	Version     string `json:"version"`
	ExternalURL string `json:"external_url"`
	// Revision is the full commit hash, empty outside a VCS checkout.
	Revision string `json:"revision,omitempty"`
	// Modified is set when the working tree had uncommitted changes.
	Modified bool `json:"modified"`
	// BuildTime is the commit time, zero when unknown.
	BuildTime time.Time `json:"build_time"`
}

var read = sync.OnceValue(func() Info {
	settings := map[string]string{}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			settings[s.Key] = s.Value
		}
	}
	return newInfo(tag, settings)
})

func newInfo(tag string, settings map[string]string) Info {
	info := Info{
		Revision:    settings["vcs.revision"],
		Modified:    settings["vcs.modified"] == "true",
		ExternalURL: repo,
	}
	if info.Revision != "" {
		info.ExternalURL = fmt.Sprintf("%s/commit/%s", repo, info.Revision)
	}
	if t, err := time.Parse(time.RFC3339, settings["vcs.time"]); err == nil {
		info.BuildTime = t
	}

	var build string
	if len(info.Revision) >= 7 {
		build = "+" + info.Revision[:7]
	}
	switch {
	case tag == "":
		info.Version = "v0.0.0-devel" + build
	case semver.Build("v"+tag) == "":
		info.Version = "v" + tag + build
	default:
		info.Version = "v" + tag
	}
	return info
}

// Read returns the build info of the running binary.
func Read() Info {
	return read()
}

// Version returns the semantic version of the build.
// Use golang.org/x/mod/semver to compare versions.
func Version() string {
	return read().Version
}

// ExternalURL links to the commit the binary was built from, or to the
// repository when the revision is unknown.
func ExternalURL() string {
	return read().ExternalURL
}

// Time returns when the Git revision was published.
func Time() (time.Time, bool) {
	t := read().BuildTime
	return t, !t.IsZero()
}
