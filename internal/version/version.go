package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the clangfmt CLI.
// These variables can be overridden at build time via -ldflags.

var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Current returns the trimmed version, or "dev" when unset.
func Current() string {
	v := strings.TrimSpace(Version)
	if v == "" {
		return "dev"
	}
	return v
}

// Pretty returns Current with the major, minor and patch numbers colored.
// Versions that are not dotted triples are returned as they are.
func Pretty(colored bool) string {
	v := Current()
	core, suffix := v, ""
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		core, suffix = v[:i], v[i:]
	}
	parts := strings.Split(core, ".")
	if len(parts) != 3 || !colored {
		return v
	}
	paint := func(s string, attrs ...color.Attribute) string {
		c := color.New(attrs...)
		c.EnableColor()
		return c.Sprint(s)
	}
	return paint(parts[0], color.FgYellow, color.Bold) + "." +
		paint(parts[1], color.FgGreen, color.Bold) + "." +
		paint(parts[2], color.FgBlue, color.Bold) + suffix
}
