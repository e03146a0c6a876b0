package version

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Build metadata for the xil CLI, overridable via -ldflags "-X".
var (
	// Semver is the plain semantic version.
	Semver = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders Semver with each numeric component highlighted.
// color.NoColor disables the escapes.
func Colored() string {
	core, suffix, _ := strings.Cut(Semver, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Semver
	}
	out := majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// String returns the full single-line version banner.
func String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "xil %s", Colored())
	if GitCommit != "" {
		fmt.Fprintf(&sb, " (%s)", GitCommit)
	}
	if BuildDate != "" {
		fmt.Fprintf(&sb, " built %s", BuildDate)
	}
	return sb.String()
}
