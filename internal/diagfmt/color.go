package diagfmt

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// UseColor resolves a --color value (auto|on|off) for output going to f.
func UseColor(mode string, f *os.File) (bool, error) {
	switch mode {
	case "on", "always":
		return true, nil
	case "off", "never":
		return false, nil
	case "auto", "":
		if os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		return f != nil && term.IsTerminal(int(f.Fd())), nil
	default:
		return false, fmt.Errorf("invalid color mode %q (expected auto|on|off)", mode)
	}
}
