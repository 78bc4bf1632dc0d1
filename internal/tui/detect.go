package tui

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Mode represents how progress is rendered.
type Mode int

const (
	// ModeNonInteractive prints plain status lines (CI, pipes, redirected output).
	ModeNonInteractive Mode = iota
	// ModeInteractive renders the progress bar.
	ModeInteractive
)

// Values accepted by --progress.
const (
	ProgressAuto  = "auto"
	ProgressPlain = "plain"
	ProgressBar   = "bar"
)

// DetectMode determines whether snapload should render a progress bar.
//
// Returns ModeNonInteractive if:
//   - SNAPLOAD_NON_INTERACTIVE=1 is set
//   - CI is set (common CI/CD convention)
//   - NO_COLOR is set (accessibility/automation indicator)
//   - stderr, where the bar is drawn, is not a terminal
//
// Returns ModeInteractive otherwise.
func DetectMode() Mode {
	if os.Getenv("SNAPLOAD_NON_INTERACTIVE") == "1" {
		return ModeNonInteractive
	}
	if os.Getenv("CI") != "" {
		return ModeNonInteractive
	}
	if os.Getenv("NO_COLOR") != "" {
		return ModeNonInteractive
	}
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return ModeNonInteractive
	}
	return ModeInteractive
}

// IsInteractive is a convenience function that returns true if running in interactive mode.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}

// ResolveProgressMode maps a --progress value onto a Mode. "auto" defers to
// DetectMode.
func ResolveProgressMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", ProgressAuto:
		return DetectMode(), nil
	case ProgressPlain:
		return ModeNonInteractive, nil
	case ProgressBar:
		return ModeInteractive, nil
	default:
		return ModeNonInteractive, fmt.Errorf("invalid argument %q for --progress: must be %s, %s or %s",
			value, ProgressAuto, ProgressPlain, ProgressBar)
	}
}
