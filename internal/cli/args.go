package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// OptionalSourceDir accepts zero or one source_dir argument. Without one the
// directory comes from snapload.yaml or the built-in default.
func OptionalSourceDir(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf(`accepts at most 1 arg(s), received %d

Usage: %s

Example:
  %s ./data/raw`, len(args), cmd.UseLine(), cmd.CommandPath())
	}
	return nil
}

// RequireConfigDir validates that at most one directory argument is given to
// config commands.
func RequireConfigDir(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("accepts at most 1 arg(s), received %d", len(args))
	}
	return nil
}
