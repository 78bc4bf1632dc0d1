package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/nyc-warehouse/snapload/internal/tui"
	"github.com/nyc-warehouse/snapload/internal/warehouse"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

// sslModes contains valid PostgreSQL SSL modes for shell completion.
var sslModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

var (
	progressModes = []string{tui.ProgressAuto, tui.ProgressPlain, tui.ProgressBar}
	insertMethods = []string{snapload.InsertMethodCopy, snapload.InsertMethodValues}
)

func filterPrefix(values []string, prefix string) []string {
	var matches []string
	for _, v := range values {
		if strings.HasPrefix(v, prefix) {
			matches = append(matches, v)
		}
	}
	return matches
}

// completeSSLModes provides shell completion for SSL mode flag values.
func completeSSLModes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix(sslModes, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeEngines completes --engine with the registered backends.
func completeEngines(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix(warehouse.Engines(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

func completeProgressModes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix(progressModes, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func completeInsertMethods(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix(insertMethods, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeDirectories provides shell completion for directory paths.
func completeDirectories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	// Let the shell handle directory completion
	return nil, cobra.ShellCompDirectiveFilterDirs
}
