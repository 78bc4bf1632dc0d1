package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Register every warehouse backend.
	_ "github.com/nyc-warehouse/snapload/internal/warehouse/all"
)

var rootCmd = newRootCmd()

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapload",
		Short: "Load NYC parquet snapshots into a SQL warehouse",
		Long: `snapload appends every parquet snapshot in a directory to one warehouse table.

Files are processed one at a time in name order. Column names are lower-cased,
rows are staged in batches inside a single transaction per file, and the run
stops at the first file that fails to load.

Exit Codes:
  0  - Success (or a failed file with --exit-zero-on-failure)
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Warehouse connection failed
  12 - Source directory or snapshot file unreadable
  13 - A file failed to ingest; the remaining files were skipped`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// -h belongs to --host, so help only gets the long flag.
	cmd.PersistentFlags().Bool("help", false, "Help for snapload")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")

	cmd.AddCommand(
		newLoadCmd(),
		newScanCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout)
		return nil
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

// commandContext returns the context cobra attached to cmd, or Background
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
