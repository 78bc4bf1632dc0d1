package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nyc-warehouse/snapload/internal/files/scanner"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

func newScanCmd() *cobra.Command {
	var flags loadFlagValues

	cmd := &cobra.Command{
		Use:   "scan [source_dir]",
		Short: "List the snapshots a load would process",
		Long: `Scan prints the files load would process, one path per line, in the order
they would be loaded. Nothing is read and no connection is made.

Examples:
  snapload scan
  snapload scan ./snapshots --ext .PARQUET`,
		Args:              OptionalSourceDir,
		ValidArgsFunction: completeDirectories,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "",
		"Path to snapload.yaml (default: ./snapload.yaml when present)")
	cmd.Flags().StringVar(&flags.extension, "ext", snapload.DefaultExtension,
		"File extension to discover, matched case-insensitively")
	return cmd
}

func runScan(cmd *cobra.Command, args []string, flags loadFlagValues) error {
	projectCfg, err := loadProjectConfig(flags.configPath)
	if err != nil {
		return err
	}
	cfg, err := buildLoadConfig(cmd, args, flags, projectCfg)
	if err != nil {
		return err
	}

	files, err := scanner.NewScanner(cfg.Extension).Discover(cfg.SourceDir)
	if err != nil {
		return err
	}

	if getVerboseFlag(cmd) {
		fmt.Fprintf(cmd.ErrOrStderr(), "[VERBOSE] %d %s file(s) in %s\n", len(files), cfg.Extension, cfg.SourceDir)
	}
	for _, f := range files {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	return nil
}
