package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nyc-warehouse/snapload/internal/config"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

// loadFlagValues holds the load-related flag values shared by load and scan.
type loadFlagValues struct {
	configPath        string
	table             string
	batchSize         int
	extension         string
	noCreateTable     bool
	insertMethod      string
	timeout           time.Duration
	progress          string
	exitZeroOnFailure bool
}

// loadProjectConfig loads .env and the project configuration.
// Without --config, a missing snapload.yaml in the working directory is not
// an error and a nil config is returned. An explicit --config must exist.
func loadProjectConfig(configPath string) (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	if configPath == "" {
		projectCfg, err := config.Load(".")
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, nil // Config file not found is not an error
			}
			return nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
		}
		return projectCfg, nil
	}

	projectCfg, err := config.LoadFile(configPath)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("--config %s: %w: %w", configPath, snapload.ErrInvalidConfig, err)
		}
		return nil, fmt.Errorf("failed to load %s: %w", configPath, err)
	}
	return projectCfg, nil
}

// buildLoadConfig layers the load settings: built-in defaults, then
// snapload.yaml, then flags the user actually set, then the source_dir argument.
func buildLoadConfig(cmd *cobra.Command, args []string, flags loadFlagValues, projectCfg *config.ProjectConfig) (snapload.LoadConfig, error) {
	cfg := snapload.DefaultLoadConfig()

	if projectCfg != nil {
		if err := projectCfg.Load.ApplyTo(&cfg); err != nil {
			return snapload.LoadConfig{}, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("table") {
		cfg.Table = flags.table
	}
	if changed("batch-size") {
		cfg.BatchSize = flags.batchSize
	}
	if changed("ext") {
		cfg.Extension = flags.extension
	}
	if changed("no-create-table") {
		cfg.CreateTable = !flags.noCreateTable
	}
	if changed("insert-method") {
		cfg.InsertMethod = flags.insertMethod
	}
	if changed("timeout") {
		cfg.Timeout = flags.timeout
	}
	if len(args) > 0 {
		cfg.SourceDir = args[0]
	}

	if err := cfg.Validate(); err != nil {
		return snapload.LoadConfig{}, err
	}
	return cfg, nil
}
