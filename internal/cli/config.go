package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nyc-warehouse/snapload/internal/config"
	"github.com/nyc-warehouse/snapload/internal/db"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect snapload.yaml",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigShowCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a snapload.yaml holding the built-in defaults",
		Long: `Init writes snapload.yaml with every setting at its built-in value, ready
for editing. An existing file is kept unless --force is given.

Examples:
  # Create config in current directory
  snapload config init

  # Create config in a specific directory
  snapload config init ./pipelines/nyc`,
		Args:              RequireConfigDir,
		ValidArgsFunction: completeDirectories,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runConfigInit(cmd, dir, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing snapload.yaml")
	return cmd
}

func runConfigInit(cmd *cobra.Command, dir string, force bool) error {
	configPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite): %w", configPath, snapload.ErrInvalidConfig)
	}

	data, err := yaml.Marshal(effectiveConfig(snapload.DefaultConnectionConfig(), snapload.DefaultLoadConfig()))
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration saved to %s\n", configPath)
	return nil
}

func newConfigShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Show merges the built-in defaults, snapload.yaml and the environment
(SNAPLOAD_CONNECTION, DATABASE_URL, PG* variables) and prints the result.
Passwords are never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd, configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "",
		"Path to snapload.yaml (default: ./snapload.yaml when present)")
	return cmd
}

func runConfigShow(cmd *cobra.Command, configPath string) error {
	projectCfg, err := loadProjectConfig(configPath)
	if err != nil {
		return err
	}

	load := snapload.DefaultLoadConfig()
	if projectCfg != nil {
		if err := projectCfg.Load.ApplyTo(&load); err != nil {
			return err
		}
	}

	conn, err := db.ResolveConnectionParams("", nil, nil, db.LoadFromEnvironment(), projectCfg)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(effectiveConfig(conn, load)); err != nil {
		return errors.Join(fmt.Errorf("failed to serialize config: %w", err), enc.Close())
	}
	return enc.Close()
}

// effectiveConfig renders resolved settings in snapload.yaml form.
func effectiveConfig(conn *snapload.ConnectionConfig, load snapload.LoadConfig) config.ProjectConfig {
	createTable := load.CreateTable
	out := config.ProjectConfig{
		Connection: config.ConnectionConfig{
			Engine:         conn.Engine,
			Host:           conn.Host,
			Port:           conn.Port,
			Username:       conn.Username,
			Database:       conn.Database,
			SSLMode:        conn.SSLMode,
			AppName:        conn.AppName,
			AzureTenantID:  conn.AzureTenantID,
			AzureClientID:  conn.AzureClientID,
			AWSRegion:      conn.AWSRegion,
			GoogleInstance: conn.GoogleInstance,
		},
		Load: config.LoadSection{
			SourceDir:    load.SourceDir,
			Extension:    load.Extension,
			Table:        load.Table,
			BatchSize:    load.BatchSize,
			CreateTable:  &createTable,
			InsertMethod: load.InsertMethod,
		},
	}
	switch conn.AuthMethod {
	case snapload.AuthMethodAWSIAM:
		out.Connection.AuthMethod = "aws"
	case snapload.AuthMethodGoogleIAM:
		out.Connection.AuthMethod = "google"
	case snapload.AuthMethodAzureEntraID:
		out.Connection.AuthMethod = "azure"
	}
	if load.Timeout > 0 {
		out.Load.Timeout = load.Timeout.String()
	}
	return out
}
