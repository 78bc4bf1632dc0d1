// Package config reads the optional snapload.yaml project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Engine         string `yaml:"engine,omitempty"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	AppName        string `yaml:"app_name,omitempty"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

// LoadSection mirrors snapload.LoadConfig. Zero values mean "not set".
type LoadSection struct {
	SourceDir    string `yaml:"source_dir,omitempty"`
	Extension    string `yaml:"extension,omitempty"`
	Table        string `yaml:"table,omitempty"`
	BatchSize    int    `yaml:"batch_size,omitempty"`
	CreateTable  *bool  `yaml:"create_table,omitempty"`
	InsertMethod string `yaml:"insert_method,omitempty"`
	Timeout      string `yaml:"timeout,omitempty"`
}

type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Load       LoadSection      `yaml:"load"`
}

const ConfigFileName = "snapload.yaml"

// Load reads ConfigFileName from dir.
func Load(dir string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads a project config from an explicit path.
func LoadFile(configPath string) (*ProjectConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", configPath, snapload.ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// ApplyTo overlays the values set in the file onto cfg.
func (s LoadSection) ApplyTo(cfg *snapload.LoadConfig) error {
	if s.SourceDir != "" {
		cfg.SourceDir = s.SourceDir
	}
	if s.Extension != "" {
		cfg.Extension = s.Extension
	}
	if s.Table != "" {
		cfg.Table = s.Table
	}
	if s.BatchSize != 0 {
		cfg.BatchSize = s.BatchSize
	}
	if s.CreateTable != nil {
		cfg.CreateTable = *s.CreateTable
	}
	if s.InsertMethod != "" {
		cfg.InsertMethod = s.InsertMethod
	}
	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return fmt.Errorf("load.timeout %q: %w: %w", s.Timeout, snapload.ErrInvalidConfig, err)
		}
		cfg.Timeout = d
	}
	return nil
}
