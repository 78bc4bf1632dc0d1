package db

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nyc-warehouse/snapload/internal/config"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Password is not a flag. Use $PGPASSWORD, --prompt-password or a
// connection string instead.
type GranularConnFlags struct {
	Engine   string
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no connection-related granular flags were provided by the user.
// Database and Engine are excluded: both may refine a --connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// blocksEnvConnection reports whether the flags pick the target themselves,
// so $SNAPLOAD_CONNECTION and $DATABASE_URL must not be consulted. -d alone
// still refines an environment string.
func (g *GranularConnFlags) blocksEnvConnection() bool {
	return !g.IsEmpty() || g.Engine != ""
}

// CloudAuthFlags selects a cloud authentication method for PostgreSQL.
// At most one of AWSIAM, GoogleIAM and Azure may be set.
type CloudAuthFlags struct {
	AWSIAM    bool
	AWSRegion string

	GoogleIAM      bool
	GoogleInstance string

	// Azure is implied when either ID is given. The client secret is
	// read from AZURE_CLIENT_SECRET only.
	Azure         bool
	AzureTenantID string
	AzureClientID string
}

func (c *CloudAuthFlags) azureRequested() bool {
	return c.Azure || c.AzureTenantID != "" || c.AzureClientID != ""
}

// EnvVars holds the environment variables that take part in resolution.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	SNAPLOAD_CONNECTION string // Full connection string, any engine
	SNAPLOAD_ENGINE     string // Engine for granular resolution
	DATABASE_URL        string // Full connection string (Heroku/Rails convention)

	PGHOST     string
	PGPORT     string
	PGUSER     string
	PGPASSWORD string
	PGDATABASE string
	PGSSLMODE  string

	AWS_REGION string

	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
}

// LoadFromEnvironment reads EnvVars from the process environment.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		SNAPLOAD_CONNECTION: os.Getenv("SNAPLOAD_CONNECTION"),
		SNAPLOAD_ENGINE:     os.Getenv("SNAPLOAD_ENGINE"),
		DATABASE_URL:        os.Getenv("DATABASE_URL"),
		PGHOST:              os.Getenv("PGHOST"),
		PGPORT:              os.Getenv("PGPORT"),
		PGUSER:              os.Getenv("PGUSER"),
		PGPASSWORD:          os.Getenv("PGPASSWORD"),
		PGDATABASE:          os.Getenv("PGDATABASE"),
		PGSSLMODE:           os.Getenv("PGSSLMODE"),
		AWS_REGION:          os.Getenv("AWS_REGION"),
		AZURE_TENANT_ID:     os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:     os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET: os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// ResolveConnectionParams resolves the warehouse target. Precedence, highest first:
//
//  1. Connection string: --connection, then $SNAPLOAD_CONNECTION, then $DATABASE_URL.
//     The environment strings are only used when no granular flag other
//     than -d is given, so --engine sqlite -d ./nyc.db ignores $DATABASE_URL.
//  2. Granular flags (--engine, -h, -p, -U, -d, --sslmode)
//  3. Environment variables (SNAPLOAD_ENGINE, PGHOST, PGPORT, ...)
//  4. snapload.yaml connection section
//  5. Built-in defaults (postgresql on localhost:15432, nyc_warehouse, admin/admin)
//
// Giving both --connection and granular flags is an error, so is selecting
// more than one cloud authentication method.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudAuthFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*snapload.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudAuthFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}
	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U, --sslmode)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://admin@localhost:15432/nyc_warehouse\"\n"+
				"  2. Granular flags: -h localhost -p 15432 -U admin -d nyc_warehouse\n"+
				"  3. Environment variables: export PGHOST=localhost PGPORT=15432 PGUSER=admin: %w",
			snapload.ErrInvalidConfig,
		)
	}

	connStr := connStringFlag
	if connStr == "" && !granularFlags.blocksEnvConnection() {
		connStr = envVars.SNAPLOAD_CONNECTION
		if connStr == "" {
			connStr = envVars.DATABASE_URL
		}
	}

	var cfg *snapload.ConnectionConfig
	var err error
	if connStr != "" {
		cfg, err = resolveFromConnectionString(connStr, granularFlags, envVars)
	} else {
		cfg, err = resolveFromGranularParams(granularFlags, envVars, pc)
	}
	if err != nil {
		return nil, err
	}

	if err := applyCloudAuth(cfg, cloudFlags, envVars, pc); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveFromConnectionString parses connStr. -d and --engine refine it, and
// PGSSLMODE/PGPASSWORD fill in what the string leaves out, following libpq.
func resolveFromConnectionString(connStr string, flags *GranularConnFlags, envVars *EnvVars) (*snapload.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w: %w", snapload.ErrInvalidConfig, err)
	}

	if flags.Engine != "" && snapload.CanonicalEngine(flags.Engine) != cfg.Engine {
		return nil, fmt.Errorf("--engine %s conflicts with the %s connection string: %w",
			flags.Engine, cfg.Engine, snapload.ErrInvalidConfig)
	}
	if flags.Database != "" {
		cfg.Database = flags.Database
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	if cfg.Password == "" && cfg.Engine == snapload.EnginePostgreSQL {
		cfg.Password = envVars.PGPASSWORD
	}
	return cfg, nil
}

// resolveFromGranularParams applies flag > environment > snapload.yaml > default
// to every parameter independently.
func resolveFromGranularParams(flags *GranularConnFlags, envVars *EnvVars, pc config.ConnectionConfig) (*snapload.ConnectionConfig, error) {
	cfg := snapload.DefaultConnectionConfig()

	cfg.Engine = snapload.CanonicalEngine(firstNonEmpty(flags.Engine, envVars.SNAPLOAD_ENGINE, pc.Engine))
	cfg.Host = firstNonEmpty(flags.Host, envVars.PGHOST, pc.Host, snapload.DefaultHost)

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer: %w", envVars.PGPORT, snapload.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = snapload.DefaultPortFor(cfg.Engine)
	}

	defaultDatabase := snapload.DefaultDatabase
	if cfg.Engine == snapload.EngineSQLite {
		defaultDatabase = snapload.DefaultSQLiteFile
	}
	cfg.Database = firstNonEmpty(flags.Database, envVars.PGDATABASE, pc.Database, defaultDatabase)
	cfg.Username = firstNonEmpty(flags.Username, envVars.PGUSER, pc.Username, snapload.DefaultUsername)
	cfg.Password = firstNonEmpty(envVars.PGPASSWORD, snapload.DefaultPassword)
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, pc.SSLMode, snapload.DefaultSSLMode)
	if pc.AppName != "" {
		cfg.AppName = pc.AppName
	}

	return cfg, nil
}

// ParseAuthMethod maps the snapload.yaml auth_method value onto an AuthMethod.
func ParseAuthMethod(s string) (snapload.AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return snapload.AuthMethodStandard, nil
	case "aws", "aws-iam", "aws_iam":
		return snapload.AuthMethodAWSIAM, nil
	case "google", "google-iam", "google_iam", "gcp":
		return snapload.AuthMethodGoogleIAM, nil
	case "azure", "entra", "azure-entra-id":
		return snapload.AuthMethodAzureEntraID, nil
	default:
		return snapload.AuthMethodStandard, fmt.Errorf("unknown auth_method %q: %w", s, snapload.ErrUnsupportedAuthMethod)
	}
}

// applyCloudAuth selects the authentication method. Flags win over
// snapload.yaml; cloud methods are only valid for PostgreSQL.
func applyCloudAuth(cfg *snapload.ConnectionConfig, flags *CloudAuthFlags, env *EnvVars, pc config.ConnectionConfig) error {
	selected := 0
	method := snapload.AuthMethodStandard
	if flags.AWSIAM {
		selected++
		method = snapload.AuthMethodAWSIAM
	}
	if flags.GoogleIAM {
		selected++
		method = snapload.AuthMethodGoogleIAM
	}
	if flags.azureRequested() {
		selected++
		method = snapload.AuthMethodAzureEntraID
	}
	if selected > 1 {
		return fmt.Errorf("choose only one of --aws-iam, --google-iam and --azure: %w", snapload.ErrInvalidConfig)
	}
	if selected == 0 {
		m, err := ParseAuthMethod(pc.AuthMethod)
		if err != nil {
			return err
		}
		method = m
	}

	if method != snapload.AuthMethodStandard && cfg.Engine != snapload.EnginePostgreSQL {
		return fmt.Errorf("%s authentication is only available for %s, not %s: %w",
			method, snapload.EnginePostgreSQL, cfg.Engine, snapload.ErrUnsupportedAuthMethod)
	}

	cfg.AuthMethod = method
	switch method {
	case snapload.AuthMethodAWSIAM:
		cfg.Password = ""
		cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, env.AWS_REGION, pc.AWSRegion)
	case snapload.AuthMethodGoogleIAM:
		cfg.Password = ""
		cfg.GoogleInstance = firstNonEmpty(flags.GoogleInstance, pc.GoogleInstance)
	case snapload.AuthMethodAzureEntraID:
		cfg.Password = ""
		cfg.AzureTenantID = firstNonEmpty(flags.AzureTenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
		cfg.AzureClientID = firstNonEmpty(flags.AzureClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
