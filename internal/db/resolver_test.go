package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyc-warehouse/snapload/internal/config"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

func TestResolveConnectionParams_Defaults(t *testing.T) {
	cfg, err := ResolveConnectionParams("", nil, nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, snapload.EnginePostgreSQL, cfg.Engine)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 15432, cfg.Port)
	assert.Equal(t, "nyc_warehouse", cfg.Database)
	assert.Equal(t, "admin", cfg.Username)
	assert.Equal(t, "admin", cfg.Password)
	assert.Equal(t, "prefer", cfg.SSLMode)
	assert.Equal(t, snapload.AuthMethodStandard, cfg.AuthMethod)
}

func TestResolveConnectionParams_Precedence(t *testing.T) {
	project := &config.ProjectConfig{Connection: config.ConnectionConfig{
		Host:     "yaml-host",
		Port:     6000,
		Username: "yaml-user",
		Database: "yaml-db",
		SSLMode:  "disable",
	}}

	tests := []struct {
		name     string
		flags    *GranularConnFlags
		env      *EnvVars
		wantHost string
		wantPort int
		wantUser string
		wantDB   string
		wantSSL  string
		wantPass string
	}{
		{
			name:     "yaml over defaults",
			wantHost: "yaml-host", wantPort: 6000, wantUser: "yaml-user", wantDB: "yaml-db", wantSSL: "disable", wantPass: "admin",
		},
		{
			name:     "env over yaml",
			env:      &EnvVars{PGHOST: "env-host", PGPORT: "7000", PGUSER: "env-user", PGDATABASE: "env-db", PGSSLMODE: "require", PGPASSWORD: "env-pass"},
			wantHost: "env-host", wantPort: 7000, wantUser: "env-user", wantDB: "env-db", wantSSL: "require", wantPass: "env-pass",
		},
		{
			name:     "flags over env",
			flags:    &GranularConnFlags{Host: "flag-host", Port: 8000, Username: "flag-user", Database: "flag-db", SSLMode: "verify-full"},
			env:      &EnvVars{PGHOST: "env-host", PGPORT: "7000", PGUSER: "env-user", PGDATABASE: "env-db"},
			wantHost: "flag-host", wantPort: 8000, wantUser: "flag-user", wantDB: "flag-db", wantSSL: "verify-full", wantPass: "admin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ResolveConnectionParams("", tt.flags, nil, tt.env, project)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, cfg.Host)
			assert.Equal(t, tt.wantPort, cfg.Port)
			assert.Equal(t, tt.wantUser, cfg.Username)
			assert.Equal(t, tt.wantDB, cfg.Database)
			assert.Equal(t, tt.wantSSL, cfg.SSLMode)
			assert.Equal(t, tt.wantPass, cfg.Password)
		})
	}
}

func TestResolveConnectionParams_ConnectionStrings(t *testing.T) {
	t.Run("flag wins over environment strings", func(t *testing.T) {
		env := &EnvVars{SNAPLOAD_CONNECTION: "postgresql://env/x", DATABASE_URL: "postgresql://url/y"}
		cfg, err := ResolveConnectionParams("postgresql://flag:1/z", nil, nil, env, nil)
		require.NoError(t, err)
		assert.Equal(t, "flag", cfg.Host)
	})

	t.Run("SNAPLOAD_CONNECTION before DATABASE_URL", func(t *testing.T) {
		env := &EnvVars{SNAPLOAD_CONNECTION: "sqlite:///tmp/a.db", DATABASE_URL: "postgresql://url/y"}
		cfg, err := ResolveConnectionParams("", nil, nil, env, nil)
		require.NoError(t, err)
		assert.Equal(t, snapload.EngineSQLite, cfg.Engine)
		assert.Equal(t, "/tmp/a.db", cfg.Database)
	})

	t.Run("DATABASE_URL ignored when granular flags are given", func(t *testing.T) {
		env := &EnvVars{DATABASE_URL: "postgresql://url/y"}
		cfg, err := ResolveConnectionParams("", &GranularConnFlags{Host: "flag-host"}, nil, env, nil)
		require.NoError(t, err)
		assert.Equal(t, "flag-host", cfg.Host)
	})

	t.Run("engine flag ignores environment strings", func(t *testing.T) {
		env := &EnvVars{
			SNAPLOAD_CONNECTION: "sqlserver://sa@mssql.example/dw",
			DATABASE_URL:        "postgresql://u:p@db.example:5432/other",
		}
		cfg, err := ResolveConnectionParams("", &GranularConnFlags{Engine: "sqlite", Database: "x.db"}, nil, env, nil)
		require.NoError(t, err)
		assert.Equal(t, snapload.EngineSQLite, cfg.Engine)
		assert.Equal(t, "x.db", cfg.Database)
	})

	t.Run("database flag refines environment string", func(t *testing.T) {
		env := &EnvVars{DATABASE_URL: "postgresql://u:p@db.example:5432/other"}
		cfg, err := ResolveConnectionParams("", &GranularConnFlags{Database: "nyc"}, nil, env, nil)
		require.NoError(t, err)
		assert.Equal(t, "db.example", cfg.Host)
		assert.Equal(t, "nyc", cfg.Database)
	})

	t.Run("database flag refines connection string", func(t *testing.T) {
		cfg, err := ResolveConnectionParams("postgresql://db/a", &GranularConnFlags{Database: "b"}, nil, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "b", cfg.Database)
	})

	t.Run("PGPASSWORD fills missing password", func(t *testing.T) {
		cfg, err := ResolveConnectionParams("postgresql://u@db/a", nil, nil, &EnvVars{PGPASSWORD: "pw"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "pw", cfg.Password)
	})
}

func TestResolveConnectionParams_Engine(t *testing.T) {
	t.Run("sqlite from environment gets a file default", func(t *testing.T) {
		cfg, err := ResolveConnectionParams("", nil, nil, &EnvVars{SNAPLOAD_ENGINE: "sqlite3"}, nil)
		require.NoError(t, err)
		assert.Equal(t, snapload.EngineSQLite, cfg.Engine)
		assert.Equal(t, snapload.DefaultSQLiteFile, cfg.Database)
	})

	t.Run("sqlserver from yaml gets port 1433", func(t *testing.T) {
		project := &config.ProjectConfig{Connection: config.ConnectionConfig{Engine: "mssql"}}
		cfg, err := ResolveConnectionParams("", nil, nil, nil, project)
		require.NoError(t, err)
		assert.Equal(t, snapload.EngineSQLServer, cfg.Engine)
		assert.Equal(t, 1433, cfg.Port)
	})

	t.Run("engine flag conflicting with connection string", func(t *testing.T) {
		_, err := ResolveConnectionParams("postgresql://db/a", &GranularConnFlags{Engine: "sqlite"}, nil, nil, nil)
		assert.ErrorIs(t, err, snapload.ErrInvalidConfig)
	})
}

func TestResolveConnectionParams_Errors(t *testing.T) {
	tests := []struct {
		name    string
		connStr string
		flags   *GranularConnFlags
		cloud   *CloudAuthFlags
		env     *EnvVars
		project *config.ProjectConfig
		wantErr error
	}{
		{
			name:    "connection string with granular flags",
			connStr: "postgresql://db/a",
			flags:   &GranularConnFlags{Host: "other"},
			wantErr: snapload.ErrInvalidConfig,
		},
		{
			name:    "invalid PGPORT",
			env:     &EnvVars{PGPORT: "abc"},
			wantErr: snapload.ErrInvalidConfig,
		},
		{
			name:    "invalid connection string",
			connStr: "nonsense",
			wantErr: snapload.ErrInvalidConfig,
		},
		{
			name:    "two cloud methods",
			cloud:   &CloudAuthFlags{AWSIAM: true, GoogleIAM: true},
			wantErr: snapload.ErrInvalidConfig,
		},
		{
			name:    "cloud auth on sqlite",
			connStr: "sqlite:///tmp/a.db",
			cloud:   &CloudAuthFlags{AWSIAM: true},
			wantErr: snapload.ErrUnsupportedAuthMethod,
		},
		{
			name:    "unknown yaml auth method",
			project: &config.ProjectConfig{Connection: config.ConnectionConfig{AuthMethod: "kerberos"}},
			wantErr: snapload.ErrUnsupportedAuthMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveConnectionParams(tt.connStr, tt.flags, tt.cloud, tt.env, tt.project)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestResolveConnectionParams_CloudAuth(t *testing.T) {
	t.Run("aws region from environment", func(t *testing.T) {
		cfg, err := ResolveConnectionParams("", nil, &CloudAuthFlags{AWSIAM: true}, &EnvVars{AWS_REGION: "us-east-1", PGPASSWORD: "ignored"}, nil)
		require.NoError(t, err)
		assert.Equal(t, snapload.AuthMethodAWSIAM, cfg.AuthMethod)
		assert.Equal(t, "us-east-1", cfg.AWSRegion)
		assert.Empty(t, cfg.Password)
	})

	t.Run("google instance from flag", func(t *testing.T) {
		cfg, err := ResolveConnectionParams("", nil, &CloudAuthFlags{GoogleIAM: true, GoogleInstance: "p:r:i"}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, snapload.AuthMethodGoogleIAM, cfg.AuthMethod)
		assert.Equal(t, "p:r:i", cfg.GoogleInstance)
	})

	t.Run("azure implied by tenant flag, secret from env", func(t *testing.T) {
		env := &EnvVars{AZURE_CLIENT_ID: "env-client", AZURE_CLIENT_SECRET: "secret"}
		cfg, err := ResolveConnectionParams("", nil, &CloudAuthFlags{AzureTenantID: "tenant"}, env, nil)
		require.NoError(t, err)
		assert.Equal(t, snapload.AuthMethodAzureEntraID, cfg.AuthMethod)
		assert.Equal(t, "tenant", cfg.AzureTenantID)
		assert.Equal(t, "env-client", cfg.AzureClientID)
		assert.Equal(t, "secret", cfg.AzureClientSecret)
	})

	t.Run("azure env alone does not switch auth", func(t *testing.T) {
		cfg, err := ResolveConnectionParams("", nil, nil, &EnvVars{AZURE_TENANT_ID: "t"}, nil)
		require.NoError(t, err)
		assert.Equal(t, snapload.AuthMethodStandard, cfg.AuthMethod)
	})

	t.Run("yaml auth method", func(t *testing.T) {
		project := &config.ProjectConfig{Connection: config.ConnectionConfig{AuthMethod: "aws", AWSRegion: "eu-west-1"}}
		cfg, err := ResolveConnectionParams("", nil, nil, nil, project)
		require.NoError(t, err)
		assert.Equal(t, snapload.AuthMethodAWSIAM, cfg.AuthMethod)
		assert.Equal(t, "eu-west-1", cfg.AWSRegion)
	})
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SNAPLOAD_CONNECTION", "sqlite:///tmp/x.db")
	t.Setenv("SNAPLOAD_ENGINE", "sqlite")
	t.Setenv("PGPORT", "15433")

	env := LoadFromEnvironment()
	assert.Equal(t, "sqlite:///tmp/x.db", env.SNAPLOAD_CONNECTION)
	assert.Equal(t, "sqlite", env.SNAPLOAD_ENGINE)
	assert.Equal(t, "15433", env.PGPORT)
}
