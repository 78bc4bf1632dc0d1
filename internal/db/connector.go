package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nyc-warehouse/snapload/internal/logging"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

// Connection pool configuration constants
const (
	// DefaultMaxConns covers the ingestion transaction plus one spare for pings.
	DefaultMaxConns = 2

	// DefaultMinConns keeps no idle connection open between files.
	DefaultMinConns = 0

	// DefaultMaxConnIdleTime closes connections left idle during long reads.
	DefaultMaxConnIdleTime = 5 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config, logger snapload.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("postgres %s: %s", strings.ToLower(notice.Severity), notice.Message)
	}
}

// openPool parses connStr, opens a pool and pings it.
func openPool(ctx context.Context, cfg *snapload.ConnectionConfig, connStr string, logger snapload.Logger, tune func(*pgxpool.Config)) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection config: %w: %w", snapload.ErrInvalidConfig, err)
	}

	configurePool(poolConfig, logger)
	if tune != nil {
		tune(poolConfig)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, cfg.Host, cfg.Port, cfg.Database)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, cfg.Host, cfg.Port, cfg.Database)
	}

	return pool, nil
}

// StandardConnector implements the Connector interface for standard
// username/password authentication.
type StandardConnector struct {
	config *snapload.ConnectionConfig
	logger snapload.Logger
}

var _ snapload.Connector = (*StandardConnector)(nil)

// NewStandardConnector creates a new StandardConnector with the given configuration.
func NewStandardConnector(config *snapload.ConnectionConfig, logger snapload.Logger) *StandardConnector {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &StandardConnector{config: config, logger: logger}
}

// Connect establishes a pinged connection pool. Retrying is left to the caller.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	return openPool(ctx, c.config, BuildConnectionString(c.config), c.logger, nil)
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod.
func NewConnector(config *snapload.ConnectionConfig, logger snapload.Logger) (snapload.Connector, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	switch config.AuthMethod {
	case snapload.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case snapload.AuthMethodAWSIAM:
		return newAWSConnector(config, logger)
	case snapload.AuthMethodGoogleIAM:
		return newGoogleConnector(config, logger)
	case snapload.AuthMethodAzureEntraID:
		return newAzureConnector(config, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, snapload.ErrUnsupportedAuthMethod)
	}
}

// connectionError keeps ErrConnectionFailed and the driver error in the chain
// while presenting the guidance text.
type connectionError struct {
	msg string
	err error
}

func (e *connectionError) Error() string { return e.msg }

func (e *connectionError) Unwrap() []error {
	return []error{snapload.ErrConnectionFailed, e.err}
}

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
func wrapConnectionError(err error, host string, port int, database string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	var guidance string
	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		guidance = fmt.Sprintf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port (the default target is localhost:%d)
  - Firewall blocking the connection`, addr, host, port, snapload.DefaultPort)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		guidance = fmt.Sprintf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable`, host)

	case strings.Contains(errStr, "password authentication failed"):
		guidance = fmt.Sprintf(`password authentication failed for database "%s"

Possible causes:
  - Wrong password (check $PGPASSWORD or use --prompt-password)
  - Wrong username`, database)

	case strings.Contains(errStr, "does not exist"):
		guidance = fmt.Sprintf(`database "%s" does not exist

To create it:
  createdb -h %s -p %d %s`, database, host, port, database)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		guidance = fmt.Sprintf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets
  - Wrong host/port (server not listening)`, addr)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		guidance = `SSL/TLS connection error

Possible causes:
  - Server requires SSL but --sslmode is wrong
  - Certificate verification failed (try --sslmode=require)`

	case strings.Contains(errStr, "too many connections"):
		guidance = fmt.Sprintf(`too many connections to database "%s"

Possible causes:
  - max_connections limit reached in postgresql.conf
  - Stale connections from previous loads`, database)

	default:
		return &connectionError{msg: fmt.Sprintf("failed to connect to %s: %v", addr, err), err: err}
	}

	return &connectionError{msg: fmt.Sprintf("%s\n\nOriginal error: %v", guidance, err), err: err}
}

// newAWSConnector creates a token-based connector with the AWS IAM token provider.
func newAWSConnector(config *snapload.ConnectionConfig, logger snapload.Logger) (snapload.Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)

	tokenProvider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w: %w", snapload.ErrInvalidConfig, err)
	}

	return NewTokenBasedConnector(config, tokenProvider, "AWS IAM", logger), nil
}

// newGoogleConnector creates a GoogleCloudSQLConnector for Google Cloud SQL IAM authentication.
func newGoogleConnector(config *snapload.ConnectionConfig, logger snapload.Logger) (snapload.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", snapload.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires username (-U): %w", snapload.ErrInvalidConfig)
	}

	return NewGoogleCloudSQLConnector(config, config.GoogleInstance, logger), nil
}

// newAzureConnector creates a token-based connector with the Azure Entra ID token provider.
// Explicit tenant, client and secret select Service Principal auth, anything
// less falls back to the DefaultAzureCredential chain.
func newAzureConnector(config *snapload.ConnectionConfig, logger snapload.Logger) (snapload.Connector, error) {
	var tokenProvider TokenProvider
	var err error

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure token provider: %w", err)
	}

	return NewTokenBasedConnector(config, tokenProvider, "Azure", logger), nil
}
