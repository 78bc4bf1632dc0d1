package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nyc-warehouse/snapload/internal/logging"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

// GoogleCloudSQLConnector connects to Cloud SQL for PostgreSQL with IAM
// database authentication through the Cloud SQL Go Connector.
//
// Close must be called after the pool returned by Connect is closed.
type GoogleCloudSQLConnector struct {
	config   *snapload.ConnectionConfig
	instance string
	dialer   *cloudsqlconn.Dialer
	logger   snapload.Logger
}

var _ snapload.Connector = (*GoogleCloudSQLConnector)(nil)

// NewGoogleCloudSQLConnector creates a connector for an instance connection
// name of the form project:region:instance.
func NewGoogleCloudSQLConnector(config *snapload.ConnectionConfig, instance string, logger snapload.Logger) *GoogleCloudSQLConnector {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &GoogleCloudSQLConnector{config: config, instance: instance, logger: logger}
}

func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w: %w", snapload.ErrConnectionFailed, err)
	}

	dsn := fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable", c.instance, c.config.Username, c.config.Database)
	pool, err := openPool(ctx, c.config, dsn, c.logger, func(pc *pgxpool.Config) {
		pc.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.Dial(ctx, c.instance)
		}
	})
	if err != nil {
		dialer.Close()
		return nil, err
	}

	c.dialer = dialer
	return pool, nil
}

// Close releases the Cloud SQL dialer.
func (c *GoogleCloudSQLConnector) Close() error {
	if c.dialer != nil {
		err := c.dialer.Close()
		c.dialer = nil
		return err
	}
	return nil
}
