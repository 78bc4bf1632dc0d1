// Package testinfra starts throwaway warehouse databases for integration tests.
package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

const (
	PostgresImage = "postgres:17-alpine"

	// The container mirrors the built-in warehouse target, except for the
	// mapped port.
	PostgresUser     = snapload.DefaultUsername
	PostgresPassword = snapload.DefaultPassword
	PostgresDB       = snapload.DefaultDatabase
)

type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnString string
}

// StartWarehousePostgres runs a PostgreSQL container with the default
// warehouse database and credentials.
func StartWarehousePostgres(ctx context.Context) (*PostgresContainer, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: ctr, ConnString: connStr}, nil
}
