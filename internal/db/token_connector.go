package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nyc-warehouse/snapload/internal/logging"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

// tokenExpiryWarning is the remaining lifetime below which a freshly acquired
// token is reported, since a long load may outlive it.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector implements the Connector interface for cloud providers
// that authenticate via short-lived tokens (AWS IAM, Azure Entra ID).
// The token is acquired from a TokenProvider and used as the PostgreSQL password.
type TokenBasedConnector struct {
	config        *snapload.ConnectionConfig
	tokenProvider TokenProvider
	providerName  string
	logger        snapload.Logger
}

var _ snapload.Connector = (*TokenBasedConnector)(nil)

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error/warning messages (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *snapload.ConnectionConfig, tokenProvider TokenProvider, providerName string, logger snapload.Logger) *TokenBasedConnector {
	if tokenProvider == nil {
		panic("tokenProvider cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		providerName:  providerName,
		logger:        logger,
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	token, expiresOn, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s token: %w: %w", c.providerName, snapload.ErrConnectionFailed, err)
	}
	c.logger.Verbose("Acquired %s token from %s", c.providerName, c.tokenProvider)

	if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
		c.logger.Info("Warning: %s token expires in %v", c.providerName, remaining.Round(time.Second))
	}

	configWithToken := *c.config
	configWithToken.Password = token

	return openPool(ctx, c.config, BuildConnectionString(&configWithToken), c.logger, nil)
}
