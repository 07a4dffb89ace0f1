package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/ddlstore/internal/retry"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

// TokenProvider issues the short-lived password used by TokenBasedConnector.
type TokenProvider interface {
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String names the provider in logs. It never includes secrets.
	String() string
}

// tokenRefreshMargin is how much lifetime a token must have left to be used
// for a new connection.
const tokenRefreshMargin = 5 * time.Minute

// cachedToken hands out the last token until it gets within
// tokenRefreshMargin of expiry. Reconnects after a dropped connection then
// reuse the token instead of asking the cloud provider again.
type cachedToken struct {
	provider TokenProvider
	now      func() time.Time

	mu        sync.Mutex
	token     string
	expiresOn time.Time
}

func newCachedToken(provider TokenProvider) *cachedToken {
	return &cachedToken{provider: provider, now: time.Now}
}

func (c *cachedToken) GetToken(ctx context.Context) (string, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.expiresOn.Sub(c.now()) > tokenRefreshMargin {
		return c.token, c.expiresOn, nil
	}
	token, expiresOn, err := c.provider.GetToken(ctx)
	if err != nil {
		return "", time.Time{}, err
	}
	c.token, c.expiresOn = token, expiresOn
	return token, expiresOn, nil
}

func (c *cachedToken) String() string { return c.provider.String() }

// TokenBasedConnector connects to cloud-hosted servers that take a token as
// the password (AWS IAM, Azure Entra ID).
type TokenBasedConnector struct {
	config        *ddlstore.ConnectionConfig
	tokens        *cachedToken
	providerName  string
	logger        ddlstore.Logger
	retryExecutor *retry.Executor
}

// NewTokenBasedConnector wraps provider in a token cache. providerName
// appears in messages, e.g. "AWS IAM".
func NewTokenBasedConnector(config *ddlstore.ConnectionConfig, provider TokenProvider, providerName string, logger ddlstore.Logger) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokens:        newCachedToken(provider),
		providerName:  providerName,
		logger:        logger,
		retryExecutor: newRetryExecutor(logger),
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	return retry.Do(ctx, c.retryExecutor, func(ctx context.Context) (*pgxpool.Pool, error) {
		token, expiresOn, err := c.tokens.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire %s token from %s: %w", c.providerName, c.tokens, err)
		}
		c.logger.Verbose("Using %s token valid until %s", c.providerName, expiresOn.Format(time.RFC3339))

		withToken := *c.config
		withToken.Password = token
		return openPool(ctx, BuildConnectionString(&withToken), c.config, c.logger, nil)
	})
}
