package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/ddlstore/internal/retry"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

// configurePool applies the pool limits and the statement timeout from cfg,
// falling back to the ddlstore defaults.
func configurePool(poolConfig *pgxpool.Config, cfg *ddlstore.ConnectionConfig, logger ddlstore.Logger) {
	poolConfig.MaxConns = ddlstore.DefaultMaxConns
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = ddlstore.DefaultMinConns
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if poolConfig.MinConns > poolConfig.MaxConns {
		poolConfig.MinConns = poolConfig.MaxConns
	}
	poolConfig.MaxConnIdleTime = ddlstore.DefaultMaxConnIdleTime
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	timeout := ddlstore.DefaultRequestTimeout
	if cfg.RequestTimeout > 0 {
		timeout = cfg.RequestTimeout
	}
	poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(timeout.Milliseconds(), 10)

	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("server notice: %s", notice.Message)
	}
}

// openPool parses connStr, applies pool settings and verifies the pool with a ping.
// customize, when set, runs after the pool settings are applied.
func openPool(ctx context.Context, connStr string, cfg *ddlstore.ConnectionConfig, logger ddlstore.Logger, customize func(*pgxpool.Config)) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	configurePool(poolConfig, cfg, logger)
	if customize != nil {
		customize(poolConfig)
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

func newRetryExecutor(logger ddlstore.Logger) *retry.Executor {
	return retry.NewDefaultExecutor().WithOnRetry(func(attempt int, err error, delay time.Duration) {
		logger.Verbose("connect attempt %d failed, retrying in %v: %v", attempt+1, delay, err)
	})
}

// StandardConnector implements the Connector interface for username/password
// authentication with automatic retry on transient failures.
type StandardConnector struct {
	config        *ddlstore.ConnectionConfig
	logger        ddlstore.Logger
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
// Retry behavior uses the ddlstore defaults: DefaultRetryMaxAttempts attempts,
// exponential backoff starting at DefaultRetryInitialDelay, max DefaultRetryMaxDelay.
func NewStandardConnector(config *ddlstore.ConnectionConfig, logger ddlstore.Logger) *StandardConnector {
	return &StandardConnector{
		config:        config,
		logger:        logger,
		retryExecutor: newRetryExecutor(logger),
	}
}

// Connect establishes a connection pool using standard authentication with automatic retry.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	connStr := BuildConnectionString(c.config)

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		var err error
		pool, err = openPool(ctx, connStr, c.config, c.logger, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// NewConnector creates the Connector matching the ConnectionConfig's AuthMethod.
func NewConnector(config *ddlstore.ConnectionConfig, logger ddlstore.Logger) (ddlstore.Connector, error) {
	switch config.AuthMethod {
	case ddlstore.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case ddlstore.AuthMethodAWSIAM:
		return newAWSConnector(config, logger)
	case ddlstore.AuthMethodGoogleIAM:
		return newGoogleConnector(config, logger)
	case ddlstore.AuthMethodAzureEntraID:
		return newAzureConnector(config, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, ddlstore.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`connection refused to %s

Check that the server is running (pg_isready -h %s -p %d)
and that DB_SERVER / PGHOST and the port point at it.

Original error: %w`, addr, host, port, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`cannot resolve host "%s"

Check the host name and that DNS is reachable.

Original error: %w`, host, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`password authentication failed for database "%s"

Check DB_USER / DB_PASSWORD (or PGUSER / PGPASSWORD) and the user's access to the database.

Original error: %w`, database, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`database "%s" does not exist

To create it:
  createdb %s

Original error: %w`, database, database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`connection timed out to %s

The server did not answer in time. Check the host, the port and any firewall in between.

Original error: %w`, addr, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return fmt.Errorf(`SSL/TLS connection error

The server and the configured sslmode (DB_ENCRYPT / --sslmode) disagree.

Original error: %w`, err)

	case strings.Contains(errStr, "too many connections"):
		return fmt.Errorf(`too many connections to database "%s"

Lower --max-conns or raise max_connections on the server.

Original error: %w`, database, err)

	default:
		return fmt.Errorf("failed to connect to database: %w", err)
	}
}

// newAWSConnector creates a token-based connector with the AWS IAM token provider.
func newAWSConnector(config *ddlstore.ConnectionConfig, logger ddlstore.Logger) (ddlstore.Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)

	tokenProvider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w", err)
	}

	return NewTokenBasedConnector(config, tokenProvider, "AWS IAM", logger), nil
}

// newGoogleConnector creates a GoogleCloudSQLConnector for Google Cloud SQL IAM authentication.
func newGoogleConnector(config *ddlstore.ConnectionConfig, logger ddlstore.Logger) (ddlstore.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", ddlstore.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires a username: %w", ddlstore.ErrInvalidConfig)
	}

	return NewGoogleCloudSQLConnector(config, logger), nil
}

// newAzureConnector creates a token-based connector with an Entra ID token provider.
func newAzureConnector(config *ddlstore.ConnectionConfig, logger ddlstore.Logger) (ddlstore.Connector, error) {
	provider, err := NewAzureTokenProvider(config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
	if err != nil {
		return nil, err
	}
	return NewTokenBasedConnector(config, provider, "Azure", logger), nil
}
