package db

import (
	"context"
	"fmt"
	"net"
	"sync"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

// GoogleCloudSQLConnector connects to Cloud SQL with IAM database
// authentication through the Cloud SQL Go Connector.
//
// The dialer outlives the pool it serves; Close releases it and must be
// called after the pool is closed.
type GoogleCloudSQLConnector struct {
	config *ddlstore.ConnectionConfig
	logger ddlstore.Logger

	mu     sync.Mutex
	dialer *cloudsqlconn.Dialer
}

// NewGoogleCloudSQLConnector uses config.GoogleInstance (project:region:instance).
func NewGoogleCloudSQLConnector(config *ddlstore.ConnectionConfig, logger ddlstore.Logger) *GoogleCloudSQLConnector {
	return &GoogleCloudSQLConnector{config: config, logger: logger}
}

func (c *GoogleCloudSQLConnector) getDialer(ctx context.Context) (*cloudsqlconn.Dialer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dialer != nil {
		return c.dialer, nil
	}
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w", err)
	}
	c.dialer = dialer
	return dialer, nil
}

// Connect reuses the dialer across reconnects of the connection manager.
func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	dialer, err := c.getDialer(ctx)
	if err != nil {
		return nil, err
	}

	instance := c.config.GoogleInstance
	dsn := fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable", instance, c.config.Username, c.config.Database)

	c.logger.Verbose("dialing Cloud SQL instance %s", instance)
	return openPool(ctx, dsn, c.config, c.logger, func(pc *pgxpool.Config) {
		pc.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.Dial(ctx, instance)
		}
	})
}

// Close releases the Cloud SQL dialer.
func (c *GoogleCloudSQLConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dialer == nil {
		return nil
	}
	err := c.dialer.Close()
	c.dialer = nil
	return err
}
