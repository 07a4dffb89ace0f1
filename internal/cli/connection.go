package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/ddlstore/internal/db"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

// ConnectionEnv names a connection string variable checked before DATABASE_URL.
const ConnectionEnv = "DDLSTORE_CONNECTION_STRING"

// connectionFlags holds the common connection-related flag values.
type connectionFlags struct {
	connection     string
	host           string
	port           int
	username       string
	database       string
	sslMode        string
	azureTenantID  string
	azureClientID  string
	authMethod     string
	awsRegion      string
	googleInstance string
	watch          time.Duration
}

func addConnectionFlags(cmd *cobra.Command, f *connectionFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.connection, "connection", "", "Connection string (PostgreSQL URI or ADO.NET format)")
	flags.StringVarP(&f.host, "host", "h", "", "Database server host")
	flags.IntVarP(&f.port, "port", "p", 0, "Database server port")
	flags.StringVarP(&f.username, "username", "U", "", "Database user name")
	flags.StringVarP(&f.database, "database", "d", "", "Database name")
	flags.StringVar(&f.sslMode, "sslmode", "", "SSL mode (disable, prefer, require, verify-ca, verify-full)")
	flags.StringVar(&f.authMethod, "auth", "", "Authentication: standard, aws, google, azure")
	flags.StringVar(&f.azureTenantID, "azure-tenant-id", "", "Azure tenant ID (overrides $AZURE_TENANT_ID)")
	flags.StringVar(&f.azureClientID, "azure-client-id", "", "Azure client ID (overrides $AZURE_CLIENT_ID)")
	flags.StringVar(&f.awsRegion, "aws-region", "", "AWS region for IAM authentication")
	flags.StringVar(&f.googleInstance, "google-instance", "", "Cloud SQL instance (project:region:instance)")
	flags.DurationVar(&f.watch, "watch", 0, "Ping the connection at this interval while working (0 disables)")
}

// resolveConnection combines flags, environment and the project file.
func resolveConnection(f connectionFlags, s *session) (*ddlstore.ConnectionConfig, error) {
	connString := f.connection
	if connString == "" && f.host == "" && f.port == 0 && f.username == "" && f.sslMode == "" {
		connString = os.Getenv(ConnectionEnv)
	}

	cfg, err := db.ResolveConnectionParams(
		connString,
		&db.GranularConnFlags{
			Host:     f.host,
			Port:     f.port,
			Username: f.username,
			Database: f.database,
			SSLMode:  f.sslMode,
		},
		&db.AzureFlags{TenantID: f.azureTenantID, ClientID: f.azureClientID},
		db.LoadFromEnvironment(),
		s.project,
	)
	if err != nil {
		return nil, err
	}

	if f.authMethod != "" {
		method, err := ddlstore.ParseAuthMethod(f.authMethod)
		if err != nil {
			return nil, err
		}
		cfg.AuthMethod = method
	}
	if f.awsRegion != "" {
		cfg.AWSRegion = f.awsRegion
	}
	if f.googleInstance != "" {
		cfg.GoogleInstance = f.googleInstance
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openManager builds the connection manager for cfg. The connection itself
// is made on first use. When f.watch is set the live connection is pinged
// until ctx ends.
func openManager(ctx context.Context, f connectionFlags, s *session) (*db.Manager, error) {
	cfg, err := resolveConnection(f, s)
	if err != nil {
		return nil, err
	}
	s.logger.Verbose("Connecting to %s:%d/%s as %s (%s)", cfg.Host, cfg.Port, cfg.Database, cfg.Username, cfg.AuthMethod)

	connector, err := db.NewConnector(cfg, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	mgr := db.NewManager(connector, s.logger)
	if f.watch > 0 {
		go mgr.Watch(ctx, f.watch)
	}
	return mgr, nil
}
