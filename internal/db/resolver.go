package db

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/vvka-141/ddlstore/internal/config"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Password is not a flag. Use $PGPASSWORD, $DB_PASSWORD or a connection
// string instead.
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty reports whether no server-selecting flag was given.
// Database is excluded: it may override the database of a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// AzureFlags override the corresponding AZURE_* environment variables.
type AzureFlags struct {
	TenantID string
	ClientID string
}

func (a *AzureFlags) IsEmpty() bool {
	return a == nil || (a.TenantID == "" && a.ClientID == "")
}

// EnvVars is the connection-related process environment.
type EnvVars struct {
	// libpq, see https://www.postgresql.org/docs/current/libpq-envars.html
	PGHOST     string
	PGPORT     string
	PGUSER     string
	PGPASSWORD string
	PGDATABASE string
	PGSSLMODE  string

	// Heroku/Rails convention
	DATABASE_URL string

	// Service .env convention: DB_SERVER accepts host, host:port or host,port.
	DB_SERVER          string
	DB_USER            string
	DB_PASSWORD        string
	DB_DATABASE        string
	DB_ENCRYPT         string
	DB_REQUEST_TIMEOUT string // milliseconds
	DB_IDLE_MS         string // milliseconds

	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string

	AWS_REGION string
}

// LoadFromEnvironment snapshots the variables EnvVars knows about.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:              os.Getenv("PGHOST"),
		PGPORT:              os.Getenv("PGPORT"),
		PGUSER:              os.Getenv("PGUSER"),
		PGPASSWORD:          os.Getenv("PGPASSWORD"),
		PGDATABASE:          os.Getenv("PGDATABASE"),
		PGSSLMODE:           os.Getenv("PGSSLMODE"),
		DATABASE_URL:        os.Getenv("DATABASE_URL"),
		DB_SERVER:           os.Getenv("DB_SERVER"),
		DB_USER:             os.Getenv("DB_USER"),
		DB_PASSWORD:         os.Getenv("DB_PASSWORD"),
		DB_DATABASE:         os.Getenv("DB_DATABASE"),
		DB_ENCRYPT:          os.Getenv("DB_ENCRYPT"),
		DB_REQUEST_TIMEOUT:  os.Getenv("DB_REQUEST_TIMEOUT"),
		DB_IDLE_MS:          os.Getenv("DB_IDLE_MS"),
		AZURE_TENANT_ID:     os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:     os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET: os.Getenv("AZURE_CLIENT_SECRET"),
		AWS_REGION:          os.Getenv("AWS_REGION"),
	}
}

func (e *EnvVars) HasAzureCredentials() bool {
	return e.AZURE_TENANT_ID != "" || e.AZURE_CLIENT_ID != ""
}

// ResolveConnectionParams builds the connection configuration.
//
// The server is chosen by, in order:
//
//  1. --connection
//  2. DATABASE_URL, when no granular flag is set
//  3. per parameter: flag > PG* > DB_* > project file > default
//
// Pool and timeout settings missing from the chosen source are filled from
// DB_REQUEST_TIMEOUT, DB_IDLE_MS and then the project file. Azure flags or
// AZURE_* variables switch authentication to Entra ID.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	azureFlags *AzureFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*ddlstore.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if azureFlags == nil {
		azureFlags = &AzureFlags{}
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
			"cannot specify both --connection and granular flags (-h, -p, -U): %w\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/app\"\n"+
				"  2. Granular flags: -h localhost -p 5432 -U myuser -d app\n"+
				"  3. Environment variables: PGHOST/PGUSER or DB_SERVER/DB_USER",
			ddlstore.ErrInvalidConfig,
		)
	}

	var (
		cfg *ddlstore.ConnectionConfig
		err error
	)
	switch {
	case connStringFlag != "":
		cfg, err = resolveFromConnectionString(connStringFlag, envVars)
	case granularFlags.IsEmpty() && envVars.DATABASE_URL != "":
		cfg, err = resolveFromConnectionString(envVars.DATABASE_URL, envVars)
	default:
		cfg, err = resolveFromGranularParams(granularFlags, envVars, pc)
	}
	if err != nil {
		return nil, err
	}

	if granularFlags.Database != "" {
		cfg.Database = granularFlags.Database
	}

	if err := applySettings(cfg, envVars, pc); err != nil {
		return nil, err
	}
	applyAzureAuth(cfg, azureFlags, envVars, pc)

	return cfg, nil
}

func resolveFromConnectionString(connStr string, envVars *EnvVars) (*ddlstore.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w: %w", ddlstore.ErrInvalidConfig, err)
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = sslModeForEncrypt(envVars.DB_ENCRYPT)
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = ddlstore.DefaultSSLMode
	}
	return cfg, nil
}

func resolveFromGranularParams(
	flags *GranularConnFlags,
	envVars *EnvVars,
	pc config.ConnectionConfig,
) (*ddlstore.ConnectionConfig, error) {
	cfg := &ddlstore.ConnectionConfig{
		AuthMethod:       ddlstore.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	var dbHost string
	var dbPort int
	if envVars.DB_SERVER != "" {
		host, port, err := splitServer(envVars.DB_SERVER)
		if err != nil {
			return nil, fmt.Errorf("invalid $DB_SERVER value: %w: %w", ddlstore.ErrInvalidConfig, err)
		}
		dbHost, dbPort = host, port
	}

	cfg.Host = firstNonEmpty(flags.Host, envVars.PGHOST, dbHost, pc.Host, "localhost")

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer: %w", envVars.PGPORT, ddlstore.ErrInvalidConfig)
		}
		cfg.Port = port
	case dbPort != 0:
		cfg.Port = dbPort
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = ddlstore.DefaultPort
	}

	cfg.Username = firstNonEmpty(flags.Username, envVars.PGUSER, envVars.DB_USER, pc.Username, os.Getenv("USER"), os.Getenv("USERNAME"))
	cfg.Password = firstNonEmpty(envVars.PGPASSWORD, envVars.DB_PASSWORD)
	cfg.Database = firstNonEmpty(flags.Database, envVars.PGDATABASE, envVars.DB_DATABASE, pc.Database)
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, sslModeForEncrypt(envVars.DB_ENCRYPT), pc.SSLMode, ddlstore.DefaultSSLMode)
	cfg.AppName = pc.AppName

	return cfg, nil
}

// applySettings fills pool, timeout and cloud settings the server source left unset.
func applySettings(cfg *ddlstore.ConnectionConfig, envVars *EnvVars, pc config.ConnectionConfig) error {
	if cfg.RequestTimeout == 0 {
		d, err := millis("DB_REQUEST_TIMEOUT", envVars.DB_REQUEST_TIMEOUT)
		if err != nil {
			return err
		}
		cfg.RequestTimeout = d
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = pc.RequestTimeout
	}

	if cfg.MaxConnIdleTime == 0 {
		d, err := millis("DB_IDLE_MS", envVars.DB_IDLE_MS)
		if err != nil {
			return err
		}
		cfg.MaxConnIdleTime = d
	}
	if cfg.MaxConnIdleTime == 0 {
		cfg.MaxConnIdleTime = pc.IdleTimeout
	}

	if cfg.MaxConns == 0 {
		cfg.MaxConns = pc.MaxConns
	}
	if cfg.MinConns == 0 {
		cfg.MinConns = pc.MinConns
	}
	if cfg.AppName == "" {
		cfg.AppName = pc.AppName
	}

	if pc.AuthMethod != "" {
		method, err := ddlstore.ParseAuthMethod(pc.AuthMethod)
		if err != nil {
			return err
		}
		cfg.AuthMethod = method
	}
	cfg.AWSRegion = firstNonEmpty(cfg.AWSRegion, pc.AWSRegion, envVars.AWS_REGION)
	cfg.GoogleInstance = firstNonEmpty(cfg.GoogleInstance, pc.GoogleInstance)
	return nil
}

// applyAzureAuth switches to Entra ID when any Azure identity is configured.
// Flags win over AZURE_* variables, which win over the project file.
func applyAzureAuth(cfg *ddlstore.ConnectionConfig, flags *AzureFlags, env *EnvVars, pc config.ConnectionConfig) {
	tenantID := firstNonEmpty(flags.TenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
	clientID := firstNonEmpty(flags.ClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)

	if tenantID != "" || clientID != "" {
		cfg.AuthMethod = ddlstore.AuthMethodAzureEntraID
		cfg.AzureTenantID = tenantID
		cfg.AzureClientID = clientID
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	}
}

func millis(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid $%s value '%s': must be milliseconds: %w", name, value, ddlstore.ErrInvalidConfig)
	}
	return time.Duration(n) * time.Millisecond, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
