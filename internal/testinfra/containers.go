// Package testinfra starts the disposable PostgreSQL servers used by
// integration tests.
package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	DefaultImage    = "postgres:17-alpine"
	DefaultDatabase = "ddlstore"
	user            = "postgres"
	password        = "postgres"
)

// DefaultSetup prepares the schemas that DDL fixtures written for SQL Server
// refer to.
var DefaultSetup = []string{
	`CREATE SCHEMA IF NOT EXISTS dbo`,
}

// Options configure StartPostgres. Zero values select the defaults.
type Options struct {
	Image    string
	Database string
	// Setup statements run once the server accepts connections.
	Setup []string
}

// Server is a running container and the URI to reach it.
type Server struct {
	*postgres.PostgresContainer
	ConnString string
}

// StartPostgres runs a throwaway PostgreSQL server and applies opts.Setup.
// The caller owns the container and should Terminate it.
func StartPostgres(ctx context.Context, opts Options) (*Server, error) {
	if opts.Image == "" {
		opts.Image = DefaultImage
	}
	if opts.Database == "" {
		opts.Database = DefaultDatabase
	}

	ctr, err := postgres.Run(ctx, opts.Image,
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		postgres.WithDatabase(opts.Database),
		testcontainers.WithWaitStrategy(
			// the entrypoint restarts the server once after initdb
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	srv := &Server{PostgresContainer: ctr}
	srv.ConnString, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err == nil {
		err = srv.apply(ctx, opts.Setup)
	}
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, err
	}
	return srv, nil
}

func (s *Server) apply(ctx context.Context, statements []string) error {
	if len(statements) == 0 {
		return nil
	}
	conn, err := pgx.Connect(ctx, s.ConnString)
	if err != nil {
		return fmt.Errorf("connect to test server: %w", err)
	}
	defer conn.Close(ctx)

	for _, stmt := range statements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("setup %q: %w", stmt, err)
		}
	}
	return nil
}
