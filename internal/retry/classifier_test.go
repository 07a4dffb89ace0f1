package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

func TestPostgreSQLErrorClassifier(t *testing.T) {
	c := NewPostgreSQLErrorClassifier()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection exception class", &pgconn.PgError{Code: "08006"}, true},
		{"too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"cannot connect now", &pgconn.PgError{Code: "57P03"}, true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"refused syscall", &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, true},
		{"reset syscall", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"temporary dns", &net.DNSError{Err: "server misbehaving", IsTemporary: true}, true},
		{"permanent dns", &net.DNSError{Err: "no such host", Name: "nowhere", IsNotFound: true}, false},
		{"message pattern", errors.New("FATAL: the database system is starting up"), true},
		{"canceled", context.Canceled, false},
		{"canceled with refused text", fmt.Errorf("connection refused: %w", context.Canceled), false},
		{"invalid config", fmt.Errorf("connection refused: %w", ddlstore.ErrInvalidConfig), false},
		{"parse failure", ddlstore.ErrParseFailure, false},
		{"plain error", errors.New("syntax error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsTransient(tt.err))
		})
	}
}
