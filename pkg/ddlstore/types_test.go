package ddlstore_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

func TestConnectionConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		config    ddlstore.ConnectionConfig
		wantError bool
		errorType error
	}{
		{
			name:   "valid config",
			config: ddlstore.ConnectionConfig{Host: "localhost", Port: 5432, Database: "app"},
		},
		{
			name:   "google needs no host",
			config: ddlstore.ConnectionConfig{Database: "app", AuthMethod: ddlstore.AuthMethodGoogleIAM},
		},
		{
			name:      "missing host",
			config:    ddlstore.ConnectionConfig{Port: 5432, Database: "app"},
			wantError: true,
			errorType: ddlstore.ErrInvalidConfig,
		},
		{
			name:      "missing database",
			config:    ddlstore.ConnectionConfig{Host: "localhost", Port: 5432},
			wantError: true,
			errorType: ddlstore.ErrInvalidConfig,
		},
		{
			name:      "min exceeds max",
			config:    ddlstore.ConnectionConfig{Host: "localhost", Database: "app", MinConns: 5, MaxConns: 2},
			wantError: true,
			errorType: ddlstore.ErrInvalidConfig,
		},
		{
			name:      "negative timeout",
			config:    ddlstore.ConnectionConfig{Host: "localhost", Database: "app", RequestTimeout: -time.Second},
			wantError: true,
			errorType: ddlstore.ErrInvalidConfig,
		},
		{
			name:      "bogus auth method",
			config:    ddlstore.ConnectionConfig{Host: "localhost", Database: "app", AuthMethod: ddlstore.AuthMethod(42)},
			wantError: true,
			errorType: ddlstore.ErrUnsupportedAuthMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantError {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if tt.errorType != nil && !errors.Is(err, tt.errorType) {
					t.Errorf("Expected error type %v, got %v", tt.errorType, err)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestAuthMethod_String(t *testing.T) {
	tests := []struct {
		method ddlstore.AuthMethod
		want   string
	}{
		{ddlstore.AuthMethodStandard, "Standard"},
		{ddlstore.AuthMethodAWSIAM, "AWS IAM"},
		{ddlstore.AuthMethodGoogleIAM, "Google IAM"},
		{ddlstore.AuthMethodAzureEntraID, "Azure Entra ID"},
		{ddlstore.AuthMethod(99), "Unknown(99)"},
	}
	for _, tt := range tests {
		if got := tt.method.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseAuthMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    ddlstore.AuthMethod
		wantErr bool
	}{
		{"", ddlstore.AuthMethodStandard, false},
		{"Standard", ddlstore.AuthMethodStandard, false},
		{"aws", ddlstore.AuthMethodAWSIAM, false},
		{"google", ddlstore.AuthMethodGoogleIAM, false},
		{" azure ", ddlstore.AuthMethodAzureEntraID, false},
		{"kerberos", ddlstore.AuthMethodStandard, true},
	}
	for _, tt := range tests {
		got, err := ddlstore.ParseAuthMethod(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseAuthMethod(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseAuthMethod(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
