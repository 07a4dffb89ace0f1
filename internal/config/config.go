// Package config loads the project file (ddlstore.yaml) and the .env file
// that feed connection resolution and the per-table settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

const (
	ConfigFileName    = "ddlstore.yaml"
	ConfigFileNameAlt = "ddlstore.yml"

	// EnvPrefix marks environment variables that override the project file.
	// A double underscore separates nesting levels:
	// DDLSTORE_CONNECTION__HOST overrides connection.host.
	EnvPrefix = "DDLSTORE_"

	DefaultEnvFile = ".env"
	DefaultSQLDir  = "sql"
)

type ConnectionConfig struct {
	Host           string        `koanf:"host" yaml:"host,omitempty"`
	Port           int           `koanf:"port" yaml:"port,omitempty"`
	Username       string        `koanf:"username" yaml:"username,omitempty"`
	Database       string        `koanf:"database" yaml:"database,omitempty"`
	SSLMode        string        `koanf:"sslmode" yaml:"sslmode,omitempty"`
	AppName        string        `koanf:"app_name" yaml:"app_name,omitempty"`
	AuthMethod     string        `koanf:"auth_method" yaml:"auth_method,omitempty"`
	AzureTenantID  string        `koanf:"azure_tenant_id" yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string        `koanf:"azure_client_id" yaml:"azure_client_id,omitempty"`
	AWSRegion      string        `koanf:"aws_region" yaml:"aws_region,omitempty"`
	GoogleInstance string        `koanf:"google_instance" yaml:"google_instance,omitempty"`
	MaxConns       int32         `koanf:"max_conns" yaml:"max_conns,omitempty"`
	MinConns       int32         `koanf:"min_conns" yaml:"min_conns,omitempty"`
	IdleTimeout    time.Duration `koanf:"idle_timeout" yaml:"idle_timeout,omitempty"`
	RequestTimeout time.Duration `koanf:"request_timeout" yaml:"request_timeout,omitempty"`
}

// TableConfig locates the SQL files of one entity. Paths are relative to the
// project directory.
type TableConfig struct {
	// DDL is the CREATE TABLE script. Default: sql/<name>.initialize.sql
	DDL string `koanf:"ddl" yaml:"ddl,omitempty"`
	// Find is the SELECT used for reads and bulk read-back. Default: sql/<name>.find.sql
	Find string `koanf:"find" yaml:"find,omitempty"`
	// ID is the identity column. Default: <name>Id
	ID string `koanf:"id" yaml:"id,omitempty"`
	// Skip lists columns left to server defaults on insert. Default: ddlstore.DefaultSkipNames
	Skip []string `koanf:"skip" yaml:"skip,omitempty"`
}

type ProjectConfig struct {
	Connection ConnectionConfig       `koanf:"connection" yaml:"connection"`
	Tables     map[string]TableConfig `koanf:"tables" yaml:"tables,omitempty"`
	EnvFile    string                 `koanf:"env_file" yaml:"env_file,omitempty"`
	LogFile    string                 `koanf:"log_file" yaml:"log_file,omitempty"`
	Verbose    bool                   `koanf:"verbose" yaml:"verbose,omitempty"`

	// Dir is the directory the file was loaded from.
	Dir string `koanf:"-" yaml:"-"`
}

// Table returns the settings for name with defaults filled in and paths
// made absolute against the project directory.
func (p *ProjectConfig) Table(name string) TableConfig {
	tc := p.Tables[name]
	if tc.DDL == "" {
		tc.DDL = filepath.Join(DefaultSQLDir, name+".initialize.sql")
	}
	if tc.Find == "" {
		tc.Find = filepath.Join(DefaultSQLDir, name+".find.sql")
	}
	if tc.ID == "" {
		tc.ID = name + "Id"
	}
	if tc.Skip == nil {
		tc.Skip = append([]string(nil), ddlstore.DefaultSkipNames...)
	}
	tc.DDL = p.Path(tc.DDL)
	tc.Find = p.Path(tc.Find)
	return tc
}

// Path resolves a project-relative path.
func (p *ProjectConfig) Path(path string) string {
	if path == "" || filepath.IsAbs(path) || p.Dir == "" {
		return path
	}
	return filepath.Join(p.Dir, path)
}

// FindConfigFile returns the config file in dir, or "" if there is none.
func FindConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Load reads the project file from dir and applies DDLSTORE_ environment
// overrides on top of it.
// Precedence (highest to lowest): environment > file > defaults.
func Load(dir string) (*ProjectConfig, error) {
	path := FindConfigFile(dir)
	if path == "" {
		return nil, ErrConfigNotFound
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"env_file": DefaultEnvFile,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg ProjectConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	cfg.Dir = filepath.Dir(path)
	return &cfg, nil
}

// envKey maps DDLSTORE_CONNECTION__MAX_CONNS to connection.max_conns.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}
