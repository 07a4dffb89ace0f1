package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/vvka-141/ddlstore/internal/config"
	"github.com/vvka-141/ddlstore/internal/logging"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

var rootCmd = &cobra.Command{
	Use:   "ddlstore",
	Short: "Schema-driven data access for PostgreSQL",
	Long: `ddlstore reads CREATE TABLE scripts, binds records to their columns
and loads them into PostgreSQL.

Tables are named either by a DDL file path or by an entry of the tables
section in ddlstore.yaml, whose files default to sql/<name>.initialize.sql
and sql/<name>.find.sql.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  12 - DDL could not be parsed or resolved
  13 - SQL statement failed`,
	SilenceUsage: true,
}

var globalFlags struct {
	verbose    bool
	logFile    string
	projectDir string
	envFile    string
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// -h belongs to --host, as in psql
	rootCmd.PersistentFlags().Bool("help", false, "Help for ddlstore")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.verbose, "verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logFile, "log-file", "", "Also append log output to this file")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.projectDir, "project", "C", ".", "Directory holding ddlstore.yaml")
	rootCmd.PersistentFlags().StringVar(&globalFlags.envFile, "env-file", "", "Environment file to load (default: .env in the project directory)")
}

// session is what every command works with: the project file, if any, and
// the logger built from flags and project settings.
type session struct {
	project *config.ProjectConfig
	logger  ddlstore.Logger
	closers []io.Closer
}

func (s *session) Close() {
	for _, c := range s.closers {
		_ = c.Close()
	}
}

// newSession loads ddlstore.yaml and the env file and sets up logging.
// A missing project file is not an error.
func newSession() (*session, error) {
	project, err := config.Load(globalFlags.projectDir)
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmt.Errorf("%w: %w", ddlstore.ErrInvalidConfig, err)
	}
	if project == nil {
		project = &config.ProjectConfig{Dir: globalFlags.projectDir, EnvFile: config.DefaultEnvFile}
	}

	envFile := globalFlags.envFile
	if envFile == "" {
		envFile = project.Path(project.EnvFile)
	}
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", ddlstore.ErrInvalidConfig, envFile, err)
	}

	s := &session{project: project}
	verbose := globalFlags.verbose || project.Verbose

	logFile := globalFlags.logFile
	if logFile == "" {
		logFile = project.Path(project.LogFile)
	}
	if logFile == "" {
		s.logger = logging.NewConsoleLogger(verbose)
		return s, nil
	}

	f, err := logging.OpenLogFile(logFile)
	if err != nil {
		return nil, fmt.Errorf("%w: open log file: %w", ddlstore.ErrInvalidConfig, err)
	}
	s.closers = append(s.closers, f)
	s.logger = logging.NewWriterLogger(io.MultiWriter(os.Stderr, f), verbose).WithTimestamps()
	return s, nil
}
