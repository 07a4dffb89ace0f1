package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/vvka-141/ddlstore/internal/db"
	"github.com/vvka-141/ddlstore/internal/repository"
	"github.com/vvka-141/ddlstore/internal/schema"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

// tableFlags override what the DDL file or ddlstore.yaml says about a table.
type tableFlags struct {
	table string
	find  string
	id    string
	skip  []string
}

func addTableFlags(cmd *cobra.Command, f *tableFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.table, "table", "", "Target table (schema.table), default: the table named in the DDL")
	flags.StringVar(&f.find, "find", "", "File holding the SELECT used for reads")
	flags.StringVar(&f.id, "id", "", "Identity column, default: the IDENTITY column or <table>Id")
	flags.StringSliceVar(&f.skip, "skip", nil, "Columns left to server defaults (default isDisabled,dateUpdated,dateCreated)")
}

// resolveTable turns a DDL file path or a ddlstore.yaml table name into
// repository options.
func resolveTable(cmd *cobra.Command, arg string, f tableFlags, s *session) (repository.Options, error) {
	var opts repository.Options

	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		ddl, err := os.ReadFile(arg)
		if err != nil {
			return opts, fmt.Errorf("failed to read DDL file: %w", err)
		}
		opts.DDL = string(ddl)
	} else {
		tc := s.project.Table(arg)
		ddl, err := os.ReadFile(tc.DDL)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return opts, fmt.Errorf("%w: %q is neither a DDL file nor a table with %s", ddlstore.ErrInvalidConfig, arg, tc.DDL)
			}
			return opts, fmt.Errorf("failed to read DDL file: %w", err)
		}
		opts.DDL = string(ddl)
		opts.IDColumn = tc.ID
		opts.Skip = tc.Skip
		if find, err := os.ReadFile(tc.Find); err == nil {
			opts.Find = string(find)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return opts, fmt.Errorf("failed to read find query: %w", err)
		}
	}

	if f.table != "" {
		opts.Table = pgx.Identifier(schema.SplitIdentifier(f.table))
	}
	if f.find != "" {
		find, err := os.ReadFile(f.find)
		if err != nil {
			return opts, fmt.Errorf("failed to read find query: %w", err)
		}
		opts.Find = string(find)
	}
	if f.id != "" {
		opts.IDColumn = f.id
	}
	if cmd.Flags().Changed("skip") {
		opts.Skip = append([]string{}, f.skip...)
	}
	return opts, nil
}

// openRepository resolves the table and the connection for a command.
func openRepository(ctx context.Context, cmd *cobra.Command, arg string, tf tableFlags, cf connectionFlags, s *session) (*repository.Repository, *db.Manager, error) {
	opts, err := resolveTable(cmd, arg, tf, s)
	if err != nil {
		return nil, nil, err
	}
	mgr, err := openManager(ctx, cf, s)
	if err != nil {
		return nil, nil, err
	}
	repo, err := repository.New(mgr, opts, s.logger)
	if err != nil {
		_ = mgr.Close()
		return nil, nil, err
	}
	return repo, mgr, nil
}
