package cli

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vvka-141/ddlstore/internal/repository"
)

var loadFlags struct {
	conn     connectionFlags
	table    tableFlags
	format   string
	init     bool
	quiet    bool
	parallel int
}

var loadCmd = &cobra.Command{
	Use:   "load <ddl-file|table> <records-file>...",
	Short: "Bulk-load records into a table",
	Long: `Bulk-load records from YAML or JSON files into a table and print the
inserted rows as read back through the table's find query.

Each file is loaded as one batch. Files are loaded concurrently over the one
shared connection; the rows of each file come back in file order.`,
	Example: `  ddlstore load user users.yaml
  ddlstore load sql/user.initialize.sql a.json b.json --init --quiet`,
	Args: cobra.MinimumNArgs(2),
	RunE: runLoad,
}

func init() {
	addConnectionFlags(loadCmd, &loadFlags.conn)
	addTableFlags(loadCmd, &loadFlags.table)
	loadCmd.Flags().StringVarP(&loadFlags.format, "format", "o", formatYAML, "Output format: yaml or json")
	loadCmd.Flags().BoolVar(&loadFlags.init, "init", false, "Create the table first if it does not exist")
	loadCmd.Flags().BoolVarP(&loadFlags.quiet, "quiet", "q", false, "Print only the number of rows loaded")
	loadCmd.Flags().IntVar(&loadFlags.parallel, "parallel", 4, "Files read at the same time; inserts run one at a time")
	rootCmd.AddCommand(loadCmd)
}

type loadResult struct {
	File string           `yaml:"file" json:"file"`
	Rows []map[string]any `yaml:"rows" json:"rows"`
}

func runLoad(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	repo, mgr, err := openRepository(ctx, cmd, args[0], loadFlags.table, loadFlags.conn, s)
	if err != nil {
		return err
	}
	defer mgr.Close()

	if loadFlags.init {
		if err := repo.Initialize(ctx); err != nil {
			return err
		}
	}

	results, err := loadFiles(cmd, repo, args[1:])
	if err != nil {
		return err
	}

	total := 0
	for _, r := range results {
		total += len(r.Rows)
	}
	s.logger.Info("Loaded %d rows into %s from %d files.", total, repo.Table().Sanitize(), len(results))

	if loadFlags.quiet {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), total)
		return err
	}
	return writeOutput(cmd.OutOrStdout(), loadFlags.format, results)
}

func loadFiles(cmd *cobra.Command, repo *repository.Repository, files []string) ([]loadResult, error) {
	results := make([]loadResult, len(files))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(cmd.Context())
	if loadFlags.parallel > 0 {
		g.SetLimit(loadFlags.parallel)
	}
	for i, file := range files {
		g.Go(func() error {
			recs, err := readRecords(file)
			if err != nil {
				return err
			}
			rows, err := repo.CreateMany(ctx, recs)
			if err != nil {
				return fmt.Errorf("load %s: %w", file, err)
			}
			mu.Lock()
			results[i] = loadResult{File: file, Rows: rows}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
