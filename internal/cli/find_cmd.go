package cli

import (
	"github.com/spf13/cobra"

	"github.com/vvka-141/ddlstore/internal/repository"
)

var findFlags struct {
	conn   connectionFlags
	table  tableFlags
	format string
	top    int
	page   int
	key    string
}

var findCmd = &cobra.Command{
	Use:   "find <ddl-file|table>",
	Short: "Read rows through a table's find query",
	Long: `Read rows through the table's find query, reshaping dotted column
names into nested objects. --top and --page paginate; --key reads one row
by its identity column.`,
	Example: `  ddlstore find user --top 20 --page 2
  ddlstore find user --key 42 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

func init() {
	addConnectionFlags(findCmd, &findFlags.conn)
	addTableFlags(findCmd, &findFlags.table)
	findCmd.Flags().StringVarP(&findFlags.format, "format", "o", formatYAML, "Output format: yaml or json")
	findCmd.Flags().IntVar(&findFlags.top, "top", 0, "Rows per page (0 reads everything)")
	findCmd.Flags().IntVar(&findFlags.page, "page", 1, "1-based page number")
	findCmd.Flags().StringVar(&findFlags.key, "key", "", "Identity value of a single row")
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	repo, mgr, err := openRepository(ctx, cmd, args[0], findFlags.table, findFlags.conn, s)
	if err != nil {
		return err
	}
	defer mgr.Close()

	if findFlags.key != "" {
		row, err := repo.FindByID(ctx, findFlags.key)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), findFlags.format, row)
	}

	rows, err := repo.Find(ctx, repository.Page{Top: findFlags.top, Number: findFlags.page})
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), findFlags.format, rows)
}
