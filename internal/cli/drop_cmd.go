package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/ddlstore/internal/db/manager"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

var dropFlags struct {
	conn  connectionFlags
	table tableFlags
	yes   bool
}

var dropCmd = &cobra.Command{
	Use:   "drop <ddl-file|table>",
	Short: "Drop a table",
	Long: `Drop the table named by a CREATE TABLE script or ddlstore.yaml entry.
Nothing happens if the table does not exist. --yes is required.`,
	Example: `  ddlstore drop user --yes`,
	Args:    cobra.ExactArgs(1),
	RunE:    runDrop,
}

func init() {
	addConnectionFlags(dropCmd, &dropFlags.conn)
	addTableFlags(dropCmd, &dropFlags.table)
	dropCmd.Flags().BoolVar(&dropFlags.yes, "yes", false, "Confirm dropping the table")
	rootCmd.AddCommand(dropCmd)
}

func runDrop(cmd *cobra.Command, args []string) error {
	if !dropFlags.yes {
		return fmt.Errorf("%w: drop needs --yes", ddlstore.ErrInvalidConfig)
	}

	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	repo, mgr, err := openRepository(ctx, cmd, args[0], dropFlags.table, dropFlags.conn, s)
	if err != nil {
		return err
	}
	defer mgr.Close()

	conn, err := mgr.Conn(ctx)
	if err != nil {
		return err
	}
	if err := manager.New().DropTable(ctx, conn, repo.Table()); err != nil {
		return err
	}
	s.logger.Info("Dropped %s.", repo.Table().Sanitize())
	return nil
}
