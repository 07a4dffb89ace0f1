package cli

import (
	"github.com/spf13/cobra"
)

var initFlags struct {
	conn  connectionFlags
	table tableFlags
}

var initCmd = &cobra.Command{
	Use:   "init <ddl-file|table>",
	Short: "Create a table from its CREATE TABLE script",
	Long: `Create the table described by a CREATE TABLE script unless it already
exists. Column types are mapped to their PostgreSQL equivalents, IDENTITY
columns become identity primary keys and portable defaults are kept.`,
	Example: `  ddlstore init sql/user.initialize.sql --connection postgresql://localhost/app
  ddlstore init user -h localhost -d app`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

func init() {
	addConnectionFlags(initCmd, &initFlags.conn)
	addTableFlags(initCmd, &initFlags.table)
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	repo, mgr, err := openRepository(ctx, cmd, args[0], initFlags.table, initFlags.conn, s)
	if err != nil {
		return err
	}
	defer mgr.Close()

	return repo.Initialize(ctx)
}
