package cli

import (
	"github.com/spf13/cobra"

	"github.com/vvka-141/ddlstore/internal/schema"
)

var schemaFlags struct {
	format       string
	keepIdentity bool
	exclude      []string
	table        tableFlags
}

var schemaCmd = &cobra.Command{
	Use:   "schema <ddl-file|table>",
	Short: "Print the columns parsed from a CREATE TABLE script",
	Long: `Print the columns parsed from a CREATE TABLE script with their declared
type, the PostgreSQL type they are stored as, nullability and default.

Identity columns are left out unless --keep-identity is given.`,
	Example: `  ddlstore schema sql/user.initialize.sql
  ddlstore schema user --format json --keep-identity`,
	Args: cobra.ExactArgs(1),
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().StringVarP(&schemaFlags.format, "format", "o", formatYAML, "Output format: yaml or json")
	schemaCmd.Flags().BoolVar(&schemaFlags.keepIdentity, "keep-identity", false, "Include IDENTITY columns")
	schemaCmd.Flags().StringSliceVar(&schemaFlags.exclude, "exclude", nil, "Columns to leave out (case-insensitive)")
	rootCmd.AddCommand(schemaCmd)
}

type columnView struct {
	Name         string  `yaml:"name" json:"name"`
	Type         string  `yaml:"type" json:"type"`
	PostgresType string  `yaml:"postgres_type" json:"postgres_type"`
	Nullable     bool    `yaml:"nullable" json:"nullable"`
	Default      *string `yaml:"default,omitempty" json:"default,omitempty"`
	Identity     bool    `yaml:"identity,omitempty" json:"identity,omitempty"`
}

func columnViews(s schema.Schema) []columnView {
	views := make([]columnView, 0, s.Len())
	for _, c := range s.Columns() {
		views = append(views, columnView{
			Name:         c.Name,
			Type:         c.Type.String(),
			PostgresType: c.Type.PostgresType(),
			Nullable:     c.Nullable,
			Default:      c.Default,
			Identity:     c.Identity,
		})
	}
	return views
}

func runSchema(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	opts, err := resolveTable(cmd, args[0], schemaFlags.table, s)
	if err != nil {
		return err
	}

	parsed, err := schema.Parse(opts.DDL,
		schema.WithIdentity(schemaFlags.keepIdentity),
		schema.WithExcluded(schemaFlags.exclude...),
	)
	if err != nil {
		return err
	}
	s.logger.Verbose("Parsed %d columns", parsed.Len())

	return writeOutput(cmd.OutOrStdout(), schemaFlags.format, columnViews(parsed))
}
