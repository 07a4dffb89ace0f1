package cli

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/vvka-141/ddlstore/internal/params"
	"github.com/vvka-141/ddlstore/internal/record"
	"github.com/vvka-141/ddlstore/internal/schema"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

var paramsFlags struct {
	format  string
	record  string
	exclude []string
	sql     bool
	table   tableFlags
}

var paramsCmd = &cobra.Command{
	Use:   "params <ddl-file|table> [column=value ...]",
	Short: "Show how a record binds to a table's columns",
	Long: `Bind a record to the columns of a CREATE TABLE script and print each
parameter with its type. Values come from column=value arguments, from a
YAML or JSON file given with --record, or both (arguments win).

Excluded names must match column names exactly.`,
	Example: `  ddlstore params sql/user.initialize.sql Email=a@x.com Name=Ann
  ddlstore params user --record ann.yaml --exclude Password --sql`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParams,
}

func init() {
	paramsCmd.Flags().StringVarP(&paramsFlags.format, "format", "o", formatYAML, "Output format: yaml or json")
	paramsCmd.Flags().StringVar(&paramsFlags.record, "record", "", "YAML or JSON file holding one record")
	paramsCmd.Flags().StringSliceVar(&paramsFlags.exclude, "exclude", nil, "Columns to leave unbound")
	paramsCmd.Flags().BoolVar(&paramsFlags.sql, "sql", false, "Also print the INSERT statement")
	addTableFlags(paramsCmd, &paramsFlags.table)
	rootCmd.AddCommand(paramsCmd)
}

type paramView struct {
	Name  string `yaml:"name" json:"name"`
	Type  string `yaml:"type" json:"type"`
	Value any    `yaml:"value" json:"value"`
}

type paramsOutput struct {
	Params []paramView `yaml:"params" json:"params"`
	SQL    string      `yaml:"sql,omitempty" json:"sql,omitempty"`
}

func runParams(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	opts, err := resolveTable(cmd, args[0], paramsFlags.table, s)
	if err != nil {
		return err
	}
	parsed, err := schema.Parse(opts.DDL)
	if err != nil {
		return err
	}

	rec, err := paramsRecord(args[1:])
	if err != nil {
		return err
	}

	set := params.Bind(parsed, paramsFlags.exclude, rec)
	out := paramsOutput{Params: make([]paramView, 0, len(set))}
	for _, name := range set.Names() {
		v := set[name]
		out.Params = append(out.Params, paramView{Name: name, Type: v.Type.String(), Value: v.Value})
	}

	if paramsFlags.sql {
		table := opts.Table
		if len(table) == 0 {
			parts, err := schema.ParseTableName(opts.DDL)
			if err != nil {
				return err
			}
			table = pgx.Identifier(parts)
		}
		out.SQL = set.InsertSQL(table)
	}

	return writeOutput(cmd.OutOrStdout(), paramsFlags.format, out)
}

func paramsRecord(assignments []string) (record.Map, error) {
	rec := record.Map{}
	if paramsFlags.record != "" {
		recs, err := readRecords(paramsFlags.record)
		if err != nil {
			return nil, err
		}
		if len(recs) != 1 {
			return nil, fmt.Errorf("%w: %s holds %d records, want 1", ddlstore.ErrInvalidConfig, paramsFlags.record, len(recs))
		}
		for k, v := range recs[0].(record.Map) {
			rec[k] = v
		}
	}

	set, err := params.ParseAssignments(assignments)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ddlstore.ErrInvalidConfig, err)
	}
	for k, v := range set {
		rec[k] = v
	}
	return rec, nil
}
