package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/kudusql/pkg/adapter"
	"github.com/leapstack-labs/kudusql/pkg/core"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables in the current database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return renderTables(cmd.Context(), cmd.OutOrStdout(), cmdCtx.Adapter, cmdCtx.Cfg.OutputFormat)
		},
	}
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "describe <table>",
		Aliases: []string{"desc"},
		Short:   "Show the columns of a table",
		Example: `  kudusql describe users
  kudusql describe users -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return renderDescribe(cmd.Context(), cmd.OutOrStdout(), cmdCtx.Adapter, args[0], cmdCtx.Cfg.OutputFormat)
		},
	}
}

func renderTables(ctx context.Context, w io.Writer, a adapter.SchemaReader, format string) error {
	names, err := a.Tables(ctx)
	if err != nil {
		return err
	}
	return renderResult(w, stringsResult("name", names), format)
}

func renderDescribe(ctx context.Context, w io.Writer, a adapter.SchemaReader, table, format string) error {
	cols, err := a.Columns(ctx, table)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("table %s has no columns or does not exist", table)
	}

	res := &core.Result{Columns: []string{"name", "type", "sql_type", "null", "default", "primary_key"}}
	for _, c := range cols {
		var def any
		if c.HasDefault {
			def = c.Default
		}
		res.Rows = append(res.Rows, []any{c.Name, c.Type.String(), c.SQLType, c.Nullable(), def, c.PrimaryKey})
	}
	return renderResult(w, res, format)
}
