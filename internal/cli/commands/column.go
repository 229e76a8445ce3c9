package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/kudusql/pkg/schema"
	"github.com/leapstack-labs/kudusql/pkg/types"
)

// NewColumnCommand creates the column command group.
func NewColumnCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "column",
		Short: "Add, remove and rename columns",
	}
	cmd.AddCommand(
		newColumnAddCommand(),
		newColumnRemoveCommand(),
		newColumnRenameCommand(),
		newColumnDropKeyCommand(),
	)
	return cmd
}

type columnAddOptions struct {
	PrimaryKey bool
	NotNull    bool
	Default    string
	Limit      int
	Precision  int
	Scale      int
	Comment    string
}

func newColumnAddCommand() *cobra.Command {
	opts := &columnAddOptions{}
	cmd := &cobra.Command{
		Use:   "add <table> <column> <type>",
		Short: "Add a column",
		Long: `Add a column to a table. Adding a primary-key column rebuilds the table:
a redefined copy is created, rows are copied when --default is given, and
the tables are swapped. The rebuild is journaled and can be resumed with
"kudusql rebuild resume".`,
		Example: `  kudusql column add users email string --not-null --default ''
  kudusql column add users tenant_id bigint --pk --default 1
  kudusql column add orders amount decimal --precision 12 --scale 2`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			col, err := buildColumn(cmdCtx.Adapter.Dialect().Types(), args[1], args[2], opts, cmd.Flags().Changed("default"))
			if err != nil {
				return err
			}
			if err := cmdCtx.Adapter.AddColumn(cmd.Context(), args[0], col); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added column %s.%s\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.PrimaryKey, "pk", false, "Add the column to the primary key")
	cmd.Flags().BoolVar(&opts.NotNull, "not-null", false, "Reject NULL values")
	cmd.Flags().StringVar(&opts.Default, "default", "", "Default value")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Type limit (bytes for integer, length for char/varchar)")
	cmd.Flags().IntVar(&opts.Precision, "precision", 0, "Decimal precision")
	cmd.Flags().IntVar(&opts.Scale, "scale", 0, "Decimal scale")
	cmd.Flags().StringVar(&opts.Comment, "comment", "", "Column comment")
	return cmd
}

// buildColumn turns command-line arguments into a column definition. The
// default is cast to the column's Go representation.
func buildColumn(reg *types.Registry, name, typeName string, opts *columnAddOptions, hasDefault bool) (schema.ColumnDefinition, error) {
	kind, err := types.ParseKind(typeName)
	if err != nil {
		return schema.ColumnDefinition{}, err
	}
	t := types.Type{Kind: kind, Limit: opts.Limit, Precision: opts.Precision, Scale: opts.Scale}

	colOpts := []schema.ColumnOption{schema.Comment(opts.Comment)}
	if opts.NotNull {
		colOpts = append(colOpts, schema.NotNull())
	}
	if opts.PrimaryKey {
		colOpts = append(colOpts, schema.PrimaryKey(), schema.NotNull())
	}
	if hasDefault {
		v, err := reg.Cast(t, opts.Default)
		if err != nil {
			return schema.ColumnDefinition{}, fmt.Errorf("invalid default for %s: %w", name, err)
		}
		colOpts = append(colOpts, schema.Default(v))
	}
	return schema.NewColumn(name, t, colOpts...), nil
}

func newColumnRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <table> <column>...",
		Short: "Remove one or more non-key columns",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Adapter.RemoveColumns(cmd.Context(), args[0], args[1:]...); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d column(s) from %s\n", len(args)-1, args[0])
			return nil
		},
	}
}

func newColumnRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <table> <old> <new>",
		Short: "Rename a non-key column",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Adapter.RenameColumn(cmd.Context(), args[0], args[1], args[2]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Renamed column %s.%s to %s\n", args[0], args[1], args[2])
			return nil
		},
	}
}

func newColumnDropKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "drop-key <table> <column>",
		Short: "Drop a primary-key column by rebuilding the table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Adapter.DropPrimaryKeyColumn(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Dropped primary-key column %s.%s\n", args[0], args[1])
			return nil
		},
	}
}
