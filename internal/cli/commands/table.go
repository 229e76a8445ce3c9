package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/kudusql/pkg/adapter"
	"github.com/leapstack-labs/kudusql/pkg/schema"
)

// NewTableCommand creates the table command group.
func NewTableCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Create, drop and rename tables",
	}
	cmd.AddCommand(newTableCreateCommand(), newTableDropCommand(), newTableRenameCommand())
	return cmd
}

func newTableCreateCommand() *cobra.Command {
	var (
		file string
		opts adapter.CreateTableOptions
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a table from a YAML definition",
		Long: `Create a Kudu table from a YAML definition. Tables that declare no
primary key get an implicit BIGINT id column unless --no-id is given.`,
		Example: `  kudusql table create -f users.yaml
  kudusql table create -f users.yaml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			td, err := schema.LoadTableFile(file)
			if err != nil {
				return err
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Adapter.CreateTable(cmd.Context(), td, opts); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created table %s\n", td.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML table definition")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Drop an existing table of the same name first")
	cmd.Flags().BoolVar(&opts.NoID, "no-id", false, "Do not add an implicit primary key")
	cmd.Flags().StringVar(&opts.PrimaryKey, "primary-key", "", "Name of the implicit primary key (default: id)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newTableDropCommand() *cobra.Command {
	var ifExists bool
	cmd := &cobra.Command{
		Use:   "drop <table>",
		Short: "Drop a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Adapter.DropTable(cmd.Context(), args[0], ifExists); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Dropped table %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&ifExists, "if-exists", false, "Do not fail when the table is missing")
	return cmd
}

func newTableRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a table and its underlying Kudu table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Adapter.RenameTable(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Renamed table %s to %s\n", args[0], args[1])
			return nil
		},
	}
}
