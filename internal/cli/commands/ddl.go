package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/kudusql/pkg/ddl"
	"github.com/leapstack-labs/kudusql/pkg/schema"
)

// NewDDLCommand creates the ddl command group.
func NewDDLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Render DDL without touching the engine",
	}
	cmd.AddCommand(newDDLRenderCommand())
	return cmd
}

func newDDLRenderCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the CREATE TABLE statement for a table definition file",
		Example: `  kudusql ddl render -f db/tables/users.yaml
  kudusql ddl render -f users.yaml --database analytics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContextWithoutAdapter(cmd)

			td, err := schema.LoadTableFile(file)
			if err != nil {
				return err
			}
			sql, err := ddl.New(cmdCtx.Cfg.BuildDialect()).RenderCreate(td)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), sql+";")
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML table definition")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
