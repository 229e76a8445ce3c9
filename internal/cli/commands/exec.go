package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <SQL>",
		Short: "Execute a statement that returns no rows",
		Long: `Execute a DDL or DML statement through the adapter. Transient transport
failures are retried on a fresh connection.`,
		Example: `  kudusql exec "INSERT INTO users VALUES (1, 'ada')"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			sql := strings.TrimSuffix(strings.TrimSpace(strings.Join(args, " ")), ";")
			if err := cmdCtx.Adapter.Execute(cmd.Context(), sql); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
}
