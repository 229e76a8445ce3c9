package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/kudusql/pkg/core"
	"github.com/leapstack-labs/kudusql/pkg/rebuild"
)

// NewRebuildCommand creates the rebuild command group.
func NewRebuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Inspect and recover primary-key rebuilds",
		Long: `Adding or dropping a primary-key column rebuilds the table in steps that
are journaled in the local state store. These commands show that journal,
resume a failed rebuild from the step that failed, reload data parked in a
temporary table, and drop leftover temporary tables.`,
	}
	cmd.AddCommand(
		newRebuildStatusCommand(),
		newRebuildResumeCommand(),
		newRebuildReloadCommand(),
		newRebuildCleanupCommand(),
	)
	return cmd
}

func newRebuildStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status [id]",
		Short: "List journaled rebuilds, or show the steps of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			format := cmdCtx.Cfg.OutputFormat
			if len(args) == 1 {
				rec, err := cmdCtx.Store.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return renderResult(cmd.OutOrStdout(), rebuildSteps(rec), format)
			}

			records, err := cmdCtx.Adapter.Rebuilds(cmd.Context())
			if err != nil {
				return err
			}
			return renderResult(cmd.OutOrStdout(), rebuildList(records), format)
		},
	}
}

func rebuildList(records []rebuild.Record) *core.Result {
	res := &core.Result{Columns: []string{"id", "table", "column", "kind", "status", "step", "updated", "error"}}
	for _, r := range records {
		res.Rows = append(res.Rows, []any{
			r.Plan.ID, r.Plan.Table, r.Plan.Column, string(r.Plan.Kind), string(r.Status),
			fmt.Sprintf("%d/%d", r.NextStep, len(r.Plan.Steps)),
			humanize.Time(r.UpdatedAt), r.LastError,
		})
	}
	return res
}

func rebuildSteps(rec *rebuild.Record) *core.Result {
	res := &core.Result{Columns: []string{"#", "step", "state", "applied"}}
	for i, s := range rec.Plan.Steps {
		state, applied := "pending", 0
		switch {
		case i < rec.NextStep || rec.Status == rebuild.StatusCompleted:
			state, applied = "done", len(s.Statements)
		case i == rec.NextStep && rec.Status == rebuild.StatusFailed:
			state, applied = "failed", rec.NextStatement
		case i == rec.NextStep && rec.NextStatement > 0:
			state, applied = "running", rec.NextStatement
		}
		res.Rows = append(res.Rows, []any{i + 1, s.Name, state, fmt.Sprintf("%d/%d", applied, len(s.Statements))})
	}
	return res
}

func newRebuildResumeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <id>",
		Short: "Resume a failed rebuild from the step that failed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Adapter.ResumeRebuild(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Rebuild %s completed\n", args[0])
			return nil
		},
	}
}

func newRebuildReloadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reload <table> <column> <value>",
		Short: "Copy rows parked in <table>_temp back into <table>",
		Long: `Copy rows from <table>_temp into <table>, filling <column> with <value>,
then drop <table>_temp. Used after adding a primary-key column without a
default, once the value for existing rows is known.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Adapter.ReloadTableData(cmd.Context(), args[0], args[1], args[2]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Reloaded %s from %s\n", args[0], rebuild.TempName(args[0]))
			return nil
		},
	}
}

func newRebuildCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Drop every leftover temporary table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Adapter.DropTempTables(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Dropped temporary tables")
			return nil
		},
	}
}
