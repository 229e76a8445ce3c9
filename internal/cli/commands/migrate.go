package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/kudusql/pkg/core"
	"github.com/leapstack-labs/kudusql/pkg/migration"
)

// NewMigrateCommand creates the migrate command group.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Inspect and record schema migration versions",
	}
	cmd.AddCommand(newMigrateMarkCommand(), newMigrateStatusCommand())
	return cmd
}

func newMigrateMarkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mark <version>",
		Short: "Record a version and every known earlier version as applied",
		Long: `Record <version> in schema_migrations, together with every version
found in the migrations directory that is lower and not yet recorded.
Nothing is recorded when two migration files share a version.`,
		Example: `  kudusql migrate mark 20240301120000
  kudusql migrate mark 3 --migrations-dir db/migrate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || version < 1 {
				return fmt.Errorf("invalid version %q: must be a positive integer", args[0])
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			files, err := discoverMigrations(cmdCtx.Cfg.MigrationsDir)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := cmdCtx.Adapter.EnsureMigrationsTable(ctx); err != nil {
				return err
			}
			if err := cmdCtx.Adapter.AssumeMigratedUptoVersion(ctx, version, files); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Marked migrations up to %d as applied\n", version)
			return nil
		},
	}
}

func newMigrateStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which migration files are recorded as applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			files, err := discoverMigrations(cmdCtx.Cfg.MigrationsDir)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := cmdCtx.Adapter.EnsureMigrationsTable(ctx); err != nil {
				return err
			}
			applied, err := cmdCtx.Adapter.AppliedVersions(ctx)
			if err != nil {
				return err
			}

			res := migrationStatus(files, applied)
			return renderResult(cmd.OutOrStdout(), res, cmdCtx.Cfg.OutputFormat)
		},
	}
}

// discoverMigrations lists migration files. A missing directory has none.
func discoverMigrations(dir string) ([]string, error) {
	files, err := migration.DiscoverFiles(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return files, err
}

// migrationStatus joins files with applied versions. Versions recorded
// without a matching file are listed with an empty file name.
func migrationStatus(files []string, applied []int64) *core.Result {
	done := make(map[int64]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	res := &core.Result{Columns: []string{"version", "file", "status"}}
	seen := make(map[int64]bool, len(files))
	for _, f := range files {
		v, err := migration.ParseVersion(f)
		if err != nil {
			continue
		}
		seen[v] = true
		status := "pending"
		if done[v] {
			status = "applied"
		}
		res.Rows = append(res.Rows, []any{v, filepath.Base(f), status})
	}
	for _, v := range applied {
		if !seen[v] {
			res.Rows = append(res.Rows, []any{v, "", "applied"})
		}
	}
	return res
}
