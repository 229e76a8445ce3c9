// Package migration records which schema migrations have been applied in
// the engine's schema_migrations table.
package migration

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/kudusql/pkg/core"
	"github.com/leapstack-labs/kudusql/pkg/ddl"
	"github.com/leapstack-labs/kudusql/pkg/schema"
	"github.com/leapstack-labs/kudusql/pkg/types"
)

// TableName is the table holding applied migration versions.
const TableName = "schema_migrations"

// Runner executes statements against the engine.
type Runner interface {
	Execute(ctx context.Context, sql string) error
	Query(ctx context.Context, sql string) (*core.Result, error)
}

// TableChecker reports table existence.
type TableChecker interface {
	TableExists(ctx context.Context, table string) (bool, error)
}

// Bookkeeper reads and writes schema_migrations.
type Bookkeeper struct {
	run    Runner
	tables TableChecker
	gen    *ddl.Generator
	logger *slog.Logger
}

// NewBookkeeper creates a bookkeeper.
func NewBookkeeper(run Runner, tables TableChecker, gen *ddl.Generator, logger *slog.Logger) *Bookkeeper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bookkeeper{run: run, tables: tables, gen: gen, logger: logger}
}

// EnsureTable creates schema_migrations when it is missing.
func (b *Bookkeeper) EnsureTable(ctx context.Context) error {
	exists, err := b.tables.TableExists(ctx, TableName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	td := schema.NewTable(TableName).PrimaryKey("version", types.Of(types.String))
	stmt, err := b.gen.RenderCreate(td)
	if err != nil {
		return err
	}
	if err := b.run.Execute(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create %s: %w", TableName, err)
	}
	b.logger.Info("created migrations table", slog.String("table", TableName))
	return nil
}

// AppliedVersions returns the recorded versions in ascending order.
func (b *Bookkeeper) AppliedVersions(ctx context.Context) ([]int64, error) {
	res, err := b.run.Query(ctx, "SELECT version FROM "+TableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied versions: %w", err)
	}
	versions := make([]int64, 0, res.Len())
	for i := range res.Rows {
		v, _ := res.Value(i, "version")
		n, err := strconv.ParseInt(fmt.Sprint(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid version %v in %s: %w", v, TableName, err)
		}
		versions = append(versions, n)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}

// ParseVersion extracts the numeric version prefix of a migration file
// name such as 20240101120000_create_users.rb. Any extension is accepted.
func ParseVersion(file string) (int64, error) {
	base := filepath.Base(file)
	idx := strings.IndexByte(base, '_')
	if idx <= 0 {
		return 0, fmt.Errorf("invalid migration filename %s: no version prefix", file)
	}
	v, err := strconv.ParseInt(base[:idx], 10, 64)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("invalid migration filename %s: version must be a positive integer", file)
	}
	return v, nil
}

// DiscoverFiles lists the migration files in dir whose names carry a
// numeric version prefix, sorted by name.
func DiscoverFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := ParseVersion(e.Name()); err != nil {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// MarkVersionsApplied records target and every known version below it
// that is not yet applied. Duplicate versions among files fail before any
// statement is sent.
func (b *Bookkeeper) MarkVersionsApplied(ctx context.Context, target int64, files []string) error {
	seen := make(map[int64]string, len(files))
	known := make([]int64, 0, len(files))
	for _, f := range files {
		v, err := ParseVersion(f)
		if err != nil {
			return err
		}
		if prev, dup := seen[v]; dup {
			return fmt.Errorf("%w: %d in %s and %s, renumber the migrations to resolve the conflict",
				core.ErrDuplicateMigrationVersion, v, prev, f)
		}
		seen[v] = f
		known = append(known, v)
	}

	applied, err := b.AppliedVersions(ctx)
	if err != nil {
		return err
	}
	done := make(map[int64]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	var pending []int64
	if target > 0 && !done[target] {
		pending = append(pending, target)
	}
	var backlog []int64
	for _, v := range known {
		if v < target && !done[v] {
			backlog = append(backlog, v)
		}
	}
	sort.Slice(backlog, func(i, j int) bool { return backlog[i] < backlog[j] })
	pending = append(pending, backlog...)

	if len(pending) == 0 {
		b.logger.Debug("no migration versions to record", slog.Int64("target", target))
		return nil
	}
	return b.insertVersions(ctx, pending)
}

func (b *Bookkeeper) insertVersions(ctx context.Context, versions []int64) error {
	rows := make([][]any, len(versions))
	for i, v := range versions {
		rows[i] = []any{strconv.FormatInt(v, 10)}
	}

	if b.gen.Dialect().MultiInsert {
		stmt, err := b.gen.RenderInsertValues(TableName, []string{"version"}, rows)
		if err != nil {
			return err
		}
		if err := b.run.Execute(ctx, stmt); err != nil {
			return fmt.Errorf("failed to record migration versions: %w", err)
		}
	} else {
		for _, row := range rows {
			stmt, err := b.gen.RenderInsertValues(TableName, []string{"version"}, [][]any{row})
			if err != nil {
				return err
			}
			if err := b.run.Execute(ctx, stmt); err != nil {
				return fmt.Errorf("failed to record migration version %v: %w", row[0], err)
			}
		}
	}
	b.logger.Info("recorded migration versions", slog.Int("count", len(versions)))
	return nil
}
