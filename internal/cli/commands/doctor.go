package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/kudusql/pkg/migration"
	"github.com/leapstack-labs/kudusql/pkg/rebuild"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, markdown, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, connectivity and leftover rebuild state",
		Long: `Run a health check of the kudusql setup:
- Configuration: target and dialect settings
- Engine: connectivity and the schema_migrations table
- State: the local state store and its schema version
- Rebuilds: failed or unfinished primary-key rebuilds and leftover
  temporary tables`,
		Example: `  # Run health check
  kudusql doctor

  # Output as JSON
  kudusql doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	HealthChecks []HealthCheck `json:"health_checks"`
	IssueCount   int           `json:"issue_count"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Group   string   `json:"group"`
	Status  string   `json:"status"` // "pass", "warn", "error"
	Details []string `json:"details,omitempty"`
}

func (c *HealthCheck) warn(format string, args ...any) {
	if c.Status != "error" {
		c.Status = "warn"
	}
	c.Details = append(c.Details, fmt.Sprintf(format, args...))
}

func (c *HealthCheck) fail(format string, args ...any) {
	c.Status = "error"
	c.Details = append(c.Details, fmt.Sprintf(format, args...))
}

func (c *HealthCheck) note(format string, args ...any) {
	c.Details = append(c.Details, fmt.Sprintf(format, args...))
}

func newCheck(id, group, name string) HealthCheck {
	return HealthCheck{ID: id, Group: group, Name: name, Status: "pass"}
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	out := diagnose(cmd.Context(), cmdCtx)

	format := opts.Format
	if format == "" {
		format = cmdCtx.Cfg.OutputFormat
	}
	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "md", "markdown":
		renderDoctorMarkdown(cmd.OutOrStdout(), out)
	default:
		renderDoctorText(cmd.OutOrStdout(), out)
	}
	return nil
}

func diagnose(ctx context.Context, cmdCtx *CommandContext) *DoctorOutput {
	cfg := cmdCtx.Cfg
	a := cmdCtx.Adapter

	conf := newCheck("C01", "configuration", "Target and dialect")
	conf.note("target %s:%d database=%q driver=%s", cfg.Target.Host, cfg.Target.Port, cfg.Target.Database, cfg.Target.Driver)
	conf.note("stored as %s with %d hash partitions", cfg.Dialect.StoredAs, cfg.Dialect.DefaultPartitions)
	if err := cfg.Validate(); err != nil {
		conf.fail("%v", err)
	}
	if cfg.Dialect.SyncKuduTableName && cfg.Target.Database == "" {
		conf.warn("kudu table names are only kept in sync on rename when a database is configured")
	}

	store := newCheck("S01", "state", "State store")
	if v, err := cmdCtx.Store.MigrationVersion(); err != nil {
		store.fail("cannot read state schema version: %v", err)
	} else {
		store.note("%s (schema version %d)", cmdCtx.Store.Path(), v)
	}

	conn := newCheck("E01", "engine", "Connectivity")
	migrations := newCheck("E02", "engine", "Migrations table")
	temps := newCheck("R02", "rebuilds", "Temporary tables")
	connected := true
	if err := a.Connect(ctx); err != nil {
		conn.fail("%v", err)
		connected = false
	}
	if connected {
		checkMigrations(ctx, cmdCtx, &migrations)
		checkTempTables(ctx, cmdCtx, &temps)
	} else {
		migrations.warn("skipped: engine unreachable")
		temps.warn("skipped: engine unreachable")
	}

	rebuilds := newCheck("R01", "rebuilds", "Journaled rebuilds")
	checkRebuilds(ctx, cmdCtx, &rebuilds)

	out := &DoctorOutput{HealthChecks: []HealthCheck{conf, conn, migrations, rebuilds, temps, store}}
	for _, c := range out.HealthChecks {
		if c.Status != "pass" {
			out.IssueCount++
		}
	}
	return out
}

func checkMigrations(ctx context.Context, cmdCtx *CommandContext, check *HealthCheck) {
	exists, err := cmdCtx.Adapter.TableExists(ctx, migration.TableName)
	if err != nil {
		check.fail("%v", err)
		return
	}
	if !exists {
		check.warn("%s does not exist yet", migration.TableName)
		return
	}
	applied, err := cmdCtx.Adapter.AppliedVersions(ctx)
	if err != nil {
		check.fail("%v", err)
		return
	}
	check.note("%s versions recorded", humanize.Comma(int64(len(applied))))

	files, err := discoverMigrations(cmdCtx.Cfg.MigrationsDir)
	if err != nil {
		check.warn("%v", err)
		return
	}
	pending := 0
	for _, row := range migrationStatus(files, applied).Rows {
		if row[2] == "pending" {
			pending++
		}
	}
	if pending > 0 {
		check.warn("%d migration file(s) in %s not recorded", pending, cmdCtx.Cfg.MigrationsDir)
	}
}

func checkRebuilds(ctx context.Context, cmdCtx *CommandContext, check *HealthCheck) {
	records, err := cmdCtx.Adapter.Rebuilds(ctx)
	if err != nil {
		check.fail("%v", err)
		return
	}
	for _, r := range records {
		switch r.Status {
		case rebuild.StatusFailed:
			check.fail("%s on %s failed at %s %s: %s (resume with: kudusql rebuild resume %s)",
				r.Plan.Kind, r.Plan.Table, r.CurrentStep(), humanize.Time(r.UpdatedAt), r.LastError, r.Plan.ID)
		case rebuild.StatusPending, rebuild.StatusRunning:
			check.warn("%s on %s is %s at %s", r.Plan.Kind, r.Plan.Table, r.Status, r.CurrentStep())
		}
	}
	if check.Status == "pass" {
		check.note("%d rebuild(s) journaled, none outstanding", len(records))
	}
}

func checkTempTables(ctx context.Context, cmdCtx *CommandContext, check *HealthCheck) {
	names, err := cmdCtx.Adapter.Tables(ctx)
	if err != nil {
		check.fail("%v", err)
		return
	}
	for _, n := range names {
		if strings.Contains(n, rebuild.TempSuffix) || strings.HasSuffix(n, rebuild.RedefinedSuffix) {
			check.warn("leftover table %s", n)
		}
	}
	if check.Status == "warn" {
		check.note("drop temporary tables with: kudusql rebuild cleanup")
	}
}

func statusIcon(status string) string {
	switch status {
	case "warn":
		return "!"
	case "error":
		return "✗"
	default:
		return "✓"
	}
}

func renderDoctorText(w io.Writer, out *DoctorOutput) {
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "kudusql Health Report")
	_, _ = fmt.Fprintln(w, strings.Repeat("=", 55))
	_, _ = fmt.Fprintln(w)

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			_, _ = fmt.Fprintln(w, "   "+titleCaser.String(currentGroup))
			_, _ = fmt.Fprintln(w, "   "+strings.Repeat("-", 40))
		}
		_, _ = fmt.Fprintf(w, "   %s %s: %s\n", statusIcon(check.Status), check.ID, check.Name)
		for _, detail := range check.Details {
			_, _ = fmt.Fprintln(w, "       - "+detail)
		}
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, strings.Repeat("=", 55))
	if out.IssueCount == 0 {
		_, _ = fmt.Fprintln(w, "   No issues found")
	} else {
		_, _ = fmt.Fprintf(w, "   %d check(s) need attention\n", out.IssueCount)
	}
	_, _ = fmt.Fprintln(w)
}

func renderDoctorMarkdown(w io.Writer, out *DoctorOutput) {
	_, _ = fmt.Fprintln(w, "# kudusql Health Report")
	_, _ = fmt.Fprintln(w)

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			_, _ = fmt.Fprintf(w, "## %s\n\n", titleCaser.String(currentGroup))
		}
		_, _ = fmt.Fprintf(w, "- **[%s]** %s: %s\n", strings.ToUpper(check.Status), check.ID, check.Name)
		for _, detail := range check.Details {
			_, _ = fmt.Fprintf(w, "  - %s\n", detail)
		}
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "**Issues**: %d\n", out.IssueCount)
}
