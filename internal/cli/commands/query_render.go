package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/kudusql/pkg/core"
)

// renderResult writes res in the given format: table, json, csv or markdown.
func renderResult(w io.Writer, res *core.Result, format string) error {
	if res == nil {
		res = &core.Result{}
	}
	switch format {
	case "json":
		return renderJSON(w, res)
	case "csv":
		return renderCSV(w, res)
	case "md", "markdown":
		return renderMarkdown(w, res)
	default:
		return renderTable(w, res)
	}
}

func rowCount(n int) string {
	if n == 1 {
		return "(1 row)"
	}
	return fmt.Sprintf("(%s rows)", humanize.Comma(int64(n)))
}

func renderTable(w io.Writer, res *core.Result) error {
	if res.Empty() {
		_, _ = fmt.Fprintln(w, rowCount(0))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, r := range res.Rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintln(w, rowCount(res.Len()))
	return nil
}

func renderJSON(w io.Writer, res *core.Result) error {
	rows := res.Maps()
	if rows == nil {
		rows = []map[string]any{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func renderCSV(w io.Writer, res *core.Result) error {
	_, _ = fmt.Fprintln(w, strings.Join(res.Columns, ","))
	for _, r := range res.Rows {
		values := make([]string, len(r))
		for i, v := range r {
			values[i] = escapeCSV(formatValue(v))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, res *core.Result) error {
	if res.Empty() {
		_, _ = fmt.Fprintln(w, rowCount(0))
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(res.Columns, " | "))
	seps := make([]string, len(res.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, r := range res.Rows {
		values := make([]string, len(r))
		for i, v := range r {
			values[i] = formatValue(v)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	}
	return fmt.Sprintf("%v", v)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// stringsResult builds a single-column result.
func stringsResult(column string, values []string) *core.Result {
	res := &core.Result{Columns: []string{column}, Rows: make([][]any, len(values))}
	for i, v := range values {
		res.Rows[i] = []any{v}
	}
	return res
}
