package writers

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"sampass/pkg/api"
)

func init() { Register("text", writeText) }

// writeText renders a summary table followed by one table per report.
func writeText(w io.Writer, doc api.DocumentV1) error {
	var b strings.Builder

	s := doc.Summary
	sum := newTable()
	sum.SetTitle("run %s", s.RunID)
	sum.AppendRows([]table.Row{
		{"source", s.Source},
		{"reference", orDash(s.Reference)},
		{"consumers", strings.Join(s.Consumers, ",")},
		{"records pulled", s.Pulled},
		{"records accepted", s.Accepted},
		{"batches", s.Batches},
		{"tail size", s.TailSize},
		{"stop", s.Stop},
		{"elapsed ms", s.ElapsedMS},
	})
	b.WriteString(sum.Render())
	b.WriteString("\n")

	for _, r := range doc.Reports {
		b.WriteString("\n")
		b.WriteString(renderReport(r))
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderReport(r api.ReportV1) string {
	var parts []string

	if len(r.Counters) > 0 || len(r.Values) > 0 {
		kv := newTable()
		kv.SetTitle(r.Consumer)
		for _, k := range sortedKeys(r.Counters) {
			kv.AppendRow(table.Row{k, r.Counters[k]})
		}
		for _, k := range sortedKeys(r.Values) {
			kv.AppendRow(table.Row{k, strconv.FormatFloat(r.Values[k], 'f', 4, 64)})
		}
		parts = append(parts, kv.Render())
	}

	if r.Table != nil && len(r.Table.Rows) > 0 {
		tbl := newTable()
		if len(parts) == 0 {
			tbl.SetTitle(r.Consumer)
		}
		header := make(table.Row, len(r.Table.Columns))
		for i, c := range r.Table.Columns {
			header[i] = c
		}
		tbl.AppendHeader(header)
		for _, row := range r.Table.Rows {
			out := make(table.Row, len(row))
			for i, c := range row {
				out[i] = c
			}
			tbl.AppendRow(out)
		}
		tbl.AppendFooter(table.Row{fmt.Sprintf("%d rows", len(r.Table.Rows))})
		parts = append(parts, tbl.Render())
	}

	if len(parts) == 0 {
		return r.Consumer + ": no data"
	}
	return strings.Join(parts, "\n")
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	return tbl
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
