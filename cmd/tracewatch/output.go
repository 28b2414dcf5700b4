package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/AgentOS/console/internal/format"
	"github.com/GriffinCanCode/AgentOS/console/internal/tracing"
	"github.com/GriffinCanCode/AgentOS/console/internal/tracing/llm"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printTable[T any](w io.Writer, fields []tracing.Field[T], items []T) error {
	tw := newTabWriter(w)
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = strings.ToUpper(f.Label)
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, rec := range items {
		cells := make([]string, len(fields))
		for i, f := range fields {
			cells[i] = cell(f.Render(rec))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// renderRow joins a record's cells for single-line output.
func renderRow[T any](fields []tracing.Field[T], rec T) string {
	cells := make([]string, len(fields))
	for i, f := range fields {
		cells[i] = cell(f.Render(rec))
	}
	return strings.Join(cells, "  ")
}

func cell(v string) string {
	if v == "" {
		return format.Placeholder
	}
	return v
}

func printStatistics(w io.Writer, stats []tracing.Statistic) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "STATISTIC\tVALUE")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%s\n", s.Label, s.Display)
	}
	return tw.Flush()
}

func printDetail(w io.Writer, rec llm.Trace, fields []tracing.Field[llm.Trace]) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Trace ID\t%s\n", rec.TraceID)
	fmt.Fprintf(tw, "Status\t%s\n", llm.StatusLabel(rec.Status))
	fmt.Fprintf(tw, "Requested\t%s\n", format.Date(rec.RequestTime.Time))
	responded := format.Placeholder
	if rec.ResponseTime != nil {
		responded = format.Date(rec.ResponseTime.Time)
	}
	fmt.Fprintf(tw, "Responded\t%s\n", responded)
	fmt.Fprintf(tw, "Duration\t%s\n", format.Duration(rec.Duration))
	for _, f := range fields {
		fmt.Fprintf(tw, "%s\t%s\n", f.Label, cell(f.Render(rec)))
	}
	if rec.Error != nil && *rec.Error != "" {
		fmt.Fprintf(tw, "Error\t%s\n", *rec.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, body := range []struct {
		title string
		raw   json.RawMessage
	}{{"Request", rec.Request}, {"Response", rec.Response}} {
		if len(body.raw) == 0 || string(body.raw) == "null" {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n%s\n", body.title, indentJSON(body.raw))
	}
	return nil
}

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func writeJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
