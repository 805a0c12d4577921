package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spektr-org/pitchboard/engine"
	"github.com/spektr-org/pitchboard/errors"
	"github.com/spektr-org/pitchboard/logger"
	"github.com/spektr-org/pitchboard/metrics"
)

type summaryFlags struct {
	format  string
	outFile string
	panel   string

	teams   []string
	ages    []string
	innings []string
	eraMin  float64
	eraMax  float64
	whipMin float64
	whipMax float64
}

func newSummaryCmd(root *rootFlags) *cobra.Command {
	f := &summaryFlags{}
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Run one dashboard pass and print it",
		Example: `  pitchboard summary -f pitcheo.csv --team "New York Yankees" --format text
  pitchboard summary -f pitcheo.csv --era-max 3.5 --format csv --out low_era.csv
  pitchboard summary -f pitcheo.csv --panel pitchers-by-team --format csv
  pitchboard summary -f pitcheo.csv --team "" --format pretty   # selects nothing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd, root, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.format, "format", "json", "Output format: json, pretty, text, csv")
	fl.StringVar(&f.outFile, "out", "", "Write output to file instead of stdout")
	fl.StringVar(&f.panel, "panel", "", "With --format csv, write this chart panel instead of the grid")
	fl.StringArrayVar(&f.teams, "team", nil, "Team to include (repeatable; an empty value selects nothing)")
	fl.StringArrayVar(&f.ages, "age", nil, "Age to include (repeatable)")
	fl.StringArrayVar(&f.innings, "innings", nil, "Innings Pitched value to include (repeatable)")
	fl.Float64Var(&f.eraMin, "era-min", 0, "Lowest ERA (default: dataset minimum)")
	fl.Float64Var(&f.eraMax, "era-max", 0, "Highest ERA (default: dataset maximum)")
	fl.Float64Var(&f.whipMin, "whip-min", 0, "Lowest WHIP (default: dataset minimum)")
	fl.Float64Var(&f.whipMax, "whip-max", 0, "Highest WHIP (default: dataset maximum)")
	return cmd
}

func runSummary(cmd *cobra.Command, root *rootFlags, f *summaryFlags) error {
	switch f.format {
	case "json", "pretty", "text", "csv":
	default:
		return errors.Newf(errors.ErrorTypeValidation, "unknown format %q", f.format)
	}
	if f.panel != "" {
		if _, ok := engine.LookupPanel(f.panel); !ok {
			return errors.New(errors.ErrorTypeNotFound, "unknown chart panel").WithDetail("panel", f.panel)
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	env, err := setup(ctx, root)
	if err != nil {
		return err
	}
	defer env.close()

	sel, err := selectionFromFlags(env.table.Defaults(), cmd.Flags(), f)
	if err != nil {
		return err
	}

	// ── Output writer ─────────────────────────────────────────────────────
	var w io.Writer = cmd.OutOrStdout()
	if f.outFile != "" {
		out, err := os.Create(f.outFile)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeIO, "failed to create output file").WithDetail("path", f.outFile)
		}
		defer out.Close()
		w = out
	}

	timer := metrics.NewTimer()
	d := engine.Build(ctx, env.table, sel, dashboardOptions(env)...)
	metrics.ObservePass("cli", d.Summary.Count, timer.Stop())

	switch f.format {
	case "csv":
		err = writeCSV(w, d, f.panel)
	case "text":
		err = writeText(w, d)
	default:
		err = writeJSON(w, d, f.format)
	}
	if err != nil {
		return err
	}
	if f.outFile != "" {
		logger.Info("output written", zap.String("path", f.outFile), zap.String("format", f.format))
	}
	return nil
}

func dashboardOptions(env *environment) []engine.Option {
	d := env.cfg.Dashboard
	opts := []engine.Option{engine.WithTitle(d.Title)}
	if len(d.Palette) > 0 {
		opts = append(opts, engine.WithPalette(d.Palette))
	}
	if len(d.Panels) > 0 {
		opts = append(opts, engine.WithPanels(d.Panels...))
	}
	return opts
}

// selectionFromFlags applies only the flags the user actually set.
func selectionFromFlags(base engine.Selection, fs *pflag.FlagSet, f *summaryFlags) (engine.Selection, error) {
	var p engine.Partial
	if fs.Changed("team") {
		teams := nonEmpty(f.teams)
		p.Teams = &teams
	}
	if fs.Changed("innings") {
		innings := nonEmpty(f.innings)
		p.Innings = &innings
	}
	if fs.Changed("age") {
		ages := []int{}
		for _, v := range nonEmpty(f.ages) {
			n, err := strconv.Atoi(v)
			if err != nil {
				return base, errors.Wrap(err, errors.ErrorTypeValidation, "invalid --age").WithDetail("value", v)
			}
			ages = append(ages, n)
		}
		p.Ages = &ages
	}
	if fs.Changed("era-min") {
		p.ERAMin = &f.eraMin
	}
	if fs.Changed("era-max") {
		p.ERAMax = &f.eraMax
	}
	if fs.Changed("whip-min") {
		p.WHIPMin = &f.whipMin
	}
	if fs.Changed("whip-max") {
		p.WHIPMax = &f.whipMax
	}
	return base.Merge(p), nil
}

func nonEmpty(vals []string) []string {
	out := []string{}
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v interface{}, format string) error {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to marshal output")
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ============================================================================
// TEXT OUTPUT
// ============================================================================

func writeText(w io.Writer, d *engine.Dashboard) error {
	fmt.Fprintln(w, d.Title)
	fmt.Fprintln(w, d.Summary.Headline)
	for _, line := range d.Summary.Lines {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)

	tiles := newTable(w, []string{"Metric", "Value"})
	for _, t := range d.Tiles {
		tiles.Append([]string{t.Label, t.Value})
	}
	tiles.Render()

	if d.Table != nil && len(d.Table.Rows) > 0 {
		fmt.Fprintln(w)
		header := make([]string, len(d.Table.Columns))
		for i, c := range d.Table.Columns {
			header[i] = c.Label
		}
		grid := newTable(w, header)
		grid.AppendBulk(d.Table.Rows)
		grid.Render()
	}
	return nil
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetAutoFormatHeaders(false)
	t.SetHeader(header)
	return t
}

// ============================================================================
// CSV OUTPUT — filtered rows or one panel, ready for Sheets/Excel
// ============================================================================

func writeCSV(w io.Writer, d *engine.Dashboard, panel string) error {
	cw := csv.NewWriter(w)

	if panel != "" {
		c := d.Chart(panel)
		if c == nil {
			return errors.New(errors.ErrorTypeNotFound, "panel not built").WithDetail("panel", panel)
		}
		writeChartCSV(cw, c)
	} else if d.Table != nil {
		writeTableCSV(cw, d.Table)
	}

	cw.Flush()
	return cw.Error()
}

// writeChartCSV writes one row per point. Distribution panels get their
// five-number summaries instead. Scatter and line points carry the player
// and their numeric x; scatters also carry the K/9 point size.
func writeChartCSV(cw *csv.Writer, c *engine.ChartConfig) {
	switch c.ChartType {
	case engine.ChartBox, engine.ChartViolin:
		writeTableCSV(cw, engine.BuildDistributionTable(c))
		return
	}

	xLabel := c.XAxis
	yLabel := c.YAxis
	if xLabel == "" {
		xLabel = "Label"
	}
	if yLabel == "" {
		yLabel = "Value"
	}

	switch c.ChartType {
	case engine.ChartScatter:
		_ = cw.Write([]string{"Series", "Jugador", xLabel, yLabel, "Size"})
		for _, s := range c.Series {
			for _, p := range s.Data {
				_ = cw.Write([]string{s.Name, p.Hover["Jugador"], fmtNum(p.X), fmtNum(p.Value), fmtNum(p.Size)})
			}
		}
	case engine.ChartLine:
		_ = cw.Write([]string{"Series", "Jugador", xLabel, yLabel})
		for _, s := range c.Series {
			for _, p := range s.Data {
				_ = cw.Write([]string{s.Name, p.Hover["Jugador"], fmtNum(p.X), fmtNum(p.Value)})
			}
		}
	default:
		_ = cw.Write([]string{"Series", xLabel, yLabel})
		for _, s := range c.Series {
			for _, p := range s.Data {
				x := p.Label
				if x == "" {
					x = fmtNum(p.X)
				}
				_ = cw.Write([]string{s.Name, x, fmtNum(p.Value)})
			}
		}
	}
}

func writeTableCSV(cw *csv.Writer, t *engine.TableData) {
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Label
	}
	_ = cw.Write(header)
	for _, row := range t.Rows {
		_ = cw.Write(row)
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func fmtNum(v float64) string {
	// Whole numbers → no decimals, fractional → 2 decimals
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
