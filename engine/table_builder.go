package engine

import (
	"fmt"
	"strconv"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from a filtered view
// ============================================================================
// All functions operate on RecordView: zero-copy access to any data source.
// ============================================================================

// gridColumn binds a grid column to the view key it reads.
type gridColumn struct {
	Column
	dimension string // set for text columns
	measure   string // set for numeric columns
}

// Grid columns carry the dataset's own header names, in file order.
var gridColumns = []gridColumn{
	{Column{Key: DimTeam, Label: "Equipo", Type: "text", Align: "left"}, DimTeam, ""},
	{Column{Key: DimPlayer, Label: "Jugador", Type: "text", Align: "left"}, DimPlayer, ""},
	{Column{Key: DimAge, Label: "Edad", Type: "number", Align: "right"}, DimAge, ""},
	{Column{Key: DimInnings, Label: "Innings Pitched", Type: "text", Align: "right"}, DimInnings, ""},
	{Column{Key: MeasureERA, Label: "ERA", Type: "number", Align: "right"}, "", MeasureERA},
	{Column{Key: MeasureWHIP, Label: "WHIP", Type: "number", Align: "right"}, "", MeasureWHIP},
	{Column{Key: MeasureK9, Label: "K/9", Type: "number", Align: "right"}, "", MeasureK9},
	{Column{Key: MeasureBB9, Label: "BB/9", Type: "number", Align: "right"}, "", MeasureBB9},
	{Column{Key: MeasureH9, Label: "H/9", Type: "number", Align: "right"}, "", MeasureH9},
	{Column{Key: MeasureHR9, Label: "HR/9", Type: "number", Align: "right"}, "", MeasureHR9},
	{Column{Key: MeasureWAR, Label: "WAR", Type: "number", Align: "right"}, "", MeasureWAR},
}

// GridColumns returns the raw-data columns in file order.
func GridColumns() []Column {
	cols := make([]Column, len(gridColumns))
	for i, c := range gridColumns {
		cols[i] = c.Column
	}
	return cols
}

// GridHeader returns the column labels, which match the source header.
func GridHeader() []string {
	h := make([]string, len(gridColumns))
	for i, c := range gridColumns {
		h[i] = c.Label
	}
	return h
}

// ============================================================================
// GRID — Row per record
// ============================================================================

// BuildGrid lays out every row of view under the source header names.
// Missing values are empty cells.
func BuildGrid(view RecordView, title string) *TableData {
	rows := make([][]string, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		rows = append(rows, GridRow(view, i))
	}
	return &TableData{
		Title:   title,
		Columns: GridColumns(),
		Rows:    rows,
		Summary: &Summary{
			Label: fmt.Sprintf("Total (%s records)", FormatInt(view.Len())),
			Values: map[string]string{
				DimTeam: strconv.Itoa(len(UniqueValues(view, DimTeam))),
			},
		},
	}
}

// GridRow renders row i of view as strings in grid column order.
func GridRow(view RecordView, i int) []string {
	row := make([]string, 0, len(gridColumns))
	for _, c := range gridColumns {
		if c.dimension != "" {
			row = append(row, view.Dimension(i, c.dimension))
			continue
		}
		row = append(row, FormatValue(view.Measure(i, c.measure)))
	}
	return row
}

// FormatValue prints a measure with the shortest exact representation.
func FormatValue(v float64) string {
	if Missing(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ============================================================================
// AGGREGATED TABLES — Summary rows
// ============================================================================

// BuildTeamTable summarises the view per team, in first-seen order.
func BuildTeamTable(view RecordView) *TableData {
	columns := []Column{
		{Key: "team", Label: "Equipo", Type: "text", Align: "left"},
		{Key: "count", Label: "Pitchers", Type: "number", Align: "right"},
		{Key: MeasureERA, Label: "ERA", Type: "number", Align: "right"},
		{Key: MeasureWHIP, Label: "WHIP", Type: "number", Align: "right"},
		{Key: MeasureK9, Label: "K/9", Type: "number", Align: "right"},
		{Key: MeasureWAR, Label: "WAR", Type: "number", Align: "right"},
	}

	groups := GroupBy(view, DimTeam)
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{
			g.Label,
			strconv.Itoa(g.Count),
			MeanMeasure(g.View, MeasureERA).String(),
			MeanMeasure(g.View, MeasureWHIP).String(),
			MeanMeasure(g.View, MeasureK9).String(),
			MeanMeasure(g.View, MeasureWAR).String(),
		})
	}

	total := Summarize(view)
	return &TableData{
		Title:   "Team summary",
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label: "All",
			Values: map[string]string{
				"count":     strconv.Itoa(total.Count),
				MeasureERA:  total.ERA.String(),
				MeasureWHIP: total.WHIP.String(),
				MeasureK9:   total.K9.String(),
				MeasureWAR:  total.WAR.String(),
			},
		},
	}
}

// BuildDistributionTable lists the box statistics of a box or violin panel.
func BuildDistributionTable(chart *ChartConfig) *TableData {
	columns := []Column{
		{Key: "group", Label: chart.XAxis, Type: "text", Align: "left"},
		{Key: "n", Label: "n", Type: "number", Align: "right"},
		{Key: "min", Label: "Min", Type: "number", Align: "right"},
		{Key: "q1", Label: "Q1", Type: "number", Align: "right"},
		{Key: "median", Label: "Median", Type: "number", Align: "right"},
		{Key: "q3", Label: "Q3", Type: "number", Align: "right"},
		{Key: "max", Label: "Max", Type: "number", Align: "right"},
		{Key: "mean", Label: "Mean", Type: "number", Align: "right"},
		{Key: "outliers", Label: "Outliers", Type: "number", Align: "right"},
	}

	rows := make([][]string, 0, len(chart.Series))
	for _, s := range chart.Series {
		if s.Box == nil {
			continue
		}
		b := s.Box
		rows = append(rows, []string{
			s.Name,
			strconv.Itoa(b.SampleCount),
			FormatFloat(b.Min),
			FormatFloat(b.Q1),
			FormatFloat(b.Median),
			FormatFloat(b.Q3),
			FormatFloat(b.Max),
			FormatFloat(b.Mean),
			strconv.Itoa(len(b.Outliers)),
		})
	}
	return &TableData{Title: chart.Title, Columns: columns, Rows: rows}
}
