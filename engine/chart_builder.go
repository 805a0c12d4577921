package engine

import (
	"sort"
	"strconv"
)

// ============================================================================
// CHART BUILDER — Produces ChartConfig panels from a FilteredTable
// ============================================================================
// Every panel reads only the filtered rows. An empty FilteredTable yields
// panels with zero series, never nil.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// DefaultPalette returns a copy of the built-in series colours.
func DefaultPalette() []string {
	return append([]string(nil), defaultColors...)
}

// Chart types.
const (
	ChartBar        = "bar"
	ChartScatter    = "scatter"
	ChartLine       = "line"
	ChartBox        = "box"
	ChartViolin     = "violin"
	ChartStackedBar = "stacked_bar"
)

// Panel ids, in page order.
const (
	PanelPitchersByTeam    = "pitchers-by-team"
	PanelERAvsWHIP         = "era-vs-whip"
	PanelERAByAge          = "era-by-age"
	PanelK9ByTeam          = "k9-by-team"
	PanelWHIPByAge         = "whip-by-age"
	PanelPitchersByAgeTeam = "pitchers-by-age-team"
	PanelWARvsInnings      = "war-vs-innings"
)

// Panel describes one chart on the page.
type Panel struct {
	ID    string `json:"id"`
	Type  string `json:"chartType"`
	Title string `json:"title"`
	XAxis string `json:"xAxis"`
	YAxis string `json:"yAxis"`

	build func(f *FilteredTable, colors teamColors) []ChartSeries
}

var panels = []Panel{
	{PanelPitchersByTeam, ChartBar, "Pitchers by Team", "Equipo", "Total Pitchers", buildPitchersByTeam},
	{PanelERAvsWHIP, ChartScatter, "ERA vs WHIP", "Earned Run Average (ERA)", "Walks plus Hits per Inning Pitched (WHIP)", buildERAvsWHIP},
	{PanelERAByAge, ChartLine, "ERA Trend by Age", "Edad", "Earned Run Average (ERA)", buildERAByAge},
	{PanelK9ByTeam, ChartBox, "K/9 Distribution by Team", "Equipo", "Strikeouts per 9 Innings (K/9)", buildK9ByTeam},
	{PanelWHIPByAge, ChartViolin, "WHIP Distribution by Age", "Edad", "Walks plus Hits per Inning Pitched (WHIP)", buildWHIPByAge},
	{PanelPitchersByAgeTeam, ChartStackedBar, "Pitchers by Age and Team", "Edad", "Total Pitchers", buildPitchersByAgeTeam},
	{PanelWARvsInnings, ChartScatter, "WAR vs Innings Pitched", "Innings Pitched", "Wins Above Replacement (WAR)", buildWARvsInnings},
}

// Panels returns the panel catalogue in page order.
func Panels() []Panel {
	return append([]Panel(nil), panels...)
}

// PanelIDs returns every panel id in page order.
func PanelIDs() []string {
	ids := make([]string, len(panels))
	for i, p := range panels {
		ids[i] = p.ID
	}
	return ids
}

// LookupPanel finds a panel by id.
func LookupPanel(id string) (Panel, bool) {
	for _, p := range panels {
		if p.ID == id {
			return p, true
		}
	}
	return Panel{}, false
}

// BuildChart produces the ChartConfig for one panel, or nil for an unknown id.
func BuildChart(id string, f *FilteredTable, opts ...Option) *ChartConfig {
	return buildChart(id, f, applyOptions(opts))
}

func buildChart(id string, f *FilteredTable, cfg *config) *ChartConfig {
	p, ok := LookupPanel(id)
	if !ok {
		return nil
	}
	colors := newTeamColors(f.Table(), cfg.Palette)

	chart := &ChartConfig{
		ID:         p.ID,
		ChartType:  p.Type,
		Title:      p.Title,
		XAxis:      p.XAxis,
		YAxis:      p.YAxis,
		Series:     p.build(f, colors),
		ShowLegend: p.Type != ChartBar,
		ShowGrid:   true,
	}
	if chart.Series == nil {
		chart.Series = []ChartSeries{}
	}
	chart.Colors = make([]string, len(chart.Series))
	for i, s := range chart.Series {
		chart.Colors[i] = s.Color
	}
	return chart
}

// ============================================================================
// COLOURS
// ============================================================================

// teamColors maps each team in the full table to a palette entry so a team
// keeps its colour across selections.
type teamColors struct {
	palette []string
	byTeam  map[string]string
}

func newTeamColors(t *Table, palette []string) teamColors {
	tc := teamColors{palette: palette, byTeam: make(map[string]string)}
	for i, team := range t.Teams() {
		tc.byTeam[team] = palette[i%len(palette)]
	}
	return tc
}

func (tc teamColors) team(name string) string {
	if c, ok := tc.byTeam[name]; ok {
		return c
	}
	return tc.palette[0]
}

func (tc teamColors) index(i int) string {
	return tc.palette[i%len(tc.palette)]
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func buildPitchersByTeam(f *FilteredTable, colors teamColors) []ChartSeries {
	groups := CountBy(f, DimTeam)
	if len(groups) == 0 {
		return nil
	}
	SortGroups(groups, "value_desc")

	// one series per team keeps the per-team colour, as a coloured bar chart
	series := make([]ChartSeries, 0, len(groups))
	for _, g := range groups {
		series = append(series, ChartSeries{
			Name:  g.Label,
			Color: colors.team(g.Key),
			Data: []ChartPoint{{
				Label: g.Label,
				Value: g.Value,
			}},
		})
	}
	return series
}

func buildERAvsWHIP(f *FilteredTable, colors teamColors) []ChartSeries {
	return scatterByTeam(f, colors, MeasureERA, MeasureWHIP, true)
}

func buildWARvsInnings(f *FilteredTable, colors teamColors) []ChartSeries {
	return scatterByTeam(f, colors, MeasureInnings, MeasureWAR, false)
}

// scatterByTeam plots x against y, one series per team, sized by K/9.
// Rows with a missing x or y are not plotted.
func scatterByTeam(f *FilteredTable, colors teamColors, x, y string, withInnings bool) []ChartSeries {
	groups := GroupBy(f, DimTeam)
	series := make([]ChartSeries, 0, len(groups))
	for _, g := range groups {
		s := ChartSeries{Name: g.Label, Color: colors.team(g.Key), Data: []ChartPoint{}}
		for i := 0; i < g.View.Len(); i++ {
			xv, yv := g.View.Measure(i, x), g.View.Measure(i, y)
			if Missing(xv) || Missing(yv) {
				continue
			}
			hover := map[string]string{
				"Jugador": g.View.Dimension(i, DimPlayer),
				"Edad":    g.View.Dimension(i, DimAge),
			}
			if withInnings {
				hover["Innings Pitched"] = g.View.Dimension(i, DimInnings)
			}
			s.Data = append(s.Data, ChartPoint{
				Label: g.View.Dimension(i, DimPlayer),
				X:     xv,
				Value: yv,
				Size:  pointSize(g.View.Measure(i, MeasureK9)),
				Hover: hover,
			})
		}
		series = append(series, s)
	}
	return series
}

func pointSize(k9 float64) float64 {
	if Missing(k9) || k9 < 0 {
		return 0
	}
	return k9
}

func buildERAByAge(f *FilteredTable, colors teamColors) []ChartSeries {
	groups := GroupBy(f, DimTeam)
	series := make([]ChartSeries, 0, len(groups))
	for _, g := range groups {
		points := make([]ChartPoint, 0, g.View.Len())
		for i := 0; i < g.View.Len(); i++ {
			points = append(points, ChartPoint{
				Label: g.View.Dimension(i, DimAge),
				X:     g.View.Measure(i, MeasureAge),
				Value: g.View.Measure(i, MeasureERA),
				Hover: map[string]string{"Jugador": g.View.Dimension(i, DimPlayer)},
			})
		}
		sort.SliceStable(points, func(a, b int) bool { return points[a].X < points[b].X })
		series = append(series, ChartSeries{Name: g.Label, Color: colors.team(g.Key), Data: points})
	}
	return series
}

func buildK9ByTeam(f *FilteredTable, colors teamColors) []ChartSeries {
	groups := GroupBy(f, DimTeam)
	series := make([]ChartSeries, 0, len(groups))
	for _, g := range groups {
		s := distributionSeries(g.View, MeasureK9)
		if s.Box == nil {
			continue
		}
		s.Name = g.Label
		s.Color = colors.team(g.Key)
		series = append(series, s)
	}
	return series
}

func buildWHIPByAge(f *FilteredTable, colors teamColors) []ChartSeries {
	groups := GroupBy(f, DimAge)
	SortGroups(groups, "numeric_asc")
	series := make([]ChartSeries, 0, len(groups))
	for i, g := range groups {
		s := distributionSeries(g.View, MeasureWHIP)
		if s.Box == nil {
			continue
		}
		s.Name = g.Label
		s.Color = colors.index(i)
		s.Density = KernelDensity(MeasureValues(g.View, MeasureWHIP))
		series = append(series, s)
	}
	return series
}

// distributionSeries carries box statistics plus every point of a measure.
func distributionSeries(view RecordView, measure string) ChartSeries {
	values := MeasureValues(view, measure)
	points := make([]ChartPoint, 0, len(values))
	for i := 0; i < view.Len(); i++ {
		v := view.Measure(i, measure)
		if Missing(v) {
			continue
		}
		points = append(points, ChartPoint{
			Label: view.Dimension(i, DimPlayer),
			Value: v,
		})
	}
	return ChartSeries{Data: points, Box: ComputeBox(values)}
}

func buildPitchersByAgeTeam(f *FilteredTable, colors teamColors) []ChartSeries {
	ages := CountBy(f, DimAge)
	if len(ages) == 0 {
		return nil
	}
	SortGroups(ages, "numeric_asc")

	teams := UniqueValues(f, DimTeam)
	counts := make(map[string]map[string]int, len(ages))
	for _, a := range ages {
		byTeam := make(map[string]int)
		for _, tg := range CountBy(a.View, DimTeam) {
			byTeam[tg.Key] = tg.Count
		}
		counts[a.Key] = byTeam
	}

	series := make([]ChartSeries, 0, len(teams))
	for _, team := range teams {
		points := make([]ChartPoint, 0, len(ages))
		for _, a := range ages {
			age, _ := strconv.Atoi(a.Key)
			points = append(points, ChartPoint{
				Label: a.Label,
				X:     float64(age),
				Value: float64(counts[a.Key][team]),
			})
		}
		series = append(series, ChartSeries{Name: team, Color: colors.team(team), Data: points})
	}
	return series
}
