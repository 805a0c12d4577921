package engine

import (
	"math"
	"strconv"
)

// ============================================================================
// PITCHBOARD ENGINE TYPES
// ============================================================================
// PitcherRecord is the typed row; Table binds records to a RecordView through
// a DomainAdapter so filters, aggregators and builders stay column-generic.
// ============================================================================

// Dimension keys (string-valued columns).
const (
	DimTeam    = "team"
	DimPlayer  = "player"
	DimAge     = "age"
	DimInnings = "innings_pitched"
)

// Measure keys (numeric columns).
const (
	MeasureAge     = "age"
	MeasureInnings = "innings"
	MeasureERA     = "era"
	MeasureWHIP    = "whip"
	MeasureK9      = "k9"
	MeasureBB9     = "bb9"
	MeasureH9      = "h9"
	MeasureHR9     = "hr9"
	MeasureWAR     = "war"
)

// ============================================================================
// RECORD
// ============================================================================

// PitcherRecord is one pitcher-season row.
// Optional rate columns (K/9, BB/9, H/9, HR/9, WAR) hold NaN when the cell was empty.
type PitcherRecord struct {
	Team           string  `json:"team"`
	Player         string  `json:"player"`
	Age            int     `json:"age"`
	InningsPitched string  `json:"inningsPitched"` // source text, e.g. "180.1"
	Innings        float64 `json:"innings"`        // numeric innings, thirds resolved
	ERA            float64 `json:"era"`
	WHIP           float64 `json:"whip"`
	K9             float64 `json:"k9"`
	BB9            float64 `json:"bb9"`
	H9             float64 `json:"h9"`
	HR9            float64 `json:"hr9"`
	WAR            float64 `json:"war"`
}

// Missing reports whether a measure value is absent.
func Missing(v float64) bool {
	return math.IsNaN(v)
}

// InningsValue converts baseball innings notation into a number.
// "180.1" is 180⅓ and "180.2" is 180⅔; any other fraction is read as a plain decimal.
func InningsValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	whole := math.Trunc(v)
	frac := math.Round((v-whole)*10) / 10
	if math.Abs((v-whole)-frac) > 1e-9 {
		return v, nil
	}
	switch frac {
	case 0.1:
		return whole + 1.0/3.0, nil
	case 0.2:
		return whole + 2.0/3.0, nil
	}
	return v, nil
}

// ============================================================================
// SELECTION
// ============================================================================

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Selection holds the five sidebar controls.
// An empty set selects no rows; use DefaultSelection for "everything".
type Selection struct {
	Teams   []string `json:"teams"`
	Ages    []int    `json:"ages"`
	Innings []string `json:"innings"`
	ERA     Range    `json:"eraRange"`
	WHIP    Range    `json:"whipRange"`
}

// Partial carries only the controls a caller changed. Nil fields keep the base value.
type Partial struct {
	Teams   *[]string
	Ages    *[]int
	Innings *[]string
	ERAMin  *float64
	ERAMax  *float64
	WHIPMin *float64
	WHIPMax *float64
}

// Merge applies p on top of s and returns the result. s is not modified.
func (s Selection) Merge(p Partial) Selection {
	out := s.clone()
	if p.Teams != nil {
		out.Teams = append([]string{}, (*p.Teams)...)
	}
	if p.Ages != nil {
		out.Ages = append([]int{}, (*p.Ages)...)
	}
	if p.Innings != nil {
		out.Innings = append([]string{}, (*p.Innings)...)
	}
	if p.ERAMin != nil {
		out.ERA.Min = *p.ERAMin
	}
	if p.ERAMax != nil {
		out.ERA.Max = *p.ERAMax
	}
	if p.WHIPMin != nil {
		out.WHIP.Min = *p.WHIPMin
	}
	if p.WHIPMax != nil {
		out.WHIP.Max = *p.WHIPMax
	}
	return out
}

func (s Selection) clone() Selection {
	return Selection{
		Teams:   append([]string{}, s.Teams...),
		Ages:    append([]int{}, s.Ages...),
		Innings: append([]string{}, s.Innings...),
		ERA:     s.ERA,
		WHIP:    s.WHIP,
	}
}

// Filters converts the selection into generic view filters.
func (s Selection) Filters() Filters {
	ages := make([]string, len(s.Ages))
	for i, a := range s.Ages {
		ages[i] = strconv.Itoa(a)
	}
	return Filters{
		Dimensions: map[string][]string{
			DimTeam:    append([]string{}, s.Teams...),
			DimAge:     ages,
			DimInnings: append([]string{}, s.Innings...),
		},
		Ranges: map[string]Range{
			MeasureERA:  s.ERA,
			MeasureWHIP: s.WHIP,
		},
	}
}

// Filters define which records to include.
// A key present in Dimensions keeps rows whose value is listed (an empty list keeps none).
// A key present in Ranges keeps rows whose measure lies in the inclusive range.
// Absent keys do not restrict. All constraints are AND-combined.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
	Ranges     map[string]Range    `json:"ranges"`
}

// IsEmpty returns true if no constraint is set.
func (f Filters) IsEmpty() bool {
	return len(f.Dimensions) == 0 && len(f.Ranges) == 0
}

// ============================================================================
// METRICS
// ============================================================================

// Stat is a summary statistic that may be undefined.
// Valid=false is the "no data" sentinel (e.g. a mean over zero rows).
type Stat struct {
	Value float64
	Valid bool
}

// NoData is the undefined statistic.
var NoData = Stat{}

// Of wraps a defined value.
func Of(v float64) Stat {
	return Stat{Value: v, Valid: true}
}

// NoDataLabel is how an undefined statistic is displayed.
const NoDataLabel = "no data"

// String formats to two decimals, or NoDataLabel.
func (s Stat) String() string {
	if !s.Valid {
		return NoDataLabel
	}
	return strconv.FormatFloat(s.Value, 'f', 2, 64)
}

// MarshalJSON encodes an undefined statistic as null.
func (s Stat) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(RoundTo2(s.Value), 'f', -1, 64)), nil
}

// Metrics summarises a filtered table.
type Metrics struct {
	Count int  `json:"count"`
	Teams int  `json:"teams"`
	ERA   Stat `json:"era"`
	WHIP  Stat `json:"whip"`
	K9    Stat `json:"k9"`
	BB9   Stat `json:"bb9"`
	H9    Stat `json:"h9"`
	HR9   Stat `json:"hr9"`
	WAR   Stat `json:"war"`
}

// Tile is one scalar metric box on the page.
type Tile struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
	Valid bool   `json:"valid"`
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// Group represents a grouped/aggregated result.
type Group struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Value     float64    `json:"value"`
	Count     int        `json:"count"`
	SubGroups []Group    `json:"subGroups,omitempty"`
	View      RecordView `json:"-"`
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render one dashboard panel.
type ChartConfig struct {
	ID         string        `json:"id"`
	ChartType  string        `json:"chartType"` // bar, scatter, line, box, violin, stacked_bar
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// Empty reports whether the panel has nothing to draw.
func (c *ChartConfig) Empty() bool {
	for _, s := range c.Series {
		if len(s.Data) > 0 {
			return false
		}
	}
	return true
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name    string         `json:"name"`
	Data    []ChartPoint   `json:"data"`
	Color   string         `json:"color,omitempty"`
	Box     *BoxStats      `json:"box,omitempty"`
	Density []DensityPoint `json:"density,omitempty"`
}

// ChartPoint represents a single data point.
// Categorical charts use Label/Value; numeric charts also set X.
type ChartPoint struct {
	Label string            `json:"label"`
	X     float64           `json:"x"`
	Value float64           `json:"value"`
	Size  float64           `json:"size,omitempty"`
	Hover map[string]string `json:"hover,omitempty"`
}

// BoxStats is a five-number summary with Tukey whiskers.
type BoxStats struct {
	Min         float64   `json:"min"`
	Q1          float64   `json:"q1"`
	Median      float64   `json:"median"`
	Q3          float64   `json:"q3"`
	Max         float64   `json:"max"`
	Mean        float64   `json:"mean"`
	LowerFence  float64   `json:"lowerFence"`
	UpperFence  float64   `json:"upperFence"`
	Outliers    []float64 `json:"outliers,omitempty"`
	SampleCount int       `json:"n"`
}

// DensityPoint is one sample of a kernel density estimate.
type DensityPoint struct {
	Value   float64 `json:"value"`
	Density float64 `json:"density"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "right"
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// ============================================================================
// DASHBOARD — one full render pass
// ============================================================================

// Dashboard is the render-ready output of one pass.
type Dashboard struct {
	Title     string         `json:"title"`
	Selection Selection      `json:"selection"`
	Metrics   Metrics        `json:"metrics"`
	Tiles     []Tile         `json:"tiles"`
	Charts    []*ChartConfig `json:"charts"`
	Table     *TableData     `json:"table,omitempty"`
	Summary   *TextData      `json:"summary"`
}

// Chart returns the panel with the given id, or nil.
func (d *Dashboard) Chart(id string) *ChartConfig {
	for _, c := range d.Charts {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// TextData is the plain-language summary of a pass.
type TextData struct {
	Headline string   `json:"headline"`
	Lines    []string `json:"lines"`
	Count    int      `json:"count"`
	Total    int      `json:"total"`
}
