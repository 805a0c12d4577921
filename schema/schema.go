package schema

import (
	"strings"

	"github.com/spektr-org/pitchboard/engine"
	"github.com/spektr-org/pitchboard/errors"
)

// ============================================================================
// SCHEMA — Describes the shape of the pitching dataset
// ============================================================================
// The header contract is exact: names, order and spelling are significant.
// Config is the column metadata served to API clients and printed by
// `pitchboard profile`.
// ============================================================================

// ColumnType is how a cell is parsed.
type ColumnType string

const (
	TypeText    ColumnType = "text"
	TypeInteger ColumnType = "integer"
	TypeDecimal ColumnType = "decimal"
	TypeInnings ColumnType = "innings" // baseball notation, kept as text too
)

// Column describes one column of the pitching file.
type Column struct {
	Name        string     `json:"name"` // header text, exact
	Key         string     `json:"key"`  // engine key
	Type        ColumnType `json:"type"`
	Required    bool       `json:"required"` // empty cells are rejected at load
	Description string     `json:"description,omitempty"`
}

// Columns is the file layout, in header order.
var Columns = []Column{
	{"Equipo", engine.DimTeam, TypeText, true, "Team"},
	{"Jugador", engine.DimPlayer, TypeText, false, "Player"},
	{"Edad", engine.DimAge, TypeInteger, true, "Age"},
	{"Innings Pitched", engine.DimInnings, TypeInnings, true, "Innings pitched"},
	{"ERA", engine.MeasureERA, TypeDecimal, true, "Earned runs allowed per 9 innings"},
	{"WHIP", engine.MeasureWHIP, TypeDecimal, true, "Walks plus hits per inning pitched"},
	{"K/9", engine.MeasureK9, TypeDecimal, false, "Strikeouts per 9 innings"},
	{"BB/9", engine.MeasureBB9, TypeDecimal, false, "Walks per 9 innings"},
	{"H/9", engine.MeasureH9, TypeDecimal, false, "Hits per 9 innings"},
	{"HR/9", engine.MeasureHR9, TypeDecimal, false, "Home runs per 9 innings"},
	{"WAR", engine.MeasureWAR, TypeDecimal, false, "Wins above replacement"},
}

// Header returns the expected header row.
func Header() []string {
	h := make([]string, len(Columns))
	for i, c := range Columns {
		h[i] = c.Name
	}
	return h
}

// CheckHeader verifies got against the exact header contract.
func CheckHeader(got []string) error {
	want := Header()
	if len(got) != len(want) {
		return errors.Newf(errors.ErrorTypeParse, "header has %d columns, want %d", len(got), len(want)).
			WithDetail("line", 1).
			WithDetail("header", strings.Join(got, "|"))
	}
	for i := range want {
		if got[i] != want[i] {
			return errors.Newf(errors.ErrorTypeParse, "unexpected header %q", got[i]).
				WithDetail("line", 1).
				WithDetail("column", want[i]).
				WithDetail("position", i+1)
		}
	}
	return nil
}

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions"`
	Measures   []MeasureMeta   `json:"measures"`

	// Profiling metadata
	DiscoveredFrom string `json:"discoveredFrom,omitempty"`
	DiscoveredAt   string `json:"discoveredAt,omitempty"`
	RowCount       int    `json:"rowCount,omitempty"`

	// Columns not classified during profiling
	SkippedColumns []SkippedColumn `json:"skippedColumns,omitempty"`
}

// DimensionMeta describes a string field used for grouping/filtering.
type DimensionMeta struct {
	Key             string   `json:"key"`
	DisplayName     string   `json:"displayName"`
	Source          string   `json:"source"` // header text
	Description     string   `json:"description,omitempty"`
	SampleValues    []string `json:"sampleValues"`
	Groupable       bool     `json:"groupable"`
	Filterable      bool     `json:"filterable"`
	CardinalityHint string   `json:"cardinalityHint,omitempty"` // "low", "medium", "high"
	UniqueCount     int      `json:"uniqueCount,omitempty"`
	NullCount       int      `json:"nullCount,omitempty"`
}

// MeasureMeta describes a numeric field used for aggregation.
type MeasureMeta struct {
	Key                string   `json:"key"`
	DisplayName        string   `json:"displayName"`
	Source             string   `json:"source"`
	Description        string   `json:"description,omitempty"`
	Optional           bool     `json:"optional,omitempty"` // may hold missing values
	Aggregations       []string `json:"aggregations,omitempty"`
	DefaultAggregation string   `json:"defaultAggregation,omitempty"`
	Format             string   `json:"format,omitempty"` // "0.00"

	// Filled by profiling
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Mean      *float64 `json:"mean,omitempty"`
	NullCount int      `json:"nullCount,omitempty"`
}

// SkippedColumn records why a column was excluded during profiling.
type SkippedColumn struct {
	Column string `json:"column"`
	Reason string `json:"reason"`
}

// Pitching returns the static metadata of the pitching dataset.
func Pitching() Config {
	cfg := Config{
		Name:        "Pitching",
		Version:     "1.0",
		Description: "One row per pitcher-season",
	}
	for _, c := range Columns {
		switch c.Type {
		case TypeText, TypeInnings:
			cfg.Dimensions = append(cfg.Dimensions, DimensionMeta{
				Key:          c.Key,
				DisplayName:  c.Description,
				Source:       c.Name,
				SampleValues: []string{},
				Groupable:    true,
				Filterable:   c.Key != engine.DimPlayer,
			})
		}
		switch c.Type {
		case TypeInteger, TypeDecimal:
			cfg.Measures = append(cfg.Measures, MeasureMeta{
				Key:                c.Key,
				DisplayName:        c.Description,
				Source:             c.Name,
				Optional:           !c.Required,
				Aggregations:       []string{"avg", "min", "max"},
				DefaultAggregation: "avg",
				Format:             "0.00",
			})
		}
	}
	// Edad is both a filter set and a plotted axis
	cfg.Dimensions = append(cfg.Dimensions, DimensionMeta{
		Key:          engine.DimAge,
		DisplayName:  "Age",
		Source:       "Edad",
		SampleValues: []string{},
		Groupable:    true,
		Filterable:   true,
	})
	return cfg
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}
