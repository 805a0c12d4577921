package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/spektr-org/pitchboard/errors"
)

// ============================================================================
// PROFILING — Heuristic column classification
// ============================================================================
// Inspects already-decoded rows and describes every column.
//
// Classification pipeline per column:
//   1. Sample values → detect type (numeric, string)
//   2. Type + cardinality → classify role (dimension, measure, skip)
//   3. Numeric columns → min / max / mean over non-empty cells
// ============================================================================

// DiscoverOptions controls profiling behavior.
type DiscoverOptions struct {
	SampleSize   int    // Max rows to inspect (0 = all)
	Name         string // Dataset name override
	Source       string // Where the rows came from, e.g. a file path
	DecimalComma bool   // Accept "3,45" as 3.45
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{}
}

// Discover profiles rows under header and returns a Config describing them.
func Discover(header []string, rows [][]string, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if len(header) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "dataset has no columns")
	}

	if opt.SampleSize > 0 && len(rows) > opt.SampleSize {
		rows = rows[:opt.SampleSize]
	}
	totalRows := len(rows)

	config := &Config{
		Name:           opt.Name,
		Version:        "1.0",
		DiscoveredFrom: opt.Source,
		DiscoveredAt:   time.Now().UTC().Format(time.RFC3339),
		RowCount:       totalRows,
	}
	if config.Name == "" {
		config.Name = "Profiled Dataset"
	}

	for i, h := range header {
		col := analyzeColumn(h, i, rows, totalRows, opt.DecimalComma)
		switch col.role {
		case roleDimension:
			config.Dimensions = append(config.Dimensions, col.toDimension())
		case roleMeasure:
			config.Measures = append(config.Measures, col.toMeasure())
		case roleSkipped:
			config.SkippedColumns = append(config.SkippedColumns, SkippedColumn{
				Column: col.header,
				Reason: col.skipReason,
			})
		}
	}
	return config, nil
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type columnRole int

const (
	roleDimension columnRole = iota
	roleMeasure
	roleSkipped
)

type columnType int

const (
	typeString columnType = iota
	typeNumeric
)

type columnAnalysis struct {
	header     string
	key        string
	index      int
	colType    columnType
	role       columnRole
	skipReason string

	// Stats
	uniqueCount int
	totalCount  int
	nullCount   int
	sampleVals  []string
	numbers     []float64

	hasDecimals     bool
	cardinalityHint string
}

// analyzeColumn inspects all values in a column and classifies it.
func analyzeColumn(header string, index int, rows [][]string, totalRows int, decimalComma bool) columnAnalysis {
	col := columnAnalysis{
		header:     header,
		key:        toSnakeCase(header),
		index:      index,
		totalCount: totalRows,
	}

	values := make([]string, 0, len(rows))
	uniqueSet := make(map[string]bool)

	for _, row := range rows {
		if index >= len(row) {
			col.nullCount++
			continue
		}
		val := strings.TrimSpace(row[index])
		if isNull(val) {
			col.nullCount++
			continue
		}
		values = append(values, val)
		uniqueSet[val] = true
	}
	col.uniqueCount = len(uniqueSet)

	if len(values) == 0 {
		col.role = roleSkipped
		col.skipReason = "All values are empty/null"
		return col
	}

	col.sampleVals = collectSamples(uniqueSet, 10)

	// Step 1: Detect type
	col.colType = detectType(values, decimalComma)
	if col.colType == typeNumeric {
		for _, v := range values {
			f, err := parseNumber(v, decimalComma)
			if err != nil {
				continue
			}
			col.numbers = append(col.numbers, f)
			if f != float64(int64(f)) || strings.ContainsAny(v, ".,") {
				col.hasDecimals = true
			}
		}
	}

	// Step 2: Classify role based on type + cardinality
	col.classifyRole(totalRows)

	// Step 3: Set cardinality hint
	switch {
	case col.uniqueCount <= 10:
		col.cardinalityHint = "low"
	case col.uniqueCount <= 100:
		col.cardinalityHint = "medium"
	default:
		col.cardinalityHint = "high"
	}
	return col
}

// classifyRole determines dimension vs measure vs skip.
func (col *columnAnalysis) classifyRole(totalRows int) {
	switch col.colType {
	case typeNumeric:
		// Continuous data is always a measure
		if col.hasDecimals {
			col.role = roleMeasure
			return
		}
		// Few distinct integers → coded dimension (e.g. age buckets)
		uniqueRatio := float64(col.uniqueCount) / float64(totalRows)
		if col.uniqueCount < 20 && uniqueRatio < 0.3 {
			col.role = roleDimension
			return
		}
		col.role = roleMeasure

	case typeString:
		if col.uniqueCount == totalRows && totalRows > 10 {
			col.role = roleSkipped
			col.skipReason = "Unique per row, likely an identifier"
			return
		}
		if col.uniqueCount > totalRows/2 && col.uniqueCount > 50 {
			col.role = roleSkipped
			col.skipReason = fmt.Sprintf("High cardinality (%d unique values), not useful for grouping", col.uniqueCount)
			return
		}
		col.role = roleDimension
	}
}

// ============================================================================
// TYPE DETECTION
// ============================================================================

// detectType requires 80%+ of non-null values to parse as numbers.
func detectType(values []string, decimalComma bool) columnType {
	numCount := 0
	for _, v := range values {
		if _, err := parseNumber(v, decimalComma); err == nil {
			numCount++
		}
	}
	if numCount >= int(float64(len(values))*0.8) {
		return typeNumeric
	}
	return typeString
}

func parseNumber(s string, decimalComma bool) (float64, error) {
	s = strings.TrimSpace(s)
	if decimalComma {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

func isNull(val string) bool {
	switch val {
	case "", "null", "NULL", "N/A", "n/a", "NaN":
		return true
	}
	return false
}

// ============================================================================
// CONVERSION HELPERS
// ============================================================================

// toDimension converts a column analysis into DimensionMeta.
func (col *columnAnalysis) toDimension() DimensionMeta {
	return DimensionMeta{
		Key:             col.key,
		DisplayName:     toDisplayName(col.header),
		Source:          col.header,
		SampleValues:    col.sampleVals,
		Groupable:       true,
		Filterable:      true,
		CardinalityHint: col.cardinalityHint,
		UniqueCount:     col.uniqueCount,
		NullCount:       col.nullCount,
	}
}

// toMeasure converts a column analysis into MeasureMeta.
func (col *columnAnalysis) toMeasure() MeasureMeta {
	m := MeasureMeta{
		Key:                col.key,
		DisplayName:        toDisplayName(col.header),
		Source:             col.header,
		Optional:           col.nullCount > 0,
		Aggregations:       []string{"avg", "min", "max"},
		DefaultAggregation: "avg",
		Format:             "0.00",
		NullCount:          col.nullCount,
	}
	if len(col.numbers) > 0 {
		lo, hi, sum := col.numbers[0], col.numbers[0], 0.0
		for _, v := range col.numbers {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
			sum += v
		}
		mean := sum / float64(len(col.numbers))
		m.Min, m.Max, m.Mean = &lo, &hi, &mean
	}
	return m
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toSnakeCase converts "Column Name" or "columnName" → "column_name".
// "K/9" → "k_9".
func toSnakeCase(s string) string {
	var result strings.Builder
	prev := rune(0)
	for _, r := range s {
		if unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			result.WriteRune('_')
		}
		result.WriteRune(r)
		prev = r
	}

	s = strings.ToLower(result.String())
	s = strings.NewReplacer(" ", "_", "-", "_", "/", "_").Replace(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

// toDisplayName cleans a header for human display.
// "story_points" → "Story Points", "ERA" stays "ERA".
func toDisplayName(s string) string {
	if strings.ContainsAny(s, " /") || strings.ToUpper(s) == s {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples representative values.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}

	// Sort for deterministic output
	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
