package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ============================================================================
// AGGREGATORS — Summaries, Grouping and Sorting via RecordView
// ============================================================================
// All functions operate on RecordView: zero-copy access to any data source.
// Grouping produces SubViews (index lists into parent view).
// Missing measure values (NaN) are skipped by every aggregate.
// ============================================================================

// meanColumns lists the averaged columns in tile order.
var meanColumns = []struct {
	key   string
	label string
}{
	{MeasureERA, "ERA"},
	{MeasureWHIP, "WHIP"},
	{MeasureK9, "K/9"},
	{MeasureBB9, "BB/9"},
	{MeasureH9, "H/9"},
	{MeasureHR9, "HR/9"},
	{MeasureWAR, "WAR"},
}

// Summarize computes the scalar metrics of a filtered view.
// Means over zero rows are NoData; nothing here divides by zero.
func Summarize(view RecordView) Metrics {
	return Metrics{
		Count: view.Len(),
		Teams: len(UniqueValues(view, DimTeam)),
		ERA:   MeanMeasure(view, MeasureERA),
		WHIP:  MeanMeasure(view, MeasureWHIP),
		K9:    MeanMeasure(view, MeasureK9),
		BB9:   MeanMeasure(view, MeasureBB9),
		H9:    MeanMeasure(view, MeasureH9),
		HR9:   MeanMeasure(view, MeasureHR9),
		WAR:   MeanMeasure(view, MeasureWAR),
	}
}

// Mean returns the statistic for a measure key, or NoData for an unknown key.
func (m Metrics) Mean(measure string) Stat {
	switch measure {
	case MeasureERA:
		return m.ERA
	case MeasureWHIP:
		return m.WHIP
	case MeasureK9:
		return m.K9
	case MeasureBB9:
		return m.BB9
	case MeasureH9:
		return m.H9
	case MeasureHR9:
		return m.HR9
	case MeasureWAR:
		return m.WAR
	}
	return NoData
}

// Tiles formats metrics as the eight page tiles.
func (m Metrics) Tiles() []Tile {
	tiles := make([]Tile, 0, len(meanColumns)+1)
	tiles = append(tiles, Tile{
		Key:   "count",
		Label: "Total pitchers",
		Value: FormatInt(m.Count),
		Valid: true,
	})
	for _, c := range meanColumns {
		s := m.Mean(c.key)
		tiles = append(tiles, Tile{
			Key:   c.key,
			Label: "Mean " + c.label,
			Value: s.String(),
			Valid: s.Valid,
		})
	}
	return tiles
}

// ============================================================================
// GROUPING
// ============================================================================

// GroupBy splits a view by one dimension, groups in first-seen order.
// With a second dimension each group carries SubGroups.
func GroupBy(view RecordView, dimensions ...string) []Group {
	if view.Len() == 0 || len(dimensions) == 0 {
		return nil
	}
	groups := groupBySingle(view, dimensions[0])
	if len(dimensions) > 1 {
		for i := range groups {
			groups[i].SubGroups = GroupBy(groups[i].View, dimensions[1:]...)
		}
	}
	return groups
}

// CountBy groups by a dimension and sets each group's Value to its row count.
func CountBy(view RecordView, dimension string) []Group {
	groups := GroupBy(view, dimension)
	for i := range groups {
		aggregateGroup(&groups[i], "", "count")
	}
	return groups
}

func groupBySingle(view RecordView, dimension string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := view.Dimension(i, dimension)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:   key,
			Label: key,
			Count: len(grouped[key]),
			View:  newSubView(view, grouped[key]),
		})
	}
	return groups
}

// ============================================================================
// AGGREGATION
// ============================================================================

func aggregateGroup(group *Group, measure string, aggregation string) {
	group.Count = group.View.Len()
	if group.Count == 0 {
		return
	}

	switch aggregation {
	case "count":
		group.Value = float64(group.Count)
	case "avg":
		group.Value = MeanMeasure(group.View, measure).Value
	case "max":
		group.Value = MaxMeasure(group.View, measure)
	case "min":
		group.Value = MinMeasure(group.View, measure)
	default:
		group.Value = SumMeasure(group.View, measure)
	}
}

// SumMeasure sums a named measure across a view.
func SumMeasure(view RecordView, measure string) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		if v := view.Measure(i, measure); !Missing(v) {
			total += v
		}
	}
	return total
}

// MeanMeasure averages the non-missing values of a measure.
func MeanMeasure(view RecordView, measure string) Stat {
	var total float64
	n := 0
	for i := 0; i < view.Len(); i++ {
		v := view.Measure(i, measure)
		if Missing(v) {
			continue
		}
		total += v
		n++
	}
	if n == 0 {
		return NoData
	}
	return Of(total / float64(n))
}

// MaxMeasure returns the largest value of a named measure (0 when none).
func MaxMeasure(view RecordView, measure string) float64 {
	m, found := math.Inf(-1), false
	for i := 0; i < view.Len(); i++ {
		v := view.Measure(i, measure)
		if Missing(v) {
			continue
		}
		if !found || v > m {
			m = v
			found = true
		}
	}
	if !found {
		return 0
	}
	return m
}

// MinMeasure returns the smallest value of a named measure (0 when none).
func MinMeasure(view RecordView, measure string) float64 {
	m, found := math.Inf(1), false
	for i := 0; i < view.Len(); i++ {
		v := view.Measure(i, measure)
		if Missing(v) {
			continue
		}
		if !found || v < m {
			m = v
			found = true
		}
	}
	if !found {
		return 0
	}
	return m
}

// MeasureValues collects the non-missing values of a measure in view order.
func MeasureValues(view RecordView, measure string) []float64 {
	out := make([]float64, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		if v := view.Measure(i, measure); !Missing(v) {
			out = append(out, v)
		}
	}
	return out
}

// ============================================================================
// SORTING
// ============================================================================

// SortGroups sorts groups by the specified sort mode. Sorting is stable,
// so equal groups keep their grouping order.
func SortGroups(groups []Group, sortBy string) {
	switch sortBy {
	case "value_desc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value > groups[j].Value })
	case "value_asc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value < groups[j].Value })
	case "numeric_asc":
		sort.SliceStable(groups, func(i, j int) bool { return numericKey(groups[i].Key) < numericKey(groups[j].Key) })
	case "label_asc":
		sort.SliceStable(groups, func(i, j int) bool { return strings.ToLower(groups[i].Key) < strings.ToLower(groups[j].Key) })
	default:
		// preserve grouping order
	}
}

func numericKey(key string) float64 {
	var v float64
	if _, err := fmt.Sscan(key, &v); err != nil {
		return math.Inf(1)
	}
	return v
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatFloat renders a measure value with two decimals; missing values render empty.
func FormatFloat(v float64) string {
	if Missing(v) {
		return ""
	}
	return fmt.Sprintf("%.2f", v)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UniqueValues returns distinct values for a dimension across a view,
// in first-seen order.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := view.Dimension(i, dimension)
		if !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// LabelForMeasure returns the source column name for a measure key.
func LabelForMeasure(measure string) string {
	switch measure {
	case MeasureAge:
		return "Edad"
	case MeasureInnings:
		return "Innings Pitched"
	}
	for _, c := range meanColumns {
		if c.key == measure {
			return c.label
		}
	}
	if len(measure) == 0 {
		return ""
	}
	return strings.ToUpper(measure[:1]) + measure[1:]
}
