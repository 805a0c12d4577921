package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeRows is the reference table: two TeamA rows around one TeamB row.
func threeRows() *Table {
	nan := math.NaN()
	return NewTable("test", []PitcherRecord{
		{Team: "TeamA", Player: "Ana", Age: 25, InningsPitched: "180.1", Innings: 180 + 1.0/3, ERA: 3.00, WHIP: 1.10, K9: 9.5, BB9: 2.1, H9: 7.8, HR9: 1.0, WAR: 3.2},
		{Team: "TeamB", Player: "Bo", Age: 30, InningsPitched: "95.0", Innings: 95, ERA: 4.50, WHIP: 1.40, K9: 7.0, BB9: 3.5, H9: 9.1, HR9: 1.4, WAR: -0.4},
		{Team: "TeamA", Player: "Cy", Age: 25, InningsPitched: "60.2", Innings: 60 + 2.0/3, ERA: 2.00, WHIP: 0.95, K9: nan, BB9: 2.8, H9: 6.0, HR9: 0.7, WAR: 1.1},
	})
}

func players(f *FilteredTable) []string {
	out := make([]string, 0, f.Len())
	for _, r := range f.Records() {
		out = append(out, r.Player)
	}
	return out
}

func TestDefaultSelectionKeepsEveryRow(t *testing.T) {
	table := threeRows()
	f := Filter(table, DefaultSelection(table))

	assert.Equal(t, []int{0, 1, 2}, f.Indices())
	assert.Equal(t, []string{"Ana", "Bo", "Cy"}, players(f))
}

func TestDefaultsDerivedFromTable(t *testing.T) {
	sel := DefaultSelection(threeRows())

	assert.Equal(t, []string{"TeamA", "TeamB"}, sel.Teams)
	assert.Equal(t, []int{25, 30}, sel.Ages)
	assert.Equal(t, []string{"180.1", "95.0", "60.2"}, sel.Innings)
	assert.Equal(t, Range{Min: 2.00, Max: 4.50}, sel.ERA)
	assert.Equal(t, Range{Min: 0.95, Max: 1.40}, sel.WHIP)
}

func TestFilterByTeam(t *testing.T) {
	table := threeRows()
	teams := []string{"TeamA"}
	f := Filter(table, table.Defaults().Merge(Partial{Teams: &teams}))

	assert.Equal(t, []string{"Ana", "Cy"}, players(f))
	m := Summarize(f)
	require.True(t, m.ERA.Valid)
	assert.InDelta(t, 2.50, m.ERA.Value, 1e-9)
	assert.Equal(t, 1, m.Teams)
}

func TestFilterByERARange(t *testing.T) {
	table := threeRows()
	lo, hi := 2.5, 4.0
	f := Filter(table, table.Defaults().Merge(Partial{ERAMin: &lo, ERAMax: &hi}))

	assert.Equal(t, []string{"Ana"}, players(f))
}

func TestRangesAreInclusive(t *testing.T) {
	table := threeRows()
	lo, hi := 2.0, 3.0
	f := Filter(table, table.Defaults().Merge(Partial{ERAMin: &lo, ERAMax: &hi}))

	assert.Equal(t, []string{"Ana", "Cy"}, players(f))
}

func TestEmptySetSelectsNothing(t *testing.T) {
	table := threeRows()
	none := []string{}
	f := Filter(table, table.Defaults().Merge(Partial{Teams: &none}))

	assert.Equal(t, 0, f.Len())
	m := Summarize(f)
	assert.Equal(t, 0, m.Count)
	assert.Equal(t, 0, m.Teams)
	for _, key := range []string{MeasureERA, MeasureWHIP, MeasureK9, MeasureBB9, MeasureH9, MeasureHR9, MeasureWAR} {
		assert.False(t, m.Mean(key).Valid, key)
	}
}

func TestFilterIsIdempotentAndOrderPreserving(t *testing.T) {
	table := threeRows()
	ages := []int{25}
	sel := table.Defaults().Merge(Partial{Ages: &ages})

	first := Filter(table, sel)
	second := Filter(table, sel)

	assert.Equal(t, first.Indices(), second.Indices())
	assert.True(t, isAscending(first.Indices()))
}

func TestFilterIsSubsetForManySelections(t *testing.T) {
	table := threeRows()
	selections := []Selection{
		table.Defaults(),
		{},
		{Teams: []string{"TeamB", "TeamA"}, Ages: []int{30, 25}, Innings: []string{"95.0", "60.2"}, ERA: Range{0, 10}, WHIP: Range{0, 10}},
		{Teams: []string{"TeamA"}, Ages: []int{25}, Innings: []string{"180.1"}, ERA: Range{3, 3}, WHIP: Range{1.1, 1.1}},
		{Teams: []string{"teama"}, Ages: []int{25}, Innings: []string{"180.1"}, ERA: Range{0, 10}, WHIP: Range{0, 10}},
	}
	for _, sel := range selections {
		f := Filter(table, sel)
		idx := f.Indices()
		assert.True(t, isAscending(idx))
		for i, n := range idx {
			// records hold NaN, so compare identity fields
			assert.Equal(t, table.Record(n).Player, f.Record(i).Player)
			assert.Equal(t, table.Record(n).Team, f.Record(i).Team)
		}
	}
}

func TestTeamMatchIsExact(t *testing.T) {
	table := threeRows()
	teams := []string{"teama"}
	f := Filter(table, table.Defaults().Merge(Partial{Teams: &teams}))
	assert.Equal(t, 0, f.Len())
}

func TestMergeDoesNotAliasBase(t *testing.T) {
	base := threeRows().Defaults()
	teams := []string{"TeamB"}
	merged := base.Merge(Partial{Teams: &teams})
	teams[0] = "changed"

	assert.Equal(t, []string{"TeamA", "TeamB"}, base.Teams)
	assert.Equal(t, []string{"TeamB"}, merged.Teams)
}

func TestApplyFiltersEmptyReturnsView(t *testing.T) {
	table := threeRows()
	assert.Same(t, table, ApplyFilters(table, Filters{}))

	v := ApplyFilters(table, Filters{Dimensions: map[string][]string{DimAge: {"30"}}})
	require.Equal(t, 1, v.Len())
	assert.Equal(t, "Bo", v.Dimension(0, DimPlayer))
}

func TestEmptyTable(t *testing.T) {
	table := NewTable("empty", nil)
	sel := DefaultSelection(table)

	assert.Empty(t, sel.Teams)
	assert.Equal(t, 0, Filter(table, sel).Len())
}

func isAscending(idx []int) bool {
	for i := 1; i < len(idx); i++ {
		if idx[i] <= idx[i-1] {
			return false
		}
	}
	return true
}
