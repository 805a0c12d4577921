package engine

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFullPass(t *testing.T) {
	table := threeRows()
	d := Build(context.Background(), table, table.Defaults())

	assert.Equal(t, DefaultTitle, d.Title)
	assert.Equal(t, 3, d.Metrics.Count)
	require.Len(t, d.Tiles, 8)
	assert.Len(t, d.Charts, 7)
	require.NotNil(t, d.Table)
	assert.Len(t, d.Table.Rows, 3)
	assert.Equal(t, GridHeader(), []string{"Equipo", "Jugador", "Edad", "Innings Pitched", "ERA", "WHIP", "K/9", "BB/9", "H/9", "HR/9", "WAR"})
	assert.Equal(t, []string{"TeamA", "Cy", "25", "60.2", "2", "0.95", "", "2.8", "6", "0.7", "1.1"}, d.Table.Rows[2])

	assert.Equal(t, "Teams represented: 2", d.Summary.Headline)
	assert.Equal(t, "Pitchers after filters: 3 of 3.", d.Summary.Lines[0])
	assert.Contains(t, d.Summary.Lines, "Most represented team: TeamA (2 pitchers).")
	assert.Contains(t, d.Summary.Lines, "Lowest team ERA: TeamA (2.50).")
}

func TestBuildOptions(t *testing.T) {
	table := threeRows()
	d := Build(context.Background(), table, table.Defaults(),
		WithTitle("Bullpen"),
		WithPanels(PanelK9ByTeam, "unknown", PanelPitchersByTeam),
		WithPalette([]string{"#000000"}),
		WithoutGrid(),
		WithSummary("{count} shown"),
	)

	assert.Equal(t, "Bullpen", d.Title)
	require.Len(t, d.Charts, 2)
	assert.Equal(t, PanelK9ByTeam, d.Charts[0].ID)
	assert.Equal(t, PanelPitchersByTeam, d.Charts[1].ID)
	assert.Equal(t, []string{"#000000", "#000000"}, d.Charts[1].Colors)
	assert.Nil(t, d.Table)
	assert.Equal(t, "3 shown", d.Summary.Lines[0])
	assert.NotNil(t, d.Chart(PanelK9ByTeam))
	assert.Nil(t, d.Chart(PanelERAByAge))
}

func TestBuildEmptySelection(t *testing.T) {
	table := threeRows()
	d := Build(context.Background(), table, Selection{})

	assert.Equal(t, 0, d.Metrics.Count)
	assert.Equal(t, "Pitchers after filters: 0 of 3.", d.Summary.Lines[0])
	assert.Len(t, d.Summary.Lines, 1)
	assert.Empty(t, d.Table.Rows)

	b, err := json.Marshal(d.Metrics)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"era":null`)
}

func TestResolvePlaceholdersStripsUnknown(t *testing.T) {
	table := threeRows()
	f := Filter(table, table.Defaults())
	got := ResolvePlaceholders("ERA {era} {nonsense}", f, Summarize(f), table.Len())
	assert.Equal(t, "ERA 3.17", got)
}

func TestTeamTable(t *testing.T) {
	table := threeRows()
	tt := BuildTeamTable(Filter(table, table.Defaults()))

	require.Len(t, tt.Rows, 2)
	assert.Equal(t, []string{"TeamA", "2", "2.50"}, tt.Rows[0][:3])
	assert.Equal(t, []string{"9.50", "2.15"}, tt.Rows[0][4:])
	assert.Equal(t, "3", tt.Summary.Values["count"])
}

func TestDistributionTable(t *testing.T) {
	table := threeRows()
	c := BuildChart(PanelK9ByTeam, Filter(table, table.Defaults()))
	dt := BuildDistributionTable(c)

	require.Len(t, dt.Rows, 2)
	assert.Equal(t, "TeamA", dt.Rows[0][0])
	assert.Equal(t, "1", dt.Rows[0][1])
}
