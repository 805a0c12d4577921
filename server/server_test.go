package server

import (
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/pitchboard/config"
	"github.com/spektr-org/pitchboard/engine"
)

func fixture() *engine.Table {
	return engine.NewTable("test.csv", []engine.PitcherRecord{
		{Team: "TeamA", Player: "Ana", Age: 25, InningsPitched: "180.1", Innings: 180 + 1.0/3, ERA: 3.00, WHIP: 1.10, K9: 9.5, BB9: 2.1, H9: 7.8, HR9: 1.0, WAR: 3.2},
		{Team: "TeamB", Player: "Bo", Age: 30, InningsPitched: "95.0", Innings: 95, ERA: 4.50, WHIP: 1.40, K9: 7.0, BB9: 3.5, H9: 9.1, HR9: 1.4, WAR: -0.4},
		{Team: "TeamA", Player: "Cy", Age: 25, InningsPitched: "60.2", Innings: 60 + 2.0/3, ERA: 2.00, WHIP: 0.95, K9: math.NaN(), BB9: 2.8, H9: 6.0, HR9: 0.7, WAR: 1.1},
	})
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(fixture(), config.Default())
	require.NoError(t, err)
	return s
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestNewRequiresTable(t *testing.T) {
	_, err := New(nil, config.Default())
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t), "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(3), body["rows"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	const id = "0f8fad5b-d9cb-469f-a165-70867728950e"
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	newTestServer(t).Handler().ServeHTTP(rec, req)

	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))
}

func TestFilters(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/v1/filters")
	require.Equal(t, http.StatusOK, rec.Code)

	var body filtersResponse
	decode(t, rec, &body)
	assert.Equal(t, []string{"TeamA", "TeamB"}, body.Teams)
	assert.Equal(t, []int{25, 30}, body.Ages)
	assert.Equal(t, engine.Range{Min: 2, Max: 4.5}, body.ERA)
	assert.Len(t, body.Panels, 7)
}

func TestDashboardTeamFilter(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/v1/dashboard?team=TeamA")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Charts  []engine.ChartConfig `json:"charts"`
		Summary engine.TextData      `json:"summary"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 2, body.Summary.Count)
	assert.Equal(t, 3, body.Summary.Total)
	assert.Len(t, body.Charts, 7)
}

func TestRecordsEmptySelection(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/v1/records?team=")
	require.Equal(t, http.StatusOK, rec.Code)

	var body recordsResponse
	decode(t, rec, &body)
	assert.Equal(t, 0, body.Count)
	assert.Equal(t, 3, body.Total)
	assert.Empty(t, body.Table.Rows)
}

func TestRecordsERARange(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/v1/records?era_min=2.5&era_max=4.0")
	require.Equal(t, http.StatusOK, rec.Code)

	var body recordsResponse
	decode(t, rec, &body)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Ana", body.Table.Rows[0][1])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/v1/metrics?team=TeamA")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tiles []engine.Tile `json:"tiles"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Tiles, 8)
	assert.Equal(t, "2", body.Tiles[0].Value)
}

func TestBadQueryIsRejected(t *testing.T) {
	s := newTestServer(t)
	for _, target := range []string{
		"/api/v1/dashboard?era_min=low",
		"/api/v1/records?age=old",
		"/api/v1/charts/era-vs-whip?whip_max=NaN",
	} {
		rec := get(t, s, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)

		var body ErrorResponse
		decode(t, rec, &body)
		assert.Equal(t, "validation", body.Type, target)
		assert.NotEmpty(t, body.Details["param"], target)
	}
}

func TestChartJSON(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/v1/charts/pitchers-by-team")
	require.Equal(t, http.StatusOK, rec.Code)

	var c engine.ChartConfig
	decode(t, rec, &c)
	assert.Equal(t, engine.PanelPitchersByTeam, c.ID)
	require.Len(t, c.Series, 2)
	assert.Equal(t, "TeamA", c.Series[0].Name)
	assert.Equal(t, 2.0, c.Series[0].Data[0].Value)
}

func TestUnknownPanel(t *testing.T) {
	s := newTestServer(t)
	for _, target := range []string{"/api/v1/charts/nope", "/charts/nope.svg"} {
		rec := get(t, s, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestChartSVG(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/charts/era-vs-whip.svg?team=TeamA")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = get(t, s, "/charts/k9-by-team.svg")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportCSV(t *testing.T) {
	rec := get(t, newTestServer(t), "/export.csv?team=TeamB")
	require.Equal(t, http.StatusOK, rec.Code)

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Equipo;Jugador;Edad;Innings Pitched;ERA;WHIP;K/9;BB/9;H/9;HR/9;WAR", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "TeamB;Bo;30;95.0;4.5;1.4;"), lines[1])
}

func TestIndexPage(t *testing.T) {
	rec := get(t, newTestServer(t), "/?team=TeamA")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "MLB Pitcher Performance")
	assert.Contains(t, body, "Teams represented: 1")
	assert.Contains(t, body, "/charts/era-vs-whip.svg?")
	assert.Contains(t, body, "K/9 Distribution by Team")
	assert.Contains(t, body, "Raw data")
}

func TestPrometheusEndpoint(t *testing.T) {
	s := newTestServer(t)
	get(t, s, "/health")

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pitchboard_http_requests_total")
}

func TestDashboardOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Dashboard.Title = "Staff Review"
	cfg.Dashboard.Panels = []string{engine.PanelERAByAge}
	s, err := New(fixture(), cfg)
	require.NoError(t, err)

	rec := get(t, s, "/api/v1/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Title  string               `json:"title"`
		Charts []engine.ChartConfig `json:"charts"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "Staff Review", body.Title)
	require.Len(t, body.Charts, 1)
	assert.Equal(t, engine.PanelERAByAge, body.Charts[0].ID)
}

func TestParseSelection(t *testing.T) {
	base := fixture().Defaults()

	sel, err := ParseSelection(base, url.Values{})
	require.NoError(t, err)
	assert.Equal(t, base, sel)

	sel, err = ParseSelection(base, url.Values{"team": {"", "TeamB"}, "age": {""}, "whip_min": {"1.2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"TeamB"}, sel.Teams)
	assert.Empty(t, sel.Ages)
	assert.Equal(t, 1.2, sel.WHIP.Min)
	assert.Equal(t, base.WHIP.Max, sel.WHIP.Max)
	assert.Equal(t, base.Innings, sel.Innings)
}

func TestEncodeSelectionRoundTrip(t *testing.T) {
	base := fixture().Defaults()
	sel := base
	sel.Teams = []string{}
	sel.ERA = engine.Range{Min: 2.5, Max: 4}

	back, err := ParseSelection(base, EncodeSelection(sel))
	require.NoError(t, err)
	assert.Empty(t, back.Teams)
	assert.Equal(t, sel.Ages, back.Ages)
	assert.Equal(t, sel.ERA, back.ERA)
}
