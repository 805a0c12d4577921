package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/pitchboard/engine"
	"github.com/spektr-org/pitchboard/errors"
)

const fixture = "Equipo;Jugador;Edad;Innings Pitched;ERA;WHIP;K/9;BB/9;H/9;HR/9;WAR\n" +
	"TeamA;Ana;25;180.1;3,00;1,10;9,5;2,1;7,8;1,0;3,2\n" +
	"TeamB;Bo;30;95.0;4,50;1,40;7,0;3,5;9,1;1,4;-0,4\n" +
	"TeamA;Cy;25;60.2;2,00;0,95;;2,8;6,0;0,7;1,1\n"

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pitcheo.csv")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pitchboard "+version)
}

func TestSummaryJSON(t *testing.T) {
	path := writeFixture(t)
	out, err := run(t, "summary", "-f", path, "--team", "TeamA")
	require.NoError(t, err)

	var d struct {
		Selection engine.Selection `json:"selection"`
		Summary   engine.TextData  `json:"summary"`
		Charts    []engine.ChartConfig
	}
	require.NoError(t, json.Unmarshal([]byte(out), &d), out)
	assert.Equal(t, 2, d.Summary.Count)
	assert.Equal(t, []string{"TeamA"}, d.Selection.Teams)
	assert.Equal(t, []int{25, 30}, d.Selection.Ages, "unset flags keep the defaults")
	assert.Len(t, d.Charts, 7)
}

func TestSummaryEmptyTeamSelectsNothing(t *testing.T) {
	path := writeFixture(t)
	out, err := run(t, "summary", "-f", path, "--team", "", "--format", "text")
	require.NoError(t, err)

	assert.Contains(t, out, "Pitchers after filters: 0 of 3.")
	assert.Contains(t, out, "Total pitchers")
	assert.Contains(t, out, engine.NoDataLabel)
}

func TestSummaryERARange(t *testing.T) {
	path := writeFixture(t)
	out, err := run(t, "summary", "-f", path, "--era-min", "2.5", "--era-max", "4", "--format", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "TeamA,Ana,25,180.1,3,1.1,"), lines[1])
}

func TestSummaryPanelCSV(t *testing.T) {
	path := writeFixture(t)
	out, err := run(t, "summary", "-f", path, "--format", "csv", "--panel", engine.PanelPitchersByTeam)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "TeamA,TeamA,2", lines[1])
	assert.Equal(t, "TeamB,TeamB,1", lines[2])

	out, err = run(t, "summary", "-f", path, "--format", "csv", "--panel", engine.PanelK9ByTeam)
	require.NoError(t, err)
	assert.Contains(t, out, "Median")
}

func TestSummaryScatterCSVKeepsNumericX(t *testing.T) {
	path := writeFixture(t)
	out, err := run(t, "summary", "-f", path, "--format", "csv", "--panel", engine.PanelERAvsWHIP)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Series,Jugador,Earned Run Average (ERA),Walks plus Hits per Inning Pitched (WHIP),Size", lines[0])
	assert.Contains(t, lines[1:], "TeamA,Ana,3,1.10,9.50")
	assert.Contains(t, lines[1:], "TeamA,Cy,2,0.95,0")
	assert.Contains(t, lines[1:], "TeamB,Bo,4.50,1.40,7")

	out, err = run(t, "summary", "-f", path, "--format", "csv", "--panel", engine.PanelERAByAge, "--team", "TeamB")
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "TeamB,Bo,30,4.50", lines[1])
}

func TestSummaryOutFile(t *testing.T) {
	path := writeFixture(t)
	dest := filepath.Join(t.TempDir(), "out.json")
	_, err := run(t, "summary", "-f", path, "--format", "pretty", "--out", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"title\": \"MLB Pitcher Performance\"")
}

func TestSummaryErrors(t *testing.T) {
	path := writeFixture(t)
	tests := []struct {
		name string
		args []string
		typ  errors.ErrorType
	}{
		{"missing file", []string{"summary", "-f", filepath.Join(t.TempDir(), "nope.csv")}, errors.ErrorTypeIO},
		{"bad format", []string{"summary", "-f", path, "--format", "xml"}, errors.ErrorTypeValidation},
		{"bad age", []string{"summary", "-f", path, "--age", "old"}, errors.ErrorTypeValidation},
		{"bad panel", []string{"summary", "-f", path, "--panel", "nope"}, errors.ErrorTypeNotFound},
		{"bad encoding", []string{"summary", "-f", path, "--encoding", "ebcdic"}, errors.ErrorTypeConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.typ), err.Error())
		})
	}
}

func TestProfile(t *testing.T) {
	path := writeFixture(t)
	out, err := run(t, "profile", "-f", path, "--format", "text")
	require.NoError(t, err)

	assert.Contains(t, out, "3 rows")
	assert.Contains(t, out, "Equipo")
	assert.Contains(t, out, "WHIP")
}

func TestFmtNum(t *testing.T) {
	assert.Equal(t, "3", fmtNum(3))
	assert.Equal(t, "2.50", fmtNum(2.5))
	assert.Equal(t, "-0.40", fmtNum(-0.4))
}
