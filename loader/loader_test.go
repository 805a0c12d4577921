package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/pitchboard/engine"
	"github.com/spektr-org/pitchboard/errors"
	"github.com/spektr-org/pitchboard/schema"
)

const header = "Equipo;Jugador;Edad;Innings Pitched;ERA;WHIP;K/9;BB/9;H/9;HR/9;WAR\n"

const fixture = header +
	"TeamA;Ana;25;180.1;3,00;1,10;9,5;2,1;7,8;1,0;3,2\n" +
	"TeamB;Bo;30;95.0;4,50;1,40;7,0;3,5;9,1;1,4;-0,4\n" +
	"TeamA;Cy;25;60.2;2,00;0,95;;2,8;6,0;0,7;1,1\n"

func writeFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pitcheo.csv")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestLoadParsesRecords(t *testing.T) {
	path := writeFile(t, []byte(fixture))
	table, err := New().Load(context.Background(), path, Options{Encoding: "latin-1"})
	require.NoError(t, err)

	require.Equal(t, 3, table.Len())
	first := table.Record(0)
	assert.Equal(t, "TeamA", first.Team)
	assert.Equal(t, "Ana", first.Player)
	assert.Equal(t, 25, first.Age)
	assert.Equal(t, "180.1", first.InningsPitched)
	assert.InDelta(t, 180+1.0/3, first.Innings, 1e-9)
	assert.Equal(t, 3.0, first.ERA)
	assert.Equal(t, 1.1, first.WHIP)
	assert.Equal(t, -0.4, table.Record(1).WAR)
	assert.True(t, engine.Missing(table.Record(2).K9))
	assert.Equal(t, path, table.Source())
}

func TestLoadIsMemoised(t *testing.T) {
	path := writeFile(t, []byte(fixture))
	l := New()
	ctx := context.Background()

	first, err := l.Load(ctx, path, Options{})
	require.NoError(t, err)

	// the file is gone, but the memo still answers
	require.NoError(t, os.Remove(path))
	second, err := l.Load(ctx, path, Options{Delimiter: ';', Encoding: "utf8"})
	require.NoError(t, err)
	assert.Same(t, first, second)

	l.Reset()
	_, err = l.Load(ctx, path, Options{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
}

func TestLoadKeyIncludesEncoding(t *testing.T) {
	path := writeFile(t, []byte(fixture))
	l := New()

	a, err := l.Load(context.Background(), path, Options{Encoding: "latin-1"})
	require.NoError(t, err)
	b, err := l.Load(context.Background(), path, Options{Encoding: "utf-8"})
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

// holdReads makes reads of path wait on release, and counts every read.
func holdReads(t *testing.T, path string) (started, release chan struct{}, reads *int32) {
	t.Helper()
	started = make(chan struct{}, 16)
	release = make(chan struct{})
	reads = new(int32)
	orig := readTable
	readTable = func(p string, opts Options) (*engine.Table, error) {
		atomic.AddInt32(reads, 1)
		if p == path {
			started <- struct{}{}
			<-release
		}
		return orig(p, opts)
	}
	t.Cleanup(func() { readTable = orig })
	return started, release, reads
}

func TestColdLoadDoesNotBlockCachedKey(t *testing.T) {
	warm := writeFile(t, []byte(fixture))
	cold := writeFile(t, []byte(fixture))
	l := New()
	ctx := context.Background()

	want, err := l.Load(ctx, warm, Options{})
	require.NoError(t, err)

	started, release, _ := holdReads(t, cold)
	done := make(chan error, 1)
	go func() {
		_, err := l.Load(ctx, cold, Options{})
		done <- err
	}()
	<-started

	hit := make(chan *engine.Table, 1)
	go func() {
		got, _ := l.Load(ctx, warm, Options{})
		hit <- got
	}()
	select {
	case got := <-hit:
		assert.Same(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatal("cached load waited on an unrelated first load")
	}

	close(release)
	require.NoError(t, <-done)
}

func TestConcurrentFirstLoadsShareOneRead(t *testing.T) {
	path := writeFile(t, []byte(fixture))
	l := New()
	started, release, reads := holdReads(t, path)

	const callers = 8
	tables := make([]*engine.Table, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tables[i], _ = l.Load(context.Background(), path, Options{})
		}(i)
	}
	<-started
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(reads))
	for _, tbl := range tables {
		require.NotNil(t, tbl)
		assert.Same(t, tables[0], tbl)
	}
}

func TestPackageLevelLoad(t *testing.T) {
	t.Cleanup(Reset)
	path := writeFile(t, []byte(fixture))

	a, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	b, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestLatin1Decoding(t *testing.T) {
	// "José" and "Peña" in ISO-8859-1
	raw := []byte(header + "Mets;Jos\xe9 Pe\xf1a;27;120.0;3,10;1,20;8,0;2,0;8,0;1,0;2,5\n")
	path := writeFile(t, raw)

	table, err := New().Load(context.Background(), path, Options{Encoding: "ISO-8859-1"})
	require.NoError(t, err)
	assert.Equal(t, "José Peña", table.Record(0).Player)
}

func TestBOMIsStripped(t *testing.T) {
	for _, enc := range []string{"utf-8", "latin-1"} {
		path := writeFile(t, []byte("\xef\xbb\xbf"+fixture))
		_, err := New().Load(context.Background(), path, Options{Encoding: enc})
		assert.NoError(t, err, enc)
	}
}

func TestCommaDelimitedUsesDecimalPoint(t *testing.T) {
	content := strings.ReplaceAll(header, ";", ",") + "TeamA,Ana,25,180.1,3.00,1.10,9.5,2.1,7.8,1.0,3.2\n"
	records, err := Parse(strings.NewReader(content), Options{Delimiter: ','})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 9.5, records[0].K9)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    int
		column  string
	}{
		{"header spelling", strings.Replace(header, "Edad", "Age", 1), 1, "Edad"},
		{"empty file", "", 1, ""},
		{"short row", header + "TeamA;Ana;25\n", 2, ""},
		{"bad age", header + "TeamA;Ana;young;180.1;3;1;9;2;7;1;3\n", 2, "Edad"},
		{"bad era", header + "TeamA;Ana;25;180.1;low;1;9;2;7;1;3\n", 2, "ERA"},
		{"missing whip", header + "TeamA;Ana;25;180.1;3;;9;2;7;1;3\n", 2, "WHIP"},
		{"missing team", header + ";Ana;25;180.1;3;1;9;2;7;1;3\n", 2, "Equipo"},
		{"negative era", header + "TeamA;Ana;25;180.1;-3;1;9;2;7;1;3\n", 2, "ERA"},
		{"bad innings", header + "TeamA;Ana;25;lots;3;1;9;2;7;1;3\n", 2, "Innings Pitched"},
		{"third row", fixture + "TeamC;Dee;31;50.0;3;1;9;2;7;1;x\n", 5, "WAR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.content), Options{})
			require.Error(t, err)
			require.True(t, errors.IsType(err, errors.ErrorTypeParse), err.Error())

			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.line, e.Details["line"])
			if tt.column != "" {
				assert.Equal(t, tt.column, e.Details["column"])
			}
		})
	}
}

func TestOptionErrors(t *testing.T) {
	_, err := Parse(strings.NewReader(fixture), Options{Encoding: "ebcdic"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = Parse(strings.NewReader(fixture), Options{Delimiter: '"'})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestGridHeaderMatchesFileHeader(t *testing.T) {
	assert.Equal(t, schema.Header(), engine.GridHeader())
}

func TestReadRaw(t *testing.T) {
	raw := "\xef\xbb\xbfName;Score\nx;1,5\ny;\n"
	header, rows, err := ReadRaw(strings.NewReader(raw), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Score"}, header)
	assert.Equal(t, [][]string{{"x", "1,5"}, {"y", ""}}, rows)

	_, _, err = ReadRaw(strings.NewReader(""), Options{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeParse))

	_, _, err = ReadRawFile(filepath.Join(t.TempDir(), "missing.csv"), Options{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
}

func TestDecimalComma(t *testing.T) {
	assert.True(t, Options{}.DecimalComma())
	assert.True(t, Options{Delimiter: '\t'}.DecimalComma())
	assert.False(t, Options{Delimiter: ','}.DecimalComma())
}
