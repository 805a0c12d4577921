// Package loader reads the pitching dataset into an engine.Table.
//
// A file is read once per (path, delimiter, encoding); later calls with the
// same arguments return the same *engine.Table without touching the disk.
// There is no partial-success mode: any unreadable file, header mismatch or
// malformed cell fails the whole load.
package loader

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/spektr-org/pitchboard/engine"
	"github.com/spektr-org/pitchboard/errors"
	"github.com/spektr-org/pitchboard/logger"
	"github.com/spektr-org/pitchboard/metrics"
	"github.com/spektr-org/pitchboard/observability"
	"github.com/spektr-org/pitchboard/schema"
)

// DefaultDelimiter separates fields when Options.Delimiter is zero.
const DefaultDelimiter = ';'

// Options selects how the file is decoded.
type Options struct {
	Delimiter rune   // field separator, ';' when zero
	Encoding  string // latin-1, windows-1252 or utf-8 (default)
}

type key struct {
	path      string
	delimiter rune
	encoding  string
}

func (k key) String() string {
	return k.path + "\x00" + string(k.delimiter) + "\x00" + k.encoding
}

// readTable is swapped in tests to hold a load open.
var readTable = readFile

// Loader memoises loaded tables. mu guards only the map; concurrent first
// loads of one key share a single read, and other keys are not blocked.
// The zero value is not usable; call New.
type Loader struct {
	mu     sync.Mutex
	tables map[key]*engine.Table
	flight singleflight.Group
}

func (l *Loader) cached(k key) (*engine.Table, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tables[k]
	return t, ok
}

// New returns an empty Loader.
func New() *Loader {
	return &Loader{tables: make(map[key]*engine.Table)}
}

var defaultLoader = New()

// Load reads path through the process-wide memo.
func Load(ctx context.Context, path string, opts Options) (*engine.Table, error) {
	return defaultLoader.Load(ctx, path, opts)
}

// Reset clears the process-wide memo.
func Reset() {
	defaultLoader.Reset()
}

// Reset forgets every memoised table.
func (l *Loader) Reset() {
	l.mu.Lock()
	l.tables = make(map[key]*engine.Table)
	l.mu.Unlock()
}

// Load returns the table for path, reading it on first use.
// Failed loads are not memoised.
func (l *Loader) Load(ctx context.Context, path string, opts Options) (*engine.Table, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	k := key{path: path, delimiter: opts.Delimiter, encoding: opts.Encoding}

	if t, ok := l.cached(k); ok {
		metrics.LoaderReads.WithLabelValues("cached").Inc()
		return t, nil
	}

	v, err, _ := l.flight.Do(k.String(), func() (interface{}, error) {
		if t, ok := l.cached(k); ok {
			return t, nil
		}
		return l.read(ctx, k, opts)
	})
	if err != nil {
		return nil, err
	}
	return v.(*engine.Table), nil
}

func (l *Loader) read(ctx context.Context, k key, opts Options) (*engine.Table, error) {
	ctx, span := observability.StartSpan(ctx, "loader.load",
		attribute.String("path", k.path),
		attribute.String("encoding", opts.Encoding),
		attribute.String("delimiter", string(opts.Delimiter)),
	)
	defer span.End()

	log := logger.WithContext(ctx).With(zap.String("path", k.path), zap.String("encoding", opts.Encoding))

	t, err := readTable(k.path, opts)
	if err != nil {
		observability.RecordError(span, err)
		metrics.LoaderReads.WithLabelValues(string(errors.TypeOf(err)) + "_error").Inc()
		log.Error("dataset load failed", zap.Error(err))
		return nil, err
	}

	l.mu.Lock()
	l.tables[k] = t
	l.mu.Unlock()

	metrics.LoaderReads.WithLabelValues("ok").Inc()
	metrics.LoaderRows.WithLabelValues(k.path).Set(float64(t.Len()))
	span.SetAttributes(attribute.Int("rows", t.Len()))
	log.Info("dataset loaded",
		zap.Int("rows", t.Len()),
		zap.Int("teams", len(t.Teams())),
	)
	return t, nil
}

func readFile(path string, opts Options) (*engine.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "cannot read dataset").WithDetail("path", path)
	}
	defer f.Close()

	records, err := Parse(f, opts)
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) {
			e.WithDetail("path", path)
		}
		return nil, err
	}
	return engine.NewTable(path, records), nil
}

// ============================================================================
// OPTIONS
// ============================================================================

func (o Options) normalize() (Options, error) {
	if o.Delimiter == 0 {
		o.Delimiter = DefaultDelimiter
	}
	switch o.Delimiter {
	case '"', '\r', '\n', utf8.RuneError:
		return o, errors.Newf(errors.ErrorTypeConfig, "invalid delimiter %q", o.Delimiter)
	}
	name, _, err := lookupEncoding(o.Encoding)
	if err != nil {
		return o, err
	}
	o.Encoding = name
	return o, nil
}

// lookupEncoding maps an encoding name to its canonical name and decoder.
func lookupEncoding(name string) (string, encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return "utf-8", unicode.UTF8BOM, nil
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		return "latin-1", charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return "windows-1252", charmap.Windows1252, nil
	}
	return "", nil, errors.Newf(errors.ErrorTypeConfig, "unsupported encoding %q", name)
}

// ============================================================================
// PARSING
// ============================================================================

// Parse decodes and parses a whole pitching file.
func Parse(r io.Reader, opts Options) ([]engine.PitcherRecord, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	reader := newReader(r, opts)
	decimalComma := opts.DecimalComma()

	// Read header
	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrorTypeParse, "missing header").WithDetail("line", 1)
	}
	if err != nil {
		return nil, csvError(err)
	}
	if len(header) > 0 {
		header[0] = stripBOM(header[0])
	}
	if err := schema.CheckHeader(header); err != nil {
		return nil, err
	}

	var records []engine.PitcherRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ := reader.FieldPos(0)
		if len(row) != len(schema.Columns) {
			return nil, errors.Newf(errors.ErrorTypeParse, "row has %d columns, want %d", len(row), len(schema.Columns)).
				WithDetail("line", line)
		}
		rec, err := parseRow(row, decimalComma)
		if err != nil {
			var e *errors.Error
			if stderrors.As(err, &e) {
				e.WithDetail("line", line)
			}
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// newReader decodes r and splits it on the delimiter. opts must be normalised.
func newReader(r io.Reader, opts Options) *csv.Reader {
	_, enc, _ := lookupEncoding(opts.Encoding)
	reader := csv.NewReader(enc.NewDecoder().Reader(r))
	reader.Comma = opts.Delimiter
	reader.FieldsPerRecord = -1 // column count is checked per row
	return reader
}

// DecimalComma reports whether numbers use ',' as the decimal mark, which
// is the case whenever ',' is not the field delimiter.
func (o Options) DecimalComma() bool {
	d := o.Delimiter
	if d == 0 {
		d = DefaultDelimiter
	}
	return d != ','
}

// stripBOM removes a byte-order mark, including one decoded as Latin-1.
func stripBOM(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.TrimPrefix(s, "ï»¿")
}

func csvError(err error) error {
	e := errors.Wrap(err, errors.ErrorTypeParse, "malformed delimited text")
	var pe *csv.ParseError
	if stderrors.As(err, &pe) {
		e.WithDetail("line", pe.Line)
	}
	return e
}

// parseRow converts one data row. Columns follow schema.Columns.
func parseRow(row []string, decimalComma bool) (engine.PitcherRecord, error) {
	cell := func(i int) string { return strings.TrimSpace(row[i]) }
	var (
		rec engine.PitcherRecord
		err error
	)

	rec.Team, err = text(cell(0), schema.Columns[0])
	if err != nil {
		return rec, err
	}
	rec.Player = cell(1)

	if rec.Age, err = integer(cell(2), schema.Columns[2]); err != nil {
		return rec, err
	}

	if rec.InningsPitched, err = text(cell(3), schema.Columns[3]); err != nil {
		return rec, err
	}
	rec.Innings, err = engine.InningsValue(normalizeDecimal(rec.InningsPitched, decimalComma))
	if err != nil {
		return rec, cellError(schema.Columns[3], rec.InningsPitched, err)
	}

	floats := []*float64{&rec.ERA, &rec.WHIP, &rec.K9, &rec.BB9, &rec.H9, &rec.HR9, &rec.WAR}
	for i, dst := range floats {
		col := schema.Columns[4+i]
		if *dst, err = decimal(cell(4+i), col, decimalComma); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

func text(v string, col schema.Column) (string, error) {
	if v == "" && col.Required {
		return "", missingError(col)
	}
	return v, nil
}

func integer(v string, col schema.Column) (int, error) {
	if v == "" {
		return 0, missingError(col)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, cellError(col, v, err)
	}
	if n < 0 {
		return 0, errors.Newf(errors.ErrorTypeParse, "negative value %d", n).WithDetail("column", col.Name)
	}
	return n, nil
}

// decimal parses a numeric cell. Empty optional cells are missing (NaN).
func decimal(v string, col schema.Column, decimalComma bool) (float64, error) {
	if v == "" {
		if col.Required {
			return 0, missingError(col)
		}
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(normalizeDecimal(v, decimalComma), 64)
	if err != nil {
		return 0, cellError(col, v, err)
	}
	if engine.Missing(f) {
		return 0, cellError(col, v, stderrors.New("not a number"))
	}
	if f < 0 && col.Key != engine.MeasureWAR {
		return 0, errors.Newf(errors.ErrorTypeParse, "negative value %s", v).WithDetail("column", col.Name)
	}
	return f, nil
}

func normalizeDecimal(v string, decimalComma bool) string {
	if decimalComma {
		return strings.Replace(v, ",", ".", 1)
	}
	return v
}

func missingError(col schema.Column) error {
	return errors.New(errors.ErrorTypeParse, "empty required cell").WithDetail("column", col.Name)
}

func cellError(col schema.Column, v string, cause error) error {
	return errors.Wrap(cause, errors.ErrorTypeParse, "invalid "+string(col.Type)+" "+strconv.Quote(v)).
		WithDetail("column", col.Name)
}
