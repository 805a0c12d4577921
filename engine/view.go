package engine

import (
	"strconv"
)

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// Implementations:
//   DomainView[T]  : reads typed structs via accessor functions (zero-copy)
//   SubView        : filtered subset (indices into parent, zero-copy)
//   Table          : the loaded dataset (DomainView over []PitcherRecord)
//   FilteredTable  : the Table seen through a selection
// ============================================================================

// RecordView provides indexed access to a dataset.
// The engine calls Dimension/Measure in tight loops; keep implementations fast.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) float64
	DimensionKeys() []string // available dimension keys
	MeasureKeys() []string   // available measure keys
}

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered subset of a parent RecordView.
// Holds indices into the parent, no data copy. Index order is parent order.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) *SubView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Dimension(v.indices[i], key)
}

func (v *SubView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.indices) {
		return 0
	}
	return v.parent.Measure(v.indices[i], key)
}

func (v *SubView) DimensionKeys() []string { return v.parent.DimensionKeys() }
func (v *SubView) MeasureKeys() []string   { return v.parent.MeasureKeys() }

// ============================================================================
// DOMAIN ADAPTER — Zero-copy typed struct access
// ============================================================================

// DomainAdapter builds a RecordView from typed structs.
// Declare once, bind many times.
type DomainAdapter[T any] struct {
	dimOrder []string
	mesOrder []string
	dims     map[string]func(T) string
	meas     map[string]func(T) float64
}

// NewDomainAdapter creates a new adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{
		dims: make(map[string]func(T) string),
		meas: make(map[string]func(T) float64),
	}
}

// Dimension registers a dimension accessor.
func (a *DomainAdapter[T]) Dimension(key string, fn func(T) string) *DomainAdapter[T] {
	if _, exists := a.dims[key]; !exists {
		a.dimOrder = append(a.dimOrder, key)
	}
	a.dims[key] = fn
	return a
}

// Measure registers a measure accessor.
func (a *DomainAdapter[T]) Measure(key string, fn func(T) float64) *DomainAdapter[T] {
	if _, exists := a.meas[key]; !exists {
		a.mesOrder = append(a.mesOrder, key)
	}
	a.meas[key] = fn
	return a
}

// Bind creates a RecordView from a data slice. Zero-copy: holds a reference.
func (a *DomainAdapter[T]) Bind(data []T) *DomainView[T] {
	return &DomainView[T]{
		data:     data,
		dims:     a.dims,
		meas:     a.meas,
		dimKeys:  a.dimOrder,
		measKeys: a.mesOrder,
	}
}

// DomainView reads typed struct fields via registered accessor functions.
type DomainView[T any] struct {
	data     []T
	dims     map[string]func(T) string
	meas     map[string]func(T) float64
	dimKeys  []string
	measKeys []string
}

func (v *DomainView[T]) Len() int { return len(v.data) }

func (v *DomainView[T]) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.data) {
		return ""
	}
	if fn, ok := v.dims[key]; ok {
		return fn(v.data[i])
	}
	return ""
}

func (v *DomainView[T]) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.data) {
		return 0
	}
	if fn, ok := v.meas[key]; ok {
		return fn(v.data[i])
	}
	return 0
}

func (v *DomainView[T]) DimensionKeys() []string { return v.dimKeys }
func (v *DomainView[T]) MeasureKeys() []string   { return v.measKeys }

// pitcherAdapter exposes PitcherRecord columns under the engine's keys.
var pitcherAdapter = NewDomainAdapter[PitcherRecord]().
	Dimension(DimTeam, func(r PitcherRecord) string { return r.Team }).
	Dimension(DimPlayer, func(r PitcherRecord) string { return r.Player }).
	Dimension(DimAge, func(r PitcherRecord) string { return strconv.Itoa(r.Age) }).
	Dimension(DimInnings, func(r PitcherRecord) string { return r.InningsPitched }).
	Measure(MeasureAge, func(r PitcherRecord) float64 { return float64(r.Age) }).
	Measure(MeasureInnings, func(r PitcherRecord) float64 { return r.Innings }).
	Measure(MeasureERA, func(r PitcherRecord) float64 { return r.ERA }).
	Measure(MeasureWHIP, func(r PitcherRecord) float64 { return r.WHIP }).
	Measure(MeasureK9, func(r PitcherRecord) float64 { return r.K9 }).
	Measure(MeasureBB9, func(r PitcherRecord) float64 { return r.BB9 }).
	Measure(MeasureH9, func(r PitcherRecord) float64 { return r.H9 }).
	Measure(MeasureHR9, func(r PitcherRecord) float64 { return r.HR9 }).
	Measure(MeasureWAR, func(r PitcherRecord) float64 { return r.WAR })

// ============================================================================
// TABLE — the loaded dataset
// ============================================================================

// Table is the immutable, file-ordered dataset.
// Defaults for every selection control are derived once, at construction.
type Table struct {
	*DomainView[PitcherRecord]
	records  []PitcherRecord
	source   string
	defaults Selection
}

// NewTable takes ownership of records; callers must not modify the slice afterwards.
func NewTable(source string, records []PitcherRecord) *Table {
	t := &Table{
		DomainView: pitcherAdapter.Bind(records),
		records:    records,
		source:     source,
	}
	t.defaults = deriveDefaults(t)
	return t
}

// Source is where the table was loaded from.
func (t *Table) Source() string { return t.source }

// Record returns row i.
func (t *Table) Record(i int) PitcherRecord { return t.records[i] }

// Records returns a copy of all rows in file order.
func (t *Table) Records() []PitcherRecord {
	return append([]PitcherRecord(nil), t.records...)
}

// Defaults returns the all-inclusive selection for this table.
func (t *Table) Defaults() Selection { return t.defaults.clone() }

// Teams returns distinct teams in first-appearance order.
func (t *Table) Teams() []string { return append([]string(nil), t.defaults.Teams...) }

func deriveDefaults(t *Table) Selection {
	sel := Selection{
		Teams:   UniqueValues(t, DimTeam),
		Innings: UniqueValues(t, DimInnings),
		ERA:     Range{Min: MinMeasure(t, MeasureERA), Max: MaxMeasure(t, MeasureERA)},
		WHIP:    Range{Min: MinMeasure(t, MeasureWHIP), Max: MaxMeasure(t, MeasureWHIP)},
	}
	seen := make(map[int]bool)
	for _, r := range t.records {
		if !seen[r.Age] {
			seen[r.Age] = true
			sel.Ages = append(sel.Ages, r.Age)
		}
	}
	if sel.Teams == nil {
		sel.Teams = []string{}
	}
	if sel.Innings == nil {
		sel.Innings = []string{}
	}
	if sel.Ages == nil {
		sel.Ages = []int{}
	}
	return sel
}

// ============================================================================
// FILTERED TABLE
// ============================================================================

// FilteredTable is a Table seen through a selection. It never copies rows.
type FilteredTable struct {
	*SubView
	table *Table
}

// Table returns the parent table.
func (f *FilteredTable) Table() *Table { return f.table }

// Indices returns the parent row numbers kept, ascending.
func (f *FilteredTable) Indices() []int { return append([]int(nil), f.indices...) }

// Record returns the i-th kept row.
func (f *FilteredTable) Record(i int) PitcherRecord { return f.table.records[f.indices[i]] }

// Records returns the kept rows in table order.
func (f *FilteredTable) Records() []PitcherRecord {
	out := make([]PitcherRecord, len(f.indices))
	for i, idx := range f.indices {
		out[i] = f.table.records[idx]
	}
	return out
}
