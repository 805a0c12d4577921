package engine

// ============================================================================
// FILTERS — Generic Dimension/Range Filtering via RecordView
// ============================================================================
// Single-pass filter: checks ALL constraints per record in one loop.
// Returns a SubView (index list into parent), zero data copy, parent order kept.
// ============================================================================

// ApplyFilters returns a view of records matching all filters.
// Constraints are AND-combined; values within a dimension are OR-combined.
// Matching is exact. Empty filter = no restriction (returns original view).
func ApplyFilters(view RecordView, filters Filters) RecordView {
	if filters.IsEmpty() {
		return view
	}
	return newSubView(view, matchIndices(view, filters))
}

// Filter applies a selection to the table. It never fails: an empty
// result is a valid FilteredTable.
func Filter(table *Table, sel Selection) *FilteredTable {
	return &FilteredTable{
		SubView: newSubView(table, matchIndices(table, sel.Filters())),
		table:   table,
	}
}

// DefaultSelection is the selection that keeps every row of table.
func DefaultSelection(table *Table) Selection {
	return table.Defaults()
}

func matchIndices(view RecordView, filters Filters) []int {
	// Pre-build lookup sets for each dimension filter
	sets := make(map[string]map[string]bool, len(filters.Dimensions))
	for dim, allowed := range filters.Dimensions {
		sets[dim] = toSet(allowed)
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if matches(view, i, sets, filters.Ranges) {
			indices = append(indices, i)
		}
	}
	return indices
}

func matches(view RecordView, i int, sets map[string]map[string]bool, ranges map[string]Range) bool {
	for dim, set := range sets {
		if !set[view.Dimension(i, dim)] {
			return false
		}
	}
	for measure, r := range ranges {
		if !r.Contains(view.Measure(i, measure)) {
			return false
		}
	}
	return true
}

// toSet converts a string slice to a lookup set.
func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
