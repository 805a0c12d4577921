package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spektr-org/pitchboard/logger"
)

// ============================================================================
// EXECUTOR — One dashboard pass
// ============================================================================
// Entry point: Build(ctx, table, selection, opts...)
//
// Pipeline:
//   1. Filter the table → FilteredTable (zero-copy)
//   2. Summarize → Metrics + tiles
//   3. Build each requested chart panel
//   4. Build the raw-data grid and text summary
//
// A pass is synchronous and shares nothing mutable; concurrent passes over
// the same Table are safe.
// ============================================================================

// Build runs one full pass of selection over table.
func Build(ctx context.Context, table *Table, sel Selection, opts ...Option) *Dashboard {
	cfg := applyOptions(opts)
	start := time.Now()

	// 1. Filter
	filtered := Filter(table, sel)

	// 2. Metrics
	metrics := Summarize(filtered)

	d := &Dashboard{
		Title:     cfg.Title,
		Selection: sel,
		Metrics:   metrics,
		Tiles:     metrics.Tiles(),
		Charts:    make([]*ChartConfig, 0, len(cfg.Panels)),
		Summary:   BuildText(filtered, metrics, table.Len(), cfg.Summary),
	}

	// 3. Charts
	for _, id := range cfg.Panels {
		if c := buildChart(id, filtered, cfg); c != nil {
			d.Charts = append(d.Charts, c)
		}
	}

	// 4. Grid
	if cfg.Grid {
		d.Table = BuildGrid(filtered, "Pitchers after filters")
	}

	logger.WithContext(ctx).Debug("dashboard pass complete",
		zap.Int("rows", table.Len()),
		zap.Int("filtered", filtered.Len()),
		zap.Int("teams", metrics.Teams),
		zap.Int("charts", len(d.Charts)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return d
}
