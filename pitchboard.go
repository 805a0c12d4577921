// Package pitchboard is an MLB pitcher statistics dashboard.
//
// Usage:
//
//	table, err := loader.Load(ctx, "pitcheo.csv", loader.Options{Encoding: "latin-1"})
//	sel := engine.DefaultSelection(table)
//	sel.Teams = []string{"New York Yankees"}
//	d := engine.Build(ctx, table, sel, engine.WithPanels(engine.PanelERAvsWHIP))
//
// The loader reads the semicolon-separated season file once per process.
// The engine filters it, computes the mean tiles and builds render-ready
// chart, grid and text output. Every pass is local and synchronous.
//
// The server package serves the dashboard over HTTP; cmd/pitchboard is
// the command-line entry point.
package pitchboard
