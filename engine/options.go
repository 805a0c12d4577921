package engine

// ============================================================================
// ENGINE OPTIONS — Functional options for Build()
// ============================================================================

// DefaultTitle heads a dashboard when no title is configured.
const DefaultTitle = "MLB Pitcher Performance"

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Title   string
	Palette []string // series colours, assigned to teams in table order
	Panels  []string // panel ids to build, in order
	Grid    bool     // include the raw-data grid
	Summary string   // summary line template, see ResolvePlaceholders
}

// WithTitle sets the dashboard title.
func WithTitle(title string) Option {
	return func(c *config) {
		c.Title = title
	}
}

// WithPalette replaces the default colour palette. An empty palette is ignored.
func WithPalette(colors []string) Option {
	return func(c *config) {
		if len(colors) > 0 {
			c.Palette = append([]string(nil), colors...)
		}
	}
}

// WithPanels restricts the pass to the given panel ids, in the given order.
// Unknown ids are skipped.
func WithPanels(ids ...string) Option {
	return func(c *config) {
		c.Panels = append([]string(nil), ids...)
	}
}

// WithoutGrid skips the raw-data grid (API callers that only want charts).
func WithoutGrid() Option {
	return func(c *config) {
		c.Grid = false
	}
}

// WithSummary sets the first summary line template.
func WithSummary(template string) Option {
	return func(c *config) {
		c.Summary = template
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Title:   DefaultTitle,
		Palette: defaultColors,
		Panels:  PanelIDs(),
		Grid:    true,
		Summary: DefaultSummary,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
