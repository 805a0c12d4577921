package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spektr-org/pitchboard/engine"
	"github.com/spektr-org/pitchboard/errors"
	"github.com/spektr-org/pitchboard/logger"
	"github.com/spektr-org/pitchboard/metrics"
	"github.com/spektr-org/pitchboard/observability"
	"github.com/spektr-org/pitchboard/render"
	"github.com/spektr-org/pitchboard/schema"
)

// ============================================================================
// PASSES
// ============================================================================

// selection parses the request's selection on top of the table defaults.
func (s *Server) selection(r *http.Request) (engine.Selection, error) {
	return ParseSelection(s.table.Defaults(), r.URL.Query())
}

// build runs one full dashboard pass and records it.
func (s *Server) build(ctx context.Context, entry string, sel engine.Selection, opts ...engine.Option) *engine.Dashboard {
	ctx, span := observability.StartSpan(ctx, "dashboard.build", attribute.String("entry", entry))
	defer span.End()

	timer := metrics.NewTimer()
	d := engine.Build(ctx, s.table, sel, append(append([]engine.Option(nil), s.options...), opts...)...)
	metrics.ObservePass(entry, d.Summary.Count, timer.Stop())

	span.SetAttributes(attribute.Int("rows.filtered", d.Summary.Count))
	return d
}

// filter runs a pass that only needs the filtered rows.
func (s *Server) filter(ctx context.Context, entry string, sel engine.Selection) *engine.FilteredTable {
	_, span := observability.StartSpan(ctx, "dashboard.filter", attribute.String("entry", entry))
	defer span.End()

	timer := metrics.NewTimer()
	f := engine.Filter(s.table, sel)
	metrics.ObservePass(entry, f.Len(), timer.Stop())
	return f
}

// ============================================================================
// API
// ============================================================================

type filtersResponse struct {
	Defaults engine.Selection `json:"defaults"`
	Teams    []string         `json:"teams"`
	Ages     []int            `json:"ages"`
	Innings  []string         `json:"innings"`
	ERA      engine.Range     `json:"eraRange"`
	WHIP     engine.Range     `json:"whipRange"`
	Panels   []engine.Panel   `json:"panels"`
	Source   string           `json:"source"`
	Rows     int              `json:"rows"`
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	d := s.table.Defaults()
	respondJSON(w, http.StatusOK, filtersResponse{
		Defaults: d,
		Teams:    d.Teams,
		Ages:     d.Ages,
		Innings:  d.Innings,
		ERA:      d.ERA,
		WHIP:     d.WHIP,
		Panels:   engine.Panels(),
		Source:   s.table.Source(),
		Rows:     s.table.Len(),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sel, err := s.selection(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.build(r.Context(), "api", sel))
}

type recordsResponse struct {
	Selection engine.Selection  `json:"selection"`
	Count     int               `json:"count"`
	Total     int               `json:"total"`
	Table     *engine.TableData `json:"table"`
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	sel, err := s.selection(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	f := s.filter(r.Context(), "records", sel)
	respondJSON(w, http.StatusOK, recordsResponse{
		Selection: sel,
		Count:     f.Len(),
		Total:     s.table.Len(),
		Table:     engine.BuildGrid(f, "Pitchers after filters"),
	})
}

type metricsResponse struct {
	Selection engine.Selection  `json:"selection"`
	Metrics   engine.Metrics    `json:"metrics"`
	Tiles     []engine.Tile     `json:"tiles"`
	Teams     *engine.TableData `json:"teams"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	sel, err := s.selection(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	f := s.filter(r.Context(), "metrics", sel)
	m := engine.Summarize(f)
	respondJSON(w, http.StatusOK, metricsResponse{
		Selection: sel,
		Metrics:   m,
		Tiles:     m.Tiles(),
		Teams:     engine.BuildTeamTable(f),
	})
}

// chart resolves the {panel} route parameter and builds that panel only.
func (s *Server) chart(r *http.Request) (*engine.ChartConfig, error) {
	id := chi.URLParam(r, "panel")
	if _, ok := engine.LookupPanel(id); !ok {
		return nil, errors.New(errors.ErrorTypeNotFound, "unknown chart panel").WithDetail("panel", id)
	}
	sel, err := s.selection(r)
	if err != nil {
		return nil, err
	}
	ctx := context.WithValue(r.Context(), logger.PanelKey, id)
	d := s.build(ctx, "chart", sel, engine.WithPanels(id), engine.WithoutGrid())
	return d.Chart(id), nil
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	c, err := s.chart(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	c, err := s.chart(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !render.Supported(c.ChartType) {
		respondError(w, r, errors.Newf(errors.ErrorTypeNotFound, "%s panels have no image form", c.ChartType).
			WithDetail("panel", c.ID))
		return
	}

	var buf bytes.Buffer
	if err := render.SVG(&buf, c); err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleExport streams the filtered rows in the source column layout.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sel, err := s.selection(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	f := s.filter(r.Context(), "export", sel)

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Comma = s.delimiter
	_ = cw.Write(schema.Header())
	for i := 0; i < f.Len(); i++ {
		_ = cw.Write(engine.GridRow(f, i))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		respondError(w, r, errors.Wrap(err, errors.ErrorTypeInternal, "export failed"))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="pitchers.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "pitchboard",
		"source":    s.table.Source(),
		"rows":      s.table.Len(),
	})
}

// ============================================================================
// RESPONSES
// ============================================================================

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Code    int                    `json:"code"`
	Type    string                 `json:"type"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.Error("error encoding response", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{
		Error: http.StatusText(status),
		Code:  status,
		Type:  string(errors.TypeOf(err)),
	}
	var e *errors.Error
	if errors.As(err, &e) {
		resp.Message = e.Message
		resp.Details = e.Details
	} else {
		resp.Message = err.Error()
	}

	log := logger.WithContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	} else {
		log.Debug("request rejected", zap.Error(err))
	}
	respondJSON(w, status, resp)
}

// statusFor maps error types to HTTP status codes.
func statusFor(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
