package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/spektr-org/pitchboard/engine"
	"github.com/spektr-org/pitchboard/errors"
	"github.com/spektr-org/pitchboard/render"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

type option struct {
	Value   string
	Checked bool
}

type panelView struct {
	Chart *engine.ChartConfig
	Image bool
	Stats *engine.TableData
}

type pageData struct {
	Dashboard *engine.Dashboard
	Selection engine.Selection
	Teams     []option
	Ages      []option
	Innings   []option
	Panels    []panelView
	Query     template.URL
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sel, err := s.selection(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	d := s.build(r.Context(), "page", sel)

	defaults := s.table.Defaults()
	ages := make([]string, len(defaults.Ages))
	for i, a := range defaults.Ages {
		ages[i] = strconv.Itoa(a)
	}
	selAges := make([]string, len(sel.Ages))
	for i, a := range sel.Ages {
		selAges[i] = strconv.Itoa(a)
	}

	data := pageData{
		Dashboard: d,
		Selection: sel,
		Teams:     options(defaults.Teams, sel.Teams),
		Ages:      options(ages, selAges),
		Innings:   options(defaults.Innings, sel.Innings),
		Query:     template.URL(EncodeSelection(sel).Encode()),
	}
	for _, c := range d.Charts {
		pv := panelView{Chart: c, Image: render.Supported(c.ChartType)}
		if !pv.Image {
			pv.Stats = engine.BuildDistributionTable(c)
		}
		data.Panels = append(data.Panels, pv)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		respondError(w, r, errors.Wrap(err, errors.ErrorTypeInternal, "page render failed"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// options lists every available value, ticking the selected ones.
func options(available, selected []string) []option {
	on := make(map[string]bool, len(selected))
	for _, v := range selected {
		on[v] = true
	}
	out := make([]option, len(available))
	for i, v := range available {
		out[i] = option{Value: v, Checked: on[v]}
	}
	return out
}
