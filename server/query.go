package server

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/spektr-org/pitchboard/engine"
	"github.com/spektr-org/pitchboard/errors"
)

// Query parameter names. Set parameters repeat (team=A&team=B); a parameter
// that is present with only empty values selects nothing, an absent one
// keeps the dataset default.
const (
	paramTeam    = "team"
	paramAge     = "age"
	paramInnings = "innings"
	paramERAMin  = "era_min"
	paramERAMax  = "era_max"
	paramWHIPMin = "whip_min"
	paramWHIPMax = "whip_max"
)

// ParseSelection reads a selection from query values on top of base.
func ParseSelection(base engine.Selection, q url.Values) (engine.Selection, error) {
	var p engine.Partial

	if vals, ok := q[paramTeam]; ok {
		teams := nonEmpty(vals)
		p.Teams = &teams
	}
	if vals, ok := q[paramInnings]; ok {
		innings := nonEmpty(vals)
		p.Innings = &innings
	}
	if vals, ok := q[paramAge]; ok {
		ages := make([]int, 0, len(vals))
		for _, v := range nonEmpty(vals) {
			n, err := strconv.Atoi(v)
			if err != nil {
				return base, invalidParam(paramAge, v, err)
			}
			ages = append(ages, n)
		}
		p.Ages = &ages
	}

	bounds := []struct {
		name string
		dst  **float64
	}{
		{paramERAMin, &p.ERAMin},
		{paramERAMax, &p.ERAMax},
		{paramWHIPMin, &p.WHIPMin},
		{paramWHIPMax, &p.WHIPMax},
	}
	for _, b := range bounds {
		v := strings.TrimSpace(q.Get(b.name))
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || engine.Missing(f) {
			return base, invalidParam(b.name, v, err)
		}
		*b.dst = &f
	}

	return base.Merge(p), nil
}

// EncodeSelection is the inverse of ParseSelection. Empty sets are written
// as a single empty value so they survive a round trip.
func EncodeSelection(sel engine.Selection) url.Values {
	q := url.Values{}
	addSet := func(name string, vals []string) {
		if len(vals) == 0 {
			q.Set(name, "")
			return
		}
		for _, v := range vals {
			q.Add(name, v)
		}
	}
	addSet(paramTeam, sel.Teams)
	ages := make([]string, len(sel.Ages))
	for i, a := range sel.Ages {
		ages[i] = strconv.Itoa(a)
	}
	addSet(paramAge, ages)
	addSet(paramInnings, sel.Innings)
	q.Set(paramERAMin, formatBound(sel.ERA.Min))
	q.Set(paramERAMax, formatBound(sel.ERA.Max))
	q.Set(paramWHIPMin, formatBound(sel.WHIP.Min))
	q.Set(paramWHIPMax, formatBound(sel.WHIP.Max))
	return q
}

func nonEmpty(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func invalidParam(name, value string, cause error) error {
	var e *errors.Error
	if cause != nil {
		e = errors.Wrap(cause, errors.ErrorTypeValidation, "invalid query parameter")
	} else {
		e = errors.New(errors.ErrorTypeValidation, "invalid query parameter")
	}
	return e.WithDetail("param", name).WithDetail("value", value)
}
