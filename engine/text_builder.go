package engine

import (
	"regexp"
	"strconv"
	"strings"
)

// ============================================================================
// TEXT BUILDER — Plain-language summary of a pass
// ============================================================================
// Templates use {placeholders}; unresolved ones are stripped.
//
//   {count} {total} {teams} {era} {whip} {k9} {war}
//   {top_team} {top_team_count} {best_era_team} {best_era}
// ============================================================================

// Default summary templates.
const (
	DefaultHeadline = "Teams represented: {teams}"
	DefaultSummary  = "Pitchers after filters: {count} of {total}."
)

var summaryDetails = []string{
	"Most represented team: {top_team} ({top_team_count} pitchers).",
	"Lowest team ERA: {best_era_team} ({best_era}).",
	"Mean ERA {era}, mean WHIP {whip}, mean K/9 {k9}, mean WAR {war}.",
}

// BuildText produces the summary for a filtered view out of total rows.
func BuildText(view RecordView, m Metrics, total int, template string) *TextData {
	if template == "" {
		template = DefaultSummary
	}
	lines := []string{ResolvePlaceholders(template, view, m, total)}
	if view.Len() > 0 {
		for _, d := range summaryDetails {
			lines = append(lines, ResolvePlaceholders(d, view, m, total))
		}
	}
	return &TextData{
		Headline: ResolvePlaceholders(DefaultHeadline, view, m, total),
		Lines:    lines,
		Count:    m.Count,
		Total:    total,
	}
}

// ResolvePlaceholders substitutes computed values into a template.
func ResolvePlaceholders(template string, view RecordView, m Metrics, total int) string {
	replacements := map[string]string{
		"{count}": FormatInt(m.Count),
		"{total}": FormatInt(total),
		"{teams}": strconv.Itoa(m.Teams),
		"{era}":   m.ERA.String(),
		"{whip}":  m.WHIP.String(),
		"{k9}":    m.K9.String(),
		"{war}":   m.WAR.String(),
	}

	// Top team (most rows; first seen wins ties)
	counts := CountBy(view, DimTeam)
	if len(counts) > 0 {
		SortGroups(counts, "value_desc")
		replacements["{top_team}"] = counts[0].Label
		replacements["{top_team_count}"] = strconv.Itoa(counts[0].Count)
	}

	// Best ERA (lowest team mean)
	var best *Group
	for _, g := range GroupBy(view, DimTeam) {
		g := g
		aggregateGroup(&g, MeasureERA, "avg")
		if best == nil || g.Value < best.Value {
			best = &g
		}
	}
	if best != nil {
		replacements["{best_era_team}"] = best.Label
		replacements["{best_era}"] = Of(best.Value).String()
	}

	result := template
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Safety net: strip unresolved placeholders
	return stripUnresolvedPlaceholders(result)
}

var placeholderRegex = regexp.MustCompile(`\{[a-z0-9_]+\}`)

func stripUnresolvedPlaceholders(text string) string {
	if !placeholderRegex.MatchString(text) {
		return text
	}
	cleaned := placeholderRegex.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimRight(cleaned, " .—-–")
	if cleaned == "" {
		return text
	}
	return cleaned
}
