// Package normalize turns a task's raw custom-attribute list into canonical
// effort values in minutes.
//
// The attribute schema has drifted over the life of the workspace: field
// names are bilingual, payloads live in whichever of number/text/display/enum
// is populated, and units are sometimes explicit in the text and sometimes
// implied by the field name. Classification is therefore data-driven — an
// ordered rule table matched against the lowercased field name — so new
// synonyms are added here without touching merge logic.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/oknozoka/asanasync/internal/asana"
	"github.com/oknozoka/asanasync/internal/config"
)

// Effort is the normalized result. Nil means no usable value was found;
// it is never defaulted to zero.
type Effort struct {
	EstimatedMinutes *float64
	ActualMinutes    *float64
}

// Options controls normalization.
type Options struct {
	// RateFormula selects the achievement-rate fallback formula.
	RateFormula config.RateFormula
}

type category int

const (
	catIgnored category = iota
	catEstimated
	catActual
	catRate
)

// rule classifies a field by substring match on its lowercased name.
// Earlier rules win; within a category the first parsed value wins.
type rule struct {
	category category
	keywords []string
	// hoursName marks actual-effort fields whose name says the number is
	// hours-denominated even without a unit marker in the payload.
	hoursName bool
}

// classification is the ordered rule table. The keyword sets carry both the
// English and Japanese names seen in workspace data.
var classification = []rule{
	{category: catActual, keywords: []string{"actual hours", "spent hours", "実績(h)"}, hoursName: true},
	{category: catActual, keywords: []string{
		"actual time", "actual_time", "spent time", "tracked time",
		"実績", "実働", "工数", "稼働",
	}},
	{category: catEstimated, keywords: []string{
		"estimated time", "estimated_time", "estimate",
		"見積もり", "見積",
	}},
	{category: catRate, keywords: []string{"達成率", "achievement rate", "achievement_rate"}},
}

func classify(name string) (rule, bool) {
	lowered := strings.ToLower(name)
	for _, r := range classification {
		for _, kw := range r.keywords {
			if strings.Contains(lowered, kw) {
				return r, true
			}
		}
	}
	return rule{}, false
}

type unitHint int

const (
	unitNone unitHint = iota
	unitMinutes
	unitHours
)

var numericPattern = regexp.MustCompile(`[0-9]*\.?[0-9]+`)

// resolveNumeric extracts a numeric payload from whichever value field is
// populated, in priority order, together with any unit marker found in the
// text. Malformed payloads return ok=false and the field is skipped.
func resolveNumeric(f asana.CustomField) (value float64, unit unitHint, ok bool) {
	if f.NumberValue != nil {
		return *f.NumberValue, unitNone, true
	}

	text := f.TextValue
	if text == "" {
		text = f.DisplayValue
	}
	if text == "" && f.EnumValue != nil {
		text = f.EnumValue.Name
	}
	if text == "" {
		return 0, unitNone, false
	}

	match := numericPattern.FindString(text)
	if match == "" {
		return 0, unitNone, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, unitNone, false
	}

	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "h") || strings.Contains(text, "時間"):
		return v, unitHours, true
	case strings.Contains(text, "分") || strings.Contains(lowered, "min"):
		return v, unitMinutes, true
	}
	return v, unitNone, true
}

// toMinutes converts an extracted value to minutes. Absent an explicit unit
// marker the number is treated as minutes — the legacy default, preserved
// for compatibility with previously ingested data — unless the field name
// itself is hours-denominated.
func toMinutes(value float64, unit unitHint, hoursName bool) float64 {
	switch unit {
	case unitHours:
		return value * 60
	case unitMinutes:
		return value
	}
	if hoursName {
		return value * 60
	}
	return value
}

// normalizeRate interprets an achievement-rate payload. A value in (0, 10]
// is already a ratio; (10, 1000] is a percentage. Anything else is invalid.
func normalizeRate(v float64) (float64, bool) {
	switch {
	case v > 0 && v <= 10:
		return v, true
	case v > 10 && v <= 1000:
		return v / 100, true
	}
	return 0, false
}

// Normalize derives estimated and actual effort in minutes from a task's
// raw custom fields. The input order only matters for first-match-wins
// within a category. A malformed field never aborts the remaining fields.
func Normalize(fields []asana.CustomField, opts Options) Effort {
	var out Effort
	var rate *float64

	for _, f := range fields {
		r, matched := classify(f.Name)
		if !matched {
			continue
		}

		value, unit, ok := resolveNumeric(f)
		if !ok {
			continue
		}

		switch r.category {
		case catEstimated:
			if out.EstimatedMinutes == nil {
				m := toMinutes(value, unit, false)
				out.EstimatedMinutes = &m
			}
		case catActual:
			if out.ActualMinutes == nil {
				m := toMinutes(value, unit, r.hoursName)
				out.ActualMinutes = &m
			}
		case catRate:
			if rate == nil {
				rate = &value
			}
		}
	}

	// Achievement rate is a fallback only: used when no direct
	// actual-effort field was present.
	if out.ActualMinutes == nil && rate != nil && out.EstimatedMinutes != nil {
		if r, valid := normalizeRate(*rate); valid && r > 0 {
			var m float64
			if opts.RateFormula == config.RateMultiply {
				m = *out.EstimatedMinutes * r
			} else {
				m = *out.EstimatedMinutes / r
			}
			out.ActualMinutes = &m
		}
	}

	return out
}
