package core

import (
	"strings"
	"time"
)

// FilterAll is the wildcard value for the month and year dimensions.
const FilterAll = "all"

// Filter is the ephemeral per-view filter state. The zero value matches
// everything except that Month/Year must then be FilterAll or empty.
type Filter struct {
	// Month is "01".."12" or FilterAll.
	Month string
	// Year is a four-digit year or FilterAll.
	Year string
	// Segment is Norte, Sul or Consolidado (no restriction).
	Segment Segment
	// Plazas restricts to a subset; empty means no restriction.
	Plazas []string
	// Search is a case-insensitive substring matched against plaza,
	// observations and lane.
	Search string
}

// Match reports whether a record satisfies every active predicate.
// Predicates are conjunctive: one miss rejects the record.
func (f Filter) Match(r Record) bool {
	if f.Year != "" && f.Year != FilterAll && !strings.HasPrefix(r.Date, f.Year) {
		return false
	}
	if f.Month != "" && f.Month != FilterAll {
		parts := strings.Split(r.Date, "-")
		if len(parts) < 2 || parts[1] != f.Month {
			return false
		}
	}
	switch f.Segment {
	case SegmentNorte, SegmentSul:
		if PlazaSegments[r.PlazaName] != f.Segment {
			return false
		}
	}
	if len(f.Plazas) > 0 {
		found := false
		for _, p := range f.Plazas {
			if p == r.PlazaName {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.PlazaName), q) &&
			!strings.Contains(strings.ToLower(r.Observations), q) &&
			!strings.Contains(strings.ToLower(r.Lane), q) {
			return false
		}
	}
	return true
}

// Apply returns the records passing the filter, preserving input order.
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// CandidatePlazas resolves the plazas in scope for ranking: the segment's
// plazas, narrowed to the selected subset when one is active.
func (f Filter) CandidatePlazas() []string {
	candidates := PlazasBySegment(f.Segment)
	if len(f.Plazas) == 0 {
		return candidates
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		for _, p := range f.Plazas {
			if c == p {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// MonthSpan resolves the filter's month and year as calendar values.
// It reports false when either dimension is the wildcard.
func (f Filter) MonthSpan() (year int, month time.Month, ok bool) {
	if f.Year == "" || f.Year == FilterAll || f.Month == "" || f.Month == FilterAll {
		return 0, 0, false
	}
	t, err := time.Parse("2006-01", f.Year+"-"+f.Month)
	if err != nil {
		return 0, 0, false
	}
	return t.Year(), t.Month(), true
}

// ByCategory keeps only records of the given kind.
func ByCategory(records []Record, c Category) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Category == c {
			out = append(out, r)
		}
	}
	return out
}
