package core

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// StreakFallbackDays is reported when the scoped history contains no
// qualifying incident at all. A product decision inherited from the source
// system, not a derived value.
const StreakFallbackDays = 365

// IncidentPriority orders classifications by severity for the calendar's
// dominant-incident coloring. Higher wins.
var IncidentPriority = map[string]int{
	IncidentQAC:     6,
	IncidentACAF:    5,
	IncidentTrajeto: 4,
	IncidentSAM:     3,
	IncidentACDM:    2,
	IncidentASAF:    1,
}

// qualifyingIncidents keeps safety records that actually count as incidents.
func qualifyingIncidents(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.IsSafety() && r.Incidents > 0 {
			out = append(out, r)
		}
	}
	return out
}

func wholeDaysBetween(from, to time.Time) int {
	d := int(to.Sub(from).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// DaysWithoutIncidents is the current streak: whole days between the most
// recent qualifying incident and now. Records must already be scoped to the
// active filter. No incidents at all yields StreakFallbackDays.
func DaysWithoutIncidents(records []Record, now time.Time) int {
	incidents := qualifyingIncidents(records)
	if len(incidents) == 0 {
		return StreakFallbackDays
	}
	latest := time.Time{}
	for _, r := range incidents {
		if d := r.Day(); d.After(latest) {
			latest = d
		}
	}
	return wholeDaysBetween(latest, now)
}

// RecordDaysWithoutIncidents is the historical maximum gap: the largest
// whole-day distance between consecutive qualifying incidents, or between the
// last incident and now, whichever is greater.
func RecordDaysWithoutIncidents(records []Record, now time.Time) int {
	incidents := qualifyingIncidents(records)
	if len(incidents) == 0 {
		return StreakFallbackDays
	}
	sort.SliceStable(incidents, func(i, j int) bool {
		return incidents[i].Date < incidents[j].Date
	})
	max := 0
	for i := 0; i < len(incidents)-1; i++ {
		gap := wholeDaysBetween(incidents[i].Day(), incidents[i+1].Day())
		if gap > max {
			max = gap
		}
	}
	if current := wholeDaysBetween(incidents[len(incidents)-1].Day(), now); current > max {
		max = current
	}
	return max
}

// PlazaStreak pairs a plaza with its own days-without-incidents streak.
type PlazaStreak struct {
	Plaza string `json:"plaza"`
	Days  int    `json:"days"`
}

// SafestPlazas ranks the candidate plazas by their independent current
// streak, descending, and keeps the top n. Ties preserve the candidate
// order (AllPlazas is lexicographic), so the ranking is deterministic.
func SafestPlazas(records []Record, candidates []string, now time.Time, n int) []PlazaStreak {
	ranked := make([]PlazaStreak, 0, len(candidates))
	for _, plaza := range candidates {
		own := make([]Record, 0)
		for _, r := range records {
			if r.PlazaName == plaza {
				own = append(own, r)
			}
		}
		ranked = append(ranked, PlazaStreak{Plaza: plaza, Days: DaysWithoutIncidents(own, now)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Days > ranked[j].Days })
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// RecentIncidents returns the scoped safety records sorted descending by
// date plus time of day, truncated to n. Records without a time sort as
// midnight.
func RecentIncidents(records []Record, n int) []Record {
	safety := make([]Record, 0, len(records))
	for _, r := range records {
		if r.IsSafety() {
			safety = append(safety, r)
		}
	}
	key := func(r Record) string {
		t := r.IncidentTime
		if t == "" {
			t = "00:00"
		}
		return r.Date + "T" + t
	}
	sort.SliceStable(safety, func(i, j int) bool { return key(safety[i]) > key(safety[j]) })
	if n > 0 && len(safety) > n {
		safety = safety[:n]
	}
	return safety
}

// DailyIncidentMatrix counts incidents per classification for every day of
// the given month, zero-filled for days without records.
type IncidentDay struct {
	Day    int            `json:"day"`
	Counts map[string]int `json:"counts"`
}

func DailyIncidentMatrix(records []Record, year int, month time.Month) []IncidentDay {
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	out := make([]IncidentDay, daysInMonth)
	for i := range out {
		out[i] = IncidentDay{Day: i + 1, Counts: make(map[string]int)}
	}
	for _, r := range records {
		if !r.IsSafety() || !ValidIncidentType(r.IncidentType) {
			continue
		}
		d := r.Day()
		if d.Year() != year || d.Month() != month {
			continue
		}
		out[d.Day()-1].Counts[r.IncidentType]++
	}
	return out
}

// CalendarDay carries the dominant day- and night-shift classification for
// one calendar day. "OK" marks an incident-free shift.
type CalendarDay struct {
	Day       int    `json:"day"`
	Date      string `json:"date"`
	IsFuture  bool   `json:"isFuture"`
	IsToday   bool   `json:"isToday"`
	DayType   string `json:"dayType"`
	NightType string `json:"nightType"`
	Records   int    `json:"records"`
}

// isDayShift classifies an HH:MM time; records without a parseable hour
// count as day. Handles both "09:00" and "9:00".
func isDayShift(hhmm string) bool {
	hh, _, found := strings.Cut(hhmm, ":")
	if !found {
		return true
	}
	h, err := strconv.Atoi(strings.TrimSpace(hh))
	if err != nil {
		return true
	}
	return h >= 6 && h <= 18
}

// SafetyCalendar builds the month's incident calendar from scoped safety
// records. Each shift shows its highest-priority classification.
func SafetyCalendar(records []Record, year int, month time.Month, now time.Time) []CalendarDay {
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	type shift struct {
		kind string
		prio int
	}
	days := make([]CalendarDay, daysInMonth)
	dayShift := make([]shift, daysInMonth)
	nightShift := make([]shift, daysInMonth)

	for _, r := range records {
		if !r.IsSafety() {
			continue
		}
		d := r.Day()
		if d.Year() != year || d.Month() != month {
			continue
		}
		i := d.Day() - 1
		days[i].Records++
		prio := IncidentPriority[r.IncidentType]
		if r.IncidentTime == "" || isDayShift(r.IncidentTime) {
			if prio > dayShift[i].prio || dayShift[i].kind == "" {
				dayShift[i] = shift{kind: r.IncidentType, prio: prio}
			}
		} else {
			if prio > nightShift[i].prio || nightShift[i].kind == "" {
				nightShift[i] = shift{kind: r.IncidentType, prio: prio}
			}
		}
	}

	for i := range days {
		date := time.Date(year, month, i+1, 0, 0, 0, 0, time.UTC)
		days[i].Day = i + 1
		days[i].Date = date.Format(DateLayout)
		days[i].IsFuture = date.After(today)
		days[i].IsToday = date.Equal(today)
		days[i].DayType = orOK(dayShift[i].kind)
		days[i].NightType = orOK(nightShift[i].kind)
	}
	return days
}

func orOK(kind string) string {
	if kind == "" {
		return "OK"
	}
	return kind
}

// SafetyStats is the full safety view over a filtered scope.
type SafetyStats struct {
	MonthlyOccurrences int           `json:"monthlyOccurrences"`
	DaysWithout        int           `json:"daysWithoutAccidents"`
	RecordDays         int           `json:"recordDaysWithoutAccidents"`
	SafestPlazas       []PlazaStreak `json:"safestPlazas"`
	Recent             []Record      `json:"recentIncidents"`
	DailyMatrix        []IncidentDay `json:"dailyMatrix"`
	Calendar           []CalendarDay `json:"calendar"`
}

// Safety computes the safety dashboard. Streaks and rankings deliberately
// ignore the month/year dimension (they look at the whole scoped history);
// occurrence counts, the matrix and the calendar are month-scoped.
func Safety(records []Record, f Filter, now time.Time) SafetyStats {
	historyScope := Filter{Segment: f.Segment, Plazas: f.Plazas}
	scopedHistory := historyScope.Apply(ByCategory(records, CategorySafety))
	scopedMonth := f.Apply(ByCategory(records, CategorySafety))

	stats := SafetyStats{
		MonthlyOccurrences: len(scopedMonth),
		DaysWithout:        DaysWithoutIncidents(scopedHistory, now),
		RecordDays:         RecordDaysWithoutIncidents(scopedHistory, now),
		SafestPlazas:       SafestPlazas(scopedHistory, f.CandidatePlazas(), now, 3),
		Recent:             RecentIncidents(scopedMonth, 5),
	}
	if year, month, ok := f.MonthSpan(); ok {
		stats.DailyMatrix = DailyIncidentMatrix(scopedMonth, year, month)
		stats.Calendar = SafetyCalendar(scopedMonth, year, month, now)
	}
	return stats
}
