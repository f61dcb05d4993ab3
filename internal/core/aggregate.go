package core

import (
	"sort"
	"time"
)

// TrendPoint is one bucket of a time-bucketed series.
type TrendPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// TrendOptions controls time bucketing.
type TrendOptions struct {
	// LastN truncates to the most recent N buckets; zero keeps all.
	LastN int
	// ZeroFill synthesizes zero-valued buckets for calendar days missing
	// between the first and last date present, so sparse data does not
	// produce misleading gaps.
	ZeroFill bool
}

// DailyTrend groups records by date, sums value per date and returns the
// buckets sorted ascending by date.
func DailyTrend(records []Record, value func(Record) float64, opts TrendOptions) []TrendPoint {
	sums := make(map[string]float64)
	for _, r := range records {
		sums[r.Date] += value(r)
	}
	dates := make([]string, 0, len(sums))
	for d := range sums {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	if opts.ZeroFill && len(dates) > 1 {
		first, errFirst := time.Parse(DateLayout, dates[0])
		last, errLast := time.Parse(DateLayout, dates[len(dates)-1])
		if errFirst == nil && errLast == nil {
			filled := make([]string, 0, len(dates))
			for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
				filled = append(filled, d.Format(DateLayout))
			}
			dates = filled
		}
	}

	points := make([]TrendPoint, 0, len(dates))
	for _, d := range dates {
		points = append(points, TrendPoint{Date: d, Value: sums[d]})
	}
	if opts.LastN > 0 && len(points) > opts.LastN {
		points = points[len(points)-opts.LastN:]
	}
	return points
}

// TotalVehicles sums light + heavy vehicle counts.
func TotalVehicles(records []Record) int {
	total := 0
	for _, r := range records {
		total += r.TotalVehicles()
	}
	return total
}

// TotalRevenue sums cash + electronic revenue.
func TotalRevenue(records []Record) float64 {
	total := 0.0
	for _, r := range records {
		total += r.TotalRevenue()
	}
	return total
}

// TotalAbnormal sums abnormal transaction counts.
func TotalAbnormal(records []Record) int {
	total := 0
	for _, r := range records {
		total += r.AbnormalTransactions
	}
	return total
}

// PaymentTotals is the per-payment-method transaction split.
type PaymentTotals struct {
	Tag  int `json:"tag"`
	Card int `json:"card"`
	Cash int `json:"cash"`
	Pix  int `json:"pix"`
}

func SumPayments(records []Record) PaymentTotals {
	var t PaymentTotals
	for _, r := range records {
		t.Tag += r.TxTag
		t.Card += r.TxCard
		t.Cash += r.TxCash
		t.Pix += r.TxPix
	}
	return t
}

// ESGTotals sums the three environmental readings.
type ESGTotals struct {
	WaterM3   float64 `json:"waterM3"`
	EnergyKWH float64 `json:"energyKwh"`
	WasteKG   float64 `json:"wasteKg"`
}

func SumESG(records []Record) ESGTotals {
	var t ESGTotals
	for _, r := range records {
		if !r.IsEnvironmental() {
			continue
		}
		t.WaterM3 += r.WaterReading
		t.EnergyKWH += r.EnergyReading
		t.WasteKG += r.WasteReading
	}
	return t
}

// ESGDaily buckets the three readings by day of month for the chart view.
type ESGDay struct {
	Day    string  `json:"day"`
	Water  float64 `json:"water"`
	Energy float64 `json:"energy"`
	Waste  float64 `json:"waste"`
}

func ESGDailySeries(records []Record) []ESGDay {
	byDay := make(map[string]*ESGDay)
	for _, r := range records {
		if !r.IsEnvironmental() {
			continue
		}
		day := r.Date
		if len(r.Date) >= 10 {
			day = r.Date[8:10]
		}
		d, ok := byDay[day]
		if !ok {
			d = &ESGDay{Day: day}
			byDay[day] = d
		}
		d.Water += r.WaterReading
		d.Energy += r.EnergyReading
		d.Waste += r.WasteReading
	}
	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]ESGDay, 0, len(days))
	for _, d := range days {
		out = append(out, *byDay[d])
	}
	return out
}

// HRCounts counts HR events by type over HR records.
type HRCounts struct {
	Absences     int `json:"absences"`
	Certificates int `json:"certificates"`
	Leaves       int `json:"leaves"`
	Vacations    int `json:"vacations"`
}

func CountHR(records []Record) HRCounts {
	var c HRCounts
	for _, r := range records {
		if !r.IsHR() {
			continue
		}
		switch r.HRType {
		case HRAbsence:
			c.Absences++
		case HRCertificate:
			c.Certificates++
		case HRLeave:
			c.Leaves++
		case HRVacation:
			c.Vacations++
		}
	}
	return c
}

// CountByIncidentType counts safety records per classification.
func CountByIncidentType(records []Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		if r.IsSafety() && r.IncidentType != "" {
			counts[r.IncidentType]++
		}
	}
	return counts
}

// OverviewStats is the executive summary across the whole collection.
type OverviewStats struct {
	TotalVehicles   int          `json:"totalVehicles"`
	TotalRevenue    float64      `json:"totalRevenue"`
	SafetyIncidents int          `json:"safetyIncidents"`
	DaysWithout     int          `json:"daysWithoutAccidents"`
	TotalWaterM3    float64      `json:"totalWaterM3"`
	HRAbsences      int          `json:"hrAbsences"`
	TrafficTrend    []TrendPoint `json:"trafficTrend"`
}

// Overview computes the executive summary. The traffic trend covers the last
// 14 days of operational records, zero-filling missing days.
func Overview(records []Record, now time.Time) OverviewStats {
	safety := ByCategory(records, CategorySafety)
	incidents := 0
	for _, r := range safety {
		if r.Incidents > 0 {
			incidents++
		}
	}
	return OverviewStats{
		TotalVehicles:   TotalVehicles(records),
		TotalRevenue:    TotalRevenue(records),
		SafetyIncidents: incidents,
		DaysWithout:     DaysWithoutIncidents(safety, now),
		TotalWaterM3:    SumESG(records).WaterM3,
		HRAbsences:      CountHR(records).Absences,
		TrafficTrend: DailyTrend(ByCategory(records, CategoryOperational),
			func(r Record) float64 { return float64(r.TotalVehicles()) },
			TrendOptions{LastN: 14, ZeroFill: true}),
	}
}

// OperationalStats is the operational KPI view over a filtered scope.
type OperationalStats struct {
	TotalVehicles int           `json:"totalVehicles"`
	TotalRevenue  float64       `json:"totalRevenue"`
	TotalAbnormal int           `json:"totalAbnormal"`
	Payments      PaymentTotals `json:"payments"`
	DailyTrend    []TrendPoint  `json:"dailyTrend"`
}

func Operational(records []Record, f Filter) OperationalStats {
	scoped := f.Apply(records)
	return OperationalStats{
		TotalVehicles: TotalVehicles(scoped),
		TotalRevenue:  TotalRevenue(scoped),
		TotalAbnormal: TotalAbnormal(scoped),
		Payments:      SumPayments(scoped),
		DailyTrend: DailyTrend(scoped,
			func(r Record) float64 { return float64(r.TotalVehicles()) },
			TrendOptions{ZeroFill: true}),
	}
}

// ESGStats is the environmental view over a filtered scope.
type ESGStats struct {
	Totals ESGTotals `json:"totals"`
	Daily  []ESGDay  `json:"daily"`
}

func ESG(records []Record, f Filter) ESGStats {
	scoped := f.Apply(ByCategory(records, CategoryESG))
	return ESGStats{Totals: SumESG(scoped), Daily: ESGDailySeries(scoped)}
}

// HRStats is the HR view over a filtered scope.
type HRStats struct {
	Counts HRCounts `json:"counts"`
}

func HR(records []Record, f Filter) HRStats {
	scoped := f.Apply(ByCategory(records, CategoryHR))
	return HRStats{Counts: CountHR(scoped)}
}
