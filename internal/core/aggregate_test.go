package core

import (
	"testing"
	"time"
)

func opRecord(date, plaza string, light, heavy int) Record {
	r := Record{
		Date:          date,
		PlazaName:     plaza,
		Segment:       SegmentOf(plaza),
		Category:      CategoryOperational,
		LightVehicles: light,
		HeavyVehicles: heavy,
	}
	return r
}

func TestTotals(t *testing.T) {
	records := []Record{
		{Category: CategoryOperational, LightVehicles: 10, HeavyVehicles: 5, RevenueCash: 100, RevenueElectronic: 50, AbnormalTransactions: 3},
		{Category: CategoryOperational, LightVehicles: 20, HeavyVehicles: 0, RevenueCash: 25, RevenueElectronic: 75, AbnormalTransactions: 1},
	}
	if got := TotalVehicles(records); got != 35 {
		t.Errorf("TotalVehicles = %d, want 35", got)
	}
	if got := TotalRevenue(records); got != 250 {
		t.Errorf("TotalRevenue = %v, want 250", got)
	}
	if got := TotalAbnormal(records); got != 4 {
		t.Errorf("TotalAbnormal = %d, want 4", got)
	}
}

func TestSumPayments(t *testing.T) {
	records := []Record{
		{TxTag: 10, TxCard: 5, TxCash: 3, TxPix: 2},
		{TxTag: 1, TxCard: 1, TxCash: 1, TxPix: 1},
	}
	got := SumPayments(records)
	want := PaymentTotals{Tag: 11, Card: 6, Cash: 4, Pix: 3}
	if got != want {
		t.Errorf("SumPayments = %+v, want %+v", got, want)
	}
}

// The trend buckets by calendar day and, with ZeroFill, synthesizes
// zero-valued points for missing days so sparse data does not render as a
// misleadingly continuous line. Zero-filling is this implementation's
// deliberate choice; the gap-preserving variant remains available by leaving
// ZeroFill unset.
func TestDailyTrendZeroFill(t *testing.T) {
	records := []Record{
		opRecord("2025-01-01", "PP1", 10, 0),
		opRecord("2025-01-01", "PP2", 5, 0),
		opRecord("2025-01-04", "PP1", 7, 0),
	}
	vehicles := func(r Record) float64 { return float64(r.TotalVehicles()) }

	gaps := DailyTrend(records, vehicles, TrendOptions{})
	if len(gaps) != 2 {
		t.Fatalf("gap-preserving len = %d, want 2", len(gaps))
	}
	if gaps[0] != (TrendPoint{"2025-01-01", 15}) || gaps[1] != (TrendPoint{"2025-01-04", 7}) {
		t.Errorf("gap-preserving = %+v", gaps)
	}

	filled := DailyTrend(records, vehicles, TrendOptions{ZeroFill: true})
	if len(filled) != 4 {
		t.Fatalf("zero-filled len = %d, want 4", len(filled))
	}
	if filled[1] != (TrendPoint{"2025-01-02", 0}) || filled[2] != (TrendPoint{"2025-01-03", 0}) {
		t.Errorf("zero-filled middle = %+v %+v", filled[1], filled[2])
	}
}

func TestDailyTrendLastN(t *testing.T) {
	records := []Record{
		opRecord("2025-01-01", "PP1", 1, 0),
		opRecord("2025-01-02", "PP1", 2, 0),
		opRecord("2025-01-03", "PP1", 3, 0),
	}
	got := DailyTrend(records, func(r Record) float64 { return float64(r.TotalVehicles()) }, TrendOptions{LastN: 2})
	if len(got) != 2 || got[0].Date != "2025-01-02" || got[1].Date != "2025-01-03" {
		t.Errorf("LastN = %+v, want last two days", got)
	}
}

func TestSumESGAndDailySeries(t *testing.T) {
	records := []Record{
		{Date: "2025-05-01", Category: CategoryESG, WaterReading: 10},
		{Date: "2025-05-01", Category: CategoryESG, EnergyReading: 20},
		{Date: "2025-05-03", Category: CategoryESG, WasteReading: 5},
		{Date: "2025-05-03", Category: CategoryOperational, WaterReading: 99}, // wrong kind, ignored
	}
	totals := SumESG(records)
	if totals != (ESGTotals{WaterM3: 10, EnergyKWH: 20, WasteKG: 5}) {
		t.Errorf("SumESG = %+v", totals)
	}
	daily := ESGDailySeries(records)
	if len(daily) != 2 {
		t.Fatalf("daily len = %d, want 2", len(daily))
	}
	if daily[0] != (ESGDay{Day: "01", Water: 10, Energy: 20}) {
		t.Errorf("day 01 = %+v", daily[0])
	}
	if daily[1] != (ESGDay{Day: "03", Waste: 5}) {
		t.Errorf("day 03 = %+v", daily[1])
	}
}

func TestCountHR(t *testing.T) {
	records := []Record{
		{Category: CategoryHR, HRType: HRAbsence},
		{Category: CategoryHR, HRType: HRAbsence},
		{Category: CategoryHR, HRType: HRCertificate},
		{Category: CategoryHR, HRType: HRVacation},
		{Category: CategoryHR, HRType: HRLeave},
		{Category: CategoryOperational, HRType: HRAbsence}, // wrong kind
	}
	got := CountHR(records)
	want := HRCounts{Absences: 2, Certificates: 1, Leaves: 1, Vacations: 1}
	if got != want {
		t.Errorf("CountHR = %+v, want %+v", got, want)
	}
}

func TestOverview(t *testing.T) {
	now := atDate("2025-01-20")
	records := []Record{
		opRecord("2025-01-10", "PP1", 100, 50),
		{Date: "2025-01-15", PlazaName: "PP2", Category: CategorySafety, Incidents: 1, IncidentType: IncidentSAM},
		{Date: "2025-01-12", PlazaName: "PP5", Category: CategoryESG, WaterReading: 30},
		{Date: "2025-01-13", PlazaName: "PP6", Category: CategoryHR, HRType: HRAbsence},
	}
	records[0].RevenueCash = 500

	got := Overview(records, now)
	if got.TotalVehicles != 150 {
		t.Errorf("TotalVehicles = %d, want 150", got.TotalVehicles)
	}
	if got.TotalRevenue != 500 {
		t.Errorf("TotalRevenue = %v, want 500", got.TotalRevenue)
	}
	if got.SafetyIncidents != 1 {
		t.Errorf("SafetyIncidents = %d, want 1", got.SafetyIncidents)
	}
	if got.DaysWithout != 5 {
		t.Errorf("DaysWithout = %d, want 5", got.DaysWithout)
	}
	if got.TotalWaterM3 != 30 {
		t.Errorf("TotalWaterM3 = %v, want 30", got.TotalWaterM3)
	}
	if got.HRAbsences != 1 {
		t.Errorf("HRAbsences = %d, want 1", got.HRAbsences)
	}
	// Trend covers operational records only.
	if len(got.TrafficTrend) != 1 || got.TrafficTrend[0].Value != 150 {
		t.Errorf("TrafficTrend = %+v", got.TrafficTrend)
	}
}

func TestOperationalViewAppliesFilter(t *testing.T) {
	records := []Record{
		opRecord("2025-02-01", "PP1", 10, 0),
		opRecord("2025-02-01", "PP5", 20, 0),
		opRecord("2025-03-01", "PP1", 40, 0),
	}
	got := Operational(records, Filter{Year: "2025", Month: "02", Segment: SegmentNorte})
	if got.TotalVehicles != 10 {
		t.Errorf("TotalVehicles = %d, want 10", got.TotalVehicles)
	}
}

func TestDeriveRevenue(t *testing.T) {
	r := Record{TxCash: 4, TxPix: 1, TxCard: 2, TxTag: 3}
	r.DeriveRevenue(UnitTollPrice)
	if r.RevenueCash != 50 {
		t.Errorf("RevenueCash = %v, want 50", r.RevenueCash)
	}
	if r.RevenueElectronic != 75 {
		t.Errorf("RevenueElectronic = %v, want 75", r.RevenueElectronic)
	}
}

func TestPurity(t *testing.T) {
	now := time.Date(2025, 12, 20, 10, 30, 0, 0, time.UTC)
	records := []Record{
		incident("2025-12-02", "PP1"),
		opRecord("2025-12-03", "PP2", 10, 5),
	}
	f := Filter{Year: "2025", Month: "12"}
	first := Safety(records, f, now)
	second := Safety(records, f, now)
	if first.DaysWithout != second.DaysWithout || first.RecordDays != second.RecordDays ||
		first.MonthlyOccurrences != second.MonthlyOccurrences {
		t.Error("identical inputs must produce identical outputs")
	}
}
