package core

import (
	"encoding/json"
	"testing"
)

func numPtr(v float64) *FlexNumber { return &FlexNumber{Value: v, Set: true} }
func strPtr(s string) *string      { return &s }
func boolPtr(b bool) *bool         { return &b }

func TestNormalizePrefersCamelCase(t *testing.T) {
	r := Normalize(RawRecord{
		LightVehicles:      numPtr(5),
		LightVehiclesSnake: numPtr(3),
		HeavyVehicles:      numPtr(2),
		HeavyVehiclesSnake: numPtr(9),
		RevenueCash:        numPtr(100),
		RevenueCashSnake:   numPtr(50),
		PlazaName:          strPtr("PP1"),
		PlazaSnake:         strPtr("PP7"),
	})
	if r.LightVehicles != 5 {
		t.Errorf("LightVehicles = %d, want 5", r.LightVehicles)
	}
	if r.HeavyVehicles != 2 {
		t.Errorf("HeavyVehicles = %d, want 2", r.HeavyVehicles)
	}
	if r.RevenueCash != 100 {
		t.Errorf("RevenueCash = %v, want 100", r.RevenueCash)
	}
	if r.PlazaName != "PP1" {
		t.Errorf("PlazaName = %q, want PP1", r.PlazaName)
	}
	if r.Segment != SegmentNorte {
		t.Errorf("Segment = %q, want Norte", r.Segment)
	}
}

func TestNormalizeSnakeFallback(t *testing.T) {
	r := Normalize(RawRecord{
		LightVehiclesSnake: numPtr(7),
		RevenueElecSnake:   numPtr(87.5),
		PlazaSnake:         strPtr("PP5"),
	})
	if r.LightVehicles != 7 {
		t.Errorf("LightVehicles = %d, want 7", r.LightVehicles)
	}
	if r.RevenueElectronic != 87.5 {
		t.Errorf("RevenueElectronic = %v, want 87.5", r.RevenueElectronic)
	}
	if r.PlazaName != "PP5" || r.Segment != SegmentSul {
		t.Errorf("plaza/segment = %q/%q, want PP5/Sul", r.PlazaName, r.Segment)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	r := Normalize(RawRecord{})
	if r.LightVehicles != 0 || r.HeavyVehicles != 0 || r.RevenueCash != 0 || r.RevenueElectronic != 0 {
		t.Errorf("numeric defaults not zero: %+v", r)
	}
	if r.PlazaName != UnknownPlaza {
		t.Errorf("PlazaName = %q, want %q", r.PlazaName, UnknownPlaza)
	}
	if r.Category != CategoryOperational {
		t.Errorf("Category = %q, want operational", r.Category)
	}
	if r.Segment != "" {
		t.Errorf("Segment = %q, want empty for unknown plaza", r.Segment)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raws := []RawRecord{
		{},
		{
			Date:               "2025-03-01",
			PlazaSnake:         strPtr("PP3"),
			LightVehiclesSnake: numPtr(100),
			IsSafetyRecord:     boolPtr(true),
			Incidents:          numPtr(1),
			Lane:               IncidentQAC,
		},
		{
			Date:          "2025-04-10",
			PlazaName:     strPtr("PP6"),
			Category:      "esg",
			WaterReading:  numPtr(12.3),
			EnergyReading: numPtr(0),
		},
	}
	for i, raw := range raws {
		once := Normalize(raw)
		twice := Normalize(once.AsRaw())
		if once != twice {
			t.Errorf("case %d not idempotent:\n once  %+v\n twice %+v", i, once, twice)
		}
	}
}

func TestNormalizeCategoryDiscriminators(t *testing.T) {
	tests := []struct {
		name string
		raw  RawRecord
		want Category
	}{
		{"explicit wins", RawRecord{Category: "rh", IsSafetyRecord: boolPtr(true)}, CategoryHR},
		{"safety flag", RawRecord{IsSafetyRecord: boolPtr(true)}, CategorySafety},
		{"esg flag", RawRecord{IsEnvironmentalRecord: boolPtr(true)}, CategoryESG},
		{"hr flag", RawRecord{IsHrRecord: boolPtr(true)}, CategoryHR},
		{"false flags are operational", RawRecord{IsSafetyRecord: boolPtr(false)}, CategoryOperational},
		{"no flags are operational", RawRecord{}, CategoryOperational},
		{"bogus explicit falls back to flags", RawRecord{Category: "banana", IsHrRecord: boolPtr(true)}, CategoryHR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw).Category; got != tt.want {
				t.Errorf("Category = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeLiftsIncidentTypeFromLane(t *testing.T) {
	r := Normalize(RawRecord{
		IsSafetyRecord: boolPtr(true),
		Lane:           IncidentACAF,
		Incidents:      numPtr(1),
	})
	if r.IncidentType != IncidentACAF {
		t.Errorf("IncidentType = %q, want ACAF", r.IncidentType)
	}

	// Explicit incidentType is not overwritten by the lane.
	r = Normalize(RawRecord{
		IsSafetyRecord: boolPtr(true),
		IncidentType:   IncidentSAM,
		Lane:           IncidentACAF,
	})
	if r.IncidentType != IncidentSAM {
		t.Errorf("IncidentType = %q, want SAM", r.IncidentType)
	}

	// Operational lanes stay lanes.
	r = Normalize(RawRecord{Lane: "L02"})
	if r.IncidentType != "" {
		t.Errorf("IncidentType = %q, want empty", r.IncidentType)
	}
}

func TestFlexNumberCoercion(t *testing.T) {
	tests := []struct {
		name  string
		input string
		value float64
		set   bool
	}{
		{"number", `12.5`, 12.5, true},
		{"integer", `3`, 3, true},
		{"numeric string", `"42"`, 42, true},
		{"garbage string", `"abc"`, 0, true},
		{"null", `null`, 0, false},
		{"bool", `true`, 0, true},
		{"object", `{"x":1}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n FlexNumber
			if err := json.Unmarshal([]byte(tt.input), &n); err != nil {
				t.Fatalf("unmarshal should never fail, got %v", err)
			}
			if n.Value != tt.value || n.Set != tt.set {
				t.Errorf("got {%v %v}, want {%v %v}", n.Value, n.Set, tt.value, tt.set)
			}
		})
	}
}

func TestDecodeRawRecordsBothConventions(t *testing.T) {
	blob := `[
		{"date":"2025-01-01","plaza_name":"PP2","light_vehicles":10,"heavy_vehicles":"5"},
		{"date":"2025-01-02","plazaName":"PP6","lightVehicles":20,"isSafetyRecord":true,"incidents":1,"lane":"ASAF"}
	]`
	raws, err := DecodeRawRecords([]byte(blob))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	records := NormalizeAll(raws)
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}
	if records[0].LightVehicles != 10 || records[0].HeavyVehicles != 5 {
		t.Errorf("record 0 vehicles = %d/%d, want 10/5", records[0].LightVehicles, records[0].HeavyVehicles)
	}
	if records[1].Category != CategorySafety || records[1].IncidentType != IncidentASAF {
		t.Errorf("record 1 = %q/%q, want safety/ASAF", records[1].Category, records[1].IncidentType)
	}
}
