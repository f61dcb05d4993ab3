package core

import (
	"errors"
	"strings"
	"time"
)

const (
	CategoryOperational Category = "operational"
	CategorySafety      Category = "safety"
	CategoryESG         Category = "esg"
	CategoryHR          Category = "rh"
)

const (
	SegmentNorte Segment = "Norte"
	SegmentSul   Segment = "Sul"
	// SegmentConsolidado is only a filter value, never stored on a record.
	SegmentConsolidado Segment = "Consolidado"
)

const (
	HRAbsence     HRType = "falta"
	HRCertificate HRType = "atestado"
	HRLeave       HRType = "afastamento"
	HRVacation    HRType = "ferias"
)

// Incident classifications used on safety records.
const (
	IncidentASAF    = "ASAF"    // unsafe act, no lost time
	IncidentACAF    = "ACAF"    // unsafe act with lost time
	IncidentSAM     = "SAM"     // medical attention
	IncidentACDM    = "ACDM"    // material damage
	IncidentQAC     = "QAC"     // near miss
	IncidentTrajeto = "TRAJETO" // commute incident
)

// UnknownPlaza is the sentinel for records whose plaza could not be resolved.
const UnknownPlaza = "Desconhecido"

// UnitTollPrice is the fixed toll fare used to derive revenue from
// transaction counts.
const UnitTollPrice = 12.50

// DateLayout is the calendar-day format every record carries.
const DateLayout = "2006-01-02"

type (
	Category string
	Segment  string
	HRType   string

	// Record is the canonical shape every piece of the system works with.
	// Raw inputs (either naming convention, missing fields) must go through
	// Normalize before becoming one of these.
	Record struct {
		ID           string   `json:"id"`
		CreatedAt    string   `json:"created_at,omitempty"`
		Date         string   `json:"date"`
		PlazaName    string   `json:"plazaName"`
		Segment      Segment  `json:"segment,omitempty"`
		Category     Category `json:"category"`
		Lane         string   `json:"lane,omitempty"`
		Observations string   `json:"observations,omitempty"`

		// Operational
		LightVehicles        int     `json:"lightVehicles"`
		HeavyVehicles        int     `json:"heavyVehicles"`
		TxCash               int     `json:"txCash"`
		TxPix                int     `json:"txPix"`
		TxCard               int     `json:"txCard"`
		TxTag                int     `json:"txTag"`
		RevenueCash          float64 `json:"revenueCash"`
		RevenueElectronic    float64 `json:"revenueElectronic"`
		AbnormalTransactions int     `json:"abnormalTransactions"`

		// Safety
		Incidents    int    `json:"incidents"`
		IncidentType string `json:"incidentType,omitempty"`
		IncidentTime string `json:"incidentTime,omitempty"`

		// Environmental
		WaterReading  float64 `json:"waterReading"`
		EnergyReading float64 `json:"energyReading"`
		WasteReading  float64 `json:"wasteReading"`

		// HR
		HRType     HRType `json:"hrType,omitempty"`
		HRDuration int    `json:"hrDuration,omitempty"`
		HRGender   string `json:"hrGender,omitempty"`
	}
)

var (
	ErrEmptyDate         = errors.New("empty date")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEmptyPlaza        = errors.New("empty plaza")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrNegativeQuantity  = errors.New("negative quantity")
	ErrInvalidHRType     = errors.New("invalid hr event type")
	ErrInvalidIncident   = errors.New("invalid incident classification")
	ErrEmptyObservations = errors.New("empty description")
)

// PlazaSegments maps every known plaza to its geographic segment.
var PlazaSegments = map[string]Segment{
	"PP1": SegmentNorte,
	"PP2": SegmentNorte,
	"PP3": SegmentNorte,
	"PP4": SegmentNorte,
	"PP5": SegmentSul,
	"PP6": SegmentSul,
	"PP7": SegmentSul,
}

// AllPlazas lists the known plazas in their canonical order.
var AllPlazas = []string{"PP1", "PP2", "PP3", "PP4", "PP5", "PP6", "PP7"}

// Lanes lists the valid lane identifiers for operational entry.
var Lanes = []string{"N/A", "L01", "L02", "L03", "L04", "L05", "Automática 01", "Automática 02"}

// PlazasBySegment returns the plazas belonging to a segment.
// SegmentConsolidado (or anything unknown) returns every plaza.
func PlazasBySegment(s Segment) []string {
	switch s {
	case SegmentNorte, SegmentSul:
		out := make([]string, 0, 4)
		for _, p := range AllPlazas {
			if PlazaSegments[p] == s {
				out = append(out, p)
			}
		}
		return out
	default:
		return append([]string(nil), AllPlazas...)
	}
}

// SegmentOf resolves the segment for a plaza; empty for unknown plazas.
func SegmentOf(plaza string) Segment {
	return PlazaSegments[plaza]
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryOperational, CategorySafety, CategoryESG, CategoryHR:
		return true
	}
	return false
}

func (t HRType) IsValid() bool {
	switch t {
	case HRAbsence, HRCertificate, HRLeave, HRVacation:
		return true
	}
	return false
}

// ValidIncidentType reports whether s is one of the fixed classifications.
func ValidIncidentType(s string) bool {
	switch s {
	case IncidentASAF, IncidentACAF, IncidentSAM, IncidentACDM, IncidentQAC, IncidentTrajeto:
		return true
	}
	return false
}

func (r Record) IsSafety() bool        { return r.Category == CategorySafety }
func (r Record) IsEnvironmental() bool { return r.Category == CategoryESG }
func (r Record) IsHR() bool            { return r.Category == CategoryHR }
func (r Record) IsOperational() bool   { return r.Category == CategoryOperational }

// Day returns the record's date as a UTC midnight instant.
// The zero time is returned for unparseable dates.
func (r Record) Day() time.Time {
	t, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// TotalVehicles is the record's light + heavy vehicle count.
func (r Record) TotalVehicles() int {
	return r.LightVehicles + r.HeavyVehicles
}

// TotalRevenue is the record's cash + electronic revenue.
func (r Record) TotalRevenue() float64 {
	return r.RevenueCash + r.RevenueElectronic
}

// Validate checks a record at construction time. Normalized records loaded
// from storage are not re-validated; this guards the entry surface.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Date) == "" {
		return ErrEmptyDate
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return ErrInvalidDate
	}
	if strings.TrimSpace(r.PlazaName) == "" {
		return ErrEmptyPlaza
	}
	if !r.Category.IsValid() {
		return ErrInvalidCategory
	}
	for _, n := range []int{
		r.LightVehicles, r.HeavyVehicles, r.TxCash, r.TxPix, r.TxCard, r.TxTag,
		r.AbnormalTransactions, r.Incidents, r.HRDuration,
	} {
		if n < 0 {
			return ErrNegativeQuantity
		}
	}
	if r.WaterReading < 0 || r.EnergyReading < 0 || r.WasteReading < 0 {
		return ErrNegativeQuantity
	}
	switch r.Category {
	case CategorySafety:
		if r.IncidentType != "" && !ValidIncidentType(r.IncidentType) {
			return ErrInvalidIncident
		}
		if strings.TrimSpace(r.Observations) == "" {
			return ErrEmptyObservations
		}
	case CategoryHR:
		if !r.HRType.IsValid() {
			return ErrInvalidHRType
		}
	}
	return nil
}

// DeriveRevenue fills the revenue fields from the transaction counts and the
// given unit fare. Revenue is always derived, never entered directly.
func (r *Record) DeriveRevenue(fare float64) {
	r.RevenueCash = float64(r.TxCash) * fare
	r.RevenueElectronic = float64(r.TxPix+r.TxCard+r.TxTag) * fare
}
