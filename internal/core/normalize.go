package core

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexNumber tolerates the loosely-typed numerics found in persisted blobs:
// JSON numbers, numeric strings, null, booleans, or garbage. Anything that is
// not a number decodes to zero, mirroring JS Number() coercion at the
// original input boundary. Unmarshal never fails.
type FlexNumber struct {
	Value float64
	Set   bool
}

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = FlexNumber{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = FlexNumber{Value: f, Set: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = FlexNumber{Value: f, Set: true}
			return nil
		}
	}
	// Present but not numeric: coerce to zero.
	*n = FlexNumber{Set: true}
	return nil
}

func (n FlexNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Value)
}

// RawRecord is the loosely-shaped wire form of a record. It carries both
// naming conventions side by side; Normalize reconciles them exactly once.
type RawRecord struct {
	ID           string  `json:"id,omitempty"`
	CreatedAt    string  `json:"created_at,omitempty"`
	Date         string  `json:"date,omitempty"`
	Category     string  `json:"category,omitempty"`
	Segment      string  `json:"segment,omitempty"`
	Lane         string  `json:"lane,omitempty"`
	Observations string  `json:"observations,omitempty"`
	PlazaName    *string `json:"plazaName,omitempty"`
	PlazaSnake   *string `json:"plaza_name,omitempty"`

	LightVehicles      *FlexNumber `json:"lightVehicles,omitempty"`
	LightVehiclesSnake *FlexNumber `json:"light_vehicles,omitempty"`
	HeavyVehicles      *FlexNumber `json:"heavyVehicles,omitempty"`
	HeavyVehiclesSnake *FlexNumber `json:"heavy_vehicles,omitempty"`
	RevenueCash        *FlexNumber `json:"revenueCash,omitempty"`
	RevenueCashSnake   *FlexNumber `json:"revenue_cash,omitempty"`
	RevenueElec        *FlexNumber `json:"revenueElectronic,omitempty"`
	RevenueElecSnake   *FlexNumber `json:"revenue_electronic,omitempty"`

	TxCash               *FlexNumber `json:"txCash,omitempty"`
	TxPix                *FlexNumber `json:"txPix,omitempty"`
	TxCard               *FlexNumber `json:"txCard,omitempty"`
	TxTag                *FlexNumber `json:"txTag,omitempty"`
	AbnormalTransactions *FlexNumber `json:"abnormalTransactions,omitempty"`
	Incidents            *FlexNumber `json:"incidents,omitempty"`
	IncidentType         string      `json:"incidentType,omitempty"`
	IncidentTime         string      `json:"incidentTime,omitempty"`

	WaterReading  *FlexNumber `json:"waterReading,omitempty"`
	EnergyReading *FlexNumber `json:"energyReading,omitempty"`
	WasteReading  *FlexNumber `json:"wasteReading,omitempty"`

	HRType     string      `json:"hrType,omitempty"`
	HRDuration *FlexNumber `json:"hrDuration,omitempty"`
	HRGender   string      `json:"hrGender,omitempty"`

	// Legacy kind discriminators. Absence of all three means operational.
	IsSafetyRecord        *bool `json:"isSafetyRecord,omitempty"`
	IsEnvironmentalRecord *bool `json:"isEnvironmentalRecord,omitempty"`
	IsHrRecord            *bool `json:"isHrRecord,omitempty"`
}

// pick prefers the camelCase value when present, then the snake_case one,
// and defaults to zero otherwise.
func pick(camel, snake *FlexNumber) float64 {
	if camel != nil && camel.Set {
		return camel.Value
	}
	if snake != nil && snake.Set {
		return snake.Value
	}
	return 0
}

func pickInt(camel, snake *FlexNumber) int {
	return int(pick(camel, snake))
}

// Normalize converts an arbitrary record-shaped value into the canonical
// Record. It never fails: missing or invalid numerics become zero, a missing
// plaza becomes the UnknownPlaza sentinel, a missing category defaults to
// operational. Every record entering the system passes through here exactly
// once, at the boundary.
func Normalize(raw RawRecord) Record {
	plaza := ""
	if raw.PlazaName != nil && strings.TrimSpace(*raw.PlazaName) != "" {
		plaza = strings.TrimSpace(*raw.PlazaName)
	} else if raw.PlazaSnake != nil && strings.TrimSpace(*raw.PlazaSnake) != "" {
		plaza = strings.TrimSpace(*raw.PlazaSnake)
	}
	if plaza == "" {
		plaza = UnknownPlaza
	}

	category := normalizeCategory(raw)

	r := Record{
		ID:           raw.ID,
		CreatedAt:    raw.CreatedAt,
		Date:         strings.TrimSpace(raw.Date),
		PlazaName:    plaza,
		Segment:      SegmentOf(plaza),
		Category:     category,
		Lane:         raw.Lane,
		Observations: raw.Observations,

		LightVehicles:        pickInt(raw.LightVehicles, raw.LightVehiclesSnake),
		HeavyVehicles:        pickInt(raw.HeavyVehicles, raw.HeavyVehiclesSnake),
		TxCash:               pickInt(raw.TxCash, nil),
		TxPix:                pickInt(raw.TxPix, nil),
		TxCard:               pickInt(raw.TxCard, nil),
		TxTag:                pickInt(raw.TxTag, nil),
		RevenueCash:          pick(raw.RevenueCash, raw.RevenueCashSnake),
		RevenueElectronic:    pick(raw.RevenueElec, raw.RevenueElecSnake),
		AbnormalTransactions: pickInt(raw.AbnormalTransactions, nil),

		Incidents:    pickInt(raw.Incidents, nil),
		IncidentType: raw.IncidentType,
		IncidentTime: raw.IncidentTime,

		WaterReading:  pick(raw.WaterReading, nil),
		EnergyReading: pick(raw.EnergyReading, nil),
		WasteReading:  pick(raw.WasteReading, nil),

		HRDuration: pickInt(raw.HRDuration, nil),
		HRGender:   raw.HRGender,
	}

	if t := HRType(raw.HRType); t.IsValid() {
		r.HRType = t
	}

	// Legacy blobs stored the incident classification in the lane field.
	if category == CategorySafety && r.IncidentType == "" && ValidIncidentType(r.Lane) {
		r.IncidentType = r.Lane
	}

	return r
}

// normalizeCategory reconciles the explicit category with the legacy boolean
// discriminators. An explicit valid category wins; otherwise the first set
// discriminator decides; everything else is operational.
func normalizeCategory(raw RawRecord) Category {
	if c := Category(raw.Category); c.IsValid() {
		return c
	}
	switch {
	case raw.IsSafetyRecord != nil && *raw.IsSafetyRecord:
		return CategorySafety
	case raw.IsEnvironmentalRecord != nil && *raw.IsEnvironmentalRecord:
		return CategoryESG
	case raw.IsHrRecord != nil && *raw.IsHrRecord:
		return CategoryHR
	default:
		return CategoryOperational
	}
}

// NormalizeAll maps a raw collection to canonical records.
func NormalizeAll(raws []RawRecord) []Record {
	out := make([]Record, len(raws))
	for i, raw := range raws {
		out[i] = Normalize(raw)
	}
	return out
}

// AsRaw converts a canonical record back to the wire shape. Re-normalizing
// the result yields the same record (normalization is idempotent).
func (r Record) AsRaw() RawRecord {
	num := func(v float64) *FlexNumber { return &FlexNumber{Value: v, Set: true} }
	plaza := r.PlazaName
	return RawRecord{
		ID:           r.ID,
		CreatedAt:    r.CreatedAt,
		Date:         r.Date,
		Category:     string(r.Category),
		Segment:      string(r.Segment),
		Lane:         r.Lane,
		Observations: r.Observations,
		PlazaName:    &plaza,

		LightVehicles:        num(float64(r.LightVehicles)),
		HeavyVehicles:        num(float64(r.HeavyVehicles)),
		TxCash:               num(float64(r.TxCash)),
		TxPix:                num(float64(r.TxPix)),
		TxCard:               num(float64(r.TxCard)),
		TxTag:                num(float64(r.TxTag)),
		RevenueCash:          num(r.RevenueCash),
		RevenueElec:          num(r.RevenueElectronic),
		AbnormalTransactions: num(float64(r.AbnormalTransactions)),

		Incidents:    num(float64(r.Incidents)),
		IncidentType: r.IncidentType,
		IncidentTime: r.IncidentTime,

		WaterReading:  num(r.WaterReading),
		EnergyReading: num(r.EnergyReading),
		WasteReading:  num(r.WasteReading),

		HRType:     string(r.HRType),
		HRDuration: num(float64(r.HRDuration)),
		HRGender:   r.HRGender,
	}
}

// DecodeRawRecords parses a serialized collection in either naming
// convention. A nil error with an empty slice means an empty collection.
func DecodeRawRecords(data []byte) ([]RawRecord, error) {
	var raws []RawRecord
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	return raws, nil
}
