package core

import (
	"fmt"
	"math/rand"
	"time"
)

// Seed reference month: every plaza gets at least one incident here so the
// safety calendar has coverage on a cold start.
const (
	seedIncidentYear  = 2025
	seedIncidentMonth = time.December
)

var seedIncidentTypes = []string{
	IncidentASAF, IncidentACAF, IncidentSAM, IncidentACDM, IncidentQAC, IncidentTrajeto,
}

// GenerateSeed builds the synthetic cold-start collection: 60 days of
// operational records for every plaza ending at now, one guaranteed safety
// incident per plaza spread across the reference month, and a handful of
// extra random incidents. The caller supplies the PRNG so tests can fix the
// seed; structure (plaza coverage, record count) is deterministic regardless.
func GenerateSeed(rng *rand.Rand, now time.Time) []Record {
	records := make([]Record, 0, 60*len(AllPlazas)+len(AllPlazas)+5)

	for i := 0; i < 60; i++ {
		day := now.AddDate(0, 0, -i)
		dateStr := day.Format(DateLayout)
		weekend := day.Weekday() == time.Saturday || day.Weekday() == time.Sunday

		for _, plaza := range AllPlazas {
			base := 1500
			if weekend {
				base = 2500
			}
			traffic := base + rng.Intn(500)
			light := int(float64(traffic) * 0.7)
			heavy := int(float64(traffic) * 0.3)
			total := light + heavy

			txTag := int(float64(total) * (0.5 + rng.Float64()*0.15))
			txCash := int(float64(total) * (0.2 + rng.Float64()*0.1))
			txPix := int(float64(total) * (0.1 + rng.Float64()*0.05))
			txCard := total - txTag - txCash - txPix

			r := Record{
				ID:                   fmt.Sprintf("seed-%d-%s", i, plaza),
				Date:                 dateStr,
				PlazaName:            plaza,
				Segment:              SegmentOf(plaza),
				Category:             CategoryOperational,
				Lane:                 "L01",
				LightVehicles:        light,
				HeavyVehicles:        heavy,
				TxCash:               txCash,
				TxPix:                txPix,
				TxCard:               txCard,
				TxTag:                txTag,
				AbnormalTransactions: rng.Intn(15),
			}
			r.DeriveRevenue(UnitTollPrice)
			records = append(records, r)
		}
	}

	// Guaranteed coverage: one incident per plaza, days spread so the
	// calendar fills without clumping.
	for i, plaza := range AllPlazas {
		day := (i * 3) + 2
		kind := seedIncidentTypes[i%len(seedIncidentTypes)]
		hour := 8 + rng.Intn(10)
		records = append(records, Record{
			ID:           fmt.Sprintf("safety-guaranteed-%s", plaza),
			Date:         fmt.Sprintf("%d-%02d-%02d", seedIncidentYear, seedIncidentMonth, day),
			PlazaName:    plaza,
			Segment:      SegmentOf(plaza),
			Category:     CategorySafety,
			Lane:         kind,
			IncidentType: kind,
			IncidentTime: fmt.Sprintf("%02d:30", hour),
			Incidents:    1,
			Observations: fmt.Sprintf("Registro obrigatório: %s em %s", kind, plaza),
		})
	}

	for i := 0; i < 5; i++ {
		day := rng.Intn(25) + 1
		plaza := AllPlazas[rng.Intn(len(AllPlazas))]
		kind := seedIncidentTypes[rng.Intn(len(seedIncidentTypes))]
		records = append(records, Record{
			ID:           fmt.Sprintf("safety-random-%d", i),
			Date:         fmt.Sprintf("%d-%02d-%02d", seedIncidentYear, seedIncidentMonth, day),
			PlazaName:    plaza,
			Segment:      SegmentOf(plaza),
			Category:     CategorySafety,
			Lane:         kind,
			IncidentType: kind,
			IncidentTime: "14:00",
			Incidents:    1,
			Observations: fmt.Sprintf("Ocorrência adicional %s", kind),
		})
	}

	return records
}
