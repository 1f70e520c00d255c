package simulation

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/chrissnell/pvyield/internal/weather"
)

// ConsistencyError reports plant results that cannot be summed because
// their hourly series differ.
type ConsistencyError struct {
	Plant  int
	Reason string
}

func (e *ConsistencyError) Error() string {
	if e.Plant < 0 {
		return "inconsistent plant results: " + e.Reason
	}
	return fmt.Sprintf("inconsistent result for plant %d: %s", e.Plant, e.Reason)
}

// SystemResult is the sum of all plants of a run.
type SystemResult struct {
	RunID     string       `json:"run_id"`
	CreatedAt time.Time    `json:"created_at"`
	Site      weather.Site `json:"site"`
	Weather   weather.Meta `json:"weather"`

	Timestamps []time.Time `json:"timestamps"`
	ACPower    []float64   `json:"ac_power"`

	EnergyYield       float64 `json:"energy_yield_kwh"`
	RatedPower        float64 `json:"rated_power_kwp"`
	SurfaceArea       float64 `json:"surface_area_m2"`
	SpecificYield     float64 `json:"specific_yield_kwh_kwp"`
	AreaSpecificYield float64 `json:"area_specific_yield_kwh_m2"`
	PeakACPower       float64 `json:"peak_ac_power"`
	Losses            Losses  `json:"losses"`

	Plants []*PlantResult `json:"plants"`
}

// Aggregate sums plant results hour by hour. All results must share the
// same timestamps.
func Aggregate(runID string, results []*PlantResult) (*SystemResult, error) {
	if len(results) == 0 {
		return nil, &ConsistencyError{Plant: -1, Reason: "no plant results"}
	}

	first := results[0]
	if first == nil {
		return nil, &ConsistencyError{Plant: 0, Reason: "missing result"}
	}
	n := len(first.Timestamps)

	sys := &SystemResult{
		RunID:      runID,
		CreatedAt:  time.Now().UTC(),
		Timestamps: append([]time.Time(nil), first.Timestamps...),
		ACPower:    make([]float64, n),
		Plants:     results,
	}

	for i, r := range results {
		if r == nil {
			return nil, &ConsistencyError{Plant: i, Reason: "missing result"}
		}
		if err := sameSeries(first, r); err != nil {
			err.Plant = i
			return nil, err
		}
		floats.Add(sys.ACPower, r.ACPower)
		sys.RatedPower += r.RatedPower
		sys.SurfaceArea += r.SurfaceArea
		sys.Losses = sys.Losses.add(r.Losses)
	}

	sys.EnergyYield = floats.Sum(sys.ACPower) / 1000
	if n > 0 {
		sys.PeakACPower = floats.Max(sys.ACPower)
	}
	sys.SpecificYield = perUnit(sys.EnergyYield, sys.RatedPower)
	sys.AreaSpecificYield = perUnit(sys.EnergyYield, sys.SurfaceArea)
	return sys, nil
}

func sameSeries(ref, r *PlantResult) *ConsistencyError {
	if len(r.Timestamps) != len(ref.Timestamps) {
		return &ConsistencyError{Reason: fmt.Sprintf("%d timestamps, expected %d", len(r.Timestamps), len(ref.Timestamps))}
	}
	if len(r.ACPower) != len(r.Timestamps) {
		return &ConsistencyError{Reason: fmt.Sprintf("%d AC values for %d timestamps", len(r.ACPower), len(r.Timestamps))}
	}
	for i := range r.Timestamps {
		if !r.Timestamps[i].Equal(ref.Timestamps[i]) {
			return &ConsistencyError{Reason: fmt.Sprintf("timestamp %d is %v, expected %v", i, r.Timestamps[i], ref.Timestamps[i])}
		}
	}
	return nil
}
