package scoring

import (
	"fmt"
	"math"
)

const weightTolerance = 1e-6

// Weights is the per-criterion weighting. Values are copied into the Scorer at
// construction so a Scorer never observes later changes.
type Weights struct {
	BusinessType float64 `json:"businessType"`
	PriceRange   float64 `json:"priceRange"`
	Location     float64 `json:"location"`
	Experience   float64 `json:"experience"`
	Timeline     float64 `json:"timeline"`
	Financing    float64 `json:"financing"`
	RevenueRange float64 `json:"revenueRange"`
}

// DefaultWeights returns the production weighting.
func DefaultWeights() Weights {
	return Weights{
		BusinessType: 0.25,
		PriceRange:   0.20,
		Location:     0.15,
		Experience:   0.15,
		Timeline:     0.10,
		Financing:    0.10,
		RevenueRange: 0.05,
	}
}

func (w Weights) values() [7]float64 {
	return [7]float64{w.BusinessType, w.PriceRange, w.Location, w.Experience, w.Timeline, w.Financing, w.RevenueRange}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	var total float64
	for _, v := range w.values() {
		total += v
	}
	return total
}

// Validate rejects negative weights and weights that do not sum to 1.
func (w Weights) Validate() error {
	for i, v := range w.values() {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("weight %s must be non-negative, got %v", criteria[i], v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %.6f", sum)
	}
	return nil
}
