// Package scoring computes buyer/listing compatibility. It performs no I/O.
package scoring

import (
	"fmt"
	"math"

	"brokerage-matchmaking/internal/models"
)

// criteria names the scored dimensions in the order reasons are emitted.
var criteria = [7]string{
	"business_type",
	"price_range",
	"location",
	"experience",
	"timeline",
	"financing",
	"revenue_range",
}

const reasonThreshold = 80

var criterionReasons = [7]string{
	"Business type matches your interests",
	"Asking price fits your budget",
	"Located in your preferred area",
	"Your experience suits this business",
	"Timeline aligns with your plans",
	"Your financing covers the asking price",
	"Revenue is within your target range",
}

// Result is the outcome of scoring one buyer/listing pair.
type Result struct {
	Score     int                   `json:"score"`
	Breakdown models.ScoreBreakdown `json:"breakdown"`
	Reasons   []string              `json:"reasons"`
}

// Scorer is safe for concurrent use; it holds only immutable state.
type Scorer struct {
	weights Weights
	ref     *lookups
}

// NewScorer validates weights and freezes the reference tables. A nil
// reference uses DefaultReferenceData.
func NewScorer(weights Weights, ref *ReferenceData) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring weights: %w", err)
	}
	if ref == nil {
		ref = DefaultReferenceData()
	}
	return &Scorer{weights: weights, ref: buildLookups(ref)}, nil
}

// MustDefault returns a Scorer with the default weights and tables.
func MustDefault() *Scorer {
	s, err := NewScorer(DefaultWeights(), nil)
	if err != nil {
		panic(err)
	}
	return s
}

// Weights returns a copy of the scorer's weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score rates listing for buyer. Missing data degrades to neutral sub-scores,
// never to an error.
func (s *Scorer) Score(buyer *models.Profile, listing *models.Listing) Result {
	if buyer == nil {
		buyer = &models.Profile{}
	}
	if listing == nil {
		listing = &models.Listing{}
	}
	prefs := buyer.Preferences

	var timeline string
	if prefs != nil {
		timeline = prefs.Timeline
	}

	b := models.ScoreBreakdown{
		BusinessType: s.businessTypeScore(prefs, listing),
		PriceRange:   s.priceScore(prefs, listing),
		Location:     s.locationScore(prefs, listing),
		Experience:   s.experienceScore(buyer, listing),
		Timeline:     timelineScore(timeline, listing.Timeline),
		Financing:    financingScore(buyer.Financing, listing.AskingPrice),
		RevenueRange: revenueScore(prefs, listing.AnnualRevenue),
	}

	total := s.Total(b)
	return Result{
		Score:     total,
		Breakdown: b,
		Reasons:   reasons(b, total),
	}
}

// Total combines a breakdown with the scorer's weights into a 0-100 integer.
func (s *Scorer) Total(b models.ScoreBreakdown) int {
	subs := subScores(b)
	weights := s.weights.values()

	var sum float64
	for i := range subs {
		sum += float64(subs[i]) * weights[i]
	}

	// Trim float noise so exact .5 totals always round up.
	sum = math.Round(sum*1e9) / 1e9
	total := int(math.Round(sum))
	if total < 0 {
		return 0
	}
	if total > 100 {
		return 100
	}
	return total
}

func subScores(b models.ScoreBreakdown) [7]int {
	return [7]int{b.BusinessType, b.PriceRange, b.Location, b.Experience, b.Timeline, b.Financing, b.RevenueRange}
}

func reasons(b models.ScoreBreakdown, total int) []string {
	out := make([]string, 0, len(criteria)+1)
	for i, v := range subScores(b) {
		if v >= reasonThreshold {
			out = append(out, criterionReasons[i])
		}
	}

	switch {
	case total >= 90:
		out = append(out, "Exceptional overall compatibility")
	case total >= 80:
		out = append(out, "Strong overall compatibility")
	case total >= 70:
		out = append(out, "Good overall compatibility")
	}
	return out
}
