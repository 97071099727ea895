package scoring

import (
	"strings"

	"brokerage-matchmaking/internal/models"
)

// Neutral is returned when a criterion cannot be evaluated from the data at hand.
const Neutral = 50

const anyValue = "any"

func (s *Scorer) businessTypeScore(prefs *models.Preferences, listing *models.Listing) int {
	listingType := normalizeKey(listing.BusinessType)
	if listingType == "" {
		return Neutral
	}
	if prefs == nil || len(prefs.BusinessTypes) == 0 {
		return 70
	}

	best := 30
	for _, raw := range prefs.BusinessTypes {
		preferred := normalizeKey(raw)
		switch {
		case preferred == listingType:
			return 100
		case s.ref.isRelated(preferred, listingType):
			best = max(best, 80)
		case preferred == anyValue:
			best = max(best, 70)
		}
	}
	return best
}

func (s *Scorer) priceScore(prefs *models.Preferences, listing *models.Listing) int {
	price := listing.AskingPrice
	if price <= 0 {
		return Neutral
	}
	if prefs == nil || (prefs.PriceMin <= 0 && prefs.PriceMax <= 0) {
		return 70
	}

	dev := deviation(price, prefs.PriceMin, prefs.PriceMax)
	switch {
	case dev == 0:
		return 100
	case dev <= 0.10:
		return 90
	case dev <= 0.20:
		return 70
	case dev <= 0.30:
		return 50
	default:
		return 20
	}
}

// deviation is the relative distance from value to the nearest bound of
// [lo, hi], 0 when inside. A bound <= 0 is open.
func deviation(value, lo, hi float64) float64 {
	switch {
	case lo > 0 && value < lo:
		return (lo - value) / lo
	case hi > 0 && value > hi:
		return (value - hi) / hi
	default:
		return 0
	}
}

func (s *Scorer) locationScore(prefs *models.Preferences, listing *models.Listing) int {
	loc := normalize(listing.Location)
	city := normalize(listing.City)
	state := normalize(listing.State)
	if loc == "" && city == "" && state == "" {
		return Neutral
	}
	if prefs == nil || len(prefs.Locations) == 0 {
		return 70
	}

	// "Austin, TX" style locations contribute their city and state parts.
	locCity, locState := splitPlace(loc)
	if city == "" {
		city = locCity
	}
	if state == "" {
		state = locState
	}

	listingRegions := make(map[string]struct{})
	for _, place := range []string{loc, city, state} {
		for _, r := range s.ref.regionsFor(place) {
			listingRegions[r] = struct{}{}
		}
	}

	best := 40
	for _, raw := range prefs.Locations {
		pref := normalize(raw)
		if pref == "" {
			continue
		}
		prefCity, prefState := splitPlace(pref)

		switch {
		case loc != "" && pref == loc:
			return 100
		case city != "" && (pref == city || prefCity == city):
			best = max(best, 95)
		case sharesRegion(s.ref, listingRegions, pref, prefCity):
			best = max(best, 85)
		case state != "" && (pref == state || prefState == state):
			best = max(best, 80)
		case pref == anyValue:
			best = max(best, 70)
		}
	}
	return best
}

func splitPlace(place string) (city, state string) {
	parts := strings.Split(place, ",")
	city = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		state = strings.TrimSpace(parts[len(parts)-1])
	}
	return city, state
}

func sharesRegion(ref *lookups, listingRegions map[string]struct{}, places ...string) bool {
	if len(listingRegions) == 0 {
		return false
	}
	for _, place := range places {
		for _, r := range ref.regionsFor(place) {
			if _, ok := listingRegions[r]; ok {
				return true
			}
		}
	}
	return false
}

type tier int

const (
	tierLow tier = iota
	tierMedium
	tierHigh
)

func (s *Scorer) complexity(listing *models.Listing) tier {
	typ := normalizeKey(listing.BusinessType)
	_, highType := s.ref.high[typ]
	_, mediumType := s.ref.medium[typ]

	switch {
	case listing.AnnualRevenue >= 5_000_000 || listing.Employees >= 50 || highType:
		return tierHigh
	case listing.AnnualRevenue >= 1_000_000 || listing.Employees >= 10 || mediumType:
		return tierMedium
	default:
		return tierLow
	}
}

func experienceTier(years int) tier {
	switch {
	case years >= 10:
		return tierHigh
	case years >= 3:
		return tierMedium
	default:
		return tierLow
	}
}

func (s *Scorer) experienceScore(buyer *models.Profile, listing *models.Listing) int {
	if buyer.ExperienceYears == nil {
		return Neutral
	}

	required := s.complexity(listing)
	have := experienceTier(*buyer.ExperienceYears)

	switch {
	case have >= required:
		return 100
	case required-have == 1 && required == tierMedium:
		return 80
	case required-have == 1:
		return 70
	default:
		return Neutral
	}
}

const flexible = "flexible"

// timelineCompat holds the symmetric compatibility of distinct timelines.
var timelineCompat = map[[2]string]int{
	{"immediate", "30_days"}: 90,
	{"30_days", "60_days"}:   80,
	{"60_days", "90_days"}:   80,
	{"immediate", "60_days"}: 60,
	{"30_days", "90_days"}:   60,
	{"immediate", "90_days"}: 30,
}

func timelineScore(buyerTimeline, listingTimeline string) int {
	a, b := normalizeKey(buyerTimeline), normalizeKey(listingTimeline)
	if a != "" && a == b {
		return 100
	}
	if a == "" || b == "" || a == flexible || b == flexible {
		return 90
	}
	if v, ok := timelineCompat[[2]string{a, b}]; ok {
		return v
	}
	if v, ok := timelineCompat[[2]string{b, a}]; ok {
		return v
	}
	return Neutral
}

func financingScore(financing *models.FinancingDetails, askingPrice float64) int {
	if financing == nil || askingPrice <= 0 {
		return Neutral
	}

	ratio := financing.Total() / askingPrice
	switch {
	case ratio >= 1.0:
		return 100
	case ratio >= 0.9:
		return 90
	case ratio >= 0.8:
		return 70
	case ratio >= 0.7:
		return 50
	default:
		return 20
	}
}

func revenueScore(prefs *models.Preferences, revenue float64) int {
	if revenue <= 0 {
		return Neutral
	}
	if prefs == nil || (prefs.RevenueMin <= 0 && prefs.RevenueMax <= 0) {
		return 70
	}

	dev := deviation(revenue, prefs.RevenueMin, prefs.RevenueMax)
	switch {
	case dev == 0:
		return 100
	case dev <= 0.20:
		return 80
	case dev <= 0.40:
		return 60
	default:
		return 40
	}
}
