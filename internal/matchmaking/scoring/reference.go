package scoring

import "strings"

// ReferenceData holds the lookup tables behind related business types,
// regions and business complexity. Keys and members are matched
// case-insensitively.
type ReferenceData struct {
	// RelatedTypes maps a preferred business type to types considered adjacent.
	RelatedTypes map[string][]string `json:"relatedTypes"`
	// Regions maps a region name to the cities, states and areas inside it.
	Regions map[string][]string `json:"regions"`
	// HighComplexityTypes and MediumComplexityTypes raise a listing's
	// complexity tier regardless of its size.
	HighComplexityTypes   []string `json:"highComplexityTypes"`
	MediumComplexityTypes []string `json:"mediumComplexityTypes"`
}

// DefaultReferenceData returns the built-in tables.
func DefaultReferenceData() *ReferenceData {
	return &ReferenceData{
		RelatedTypes: map[string][]string{
			"restaurant":    {"cafe", "bar", "bakery", "catering", "food_truck", "fast_food"},
			"cafe":          {"restaurant", "bakery", "coffee_shop"},
			"bar":           {"restaurant", "nightclub", "brewery"},
			"retail":        {"ecommerce", "convenience_store", "franchise", "boutique"},
			"ecommerce":     {"retail", "technology", "subscription"},
			"technology":    {"software", "saas", "it_services", "ecommerce"},
			"software":      {"technology", "saas", "it_services"},
			"saas":          {"software", "technology"},
			"manufacturing": {"distribution", "wholesale", "industrial"},
			"distribution":  {"manufacturing", "wholesale", "logistics"},
			"healthcare":    {"medical_practice", "dental", "pharmacy", "home_care"},
			"services":      {"professional_services", "consulting", "cleaning", "staffing"},
			"construction":  {"trades", "landscaping", "home_services"},
			"automotive":    {"auto_repair", "car_wash", "dealership"},
		},
		Regions: map[string][]string{
			"bay area":             {"san francisco", "oakland", "san jose", "berkeley", "palo alto", "fremont"},
			"southern california":  {"los angeles", "san diego", "irvine", "long beach", "anaheim", "santa monica"},
			"tri-state area":       {"new york", "newark", "jersey city", "stamford", "ny", "nj", "ct"},
			"dfw":                  {"dallas", "fort worth", "arlington", "plano", "irving"},
			"greater toronto area": {"toronto", "mississauga", "brampton", "markham", "vaughan", "oakville"},
			"pacific northwest":    {"seattle", "portland", "tacoma", "bellevue", "wa", "or"},
			"south florida":        {"miami", "fort lauderdale", "west palm beach", "boca raton"},
		},
		HighComplexityTypes:   []string{"manufacturing", "healthcare", "construction", "distribution", "technology", "software"},
		MediumComplexityTypes: []string{"restaurant", "franchise", "hospitality", "automotive", "ecommerce", "retail"},
	}
}

// Override returns a copy of r with every non-empty table of o replacing r's.
func (r *ReferenceData) Override(o ReferenceData) *ReferenceData {
	out := *r
	if len(o.RelatedTypes) > 0 {
		out.RelatedTypes = o.RelatedTypes
	}
	if len(o.Regions) > 0 {
		out.Regions = o.Regions
	}
	if len(o.HighComplexityTypes) > 0 {
		out.HighComplexityTypes = o.HighComplexityTypes
	}
	if len(o.MediumComplexityTypes) > 0 {
		out.MediumComplexityTypes = o.MediumComplexityTypes
	}
	return &out
}

// lookups is the normalized, read-only form of ReferenceData used while scoring.
type lookups struct {
	related  map[string]map[string]struct{}
	regionOf map[string][]string // member -> region names
	regions  map[string]struct{}
	high     map[string]struct{}
	medium   map[string]struct{}
}

func buildLookups(r *ReferenceData) *lookups {
	l := &lookups{
		related:  make(map[string]map[string]struct{}),
		regionOf: make(map[string][]string),
		regions:  make(map[string]struct{}),
		high:     toSet(r.HighComplexityTypes, normalizeKey),
		medium:   toSet(r.MediumComplexityTypes, normalizeKey),
	}
	for typ, rel := range r.RelatedTypes {
		l.related[normalizeKey(typ)] = toSet(rel, normalizeKey)
	}
	for region, members := range r.Regions {
		name := normalize(region)
		l.regions[name] = struct{}{}
		for _, m := range members {
			key := normalize(m)
			l.regionOf[key] = append(l.regionOf[key], name)
		}
	}
	return l
}

func (l *lookups) isRelated(preferred, listingType string) bool {
	_, ok := l.related[preferred][listingType]
	return ok
}

// regionsFor returns the regions a place belongs to, including the place
// itself when it names a region.
func (l *lookups) regionsFor(place string) []string {
	if place == "" {
		return nil
	}
	out := l.regionOf[place]
	if _, ok := l.regions[place]; ok {
		out = append(append([]string(nil), out...), place)
	}
	return out
}

func toSet(values []string, norm func(string) string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[norm(v)] = struct{}{}
	}
	return set
}

// normalize is used for place names.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

var keyReplacer = strings.NewReplacer(" ", "_", "-", "_")

// normalizeKey is used for enumerated values such as business types and
// timelines, so "Food Truck", "food-truck" and "food_truck" compare equal.
func normalizeKey(s string) string {
	return keyReplacer.Replace(normalize(s))
}
