package generatematches

const (
	DirectionBuyer  = "buyer"
	DirectionSeller = "seller"
)

type Input struct {
	UserID    string `json:"userId"`
	Direction string `json:"direction,omitempty"`
	ListingID string `json:"listingId,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Force     bool   `json:"force,omitempty"`
}

type MatchSummary struct {
	MatchID            string `json:"matchId"`
	BuyerID            string `json:"buyerId"`
	ListingID          string `json:"listingId"`
	CompatibilityScore int    `json:"compatibilityScore"`
}

type Output struct {
	MatchIDs            []string       `json:"matchIds"`
	Matches             []MatchSummary `json:"matches"`
	MatchCount          int            `json:"matchCount"`
	TopScore            int            `json:"topScore"`
	TotalCandidates     int            `json:"totalCandidates"`
	QualifiedCandidates int            `json:"qualifiedCandidates"`
	Skipped             int            `json:"skipped"`
	Failed              int            `json:"failed"`
}
