// internal/models/match.go
package models

import "time"

type MatchStatus string

const (
	StatusGenerated        MatchStatus = "generated"
	StatusViewed           MatchStatus = "viewed"
	StatusInterested       MatchStatus = "interested"
	StatusNotInterested    MatchStatus = "not_interested"
	StatusContacted        MatchStatus = "contacted"
	StatusMeetingScheduled MatchStatus = "meeting_scheduled"
	StatusInNegotiation    MatchStatus = "in_negotiation"
	StatusDealCreated      MatchStatus = "deal_created"
	StatusExpired          MatchStatus = "expired"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []MatchStatus{
	StatusGenerated,
	StatusViewed,
	StatusInterested,
	StatusNotInterested,
	StatusContacted,
	StatusMeetingScheduled,
	StatusInNegotiation,
	StatusDealCreated,
	StatusExpired,
}

func (s MatchStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ScoreBreakdown holds the per-criterion sub-scores, each in [0,100].
type ScoreBreakdown struct {
	BusinessType int `json:"businessType"`
	PriceRange   int `json:"priceRange"`
	Location     int `json:"location"`
	Experience   int `json:"experience"`
	Timeline     int `json:"timeline"`
	Financing    int `json:"financing"`
	RevenueRange int `json:"revenueRange"`
}

// Match is a scored buyer/seller/listing association.
type Match struct {
	ID                 string         `json:"id"`
	BuyerID            string         `json:"buyerId"`
	SellerID           string         `json:"sellerId"`
	ListingID          string         `json:"listingId"`
	CompatibilityScore int            `json:"compatibilityScore"`
	MatchReasons       []string       `json:"matchReasons"`
	ScoreBreakdown     ScoreBreakdown `json:"scoreBreakdown"`
	Status             MatchStatus    `json:"status"`
	QualityScore       *int           `json:"qualityScore,omitempty"`
	AlgorithmVersion   string         `json:"algorithmVersion"`
	Notes              string         `json:"notes,omitempty"`
	GeneratedAt        time.Time      `json:"generatedAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// MatchPatch is a partial update. Nil fields are left untouched.
type MatchPatch struct {
	Status       *MatchStatus `json:"status,omitempty"`
	Notes        *string      `json:"notes,omitempty"`
	QualityScore *int         `json:"qualityScore,omitempty"`
	// ExpectedStatus makes the update conditional on the stored status.
	ExpectedStatus *MatchStatus `json:"-"`
}
