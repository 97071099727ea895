// internal/models/listing.go
package models

import "time"

type ListingStatus string

const (
	ListingDraft     ListingStatus = "draft"
	ListingActive    ListingStatus = "active"
	ListingSold      ListingStatus = "sold"
	ListingWithdrawn ListingStatus = "withdrawn"
)

// Listing is a business for sale. The matchmaking core only reads it.
type Listing struct {
	ID            string        `json:"id"`
	SellerID      string        `json:"sellerId"`
	Title         string        `json:"title"`
	BusinessType  string        `json:"businessType"`
	AskingPrice   float64       `json:"askingPrice"`
	Location      string        `json:"location,omitempty"`
	City          string        `json:"city,omitempty"`
	State         string        `json:"state,omitempty"`
	AnnualRevenue float64       `json:"annualRevenue,omitempty"`
	Employees     int           `json:"employees,omitempty"`
	Status        ListingStatus `json:"status"`
	Timeline      string        `json:"timeline,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type ListingSummary struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	BusinessType string  `json:"businessType"`
	AskingPrice  float64 `json:"askingPrice"`
	City         string  `json:"city,omitempty"`
	State        string  `json:"state,omitempty"`
}

func (l *Listing) Summary() ListingSummary {
	return ListingSummary{
		ID:           l.ID,
		Title:        l.Title,
		BusinessType: l.BusinessType,
		AskingPrice:  l.AskingPrice,
		City:         l.City,
		State:        l.State,
	}
}
