// internal/models/profile.go
package models

import "time"

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// Profile is a marketplace user. The matchmaking core only reads it.
type Profile struct {
	ID              string            `json:"id"`
	Role            Role              `json:"role"`
	FullName        string            `json:"fullName"`
	Email           string            `json:"email"`
	Phone           string            `json:"phone,omitempty"`
	Company         string            `json:"company,omitempty"`
	Location        string            `json:"location,omitempty"`
	IsActive        bool              `json:"isActive"`
	LastActiveAt    *time.Time        `json:"lastActiveAt,omitempty"`
	Preferences     *Preferences      `json:"preferences,omitempty"`
	Financing       *FinancingDetails `json:"financingDetails,omitempty"`
	ExperienceYears *int              `json:"experienceYears,omitempty"`
}

// Preferences are a buyer's acquisition criteria. Zero numeric bounds mean "unset".
type Preferences struct {
	BusinessTypes []string `json:"businessTypes,omitempty"`
	PriceMin      float64  `json:"priceMin,omitempty"`
	PriceMax      float64  `json:"priceMax,omitempty"`
	Locations     []string `json:"locations,omitempty"`
	Timeline      string   `json:"timeline,omitempty"`
	RevenueMin    float64  `json:"revenueMin,omitempty"`
	RevenueMax    float64  `json:"revenueMax,omitempty"`
}

type FinancingDetails struct {
	CashAvailable float64 `json:"cashAvailable"`
	LoanApproved  float64 `json:"loanApproved"`
}

// Total is the buying power available to close a deal.
func (f FinancingDetails) Total() float64 {
	return f.CashAvailable + f.LoanApproved
}

// ProfileSummary is the public slice of a profile shown on match details.
type ProfileSummary struct {
	ID       string `json:"id"`
	Role     Role   `json:"role"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Company  string `json:"company,omitempty"`
	Location string `json:"location,omitempty"`
}

func (p *Profile) Summary() ProfileSummary {
	return ProfileSummary{
		ID:       p.ID,
		Role:     p.Role,
		FullName: p.FullName,
		Email:    p.Email,
		Company:  p.Company,
		Location: p.Location,
	}
}
