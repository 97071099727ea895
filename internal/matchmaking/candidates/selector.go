// Package candidates fetches bounded, pre-filtered candidate sets before scoring.
package candidates

import (
	"context"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/models"
	"brokerage-matchmaking/internal/store"
)

const (
	DefaultListingLimit       = 100
	DefaultBuyerLimit         = 50
	DefaultPriceCeilingBuffer = 1.2
)

type Config struct {
	ListingLimit       int
	BuyerLimit         int
	PriceCeilingBuffer float64
}

func DefaultConfig() Config {
	return Config{
		ListingLimit:       DefaultListingLimit,
		BuyerLimit:         DefaultBuyerLimit,
		PriceCeilingBuffer: DefaultPriceCeilingBuffer,
	}
}

type Selector struct {
	profiles store.ProfileStore
	listings store.ListingStore
	cfg      Config
}

func NewSelector(profiles store.ProfileStore, listings store.ListingStore, cfg Config) *Selector {
	if cfg.ListingLimit <= 0 {
		cfg.ListingLimit = DefaultListingLimit
	}
	if cfg.BuyerLimit <= 0 {
		cfg.BuyerLimit = DefaultBuyerLimit
	}
	if cfg.PriceCeilingBuffer <= 0 {
		cfg.PriceCeilingBuffer = DefaultPriceCeilingBuffer
	}
	return &Selector{profiles: profiles, listings: listings, cfg: cfg}
}

// PriceCeiling is the coarse price filter for a buyer: price_max plus the
// buffer, or nil when the buyer set no maximum.
func (s *Selector) PriceCeiling(buyer *models.Profile) *float64 {
	if buyer == nil || buyer.Preferences == nil || buyer.Preferences.PriceMax <= 0 {
		return nil
	}
	ceiling := buyer.Preferences.PriceMax * s.cfg.PriceCeilingBuffer
	return &ceiling
}

// ListingsForBuyer returns active listings within the buyer's price ceiling, newest first.
func (s *Selector) ListingsForBuyer(ctx context.Context, buyer *models.Profile) ([]*models.Listing, error) {
	listings, err := s.listings.ListActiveListings(ctx, s.PriceCeiling(buyer), s.cfg.ListingLimit)
	if err != nil {
		return nil, asStoreError("list_active_listings", err)
	}
	return listings, nil
}

// BuyersForListing returns active buyers, most recently active first.
func (s *Selector) BuyersForListing(ctx context.Context) ([]*models.Profile, error) {
	buyers, err := s.profiles.ListActiveBuyers(ctx, s.cfg.BuyerLimit)
	if err != nil {
		return nil, asStoreError("list_active_buyers", err)
	}
	return buyers, nil
}

func asStoreError(op string, err error) error {
	if _, ok := apperrors.AsStandardError(err); ok {
		return err
	}
	return apperrors.NewStoreError(op, err)
}
