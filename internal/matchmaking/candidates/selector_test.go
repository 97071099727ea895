package candidates

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/models"
)

// ==========================
// Mocks
// ==========================

type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func (m *MockProfileStore) ListActiveBuyers(ctx context.Context, limit int) ([]*models.Profile, error) {
	args := m.Called(ctx, limit)
	p, _ := args.Get(0).([]*models.Profile)
	return p, args.Error(1)
}

type MockListingStore struct {
	mock.Mock
}

func (m *MockListingStore) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*models.Listing)
	return l, args.Error(1)
}

func (m *MockListingStore) ListActiveListings(ctx context.Context, ceiling *float64, limit int) ([]*models.Listing, error) {
	args := m.Called(ctx, ceiling, limit)
	l, _ := args.Get(0).([]*models.Listing)
	return l, args.Error(1)
}

// ==========================
// Tests
// ==========================

func TestListingsForBuyer_AppliesPriceCeiling(t *testing.T) {
	listings := new(MockListingStore)
	sel := NewSelector(new(MockProfileStore), listings, DefaultConfig())

	buyer := &models.Profile{ID: "b-1", Preferences: &models.Preferences{PriceMax: 500000}}
	want := []*models.Listing{{ID: "l-1"}, {ID: "l-2"}}

	listings.On("ListActiveListings", mock.Anything, mock.MatchedBy(func(c *float64) bool {
		return c != nil && math.Abs(*c-600000) < 1e-6
	}), 100).Return(want, nil)

	got, err := sel.ListingsForBuyer(context.Background(), buyer)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	listings.AssertExpectations(t)
}

func TestListingsForBuyer_NoCeilingWithoutPriceMax(t *testing.T) {
	tests := []struct {
		name  string
		buyer *models.Profile
	}{
		{"no preferences", &models.Profile{ID: "b-1"}},
		{"min only", &models.Profile{ID: "b-2", Preferences: &models.Preferences{PriceMin: 100000}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listings := new(MockListingStore)
			sel := NewSelector(new(MockProfileStore), listings, DefaultConfig())

			listings.On("ListActiveListings", mock.Anything, (*float64)(nil), 100).Return([]*models.Listing{}, nil)

			got, err := sel.ListingsForBuyer(context.Background(), tt.buyer)
			require.NoError(t, err)
			assert.Empty(t, got)
			listings.AssertExpectations(t)
		})
	}
}

func TestListingsForBuyer_StoreFailure(t *testing.T) {
	listings := new(MockListingStore)
	sel := NewSelector(new(MockProfileStore), listings, DefaultConfig())

	listings.On("ListActiveListings", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err := sel.ListingsForBuyer(context.Background(), &models.Profile{ID: "b-1"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStoreFailed))
}

func TestListingsForBuyer_KeepsStandardErrors(t *testing.T) {
	listings := new(MockListingStore)
	sel := NewSelector(new(MockProfileStore), listings, DefaultConfig())

	listings.On("ListActiveListings", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.NewStoreError("list_active_listings", errors.New("timeout")))

	_, err := sel.ListingsForBuyer(context.Background(), &models.Profile{ID: "b-1"})
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, "timeout", stdErr.Details)
}

func TestBuyersForListing_UsesConfiguredLimit(t *testing.T) {
	profiles := new(MockProfileStore)
	sel := NewSelector(profiles, new(MockListingStore), Config{BuyerLimit: 20})

	buyers := []*models.Profile{{ID: "b-1"}, {ID: "b-2"}}
	profiles.On("ListActiveBuyers", mock.Anything, 20).Return(buyers, nil)

	got, err := sel.BuyersForListing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, buyers, got)
	profiles.AssertExpectations(t)
}

func TestBuyersForListing_StoreFailure(t *testing.T) {
	profiles := new(MockProfileStore)
	sel := NewSelector(profiles, new(MockListingStore), DefaultConfig())

	profiles.On("ListActiveBuyers", mock.Anything, 50).Return(nil, errors.New("boom"))

	_, err := sel.BuyersForListing(context.Background())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStoreFailed))
}

func TestPriceCeiling_CustomBuffer(t *testing.T) {
	sel := NewSelector(nil, nil, Config{PriceCeilingBuffer: 1.5})
	c := sel.PriceCeiling(&models.Profile{Preferences: &models.Preferences{PriceMax: 200000}})
	require.NotNil(t, c)
	assert.InDelta(t, 300000, *c, 1e-6)
}
