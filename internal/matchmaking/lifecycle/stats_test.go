package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/models"
)

func TestGetStatistics(t *testing.T) {
	mgr, st := newManager(t, Policy{})
	putMatch(st, "m-1", models.StatusGenerated, 95, fixedNow.Add(-time.Hour))
	putMatch(st, "m-2", models.StatusContacted, 84, fixedNow.Add(-3*24*time.Hour))
	putMatch(st, "m-3", models.StatusDealCreated, 72, fixedNow.Add(-10*24*time.Hour))
	putMatch(st, "m-4", models.StatusNotInterested, 61, fixedNow.Add(-20*24*time.Hour))
	st.PutMatch(&models.Match{
		ID: "other", BuyerID: "buyer-2", SellerID: "seller-1", ListingID: "listing-1",
		CompatibilityScore: 99, Status: models.StatusViewed, GeneratedAt: fixedNow,
	})

	ctx := context.Background()
	for _, in := range []FeedbackInput{
		{MatchID: "m-1", UserID: "buyer-1", Rating: 5, Helpful: boolPtr(true)},
		{MatchID: "m-2", UserID: "buyer-1", Rating: 4, Helpful: boolPtr(false)},
		{MatchID: "m-3", UserID: "buyer-1", Rating: 2},
		{MatchID: "m-3", UserID: "seller-1", Rating: 1, Helpful: boolPtr(true)},
	} {
		_, err := mgr.ProvideFeedback(ctx, in)
		require.NoError(t, err)
	}

	stats, err := mgr.GetStatistics(ctx, "buyer-1", models.RoleBuyer)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalMatches)
	assert.InDelta(t, 78.0, stats.AverageScore, 1e-9)
	assert.Equal(t, map[models.MatchStatus]int{
		models.StatusGenerated:     1,
		models.StatusContacted:     1,
		models.StatusDealCreated:   1,
		models.StatusNotInterested: 1,
	}, stats.StatusCounts)
	assert.Equal(t, map[string]int{
		BandExcellent:      1,
		BandStrong:         1,
		BandGood:           1,
		BandFair:           1,
		BandBelowThreshold: 0,
	}, stats.ScoreBands)
	assert.Equal(t, 2, stats.RecentMatches)
	assert.Equal(t, 2, stats.HighQualityMatches)
	assert.Equal(t, 2, stats.ActiveMatches)

	assert.Equal(t, 3, stats.Feedback.Count)
	assert.InDelta(t, 3.7, stats.Feedback.AverageRating, 1e-9)
	assert.InDelta(t, 33.3, stats.Feedback.HelpfulPercent, 1e-9)
}

func TestGetStatistics_Empty(t *testing.T) {
	mgr, _ := newManager(t, Policy{})

	stats, err := mgr.GetStatistics(context.Background(), "seller-1", models.RoleSeller)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalMatches)
	assert.Zero(t, stats.AverageScore)
	assert.Len(t, stats.ScoreBands, 5)
	assert.Zero(t, stats.Feedback.Count)

	_, err = mgr.GetStatistics(context.Background(), "", models.RoleSeller)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
}

func TestGetMatchDetails(t *testing.T) {
	mgr, st := newManager(t, Policy{})
	putMatch(st, "m-1", models.StatusViewed, 88, fixedNow)
	ctx := context.Background()

	_, err := mgr.RecordInteraction(ctx, InteractionInput{MatchID: "m-1", UserID: "buyer-1", Type: models.InteractionClicked})
	require.NoError(t, err)
	_, err = mgr.RecordInteraction(ctx, InteractionInput{MatchID: "m-1", UserID: "buyer-1", Type: models.InteractionClicked})
	require.NoError(t, err)
	_, err = mgr.ProvideFeedback(ctx, FeedbackInput{MatchID: "m-1", UserID: "buyer-1", Rating: 4})
	require.NoError(t, err)

	d, err := mgr.GetMatchDetails(ctx, "m-1")
	require.NoError(t, err)

	assert.Equal(t, "m-1", d.Match.ID)
	require.NotNil(t, d.Buyer)
	assert.Equal(t, "Dana Buyer", d.Buyer.FullName)
	require.NotNil(t, d.Seller)
	assert.Equal(t, "Sam Seller", d.Seller.FullName)
	require.NotNil(t, d.Listing)
	assert.Equal(t, "Corner Cafe", d.Listing.Title)

	assert.Len(t, d.Feedback, 1)
	require.NotNil(t, d.QualityScore)
	assert.Equal(t, 80, *d.QualityScore)

	assert.Equal(t, 3, d.Interactions.Total)
	assert.Equal(t, 2, d.Interactions.ByType[models.InteractionClicked])
	assert.Equal(t, 1, d.Interactions.ByType[models.InteractionFeedbackProvided])
	require.NotNil(t, d.Interactions.LastInteractionAt)
	assert.Equal(t, fixedNow, *d.Interactions.LastInteractionAt)
}

func TestGetMatchDetails_MissingPartiesDegrade(t *testing.T) {
	mgr, st := newManager(t, Policy{})
	st.PutMatch(&models.Match{
		ID: "m-x", BuyerID: "gone", SellerID: "seller-1", ListingID: "deleted",
		Status: models.StatusGenerated, GeneratedAt: fixedNow,
	})

	d, err := mgr.GetMatchDetails(context.Background(), "m-x")
	require.NoError(t, err)
	assert.Nil(t, d.Buyer)
	assert.NotNil(t, d.Seller)
	assert.Nil(t, d.Listing)
	assert.Empty(t, d.Feedback)
	assert.Nil(t, d.QualityScore)
	assert.Nil(t, d.Interactions.LastInteractionAt)

	_, err = mgr.GetMatchDetails(context.Background(), "nope")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}
