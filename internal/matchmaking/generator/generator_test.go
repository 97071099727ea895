package generator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/matchmaking/candidates"
	"brokerage-matchmaking/internal/matchmaking/scoring"
	"brokerage-matchmaking/internal/models"
	"brokerage-matchmaking/internal/store/memstore"
)

// ==========================
// Fakes
// ==========================

var fixedNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type scoreFunc func(b *models.Profile, l *models.Listing) int

func (f scoreFunc) Score(b *models.Profile, l *models.Listing) scoring.Result {
	return scoring.Result{Score: f(b, l), Reasons: []string{"test"}}
}

// byListing scores by listing ID; byBuyer scores by buyer ID.
func byListing(scores map[string]int) scoreFunc {
	return func(_ *models.Profile, l *models.Listing) int { return scores[l.ID] }
}

func byBuyer(scores map[string]int) scoreFunc {
	return func(b *models.Profile, _ *models.Listing) int { return scores[b.ID] }
}

type fixedCandidates struct {
	listings []*models.Listing
	buyers   []*models.Profile
	err      error
}

func (f *fixedCandidates) ListingsForBuyer(ctx context.Context, _ *models.Profile) ([]*models.Listing, error) {
	return f.listings, f.err
}

func (f *fixedCandidates) BuyersForListing(ctx context.Context) ([]*models.Profile, error) {
	return f.buyers, f.err
}

type fixture struct {
	store *memstore.Store
	cands *fixedCandidates
	gen   *Generator
}

func newFixture(t *testing.T, scorer Scorer) *fixture {
	t.Helper()
	st := memstore.New()
	st.Now = func() time.Time { return fixedNow }
	st.AddProfile(&models.Profile{ID: "buyer-1", Role: models.RoleBuyer, IsActive: true})
	st.AddProfile(&models.Profile{ID: "seller-1", Role: models.RoleSeller, IsActive: true})

	cands := &fixedCandidates{}
	gen := New(Config{Concurrency: 3}, Deps{
		Profiles:   st,
		Listings:   st,
		Matches:    st,
		Candidates: cands,
		Scorer:     scorer,
		Notifier:   st,
		Lock:       st,
	}, logger.NewTestLogger(t)).WithClock(func() time.Time { return fixedNow })

	return &fixture{store: st, cands: cands, gen: gen}
}

func listings(ids ...string) []*models.Listing {
	out := make([]*models.Listing, len(ids))
	for i, id := range ids {
		out[i] = &models.Listing{ID: id, SellerID: "seller-1", Status: models.ListingActive}
	}
	return out
}

func scoresOf(matches []*models.Match) []int {
	out := make([]int, len(matches))
	for i, m := range matches {
		out[i] = m.CompatibilityScore
	}
	return out
}

// ==========================
// Buyer generation
// ==========================

func TestGenerateForBuyer_ReturnsTopN(t *testing.T) {
	scores := map[string]int{}
	ids := make([]string, 10)
	for i, s := range []int{83, 95, 61, 88, 70, 90, 85, 65, 80, 75} {
		ids[i] = fmt.Sprintf("l-%d", i)
		scores[ids[i]] = s
	}

	f := newFixture(t, byListing(scores))
	f.cands.listings = listings(ids...)

	res, err := f.gen.GenerateForBuyer(context.Background(), "buyer-1", Options{Limit: 3})
	require.NoError(t, err)

	assert.Equal(t, []int{95, 90, 88}, scoresOf(res.Matches))
	assert.Equal(t, 10, res.TotalCandidates)
	assert.Equal(t, 10, res.QualifiedCandidates)
	assert.Zero(t, res.Skipped)
	assert.Zero(t, res.Failed)

	for _, m := range res.Matches {
		assert.NotEmpty(t, m.ID)
		assert.Equal(t, "buyer-1", m.BuyerID)
		assert.Equal(t, "seller-1", m.SellerID)
		assert.Equal(t, models.StatusGenerated, m.Status)
		assert.Equal(t, DefaultAlgorithmVersion, m.AlgorithmVersion)
		assert.Nil(t, m.QualityScore)
	}

	sent := f.store.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "buyer-1", sent[0].UserID)
	assert.Equal(t, models.NotificationNewMatches, sent[0].Notification.Type)
	assert.Equal(t, 3, sent[0].Notification.Data["count"])
	assert.Equal(t, models.PriorityHigh, sent[0].Notification.Priority)
}

func TestGenerateForBuyer_AppliesThreshold(t *testing.T) {
	f := newFixture(t, byListing(map[string]int{"l-a": 59, "l-b": 60, "l-c": 75, "l-d": 10}))
	f.cands.listings = listings("l-a", "l-b", "l-c", "l-d")

	res, err := f.gen.GenerateForBuyer(context.Background(), "buyer-1", Options{})
	require.NoError(t, err)

	assert.Equal(t, []int{75, 60}, scoresOf(res.Matches))
	assert.Equal(t, 4, res.TotalCandidates)
	assert.Equal(t, 2, res.QualifiedCandidates)
	for _, m := range res.Matches {
		assert.GreaterOrEqual(t, m.CompatibilityScore, DefaultMinScore)
	}
}

func TestGenerateForBuyer_TiesKeepCandidateOrder(t *testing.T) {
	f := newFixture(t, byListing(map[string]int{"l-1": 70, "l-2": 80, "l-3": 70, "l-4": 80}))
	f.cands.listings = listings("l-1", "l-2", "l-3", "l-4")

	res, err := f.gen.GenerateForBuyer(context.Background(), "buyer-1", Options{})
	require.NoError(t, err)

	var order []string
	for _, m := range res.Matches {
		order = append(order, m.ListingID)
	}
	assert.Equal(t, []string{"l-2", "l-4", "l-1", "l-3"}, order)
}

func TestGenerateForBuyer_NoQualifiedCandidatesSkipsNotification(t *testing.T) {
	f := newFixture(t, byListing(map[string]int{"l-1": 40}))
	f.cands.listings = listings("l-1")

	res, err := f.gen.GenerateForBuyer(context.Background(), "buyer-1", Options{})
	require.NoError(t, err)

	assert.Empty(t, res.Matches)
	assert.Equal(t, 1, res.TotalCandidates)
	assert.Zero(t, res.QualifiedCandidates)
	assert.Empty(t, f.store.Sent())
}

func TestGenerateForBuyer_MissingBuyer(t *testing.T) {
	f := newFixture(t, byListing(nil))

	_, err := f.gen.GenerateForBuyer(context.Background(), "ghost", Options{})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestGenerateForBuyer_RejectsNonBuyer(t *testing.T) {
	f := newFixture(t, byListing(nil))

	_, err := f.gen.GenerateForBuyer(context.Background(), "seller-1", Options{})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))

	_, err = f.gen.GenerateForBuyer(context.Background(), "", Options{})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
}

func TestGenerateForBuyer_CandidateFailure(t *testing.T) {
	f := newFixture(t, byListing(nil))
	f.cands.err = apperrors.NewStoreError("list_active_listings", errors.New("connection refused"))

	_, err := f.gen.GenerateForBuyer(context.Background(), "buyer-1", Options{})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStoreFailed))
}

// ==========================
// Regeneration guard
// ==========================

func TestGenerateForBuyer_DuplicateGenerationWithinWindow(t *testing.T) {
	f := newFixture(t, byListing(map[string]int{"l-1": 90}))
	f.cands.listings = listings("l-1")
	f.store.PutMatch(&models.Match{
		ID: "m-old", BuyerID: "buyer-1", SellerID: "seller-1", ListingID: "l-9",
		Status: models.StatusGenerated, GeneratedAt: fixedNow.Add(-2 * time.Hour),
	})

	_, err := f.gen.GenerateForBuyer(context.Background(), "buyer-1", Options{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDuplicateGeneration))
	assert.Len(t, f.store.Matches(), 1)

	res, err := f.gen.GenerateForBuyer(context.Background(), "buyer-1", Options{Force: true})
	require.NoError(t, err)
	assert.Len(t, res.Matches, 1)
}

func TestGenerateForBuyer_OldMatchesDoNotBlock(t *testing.T) {
	f := newFixture(t, byListing(map[string]int{"l-1": 90}))
	f.cands.listings = listings("l-1")
	f.store.PutMatch(&models.Match{
		ID: "m-old", BuyerID: "buyer-1", SellerID: "seller-1", ListingID: "l-9",
		Status: models.StatusViewed, GeneratedAt: fixedNow.Add(-25 * time.Hour),
	})

	res, err := f.gen.GenerateForBuyer(context.Background(), "buyer-1", Options{})
	require.NoError(t, err)
	assert.Len(t, res.Matches, 1)
}

func TestGenerateForBuyer_LockContention(t *testing.T) {
	f := newFixture(t, byListing(map[string]int{"l-1": 90}))
	f.cands.listings = listings("l-1")

	release, ok, err := f.store.Acquire(context.Background(), "matchmaking:generate:buyer:buyer-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.gen.GenerateForBuyer(context.Background(), "buyer-1", Options{Force: true})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDuplicateGeneration))

	release()
	_, err = f.gen.GenerateForBuyer(context.Background(), "buyer-1", Options{Force: true})
	assert.NoError(t, err)
}

// ==========================
// Persistence
// ==========================

func TestGenerateForBuyer_ExistingActivePairIsSkipped(t *testing.T) {
	f := newFixture(t, byListing(map[string]int{"l-1": 90, "l-2": 80}))
	f.cands.listings = listings("l-1", "l-2")
	f.store.PutMatch(&models.Match{
		ID: "m-old", BuyerID: "buyer-1", SellerID: "seller-1", ListingID: "l-1",
		Status: models.StatusInterested, GeneratedAt: fixedNow.Add(-72 * time.Hour),
	})

	res, err := f.gen.GenerateForBuyer(context.Background(), "buyer-1", Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "l-2", res.Matches[0].ListingID)
}

func TestGenerateForBuyer_PartialWriteFailure(t *testing.T) {
	f := newFixture(t, byListing(map[string]int{"l-1": 90, "l-2": 85, "l-3": 80}))
	f.cands.listings = listings("l-1", "l-2", "l-3")
	f.store.CreateMatchHook = func(m *models.Match) error {
		if m.ListingID == "l-2" {
			return apperrors.NewStoreError("create_match", errors.New("deadlock detected"))
		}
		return nil
	}

	res, err := f.gen.GenerateForBuyer(context.Background(), "buyer-1", Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []int{90, 80}, scoresOf(res.Matches))
	assert.Equal(t, 2, f.store.Sent()[0].Notification.Data["count"])
}

func TestGenerateForBuyer_NotificationFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, byListing(map[string]int{"l-1": 75}))
	f.cands.listings = listings("l-1")
	f.store.NotifyHook = func(string, models.Notification) error {
		return apperrors.NewNotificationSendFailedError("email", errors.New("throttled"))
	}

	res, err := f.gen.GenerateForBuyer(context.Background(), "buyer-1", Options{})
	require.NoError(t, err)
	assert.Len(t, res.Matches, 1)
}

// ==========================
// Seller generation
// ==========================

func TestGenerateForSeller_ScoresBuyersAgainstListing(t *testing.T) {
	f := newFixture(t, byBuyer(map[string]int{"b-1": 62, "b-2": 91, "b-3": 30}))
	f.store.AddListing(&models.Listing{ID: "l-1", SellerID: "seller-1", Status: models.ListingActive})
	f.cands.buyers = []*models.Profile{{ID: "b-1"}, {ID: "b-2"}, {ID: "b-3"}}

	res, err := f.gen.GenerateForSeller(context.Background(), "seller-1", "l-1", Options{})
	require.NoError(t, err)

	require.Len(t, res.Matches, 2)
	assert.Equal(t, "b-2", res.Matches[0].BuyerID)
	assert.Equal(t, "b-1", res.Matches[1].BuyerID)
	assert.Equal(t, 3, res.TotalCandidates)
	assert.Equal(t, 2, res.QualifiedCandidates)

	sent := f.store.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "seller-1", sent[0].UserID)
}

func TestGenerateForSeller_RejectsForeignListing(t *testing.T) {
	f := newFixture(t, byBuyer(nil))
	f.store.AddListing(&models.Listing{ID: "l-1", SellerID: "someone-else", Status: models.ListingActive})

	_, err := f.gen.GenerateForSeller(context.Background(), "seller-1", "l-1", Options{})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
}

func TestGenerateForSeller_RejectsInactiveListing(t *testing.T) {
	for _, status := range []models.ListingStatus{models.ListingDraft, models.ListingSold, models.ListingWithdrawn} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t, byBuyer(map[string]int{"b-1": 95}))
			f.store.AddListing(&models.Listing{ID: "l-1", SellerID: "seller-1", Status: status})
			f.cands.buyers = []*models.Profile{{ID: "b-1"}}

			_, err := f.gen.GenerateForSeller(context.Background(), "seller-1", "l-1", Options{})
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
			assert.Empty(t, f.store.Sent())
		})
	}
}

func TestGenerateForSeller_MissingListing(t *testing.T) {
	f := newFixture(t, byBuyer(nil))

	_, err := f.gen.GenerateForSeller(context.Background(), "seller-1", "l-missing", Options{})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

// ==========================
// Scoring pool
// ==========================

type countingScorer struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (c *countingScorer) Score(_ *models.Profile, l *models.Listing) scoring.Result {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	score, _ := strconv.Atoi(strings.TrimPrefix(l.ID, "l-"))
	return scoring.Result{Score: score}
}

func TestScoreAll_BoundedAndOrdered(t *testing.T) {
	sc := &countingScorer{}
	f := newFixture(t, sc)

	pairs := make([]pair, 20)
	for i := range pairs {
		pairs[i] = pair{buyer: &models.Profile{ID: "buyer-1"}, listing: &models.Listing{ID: fmt.Sprintf("l-%d", i)}}
	}

	out := f.gen.scoreAll(pairs)
	require.Len(t, out, 20)
	for i, s := range out {
		assert.Equal(t, i, s.result.Score)
		assert.Equal(t, pairs[i].listing.ID, s.listing.ID)
	}
	assert.LessOrEqual(t, sc.peak.Load(), int32(3))
}

// ==========================
// End to end with the real scorer
// ==========================

func TestGenerateForBuyer_WithDefaultScorer(t *testing.T) {
	st := memstore.New()
	years := 12
	st.AddProfile(&models.Profile{
		ID: "buyer-1", Role: models.RoleBuyer, IsActive: true, ExperienceYears: &years,
		Preferences: &models.Preferences{
			BusinessTypes: []string{"restaurant"},
			PriceMin:      200000,
			PriceMax:      500000,
			Locations:     []string{"Austin, TX"},
			Timeline:      "90_days",
		},
		Financing: &models.FinancingDetails{CashAvailable: 300000, LoanApproved: 200000},
	})
	st.AddListing(&models.Listing{
		ID: "good", SellerID: "s-1", BusinessType: "restaurant", AskingPrice: 350000,
		Location: "Austin, TX", City: "Austin", State: "TX", Timeline: "90_days",
		Status: models.ListingActive,
	})
	st.AddListing(&models.Listing{
		ID: "poor", SellerID: "s-2", BusinessType: "manufacturing", AskingPrice: 590000,
		Location: "Miami, FL", City: "Miami", State: "FL", Timeline: "immediate",
		AnnualRevenue: 9000000, Status: models.ListingActive,
	})
	st.AddListing(&models.Listing{
		ID: "pricey", SellerID: "s-3", BusinessType: "restaurant", AskingPrice: 2000000,
		Status: models.ListingActive,
	})

	sel := candidates.NewSelector(st, st, candidates.DefaultConfig())
	gen := New(DefaultConfig(), Deps{
		Profiles: st, Listings: st, Matches: st, Candidates: sel,
		Scorer: scoring.MustDefault(), Notifier: st, Lock: st,
	}, logger.NewNoOpLogger())

	res, err := gen.GenerateForBuyer(context.Background(), "buyer-1", Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalCandidates, "listing above the price ceiling is not a candidate")
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "good", res.Matches[0].ListingID)
	assert.GreaterOrEqual(t, res.Matches[0].CompatibilityScore, 85)
	assert.NotEmpty(t, res.Matches[0].MatchReasons)
}
