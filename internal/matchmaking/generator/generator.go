// Package generator produces and persists ranked matches for a buyer or for a
// seller's listing.
package generator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/common/metrics"
	"brokerage-matchmaking/internal/matchmaking/scoring"
	"brokerage-matchmaking/internal/models"
	"brokerage-matchmaking/internal/store"
)

const (
	DefaultMinScore           = 60
	DefaultLimit              = 10
	DefaultRegenerationWindow = 24 * time.Hour
	DefaultConcurrency        = 8
	DefaultLockTTL            = time.Minute
	DefaultAlgorithmVersion   = "v1.0"

	DirectionBuyer  = "buyer"
	DirectionSeller = "seller"
)

// Scorer is the slice of scoring.Scorer the generator needs.
type Scorer interface {
	Score(buyer *models.Profile, listing *models.Listing) scoring.Result
}

// CandidateSource is the slice of candidates.Selector the generator needs.
type CandidateSource interface {
	ListingsForBuyer(ctx context.Context, buyer *models.Profile) ([]*models.Listing, error)
	BuyersForListing(ctx context.Context) ([]*models.Profile, error)
}

type Config struct {
	MinScore           int
	DefaultLimit       int
	RegenerationWindow time.Duration
	Concurrency        int
	LockTTL            time.Duration
	AlgorithmVersion   string
}

func DefaultConfig() Config {
	return Config{
		MinScore:           DefaultMinScore,
		DefaultLimit:       DefaultLimit,
		RegenerationWindow: DefaultRegenerationWindow,
		Concurrency:        DefaultConcurrency,
		LockTTL:            DefaultLockTTL,
		AlgorithmVersion:   DefaultAlgorithmVersion,
	}
}

// Deps are the collaborators of a Generator. Lock and Notifier may be nil.
type Deps struct {
	Profiles   store.ProfileStore
	Listings   store.ListingStore
	Matches    store.MatchStore
	Candidates CandidateSource
	Scorer     Scorer
	Notifier   store.Notifier
	Lock       store.GenerationLock
}

type Generator struct {
	cfg    Config
	deps   Deps
	logger logger.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// Options tune one generation run. Limit <= 0 uses the configured default.
type Options struct {
	Limit int
	Force bool
}

type Result struct {
	Matches             []*models.Match `json:"matches"`
	TotalCandidates     int             `json:"totalCandidates"`
	QualifiedCandidates int             `json:"qualifiedCandidates"`
	Skipped             int             `json:"skipped"`
	Failed              int             `json:"failed"`
}

func New(cfg Config, deps Deps, log logger.Logger) *Generator {
	def := DefaultConfig()
	if cfg.MinScore <= 0 {
		cfg.MinScore = def.MinScore
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.RegenerationWindow <= 0 {
		cfg.RegenerationWindow = def.RegenerationWindow
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = def.LockTTL
	}
	if cfg.AlgorithmVersion == "" {
		cfg.AlgorithmVersion = def.AlgorithmVersion
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Generator{
		cfg:    cfg,
		deps:   deps,
		logger: log,
		tracer: otel.Tracer("brokerage-matchmaking/generator"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Used by tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// pair is one (buyer, listing) combination to score.
type pair struct {
	buyer   *models.Profile
	listing *models.Listing
}

type scored struct {
	pair
	result scoring.Result
}

// GenerateForBuyer scores active listings against the buyer and persists the
// top matches.
func (g *Generator) GenerateForBuyer(ctx context.Context, buyerID string, opts Options) (*Result, error) {
	if buyerID == "" {
		return nil, apperrors.NewValidationError("buyerId is required")
	}

	ctx, span := g.tracer.Start(ctx, "matchmaking.generate_for_buyer",
		trace.WithAttributes(attribute.String("buyer_id", buyerID)))
	defer span.End()

	result, err := g.generateForBuyer(ctx, buyerID, opts)
	g.finish(span, DirectionBuyer, result, err)
	return result, err
}

func (g *Generator) generateForBuyer(ctx context.Context, buyerID string, opts Options) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.GenerationDuration.WithLabelValues(DirectionBuyer).Observe(time.Since(start).Seconds())
	}()

	buyer, err := g.loadProfile(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if buyer.Role != models.RoleBuyer {
		return nil, apperrors.NewValidationError(fmt.Sprintf("profile %s is not a buyer", buyerID))
	}

	release, err := g.guard(ctx, DirectionBuyer, buyerID, models.RoleBuyer, opts.Force)
	if err != nil {
		return nil, err
	}
	defer release()

	listings, err := g.deps.Candidates.ListingsForBuyer(ctx, buyer)
	if err != nil {
		return nil, err
	}

	pairs := make([]pair, len(listings))
	for i, l := range listings {
		pairs[i] = pair{buyer: buyer, listing: l}
	}

	result := g.rankAndPersist(ctx, DirectionBuyer, pairs, opts)
	g.notifyNewMatches(ctx, buyerID, result.Matches)

	g.logger.Info("Generated matches for buyer", map[string]interface{}{
		"buyerId":   buyerID,
		"total":     result.TotalCandidates,
		"qualified": result.QualifiedCandidates,
		"created":   len(result.Matches),
		"skipped":   result.Skipped,
		"failed":    result.Failed,
	})
	return result, nil
}

// GenerateForSeller scores active buyers against one of the seller's
// listings and persists the top matches.
func (g *Generator) GenerateForSeller(ctx context.Context, sellerID, listingID string, opts Options) (*Result, error) {
	if sellerID == "" || listingID == "" {
		return nil, apperrors.NewValidationError("sellerId and listingId are required")
	}

	ctx, span := g.tracer.Start(ctx, "matchmaking.generate_for_seller",
		trace.WithAttributes(
			attribute.String("seller_id", sellerID),
			attribute.String("listing_id", listingID),
		))
	defer span.End()

	result, err := g.generateForSeller(ctx, sellerID, listingID, opts)
	g.finish(span, DirectionSeller, result, err)
	return result, err
}

func (g *Generator) generateForSeller(ctx context.Context, sellerID, listingID string, opts Options) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.GenerationDuration.WithLabelValues(DirectionSeller).Observe(time.Since(start).Seconds())
	}()

	if _, err := g.loadProfile(ctx, sellerID); err != nil {
		return nil, err
	}

	listing, err := g.deps.Listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, asStoreError("get_listing", err)
	}
	if listing.SellerID != sellerID {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("listing %s does not belong to seller %s", listingID, sellerID))
	}
	if listing.Status != models.ListingActive {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("listing %s is %s, not active", listingID, listing.Status))
	}

	release, err := g.guard(ctx, DirectionSeller, sellerID, models.RoleSeller, opts.Force)
	if err != nil {
		return nil, err
	}
	defer release()

	buyers, err := g.deps.Candidates.BuyersForListing(ctx)
	if err != nil {
		return nil, err
	}

	pairs := make([]pair, len(buyers))
	for i, b := range buyers {
		pairs[i] = pair{buyer: b, listing: listing}
	}

	result := g.rankAndPersist(ctx, DirectionSeller, pairs, opts)
	g.notifyNewMatches(ctx, sellerID, result.Matches)

	g.logger.Info("Generated matches for listing", map[string]interface{}{
		"sellerId":  sellerID,
		"listingId": listingID,
		"total":     result.TotalCandidates,
		"qualified": result.QualifiedCandidates,
		"created":   len(result.Matches),
		"skipped":   result.Skipped,
		"failed":    result.Failed,
	})
	return result, nil
}

func (g *Generator) loadProfile(ctx context.Context, id string) (*models.Profile, error) {
	p, err := g.deps.Profiles.GetProfile(ctx, id)
	if err != nil {
		return nil, asStoreError("get_profile", err)
	}
	return p, nil
}

// guard enforces the regeneration window and takes the per-subject lock.
// The returned release func is always safe to call.
func (g *Generator) guard(ctx context.Context, direction, subjectID string, role models.Role, force bool) (func(), error) {
	noop := func() {}

	if !force {
		since := g.now().Add(-g.cfg.RegenerationWindow)
		recent, err := g.deps.Matches.HasRecentMatch(ctx, subjectID, role, since)
		if err != nil {
			return noop, asStoreError("has_recent_match", err)
		}
		if recent {
			return noop, apperrors.NewDuplicateGenerationError(subjectID).
				WithMetadata("window", g.cfg.RegenerationWindow.String())
		}
	}

	if g.deps.Lock == nil {
		return noop, nil
	}

	key := fmt.Sprintf("matchmaking:generate:%s:%s", direction, subjectID)
	release, acquired, err := g.deps.Lock.Acquire(ctx, key, g.cfg.LockTTL)
	if err != nil {
		return noop, asStoreError("acquire_generation_lock", err)
	}
	if !acquired {
		return noop, apperrors.NewDuplicateGenerationError(subjectID).
			WithMetadata("reason", "generation in progress")
	}
	return release, nil
}

// rankAndPersist scores all pairs, keeps those above the threshold, ranks
// them and writes the top opts.Limit as matches.
func (g *Generator) rankAndPersist(ctx context.Context, direction string, pairs []pair, opts Options) *Result {
	limit := opts.Limit
	if limit <= 0 {
		limit = g.cfg.DefaultLimit
	}

	all := g.scoreAll(pairs)
	metrics.CandidatesScored.WithLabelValues(direction).Observe(float64(len(all)))

	qualified := make([]scored, 0, len(all))
	for _, s := range all {
		metrics.CompatibilityScores.Observe(float64(s.result.Score))
		if s.result.Score >= g.cfg.MinScore {
			qualified = append(qualified, s)
		}
	}

	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].result.Score > qualified[j].result.Score
	})

	top := qualified
	if len(top) > limit {
		top = top[:limit]
	}

	result := &Result{
		Matches:             make([]*models.Match, 0, len(top)),
		TotalCandidates:     len(pairs),
		QualifiedCandidates: len(qualified),
	}

	for _, s := range top {
		m, err := g.deps.Matches.CreateMatch(ctx, g.newMatch(s))
		switch {
		case err == nil:
			result.Matches = append(result.Matches, m)
		case apperrors.IsCode(err, apperrors.ErrCodeDuplicateMatch):
			result.Skipped++
			metrics.MatchWriteFailures.WithLabelValues("duplicate").Inc()
		default:
			result.Failed++
			metrics.MatchWriteFailures.WithLabelValues("store").Inc()
			g.logger.Warn("Failed to persist match", map[string]interface{}{
				"buyerId":   s.buyer.ID,
				"listingId": s.listing.ID,
				"score":     s.result.Score,
				"error":     err,
			})
		}
	}

	metrics.MatchesCreated.WithLabelValues(direction).Add(float64(len(result.Matches)))
	return result
}

// scoreAll scores pairs with at most cfg.Concurrency in flight. Output order
// matches input order.
func (g *Generator) scoreAll(pairs []pair) []scored {
	out := make([]scored, len(pairs))
	var eg errgroup.Group
	eg.SetLimit(g.cfg.Concurrency)

	for i := range pairs {
		eg.Go(func() error {
			p := pairs[i]
			out[i] = scored{pair: p, result: g.deps.Scorer.Score(p.buyer, p.listing)}
			return nil
		})
	}

	_ = eg.Wait()
	return out
}

func (g *Generator) newMatch(s scored) *models.Match {
	now := g.now()
	return &models.Match{
		BuyerID:            s.buyer.ID,
		SellerID:           s.listing.SellerID,
		ListingID:          s.listing.ID,
		CompatibilityScore: s.result.Score,
		MatchReasons:       s.result.Reasons,
		ScoreBreakdown:     s.result.Breakdown,
		Status:             models.StatusGenerated,
		AlgorithmVersion:   g.cfg.AlgorithmVersion,
		GeneratedAt:        now,
		UpdatedAt:          now,
	}
}

func (g *Generator) notifyNewMatches(ctx context.Context, userID string, matches []*models.Match) {
	if g.deps.Notifier == nil || len(matches) == 0 {
		return
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}

	priority := models.PriorityMedium
	if matches[0].CompatibilityScore >= 90 {
		priority = models.PriorityHigh
	}

	n := models.Notification{
		Type:     models.NotificationNewMatches,
		Title:    "New matches available",
		Message:  fmt.Sprintf("We found %d new matches for you", len(matches)),
		Priority: priority,
		Data: map[string]interface{}{
			"count":    len(matches),
			"matchIds": ids,
			"topScore": matches[0].CompatibilityScore,
		},
	}

	if err := g.deps.Notifier.Notify(ctx, userID, n); err != nil {
		g.logger.Warn("Failed to send new matches notification", map[string]interface{}{
			"userId": userID,
			"error":  err,
		})
	}
}

func (g *Generator) finish(span trace.Span, direction string, result *Result, err error) {
	switch {
	case err == nil:
		metrics.MatchGenerations.WithLabelValues(direction, "success").Inc()
		span.SetAttributes(
			attribute.Int("candidates.total", result.TotalCandidates),
			attribute.Int("candidates.qualified", result.QualifiedCandidates),
			attribute.Int("matches.created", len(result.Matches)),
		)
	case apperrors.IsCode(err, apperrors.ErrCodeDuplicateGeneration):
		metrics.MatchGenerations.WithLabelValues(direction, "duplicate").Inc()
		span.SetAttributes(attribute.Bool("duplicate", true))
	default:
		metrics.MatchGenerations.WithLabelValues(direction, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func asStoreError(op string, err error) error {
	if _, ok := apperrors.AsStandardError(err); ok {
		return err
	}
	return apperrors.NewStoreError(op, err)
}
