package lifecycle

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/models"
	"brokerage-matchmaking/internal/store"
)

const (
	recentWindow       = 7 * 24 * time.Hour
	highQualityScore   = 80
	BandExcellent      = "90-100"
	BandStrong         = "80-89"
	BandGood           = "70-79"
	BandFair           = "60-69"
	BandBelowThreshold = "<60"
)

// activeStatuses are contacted or later on the positive path.
var activeStatuses = map[models.MatchStatus]bool{
	models.StatusContacted:        true,
	models.StatusMeetingScheduled: true,
	models.StatusInNegotiation:    true,
	models.StatusDealCreated:      true,
}

type FeedbackSummary struct {
	Count          int     `json:"count"`
	AverageRating  float64 `json:"averageRating"`
	HelpfulPercent float64 `json:"helpfulPercent"`
}

type Statistics struct {
	UserID             string                     `json:"userId"`
	Role               models.Role                `json:"role"`
	TotalMatches       int                        `json:"totalMatches"`
	AverageScore       float64                    `json:"averageScore"`
	StatusCounts       map[models.MatchStatus]int `json:"statusCounts"`
	ScoreBands         map[string]int             `json:"scoreBands"`
	RecentMatches      int                        `json:"recentMatches"`
	HighQualityMatches int                        `json:"highQualityMatches"`
	ActiveMatches      int                        `json:"activeMatches"`
	Feedback           FeedbackSummary            `json:"feedback"`
}

func scoreBand(score int) string {
	switch {
	case score >= 90:
		return BandExcellent
	case score >= 80:
		return BandStrong
	case score >= 70:
		return BandGood
	case score >= 60:
		return BandFair
	default:
		return BandBelowThreshold
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// GetStatistics aggregates the user's matches and the feedback the user gave.
func (m *Manager) GetStatistics(ctx context.Context, userID string, role models.Role) (*Statistics, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userId is required")
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown role %q", role))
	}

	matches, err := m.deps.Matches.ListMatchesForUser(ctx, userID, role, store.MatchFilter{})
	if err != nil {
		return nil, asStoreError("list_matches", err)
	}

	stats := &Statistics{
		UserID:       userID,
		Role:         role,
		TotalMatches: len(matches),
		StatusCounts: make(map[models.MatchStatus]int),
		ScoreBands: map[string]int{
			BandExcellent:      0,
			BandStrong:         0,
			BandGood:           0,
			BandFair:           0,
			BandBelowThreshold: 0,
		},
	}

	since := m.now().Add(-recentWindow)
	total := 0
	for _, match := range matches {
		total += match.CompatibilityScore
		stats.StatusCounts[match.Status]++
		stats.ScoreBands[scoreBand(match.CompatibilityScore)]++
		if !match.GeneratedAt.Before(since) {
			stats.RecentMatches++
		}
		if match.CompatibilityScore >= highQualityScore {
			stats.HighQualityMatches++
		}
		if activeStatuses[match.Status] {
			stats.ActiveMatches++
		}
	}
	if len(matches) > 0 {
		stats.AverageScore = round1(float64(total) / float64(len(matches)))
	}

	feedback, err := m.deps.Feedback.ListFeedbackByUser(ctx, userID)
	if err != nil {
		return nil, asStoreError("list_feedback_by_user", err)
	}
	stats.Feedback = summarizeFeedback(feedback)

	return stats, nil
}

func summarizeFeedback(feedback []*models.Feedback) FeedbackSummary {
	s := FeedbackSummary{Count: len(feedback)}
	if len(feedback) == 0 {
		return s
	}
	ratings, helpful := 0, 0
	for _, f := range feedback {
		ratings += f.Rating
		if f.Helpful != nil && *f.Helpful {
			helpful++
		}
	}
	s.AverageRating = round1(float64(ratings) / float64(len(feedback)))
	s.HelpfulPercent = round1(float64(helpful) * 100 / float64(len(feedback)))
	return s
}

type InteractionSummary struct {
	Total             int                            `json:"total"`
	ByType            map[models.InteractionType]int `json:"byType"`
	LastInteractionAt *time.Time                     `json:"lastInteractionAt,omitempty"`
}

type MatchDetails struct {
	Match        *models.Match          `json:"match"`
	Buyer        *models.ProfileSummary `json:"buyer,omitempty"`
	Seller       *models.ProfileSummary `json:"seller,omitempty"`
	Listing      *models.ListingSummary `json:"listing,omitempty"`
	Feedback     []*models.Feedback     `json:"feedback"`
	Interactions InteractionSummary     `json:"interactions"`
	QualityScore *int                   `json:"qualityScore,omitempty"`
}

// GetMatchDetails returns the match with party and listing summaries, its
// feedback and an interaction summary. Missing parties or listings leave the
// corresponding summary nil.
func (m *Manager) GetMatchDetails(ctx context.Context, matchID string) (*MatchDetails, error) {
	if matchID == "" {
		return nil, apperrors.NewValidationError("matchId is required")
	}

	ctx, span := m.tracer.Start(ctx, "matchmaking.get_match_details",
		trace.WithAttributes(attribute.String("match_id", matchID)))
	defer span.End()

	match, err := m.deps.Matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, asStoreError("get_match", err)
	}

	details := &MatchDetails{Match: match}
	details.Buyer = m.profileSummary(ctx, match.BuyerID)
	details.Seller = m.profileSummary(ctx, match.SellerID)

	if m.deps.Listings != nil {
		if l, err := m.deps.Listings.GetListing(ctx, match.ListingID); err == nil {
			s := l.Summary()
			details.Listing = &s
		} else {
			m.logger.Warn("Failed to load listing for match details", map[string]interface{}{
				"matchId":   matchID,
				"listingId": match.ListingID,
				"error":     err,
			})
		}
	}

	feedback, err := m.deps.Feedback.ListFeedbackForMatch(ctx, matchID)
	if err != nil {
		return nil, asStoreError("list_feedback", err)
	}
	if feedback == nil {
		feedback = []*models.Feedback{}
	}
	details.Feedback = feedback
	details.QualityScore = qualityOf(feedback)

	interactions, err := m.deps.Interactions.ListInteractionsForMatch(ctx, matchID)
	if err != nil {
		return nil, asStoreError("list_interactions", err)
	}
	details.Interactions = summarizeInteractions(interactions)

	return details, nil
}

func (m *Manager) profileSummary(ctx context.Context, id string) *models.ProfileSummary {
	if m.deps.Profiles == nil || id == "" {
		return nil
	}
	p, err := m.deps.Profiles.GetProfile(ctx, id)
	if err != nil {
		m.logger.Warn("Failed to load profile for match details", map[string]interface{}{
			"profileId": id,
			"error":     err,
		})
		return nil
	}
	s := p.Summary()
	return &s
}

func summarizeInteractions(interactions []*models.Interaction) InteractionSummary {
	s := InteractionSummary{
		Total:  len(interactions),
		ByType: make(map[models.InteractionType]int),
	}
	for _, i := range interactions {
		s.ByType[i.InteractionType]++
		if s.LastInteractionAt == nil || i.CreatedAt.After(*s.LastInteractionAt) {
			t := i.CreatedAt
			s.LastInteractionAt = &t
		}
	}
	return s
}
