package lifecycle

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/common/metrics"
	"brokerage-matchmaking/internal/models"
)

const (
	MinRating = 1
	MaxRating = 5
)

type FeedbackInput struct {
	MatchID  string
	UserID   string
	Rating   int
	Type     models.FeedbackType
	Comments string
	Helpful  *bool
	Reasons  []string
}

type FeedbackResult struct {
	Feedback     *models.Feedback `json:"feedback"`
	QualityScore int              `json:"qualityScore"`
}

// QualityScore maps the mean of 1-5 ratings onto 0-100. Nil when there are
// no ratings.
func QualityScore(ratings []int) *int {
	if len(ratings) == 0 {
		return nil
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(ratings))
	q := int(math.Round(avg * 20))
	return &q
}

func qualityOf(feedback []*models.Feedback) *int {
	ratings := make([]int, len(feedback))
	for i, f := range feedback {
		ratings[i] = f.Rating
	}
	return QualityScore(ratings)
}

// ProvideFeedback stores a rating, recomputes the match quality score from
// every rating on the match and records the learning sample.
func (m *Manager) ProvideFeedback(ctx context.Context, in FeedbackInput) (*FeedbackResult, error) {
	if in.MatchID == "" || in.UserID == "" {
		return nil, apperrors.NewValidationError("matchId and userId are required")
	}
	if in.Rating < MinRating || in.Rating > MaxRating {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("rating must be between %d and %d, got %d", MinRating, MaxRating, in.Rating))
	}
	if in.Type == "" {
		in.Type = models.FeedbackOverall
	}
	if !in.Type.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown feedback type %q", in.Type))
	}

	ctx, span := m.tracer.Start(ctx, "matchmaking.provide_feedback", trace.WithAttributes(
		attribute.String("match_id", in.MatchID),
		attribute.Int("rating", in.Rating),
	))
	defer span.End()

	match, err := m.deps.Matches.GetMatch(ctx, in.MatchID)
	if err != nil {
		return nil, asStoreError("get_match", err)
	}

	fb, err := m.deps.Feedback.CreateFeedback(ctx, &models.Feedback{
		MatchID:      in.MatchID,
		UserID:       in.UserID,
		Rating:       in.Rating,
		FeedbackType: in.Type,
		Comments:     in.Comments,
		Helpful:      in.Helpful,
		Reasons:      in.Reasons,
		CreatedAt:    m.now(),
	})
	if err != nil {
		return nil, asStoreError("create_feedback", err)
	}
	metrics.FeedbackRatings.Observe(float64(in.Rating))

	all, err := m.deps.Feedback.ListFeedbackForMatch(ctx, in.MatchID)
	if err != nil {
		return nil, asStoreError("list_feedback", err)
	}
	quality := qualityOf(all)
	if quality == nil {
		// The row just written is not visible yet; score it alone.
		quality = QualityScore([]int{in.Rating})
	}

	if _, err := m.deps.Matches.UpdateMatch(ctx, in.MatchID, models.MatchPatch{QualityScore: quality}); err != nil {
		return nil, asStoreError("update_quality_score", err)
	}

	m.logInteraction(ctx, in.MatchID, in.UserID, models.InteractionFeedbackProvided, map[string]interface{}{
		"feedbackId":   fb.ID,
		"rating":       in.Rating,
		"feedbackType": string(in.Type),
	})
	m.recordLearning(ctx, match, fb)

	m.logger.Info("Match feedback recorded", map[string]interface{}{
		"matchId":      in.MatchID,
		"userId":       in.UserID,
		"rating":       in.Rating,
		"qualityScore": *quality,
	})
	return &FeedbackResult{Feedback: fb, QualityScore: *quality}, nil
}

func (m *Manager) recordLearning(ctx context.Context, match *models.Match, fb *models.Feedback) {
	if m.deps.Learning == nil {
		return
	}
	err := m.deps.Learning.RecordLearningData(ctx, &models.LearningRecord{
		MatchID:            match.ID,
		UserID:             fb.UserID,
		CompatibilityScore: match.CompatibilityScore,
		ScoreBreakdown:     match.ScoreBreakdown,
		Rating:             fb.Rating,
		FeedbackType:       fb.FeedbackType,
		Helpful:            fb.Helpful,
		Reasons:            fb.Reasons,
		AlgorithmVersion:   match.AlgorithmVersion,
		CreatedAt:          m.now(),
	})
	if err != nil {
		m.logger.Warn("Failed to record learning data", map[string]interface{}{
			"matchId": match.ID,
			"error":   err,
		})
	}
}
