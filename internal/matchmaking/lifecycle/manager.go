// Package lifecycle moves matches through their status state machine and
// tracks the feedback and interactions recorded against them.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/common/metrics"
	"brokerage-matchmaking/internal/models"
	"brokerage-matchmaking/internal/store"
)

// Deps are the collaborators of a Manager. Notifier and Learning may be nil.
type Deps struct {
	Matches      store.MatchStore
	Feedback     store.FeedbackStore
	Interactions store.InteractionStore
	Learning     store.LearningStore
	Profiles     store.ProfileStore
	Listings     store.ListingStore
	Notifier     store.Notifier
}

type Manager struct {
	deps   Deps
	policy Policy
	logger logger.Logger
	tracer trace.Tracer
	now    func() time.Time
}

func NewManager(deps Deps, policy Policy, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Manager{
		deps:   deps,
		policy: policy,
		logger: log,
		tracer: otel.Tracer("brokerage-matchmaking/lifecycle"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Used by tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) Policy() Policy {
	return m.policy
}

// notifiedStatuses trigger a match_update notification to both parties.
var notifiedStatuses = map[models.MatchStatus]bool{
	models.StatusInterested:       true,
	models.StatusContacted:        true,
	models.StatusMeetingScheduled: true,
}

type StatusUpdate struct {
	MatchID string
	Status  models.MatchStatus
	UserID  string
	Notes   string
}

// UpdateStatus validates and applies a status change. Writing the current
// status again returns the match unchanged.
func (m *Manager) UpdateStatus(ctx context.Context, u StatusUpdate) (*models.Match, error) {
	if u.MatchID == "" || u.UserID == "" {
		return nil, apperrors.NewValidationError("matchId and userId are required")
	}
	if !u.Status.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown match status %q", u.Status))
	}

	ctx, span := m.tracer.Start(ctx, "matchmaking.update_status", trace.WithAttributes(
		attribute.String("match_id", u.MatchID),
		attribute.String("status", string(u.Status)),
	))
	defer span.End()

	match, err := m.deps.Matches.GetMatch(ctx, u.MatchID)
	if err != nil {
		return nil, asStoreError("get_match", err)
	}

	from := match.Status
	if from == u.Status {
		return match, nil
	}
	if err := CheckTransition(from, u.Status, m.policy); err != nil {
		return nil, err
	}

	status := u.Status
	patch := models.MatchPatch{Status: &status, ExpectedStatus: &from}
	if u.Notes != "" {
		notes := u.Notes
		patch.Notes = &notes
	}

	updated, err := m.deps.Matches.UpdateMatch(ctx, u.MatchID, patch)
	if err != nil {
		return nil, asStoreError("update_match", err)
	}
	metrics.StatusTransitions.WithLabelValues(string(from), string(u.Status)).Inc()

	meta := map[string]interface{}{
		"from": string(from),
		"to":   string(u.Status),
	}
	if u.Notes != "" {
		meta["notes"] = u.Notes
	}
	m.logInteraction(ctx, u.MatchID, u.UserID, models.InteractionStatusChange, meta)

	if notifiedStatuses[u.Status] {
		m.notifyParties(ctx, updated, from, u.UserID)
	}

	m.logger.Info("Match status updated", map[string]interface{}{
		"matchId": u.MatchID,
		"from":    from,
		"to":      u.Status,
		"userId":  u.UserID,
	})
	return updated, nil
}

func (m *Manager) notifyParties(ctx context.Context, match *models.Match, from models.MatchStatus, actorID string) {
	if m.deps.Notifier == nil {
		return
	}

	n := models.Notification{
		Type:     models.NotificationMatchUpdate,
		Title:    "Match update",
		Message:  fmt.Sprintf("A match moved to %s", humanStatus(match.Status)),
		Priority: models.PriorityMedium,
		Data: map[string]interface{}{
			"matchId":        match.ID,
			"listingId":      match.ListingID,
			"status":         string(match.Status),
			"previousStatus": string(from),
			"updatedBy":      actorID,
		},
	}

	for _, userID := range []string{match.BuyerID, match.SellerID} {
		if userID == "" {
			continue
		}
		if err := m.deps.Notifier.Notify(ctx, userID, n); err != nil {
			m.logger.Warn("Failed to send match update notification", map[string]interface{}{
				"matchId": match.ID,
				"userId":  userID,
				"error":   err,
			})
		}
	}
}

func humanStatus(s models.MatchStatus) string {
	switch s {
	case models.StatusMeetingScheduled:
		return "meeting scheduled"
	case models.StatusNotInterested:
		return "not interested"
	case models.StatusInNegotiation:
		return "in negotiation"
	case models.StatusDealCreated:
		return "deal created"
	}
	return string(s)
}

func (m *Manager) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("matchId is required")
	}
	match, err := m.deps.Matches.GetMatch(ctx, id)
	if err != nil {
		return nil, asStoreError("get_match", err)
	}
	return match, nil
}

type InteractionInput struct {
	MatchID  string
	UserID   string
	Type     models.InteractionType
	Metadata map[string]interface{}
}

// RecordInteraction appends an audit entry for a user action on a match.
func (m *Manager) RecordInteraction(ctx context.Context, in InteractionInput) (*models.Interaction, error) {
	if in.MatchID == "" || in.UserID == "" {
		return nil, apperrors.NewValidationError("matchId and userId are required")
	}
	if !in.Type.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown interaction type %q", in.Type))
	}

	if _, err := m.deps.Matches.GetMatch(ctx, in.MatchID); err != nil {
		return nil, asStoreError("get_match", err)
	}

	created, err := m.deps.Interactions.CreateInteraction(ctx, &models.Interaction{
		MatchID:         in.MatchID,
		UserID:          in.UserID,
		InteractionType: in.Type,
		Metadata:        in.Metadata,
		CreatedAt:       m.now(),
	})
	if err != nil {
		return nil, asStoreError("create_interaction", err)
	}
	return created, nil
}

// logInteraction records a side-effect interaction; failures are logged only.
func (m *Manager) logInteraction(ctx context.Context, matchID, userID string, t models.InteractionType, meta map[string]interface{}) {
	_, err := m.deps.Interactions.CreateInteraction(ctx, &models.Interaction{
		MatchID:         matchID,
		UserID:          userID,
		InteractionType: t,
		Metadata:        meta,
		CreatedAt:       m.now(),
	})
	if err != nil {
		m.logger.Warn("Failed to record interaction", map[string]interface{}{
			"matchId": matchID,
			"type":    t,
			"error":   err,
		})
	}
}

type Filter struct {
	Status   models.MatchStatus
	MinScore int
	Limit    int
}

// ListMatches returns the user's matches, best score first.
func (m *Manager) ListMatches(ctx context.Context, userID string, role models.Role, f Filter) ([]*models.Match, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userId is required")
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown role %q", role))
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown match status %q", f.Status))
	}

	matches, err := m.deps.Matches.ListMatchesForUser(ctx, userID, role, store.MatchFilter{
		Status:   f.Status,
		MinScore: f.MinScore,
		Limit:    f.Limit,
	})
	if err != nil {
		return nil, asStoreError("list_matches", err)
	}
	return matches, nil
}

// ExpireStale expires every non-terminal match generated more than maxAge ago.
func (m *Manager) ExpireStale(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, apperrors.NewValidationError("maxAge must be positive")
	}

	cutoff := m.now().Add(-maxAge)
	n, err := m.deps.Matches.ExpireMatches(ctx, cutoff)
	if err != nil {
		return 0, asStoreError("expire_matches", err)
	}
	if n > 0 {
		metrics.StatusTransitions.WithLabelValues("any", string(models.StatusExpired)).Add(float64(n))
	}

	m.logger.Info("Expired stale matches", map[string]interface{}{
		"cutoff":  cutoff.Format(time.RFC3339),
		"expired": n,
	})
	return n, nil
}

func asStoreError(op string, err error) error {
	if _, ok := apperrors.AsStandardError(err); ok {
		return err
	}
	return apperrors.NewStoreError(op, err)
}
