// Package store declares the collaborators the matchmaking core reads from
// and writes to. Implementations return StandardErrors: NOT_FOUND for
// missing records, STORE_FAILED for I/O failures and DUPLICATE_MATCH when an
// active match already exists for a pair.
package store

import (
	"context"
	"time"

	"brokerage-matchmaking/internal/models"
)

type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	// ListActiveBuyers returns active buyer profiles, most recently active first.
	ListActiveBuyers(ctx context.Context, limit int) ([]*models.Profile, error)
}

type ListingStore interface {
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	// ListActiveListings returns active listings, newest first. A nil ceiling
	// disables the price filter.
	ListActiveListings(ctx context.Context, priceCeiling *float64, limit int) ([]*models.Listing, error)
}

type MatchStore interface {
	CreateMatch(ctx context.Context, m *models.Match) (*models.Match, error)
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	UpdateMatch(ctx context.Context, id string, patch models.MatchPatch) (*models.Match, error)
	// HasRecentMatch reports whether a match was generated for the subject
	// (buyer or seller, per role) since the given time.
	HasRecentMatch(ctx context.Context, userID string, role models.Role, since time.Time) (bool, error)
	ListMatchesForUser(ctx context.Context, userID string, role models.Role, filter MatchFilter) ([]*models.Match, error)
	// ExpireMatches moves non-terminal matches generated before cutoff to expired.
	ExpireMatches(ctx context.Context, cutoff time.Time) (int, error)
}

// MatchFilter narrows ListMatchesForUser. Zero values mean "no filter".
type MatchFilter struct {
	Status   models.MatchStatus
	MinScore int
	Limit    int
}

type FeedbackStore interface {
	CreateFeedback(ctx context.Context, f *models.Feedback) (*models.Feedback, error)
	ListFeedbackForMatch(ctx context.Context, matchID string) ([]*models.Feedback, error)
	ListFeedbackByUser(ctx context.Context, userID string) ([]*models.Feedback, error)
}

type InteractionStore interface {
	CreateInteraction(ctx context.Context, i *models.Interaction) (*models.Interaction, error)
	ListInteractionsForMatch(ctx context.Context, matchID string) ([]*models.Interaction, error)
}

type LearningStore interface {
	RecordLearningData(ctx context.Context, r *models.LearningRecord) error
}

// Notifier delivers a notification to a user. Callers treat it as
// fire-and-forget and only log failures.
type Notifier interface {
	Notify(ctx context.Context, userID string, n models.Notification) error
}

// GenerationLock serializes generation runs for one subject.
type GenerationLock interface {
	// Acquire returns false when another run holds the lock.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}
