// Package memstore is an in-process implementation of every store interface.
// It backs unit tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/models"
	"brokerage-matchmaking/internal/store"
)

// Store keeps everything in maps guarded by one mutex. Hook fields let tests
// inject failures; they are called with the lock released.
type Store struct {
	mu           sync.Mutex
	profiles     map[string]*models.Profile
	listings     map[string]*models.Listing
	matches      map[string]*models.Match
	feedback     []*models.Feedback
	interactions []*models.Interaction
	learning     []*models.LearningRecord
	sent         []SentNotification
	locks        map[string]time.Time
	seq          int

	Now func() time.Time

	CreateMatchHook func(m *models.Match) error
	NotifyHook      func(userID string, n models.Notification) error
	LearningHook    func(r *models.LearningRecord) error
}

// SentNotification records one Notify call.
type SentNotification struct {
	UserID       string
	Notification models.Notification
}

var (
	_ store.ProfileStore     = (*Store)(nil)
	_ store.ListingStore     = (*Store)(nil)
	_ store.MatchStore       = (*Store)(nil)
	_ store.FeedbackStore    = (*Store)(nil)
	_ store.InteractionStore = (*Store)(nil)
	_ store.LearningStore    = (*Store)(nil)
	_ store.Notifier         = (*Store)(nil)
	_ store.GenerationLock   = (*Store)(nil)
)

func New() *Store {
	return &Store{
		profiles: make(map[string]*models.Profile),
		listings: make(map[string]*models.Listing),
		matches:  make(map[string]*models.Match),
		locks:    make(map[string]time.Time),
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// ==========================
// Seeding and inspection
// ==========================

func (s *Store) AddProfile(p *models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.profiles[p.ID] = &cp
}

// AddListing stores l. Listings without CreatedAt are stamped in insertion
// order so newest-first ordering is stable.
func (s *Store) AddListing(l *models.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	if cp.CreatedAt.IsZero() {
		s.seq++
		cp.CreatedAt = time.Unix(int64(s.seq), 0).UTC()
	}
	s.listings[l.ID] = &cp
}

// PutMatch stores m as-is, bypassing uniqueness checks.
func (s *Store) PutMatch(m *models.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.matches[m.ID] = &cp
}

func (s *Store) Matches() []*models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Match, 0, len(s.matches))
	for _, m := range s.matches {
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Interactions() []*models.Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Interaction(nil), s.interactions...)
}

func (s *Store) LearningRecords() []*models.LearningRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.LearningRecord(nil), s.learning...)
}

func (s *Store) Sent() []SentNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentNotification(nil), s.sent...)
}

// ==========================
// ProfileStore / ListingStore
// ==========================

func (s *Store) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("profile", id)
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListActiveBuyers(ctx context.Context, limit int) ([]*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Profile
	for _, p := range s.profiles {
		if p.Role == models.RoleBuyer && p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastActiveAt, out[j].LastActiveAt
		switch {
		case a == nil && b == nil:
			return out[i].ID < out[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return out[i].ID < out[j].ID
		default:
			return a.After(*b)
		}
	})
	return truncate(out, limit), nil
}

func (s *Store) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("listing", id)
	}
	cp := *l
	return &cp, nil
}

func (s *Store) ListActiveListings(ctx context.Context, priceCeiling *float64, limit int) ([]*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Listing
	for _, l := range s.listings {
		if l.Status != models.ListingActive {
			continue
		}
		if priceCeiling != nil && l.AskingPrice > *priceCeiling {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return truncate(out, limit), nil
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// ==========================
// MatchStore
// ==========================

func (s *Store) CreateMatch(ctx context.Context, m *models.Match) (*models.Match, error) {
	if s.CreateMatchHook != nil {
		if err := s.CreateMatchHook(m); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.matches {
		if existing.BuyerID == m.BuyerID && existing.SellerID == m.SellerID &&
			existing.ListingID == m.ListingID && existing.Status != models.StatusExpired {
			return nil, apperrors.NewDuplicateMatchError(m.BuyerID, m.ListingID)
		}
	}

	cp := *m
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	now := s.Now()
	if cp.GeneratedAt.IsZero() {
		cp.GeneratedAt = now
	}
	cp.UpdatedAt = now
	s.matches[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (s *Store) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("match", id)
	}
	cp := *m
	return &cp, nil
}

func (s *Store) UpdateMatch(ctx context.Context, id string, patch models.MatchPatch) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("match", id)
	}
	if patch.ExpectedStatus != nil && m.Status != *patch.ExpectedStatus {
		return nil, apperrors.NewStatusConflictError(id, string(*patch.ExpectedStatus))
	}
	if patch.Status != nil {
		m.Status = *patch.Status
	}
	if patch.Notes != nil {
		m.Notes = *patch.Notes
	}
	if patch.QualityScore != nil {
		q := *patch.QualityScore
		m.QualityScore = &q
	}
	m.UpdatedAt = s.Now()
	cp := *m
	return &cp, nil
}

func (s *Store) HasRecentMatch(ctx context.Context, userID string, role models.Role, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.matches {
		if ownedBy(m, userID, role) && !m.GeneratedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListMatchesForUser(ctx context.Context, userID string, role models.Role, filter store.MatchFilter) ([]*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Match
	for _, m := range s.matches {
		if !ownedBy(m, userID, role) {
			continue
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		if m.CompatibilityScore < filter.MinScore {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CompatibilityScore != out[j].CompatibilityScore {
			return out[i].CompatibilityScore > out[j].CompatibilityScore
		}
		return out[i].ID < out[j].ID
	})
	return truncate(out, filter.Limit), nil
}

func (s *Store) ExpireMatches(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.matches {
		if m.Status == models.StatusExpired || m.Status == models.StatusDealCreated {
			continue
		}
		if m.GeneratedAt.Before(cutoff) {
			m.Status = models.StatusExpired
			m.UpdatedAt = s.Now()
			n++
		}
	}
	return n, nil
}

func ownedBy(m *models.Match, userID string, role models.Role) bool {
	switch role {
	case models.RoleBuyer:
		return m.BuyerID == userID
	case models.RoleSeller:
		return m.SellerID == userID
	default:
		return m.BuyerID == userID || m.SellerID == userID
	}
}

// ==========================
// Feedback / Interactions / Learning
// ==========================

func (s *Store) CreateFeedback(ctx context.Context, f *models.Feedback) (*models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.Now()
	}
	s.feedback = append(s.feedback, &cp)
	out := cp
	return &out, nil
}

func (s *Store) ListFeedbackForMatch(ctx context.Context, matchID string) ([]*models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Feedback
	for _, f := range s.feedback {
		if f.MatchID == matchID {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) ListFeedbackByUser(ctx context.Context, userID string) ([]*models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Feedback
	for _, f := range s.feedback {
		if f.UserID == userID {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) CreateInteraction(ctx context.Context, i *models.Interaction) (*models.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *i
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.Now()
	}
	s.interactions = append(s.interactions, &cp)
	out := cp
	return &out, nil
}

func (s *Store) ListInteractionsForMatch(ctx context.Context, matchID string) ([]*models.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Interaction
	for _, i := range s.interactions {
		if i.MatchID == matchID {
			cp := *i
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) RecordLearningData(ctx context.Context, r *models.LearningRecord) error {
	if s.LearningHook != nil {
		if err := s.LearningHook(r); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.learning = append(s.learning, &cp)
	return nil
}

// ==========================
// Notifier / GenerationLock
// ==========================

func (s *Store) Notify(ctx context.Context, userID string, n models.Notification) error {
	if s.NotifyHook != nil {
		if err := s.NotifyHook(userID, n); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, SentNotification{UserID: userID, Notification: n})
	return nil
}

func (s *Store) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	if until, held := s.locks[key]; held && now.Before(until) {
		return func() {}, false, nil
	}
	s.locks[key] = now.Add(ttl)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.locks, key)
	}, true, nil
}
