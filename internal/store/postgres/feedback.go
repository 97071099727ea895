package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/models"
)

const feedbackColumns = `id, match_id, user_id, rating, feedback_type, COALESCE(comments, ''), helpful, reasons, created_at`

func scanFeedback(row rowScanner) (*models.Feedback, error) {
	var (
		f       models.Feedback
		helpful sql.NullBool
	)
	if err := row.Scan(&f.ID, &f.MatchID, &f.UserID, &f.Rating, &f.FeedbackType, &f.Comments,
		&helpful, pq.Array(&f.Reasons), &f.CreatedAt); err != nil {
		return nil, err
	}
	if helpful.Valid {
		h := helpful.Bool
		f.Helpful = &h
	}
	return &f, nil
}

func nullBool(b *bool) interface{} {
	if b == nil {
		return nil
	}
	return *b
}

func (s *Store) CreateFeedback(ctx context.Context, f *models.Feedback) (*models.Feedback, error) {
	out := *f
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	if out.Reasons == nil {
		out.Reasons = []string{}
	}

	err := s.do(ctx, "create_feedback", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO match_feedback (id, match_id, user_id, rating, feedback_type, comments, helpful, reasons, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			out.ID, out.MatchID, out.UserID, out.Rating, string(out.FeedbackType),
			nullString(out.Comments), nullBool(out.Helpful), pq.Array(out.Reasons), out.CreatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) listFeedback(ctx context.Context, op, where, arg string) ([]*models.Feedback, error) {
	var out []*models.Feedback
	err := s.do(ctx, op, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+feedbackColumns+` FROM match_feedback WHERE `+where+` ORDER BY created_at, id`, arg)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			f, err := scanFeedback(rows)
			if err != nil {
				return err
			}
			out = append(out, f)
		}
		return rows.Err()
	})
	return out, err
}

func (s *Store) ListFeedbackForMatch(ctx context.Context, matchID string) ([]*models.Feedback, error) {
	return s.listFeedback(ctx, "list_feedback", "match_id = $1", matchID)
}

func (s *Store) ListFeedbackByUser(ctx context.Context, userID string) ([]*models.Feedback, error) {
	return s.listFeedback(ctx, "list_feedback_by_user", "user_id = $1", userID)
}

// RecordLearningData stores a feedback sample for offline weight tuning.
func (s *Store) RecordLearningData(ctx context.Context, r *models.LearningRecord) error {
	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	reasons := r.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	breakdown, err := jsonb(r.ScoreBreakdown)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	return s.do(ctx, "record_learning_data", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO matching_learning_data (
				id, match_id, user_id, compatibility_score, score_breakdown, rating,
				feedback_type, helpful, reasons, algorithm_version, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			id, r.MatchID, r.UserID, r.CompatibilityScore, breakdown, r.Rating,
			string(r.FeedbackType), nullBool(r.Helpful), pq.Array(reasons), r.AlgorithmVersion, createdAt)
		return err
	})
}
