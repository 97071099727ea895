package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/models"
	"brokerage-matchmaking/internal/store"
)

const matchColumns = `id, buyer_id, seller_id, listing_id, compatibility_score, match_reasons,
	score_breakdown, status, quality_score, algorithm_version, COALESCE(notes, ''), generated_at, updated_at`

func scanMatch(row rowScanner) (*models.Match, error) {
	var (
		m            models.Match
		breakdownRaw []byte
		quality      sql.NullInt64
	)
	if err := row.Scan(&m.ID, &m.BuyerID, &m.SellerID, &m.ListingID, &m.CompatibilityScore,
		pq.Array(&m.MatchReasons), &breakdownRaw, &m.Status, &quality, &m.AlgorithmVersion,
		&m.Notes, &m.GeneratedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(breakdownRaw, &m.ScoreBreakdown); err != nil {
		return nil, fmt.Errorf("decode score breakdown for %s: %w", m.ID, err)
	}
	if quality.Valid {
		q := int(quality.Int64)
		m.QualityScore = &q
	}
	return &m, nil
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// CreateMatch inserts m unless an active match for the same pair exists, in
// which case it returns DUPLICATE_MATCH.
func (s *Store) CreateMatch(ctx context.Context, m *models.Match) (*models.Match, error) {
	out := *m
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if out.GeneratedAt.IsZero() {
		out.GeneratedAt = now
	}
	if out.UpdatedAt.IsZero() {
		out.UpdatedAt = out.GeneratedAt
	}
	if out.Status == "" {
		out.Status = models.StatusGenerated
	}
	if out.MatchReasons == nil {
		out.MatchReasons = []string{}
	}

	breakdown, err := jsonb(out.ScoreBreakdown)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	err = s.do(ctx, "create_match", func(ctx context.Context) error {
		var id string
		err := s.db.QueryRowContext(ctx, `
			INSERT INTO matches (
				id, buyer_id, seller_id, listing_id, compatibility_score, match_reasons,
				score_breakdown, status, quality_score, algorithm_version, notes, generated_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (buyer_id, seller_id, listing_id) WHERE status <> 'expired' DO NOTHING
			RETURNING id`,
			out.ID, out.BuyerID, out.SellerID, out.ListingID, out.CompatibilityScore,
			pq.Array(out.MatchReasons), breakdown, string(out.Status), nullInt(out.QualityScore),
			out.AlgorithmVersion, nullString(out.Notes), out.GeneratedAt, out.UpdatedAt,
		).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows), isUniqueViolation(err):
			return apperrors.NewDuplicateMatchError(out.BuyerID, out.ListingID)
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	var m *models.Match
	err := s.do(ctx, "get_match", func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
		var err error
		m, err = scanMatch(row)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFoundError("match", id)
		}
		return err
	})
	return m, err
}

func (s *Store) UpdateMatch(ctx context.Context, id string, patch models.MatchPatch) (*models.Match, error) {
	var status interface{}
	if patch.Status != nil {
		status = string(*patch.Status)
	}
	var notes interface{}
	if patch.Notes != nil {
		notes = *patch.Notes
	}
	var expected interface{}
	if patch.ExpectedStatus != nil {
		expected = string(*patch.ExpectedStatus)
	}

	var m *models.Match
	err := s.do(ctx, "update_match", func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `
			UPDATE matches SET
				status = COALESCE($2, status),
				notes = COALESCE($3, notes),
				quality_score = COALESCE($4, quality_score),
				updated_at = NOW()
			WHERE id = $1 AND ($5::text IS NULL OR status = $5::text)
			RETURNING `+matchColumns,
			id, status, notes, nullInt(patch.QualityScore), expected)
		var err error
		m, err = scanMatch(row)
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if patch.ExpectedStatus == nil {
			return apperrors.NewNotFoundError("match", id)
		}

		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM matches WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return apperrors.NewNotFoundError("match", id)
		}
		return apperrors.NewStatusConflictError(id, string(*patch.ExpectedStatus))
	})
	return m, err
}

func ownerColumn(role models.Role) string {
	switch role {
	case models.RoleBuyer:
		return "buyer_id = $1"
	case models.RoleSeller:
		return "seller_id = $1"
	default:
		return "(buyer_id = $1 OR seller_id = $1)"
	}
}

func (s *Store) HasRecentMatch(ctx context.Context, userID string, role models.Role, since time.Time) (bool, error) {
	var exists bool
	err := s.do(ctx, "has_recent_match", func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM matches WHERE `+ownerColumn(role)+` AND generated_at >= $2)`,
			userID, since,
		).Scan(&exists)
	})
	return exists, err
}

func (s *Store) ListMatchesForUser(ctx context.Context, userID string, role models.Role, filter store.MatchFilter) ([]*models.Match, error) {
	conds := []string{ownerColumn(role)}
	args := []interface{}{userID}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.MinScore > 0 {
		args = append(args, filter.MinScore)
		conds = append(conds, fmt.Sprintf("compatibility_score >= $%d", len(args)))
	}

	query := `SELECT ` + matchColumns + ` FROM matches WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY compatibility_score DESC, generated_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var out []*models.Match
	err := s.do(ctx, "list_matches", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			m, err := scanMatch(rows)
			if err != nil {
				return err
			}
			out = append(out, m)
		}
		return rows.Err()
	})
	return out, err
}

func (s *Store) ExpireMatches(ctx context.Context, cutoff time.Time) (int, error) {
	var n int64
	err := s.do(ctx, "expire_matches", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE matches SET status = 'expired', updated_at = NOW()
			WHERE status NOT IN ('expired', 'deal_created') AND generated_at < $1`, cutoff)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return int(n), err
}
