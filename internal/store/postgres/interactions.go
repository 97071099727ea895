package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/models"
)

func (s *Store) CreateInteraction(ctx context.Context, i *models.Interaction) (*models.Interaction, error) {
	out := *i
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	meta, err := jsonb(out.Metadata)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	err = s.do(ctx, "create_interaction", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO match_interactions (id, match_id, user_id, interaction_type, metadata, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			out.ID, out.MatchID, out.UserID, string(out.InteractionType), meta, out.CreatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) ListInteractionsForMatch(ctx context.Context, matchID string) ([]*models.Interaction, error) {
	var out []*models.Interaction
	err := s.do(ctx, "list_interactions", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, match_id, user_id, interaction_type, metadata, created_at
			FROM match_interactions WHERE match_id = $1 ORDER BY created_at, id`, matchID)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var (
				i   models.Interaction
				raw []byte
			)
			if err := rows.Scan(&i.ID, &i.MatchID, &i.UserID, &i.InteractionType, &raw, &i.CreatedAt); err != nil {
				return err
			}
			if err := unmarshalJSONB(raw, &i.Metadata); err != nil {
				return fmt.Errorf("decode interaction metadata for %s: %w", i.ID, err)
			}
			out = append(out, &i)
		}
		return rows.Err()
	})
	return out, err
}

// CreateNotification stores an in-app notification row.
func (s *Store) CreateNotification(ctx context.Context, userID string, n models.Notification) (string, error) {
	id := uuid.NewString()
	data, err := jsonb(n.Data)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}

	err = s.do(ctx, "create_notification", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO notifications (id, user_id, type, title, message, priority, data, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
			id, userID, n.Type, n.Title, n.Message, nullString(n.Priority), data)
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}
