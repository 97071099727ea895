package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/models"
)

const profileColumns = `id, role, full_name, email, COALESCE(phone, ''), COALESCE(company, ''),
	COALESCE(location, ''), is_active, last_active_at, preferences, financing_details, experience_years`

func scanProfile(row rowScanner) (*models.Profile, error) {
	var (
		p               models.Profile
		lastActive      sql.NullTime
		prefsRaw        []byte
		financingRaw    []byte
		experienceYears sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Role, &p.FullName, &p.Email, &p.Phone, &p.Company,
		&p.Location, &p.IsActive, &lastActive, &prefsRaw, &financingRaw, &experienceYears); err != nil {
		return nil, err
	}

	if lastActive.Valid {
		t := lastActive.Time
		p.LastActiveAt = &t
	}
	if experienceYears.Valid {
		y := int(experienceYears.Int64)
		p.ExperienceYears = &y
	}
	if len(prefsRaw) > 0 {
		var prefs models.Preferences
		if err := unmarshalJSONB(prefsRaw, &prefs); err != nil {
			return nil, fmt.Errorf("decode preferences for %s: %w", p.ID, err)
		}
		p.Preferences = &prefs
	}
	if len(financingRaw) > 0 {
		var fin models.FinancingDetails
		if err := unmarshalJSONB(financingRaw, &fin); err != nil {
			return nil, fmt.Errorf("decode financing for %s: %w", p.ID, err)
		}
		p.Financing = &fin
	}
	return &p, nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p *models.Profile
	err := s.do(ctx, "get_profile", func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
		var err error
		p, err = scanProfile(row)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFoundError("profile", id)
		}
		return err
	})
	return p, err
}

func (s *Store) ListActiveBuyers(ctx context.Context, limit int) ([]*models.Profile, error) {
	var out []*models.Profile
	err := s.do(ctx, "list_active_buyers", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles
			WHERE role = 'buyer' AND is_active = TRUE
			ORDER BY last_active_at DESC NULLS LAST, id
			LIMIT $1`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			p, err := scanProfile(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	return out, err
}
