package postgres

import (
	"context"
	"database/sql"
	"errors"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/models"
)

const listingColumns = `id, seller_id, title, COALESCE(business_type, ''), asking_price,
	COALESCE(location, ''), COALESCE(city, ''), COALESCE(state, ''),
	COALESCE(annual_revenue, 0), COALESCE(employees, 0), status, COALESCE(timeline, ''), created_at`

func scanListing(row rowScanner) (*models.Listing, error) {
	var l models.Listing
	if err := row.Scan(&l.ID, &l.SellerID, &l.Title, &l.BusinessType, &l.AskingPrice,
		&l.Location, &l.City, &l.State, &l.AnnualRevenue, &l.Employees, &l.Status,
		&l.Timeline, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	var l *models.Listing
	err := s.do(ctx, "get_listing", func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM business_listings WHERE id = $1`, id)
		var err error
		l, err = scanListing(row)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFoundError("listing", id)
		}
		return err
	})
	return l, err
}

func (s *Store) ListActiveListings(ctx context.Context, priceCeiling *float64, limit int) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM business_listings WHERE status = 'active'`
	args := []interface{}{}
	if priceCeiling != nil {
		query += ` AND asking_price <= $1 ORDER BY created_at DESC, id LIMIT $2`
		args = append(args, *priceCeiling, limit)
	} else {
		query += ` ORDER BY created_at DESC, id LIMIT $1`
		args = append(args, limit)
	}

	var out []*models.Listing
	err := s.do(ctx, "list_active_listings", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			l, err := scanListing(rows)
			if err != nil {
				return err
			}
			out = append(out, l)
		}
		return rows.Err()
	})
	return out, err
}
