// Package postgres implements the store interfaces on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/lib/pq"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/common/retry"
	"brokerage-matchmaking/internal/store"
)

const uniqueViolation = "23505"

// Store is safe for concurrent use; it shares one *sql.DB pool.
type Store struct {
	db     *sql.DB
	retry  retry.Policy
	logger logger.Logger
}

var (
	_ store.ProfileStore     = (*Store)(nil)
	_ store.ListingStore     = (*Store)(nil)
	_ store.MatchStore       = (*Store)(nil)
	_ store.FeedbackStore    = (*Store)(nil)
	_ store.InteractionStore = (*Store)(nil)
	_ store.LearningStore    = (*Store)(nil)
)

func New(db *sql.DB, policy retry.Policy, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Store{db: db, retry: policy, logger: log}
}

// do runs fn with bounded retry. fn returns raw driver errors; they are
// classified before the retry decision.
func (s *Store) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempt := 0
	return retry.Do(ctx, s.retry, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		classified := classify(op, err)
		if apperrors.IsRetryable(classified) {
			s.logger.Debug("store operation failed", map[string]interface{}{
				"operation": op,
				"attempt":   attempt,
				"error":     err,
			})
		}
		return classified
	})
}

// classify maps driver errors onto StandardErrors. Integrity and syntax
// errors are permanent; everything else is treated as transient.
func classify(op string, err error) error {
	if _, ok := apperrors.AsStandardError(err); ok {
		return err
	}
	stdErr := apperrors.NewStoreError(op, err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		stdErr.Retryable = false
		return stdErr
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23", "42":
			stdErr.Retryable = false
		}
		stdErr.WithMetadata("sqlstate", string(pqErr.Code))
	}
	return stdErr
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// jsonb marshals v for a JSONB column; nil maps to SQL NULL.
func jsonb(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return b, nil
}

func unmarshalJSONB(raw []byte, dst interface{}) error {
	if len(raw) == 0 || strings.EqualFold(string(raw), "null") {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
