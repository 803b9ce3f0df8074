package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// ErrAttemptInFlight is returned when an unfinished transition attempt
// already exists for the entity
var ErrAttemptInFlight = errors.New("transition attempt already in flight")

// IdempotencyRepository persists issued idempotency keys so a transition
// attempt interrupted mid-flight still blocks a duplicate submission
// after a restart
type IdempotencyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *sql.DB, logger *zap.Logger) *IdempotencyRepository {
	return &IdempotencyRepository{
		db:     db,
		logger: logger,
	}
}

// Reserve records a new attempt for the entity. It fails with
// ErrAttemptInFlight when an unfinished attempt younger than ttl exists.
// The uniqueness of open attempts is enforced by a partial index on
// (entity_type, entity_id) WHERE completed_at IS NULL, so two concurrent
// reservations cannot both succeed.
func (r *IdempotencyRepository) Reserve(key, entityType, entityID, target string, ttl time.Duration) error {
	cutoff := time.Now().UTC().Add(-ttl)

	// Close out attempts older than the ttl first; only live attempts
	// may block the insert below.
	_, err := r.db.Exec(`
		UPDATE idempotency_keys SET completed_at = CURRENT_TIMESTAMP
		WHERE entity_type = ? AND entity_id = ? AND completed_at IS NULL AND created_at <= ?
	`, entityType, entityID, cutoff)
	if err != nil {
		return fmt.Errorf("failed to expire stale attempts: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO idempotency_keys (key, entity_type, entity_id, target_status)
		VALUES (?, ?, ?, ?)
	`, key, entityType, entityID, target)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			r.logger.Warn("Duplicate transition attempt blocked",
				zap.String("entity_type", entityType),
				zap.String("entity_id", entityID))
			return ErrAttemptInFlight
		}
		return fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	return nil
}

// Complete marks an attempt finished, successful or not, releasing the
// entity for further transitions
func (r *IdempotencyRepository) Complete(key string) error {
	_, err := r.db.Exec(`
		UPDATE idempotency_keys SET completed_at = CURRENT_TIMESTAMP WHERE key = ?
	`, key)
	if err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	return nil
}
