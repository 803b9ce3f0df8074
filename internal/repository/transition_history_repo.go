// Package repository holds the gateway's local sqlite bookkeeping: the
// transition audit trail and the idempotency-key ledger. Business data
// never lives here; the upstream API owns it.
package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// TransitionRecord is one audited transition attempt that the upstream
// API accepted
type TransitionRecord struct {
	ID             int64     `json:"id"`
	EntityType     string    `json:"entity_type"`
	EntityID       string    `json:"entity_id"`
	HumanNumber    string    `json:"human_number"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	ActorID        string    `json:"actor_id"`
	ActorRole      string    `json:"actor_role"`
	Reason         string    `json:"reason"`
	IdempotencyKey string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// TransitionHistoryRepository handles transition audit database operations
type TransitionHistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTransitionHistoryRepository creates a new transition history repository
func NewTransitionHistoryRepository(db *sql.DB, logger *zap.Logger) *TransitionHistoryRepository {
	return &TransitionHistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create records one accepted transition
func (r *TransitionHistoryRepository) Create(rec *TransitionRecord) error {
	query := `
		INSERT INTO transition_history (
			entity_type, entity_id, human_number, previous_status,
			new_status, actor_id, actor_role, reason, idempotency_key
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		rec.EntityType,
		rec.EntityID,
		rec.HumanNumber,
		rec.PreviousStatus,
		rec.NewStatus,
		rec.ActorID,
		rec.ActorRole,
		rec.Reason,
		rec.IdempotencyKey,
	)
	if err != nil {
		r.logger.Error("Failed to record transition", zap.Error(err))
		return fmt.Errorf("failed to record transition: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rec.ID = id
	return nil
}

// ListByEntity returns the audit trail for one entity, oldest first
func (r *TransitionHistoryRepository) ListByEntity(entityType, entityID string) ([]*TransitionRecord, error) {
	query := `
		SELECT id, entity_type, entity_id, human_number, previous_status,
			new_status, actor_id, actor_role, reason, idempotency_key, created_at
		FROM transition_history
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Query(query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transition history: %w", err)
	}
	defer rows.Close()

	return scanTransitions(rows)
}

// Recent returns the latest transitions across all entities, newest first
func (r *TransitionHistoryRepository) Recent(limit int) ([]*TransitionRecord, error) {
	query := `
		SELECT id, entity_type, entity_id, human_number, previous_status,
			new_status, actor_id, actor_role, reason, idempotency_key, created_at
		FROM transition_history
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent transitions: %w", err)
	}
	defer rows.Close()

	return scanTransitions(rows)
}

func scanTransitions(rows *sql.Rows) ([]*TransitionRecord, error) {
	var records []*TransitionRecord
	for rows.Next() {
		rec := &TransitionRecord{}
		if err := rows.Scan(
			&rec.ID,
			&rec.EntityType,
			&rec.EntityID,
			&rec.HumanNumber,
			&rec.PreviousStatus,
			&rec.NewStatus,
			&rec.ActorID,
			&rec.ActorRole,
			&rec.Reason,
			&rec.IdempotencyKey,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transition record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
