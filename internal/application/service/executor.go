// Package service implements the portal's approval workflow operations:
// one generic transition executor parameterized by entity type, plus the
// per-document services, aggregations and filters the dashboard pages use.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wa2g/denis-portal/internal/domain/workflow"
	"github.com/wa2g/denis-portal/internal/repository"
	"github.com/wa2g/denis-portal/internal/session"
	"github.com/wa2g/denis-portal/internal/store"
)

// ErrEntityNotFound is returned when the id is not in the current store
// snapshot
var ErrEntityNotFound = errors.New("entity not found")

// Workflowed is a stored entity that participates in the approval
// workflow
type Workflowed interface {
	store.Record
	CurrentStatus() workflow.Status
	DocumentNumber() string
}

// UpdateFunc issues the authoritative status change upstream and returns
// the server's canonical updated entity
type UpdateFunc[T Workflowed] func(ctx context.Context, token, id, status, reason, idemKey string) (T, error)

// HistoryRecorder persists the local transition audit trail
type HistoryRecorder interface {
	Create(rec *repository.TransitionRecord) error
}

// KeyLedger persists issued idempotency keys and blocks duplicate
// in-flight attempts
type KeyLedger interface {
	Reserve(key, entityType, entityID, target string, ttl time.Duration) error
	Complete(key string) error
}

// inFlightTTL bounds how long a reserved attempt blocks the entity when
// the process dies before completing it.
const inFlightTTL = 2 * time.Minute

// Executor orchestrates a single transition attempt end to end: rule
// table check, duplicate-submission guard, upstream call, canonical
// reconciliation, audit.
type Executor[T Workflowed] struct {
	entityType workflow.EntityType
	store      *store.Store[T]
	update     UpdateFunc[T]
	history    HistoryRecorder
	keys       KeyLedger
	logger     *zap.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewExecutor creates a transition executor for one entity type
func NewExecutor[T Workflowed](
	entityType workflow.EntityType,
	st *store.Store[T],
	update UpdateFunc[T],
	history HistoryRecorder,
	keys KeyLedger,
	logger *zap.Logger,
) *Executor[T] {
	return &Executor[T]{
		entityType: entityType,
		store:      st,
		update:     update,
		history:    history,
		keys:       keys,
		logger:     logger,
		inFlight:   make(map[string]bool),
	}
}

// Transition validates and executes a status change via the standard
// PATCH endpoint. An empty reason gets a role-stamped default.
func (e *Executor[T]) Transition(ctx context.Context, sess session.Session, id string, target workflow.Status, reason string) (T, error) {
	if reason == "" {
		reason = defaultReason(target, sess.Role)
	}
	return e.Execute(ctx, sess, id, target, reason, func(ctx context.Context, key string) (T, error) {
		return e.update(ctx, sess.Token, id, target.String(), reason, key)
	})
}

// Execute runs the full transition protocol around an arbitrary upstream
// call. Rule-table rejection happens before any network traffic; a failed
// call leaves the store untouched; a successful call replaces the local
// record with the server's canonical entity and appends an audit row.
func (e *Executor[T]) Execute(ctx context.Context, sess session.Session, id string, target workflow.Status, reason string, call func(ctx context.Context, key string) (T, error)) (T, error) {
	var zero T

	current, ok := e.store.Get(id)
	if !ok {
		return zero, fmt.Errorf("%w: %s %s", ErrEntityNotFound, e.entityType, id)
	}

	from := current.CurrentStatus()
	if !workflow.Permitted(e.entityType, from, sess.Role, target) {
		e.logger.Info("Transition not permitted",
			zap.String("entity_type", e.entityType.String()),
			zap.String("entity_id", id),
			zap.String("from", from.String()),
			zap.String("to", target.String()),
			zap.String("role", sess.Role.String()))
		return zero, fmt.Errorf("%w: %s cannot move %s from %s to %s",
			workflow.ErrNotPermitted, sess.Role, e.entityType, from, target)
	}

	key, err := e.begin(id, target)
	if err != nil {
		return zero, err
	}
	defer e.finish(id, key)

	updated, err := call(ctx, key)
	if err != nil {
		return zero, err
	}

	e.store.Replace(updated)

	rec := &repository.TransitionRecord{
		EntityType:     e.entityType.String(),
		EntityID:       updated.EntityID(),
		HumanNumber:    updated.DocumentNumber(),
		PreviousStatus: from.String(),
		NewStatus:      updated.CurrentStatus().String(),
		ActorID:        sess.UserID,
		ActorRole:      sess.Role.String(),
		Reason:         reason,
		IdempotencyKey: key,
	}
	if err := e.history.Create(rec); err != nil {
		// The upstream transition already happened; an audit failure is
		// logged, not surfaced as an operation failure.
		e.logger.Error("Failed to record transition audit",
			zap.String("entity_id", id),
			zap.Error(err))
	}

	e.logger.Info("Transition applied",
		zap.String("entity_type", e.entityType.String()),
		zap.String("entity_id", id),
		zap.String("from", from.String()),
		zap.String("to", updated.CurrentStatus().String()),
		zap.String("actor", sess.UserID))
	return updated, nil
}

// begin reserves the entity for one attempt: an in-memory guard for the
// common case plus a persisted key so a crash mid-flight still blocks a
// duplicate until the reservation expires.
func (e *Executor[T]) begin(id string, target workflow.Status) (string, error) {
	e.mu.Lock()
	if e.inFlight[id] {
		e.mu.Unlock()
		return "", repository.ErrAttemptInFlight
	}
	e.inFlight[id] = true
	e.mu.Unlock()

	key := newAttemptKey()
	if err := e.keys.Reserve(key, e.entityType.String(), id, target.String(), inFlightTTL); err != nil {
		e.mu.Lock()
		delete(e.inFlight, id)
		e.mu.Unlock()
		return "", err
	}
	return key, nil
}

func (e *Executor[T]) finish(id, key string) {
	if err := e.keys.Complete(key); err != nil {
		e.logger.Error("Failed to complete idempotency key",
			zap.String("key", key),
			zap.Error(err))
	}
	e.mu.Lock()
	delete(e.inFlight, id)
	e.mu.Unlock()
}

// newAttemptKey generates the client-side idempotency key attached to
// one mutating attempt
func newAttemptKey() string {
	return uuid.NewString()
}

func defaultReason(target workflow.Status, role workflow.Role) string {
	switch target {
	case workflow.StatusCancelled:
		return fmt.Sprintf("Cancelled by %s", role)
	case workflow.StatusRejected:
		return fmt.Sprintf("Rejected by %s", role)
	default:
		return fmt.Sprintf("Approved by %s", role)
	}
}
