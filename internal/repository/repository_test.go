package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wa2g/denis-portal/pkg/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(database.Config{Path: ":memory:", MaxOpenConns: 1}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrator := database.NewMigrator(db, zap.NewNop())
	require.NoError(t, migrator.Run(Schema()))
	return db
}

func TestTransitionHistoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewTransitionHistoryRepository(db.DB, zap.NewNop())

	first := &TransitionRecord{
		EntityType:     "order",
		EntityID:       "ord-1",
		HumanNumber:    "ORD-0001",
		PreviousStatus: "PENDING",
		NewStatus:      "IN_PROGRESS",
		ActorID:        "u-7",
		ActorRole:      "ACCOUNTANT",
		Reason:         "Approved by ACCOUNTANT",
		IdempotencyKey: "key-1",
	}
	require.NoError(t, repo.Create(first))
	assert.NotZero(t, first.ID)

	second := &TransitionRecord{
		EntityType:     "order",
		EntityID:       "ord-1",
		PreviousStatus: "IN_PROGRESS",
		NewStatus:      "APPROVED",
		ActorID:        "u-2",
		ActorRole:      "MANAGER",
		Reason:         "Approved by MANAGER",
		IdempotencyKey: "key-2",
	}
	require.NoError(t, repo.Create(second))

	trail, err := repo.ListByEntity("order", "ord-1")
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "IN_PROGRESS", trail[0].NewStatus)
	assert.Equal(t, "APPROVED", trail[1].NewStatus)

	other, err := repo.ListByEntity("order", "ord-2")
	require.NoError(t, err)
	assert.Empty(t, other)

	recent, err := repo.Recent(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "APPROVED", recent[0].NewStatus)
}

func TestIdempotencyReserveBlocksDuplicates(t *testing.T) {
	db := openTestDB(t)
	repo := NewIdempotencyRepository(db.DB, zap.NewNop())

	ttl := time.Minute
	require.NoError(t, repo.Reserve("k1", "invoice", "inv-1", "MANAGER_APPROVED", ttl))

	err := repo.Reserve("k2", "invoice", "inv-1", "MANAGER_APPROVED", ttl)
	assert.ErrorIs(t, err, ErrAttemptInFlight)

	// a different entity is unaffected
	require.NoError(t, repo.Reserve("k3", "invoice", "inv-2", "MANAGER_APPROVED", ttl))

	// completing the first attempt releases the entity
	require.NoError(t, repo.Complete("k1"))
	require.NoError(t, repo.Reserve("k4", "invoice", "inv-1", "CEO_APPROVED", ttl))
}

func TestIdempotencyOpenAttemptUniqueInDatabase(t *testing.T) {
	db := openTestDB(t)
	repo := NewIdempotencyRepository(db.DB, zap.NewNop())

	// an open attempt written by another connection still blocks the
	// reservation; the partial unique index enforces it, not a pre-check
	_, err := db.Exec(`
		INSERT INTO idempotency_keys (key, entity_type, entity_id, target_status)
		VALUES ('other', 'order', 'ord-1', 'PENDING')
	`)
	require.NoError(t, err)

	err = repo.Reserve("mine", "order", "ord-1", "PENDING", time.Minute)
	assert.ErrorIs(t, err, ErrAttemptInFlight)
}

func TestIdempotencyStaleReservationExpires(t *testing.T) {
	db := openTestDB(t)
	repo := NewIdempotencyRepository(db.DB, zap.NewNop())

	require.NoError(t, repo.Reserve("k1", "order", "ord-1", "PENDING", time.Minute))

	// with a zero ttl every existing reservation is already stale
	require.NoError(t, repo.Reserve("k2", "order", "ord-1", "PENDING", 0))
}
