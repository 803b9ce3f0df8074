package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stub struct {
	ID     string
	Status string
}

func (s stub) EntityID() string { return s.ID }

func TestStore_LoadReplacesWholesale(t *testing.T) {
	batches := [][]stub{
		{{ID: "a", Status: "PENDING"}, {ID: "b", Status: "PENDING"}},
		{{ID: "b", Status: "APPROVED"}},
	}
	call := 0
	s := New("orders", func(ctx context.Context, token string) ([]stub, error) {
		out := batches[call]
		call++
		return out, nil
	}, zap.NewNop())

	require.NoError(t, s.Load(context.Background(), "tok"))
	assert.Equal(t, 2, s.Len())

	require.NoError(t, s.Load(context.Background(), "tok"))
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("a")
	assert.False(t, ok, "stale record should be gone after reload")
}

func TestStore_FailedLoadKeepsPreviousContents(t *testing.T) {
	fail := false
	s := New("orders", func(ctx context.Context, token string) ([]stub, error) {
		if fail {
			return nil, errors.New("upstream down")
		}
		return []stub{{ID: "a", Status: "PENDING"}}, nil
	}, zap.NewNop())

	require.NoError(t, s.Load(context.Background(), "tok"))
	fail = true
	err := s.Load(context.Background(), "tok")
	require.Error(t, err)

	got, ok := s.Get("a")
	require.True(t, ok, "previous contents must survive a failed load")
	assert.Equal(t, "PENDING", got.Status)
	assert.True(t, s.Loaded())
}

func TestStore_ReplacePreservesOrder(t *testing.T) {
	s := New("orders", func(ctx context.Context, token string) ([]stub, error) {
		return []stub{{ID: "a"}, {ID: "b"}, {ID: "c"}}, nil
	}, zap.NewNop())
	require.NoError(t, s.Load(context.Background(), "tok"))

	s.Replace(stub{ID: "b", Status: "APPROVED"})

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "APPROVED", all[1].Status)

	// Unknown entities are appended.
	s.Replace(stub{ID: "d"})
	assert.Equal(t, 4, s.Len())
}

func TestStore_ApplyLocalPatch(t *testing.T) {
	s := New("orders", func(ctx context.Context, token string) ([]stub, error) {
		return []stub{{ID: "a", Status: "PENDING"}}, nil
	}, zap.NewNop())
	require.NoError(t, s.Load(context.Background(), "tok"))

	ok := s.ApplyLocalPatch("a", func(r stub) stub {
		r.Status = "IN_PROGRESS"
		return r
	})
	require.True(t, ok)
	got, _ := s.Get("a")
	assert.Equal(t, "IN_PROGRESS", got.Status)

	assert.False(t, s.ApplyLocalPatch("missing", func(r stub) stub { return r }))
}

func TestStore_Remove(t *testing.T) {
	s := New("orders", func(ctx context.Context, token string) ([]stub, error) {
		return []stub{{ID: "a"}, {ID: "b"}, {ID: "c"}}, nil
	}, zap.NewNop())
	require.NoError(t, s.Load(context.Background(), "tok"))

	require.True(t, s.Remove("b"))
	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "c", all[1].ID)

	// Index stays consistent after compaction.
	got, ok := s.Get("c")
	require.True(t, ok)
	assert.Equal(t, "c", got.ID)
	assert.False(t, s.Remove("b"))
}
