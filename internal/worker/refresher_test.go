package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRefreshAllContinuesPastFailures(t *testing.T) {
	r := NewStoreRefresher(time.Hour, "svc-token", zap.NewNop())

	var ordersToken string
	var invoiceCalls int
	r.Track("orders", func(ctx context.Context, token string) error {
		ordersToken = token
		return errors.New("upstream down")
	})
	r.Track("invoices", func(ctx context.Context, token string) error {
		invoiceCalls++
		return nil
	})

	r.RefreshAll(context.Background())

	assert.Equal(t, "svc-token", ordersToken)
	assert.Equal(t, 1, invoiceCalls)
}

func TestRefresherRunsOnStartAndStops(t *testing.T) {
	r := NewStoreRefresher(time.Hour, "svc-token", zap.NewNop())

	var calls atomic.Int32
	done := make(chan struct{})
	r.Track("orders", func(ctx context.Context, token string) error {
		if calls.Add(1) == 1 {
			close(done)
		}
		return nil
	})

	require.NoError(t, r.Start(context.Background()))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("initial refresh never ran")
	}
	r.Stop()

	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}

func TestManagerStartAllRollsBackOnFailure(t *testing.T) {
	m := NewManager(zap.NewNop())

	good := &fakeWorker{name: "good"}
	bad := &fakeWorker{name: "bad", startErr: errors.New("boom")}
	m.Register(good)
	m.Register(bad)

	err := m.StartAll(context.Background())
	require.Error(t, err)
	assert.True(t, good.stopped)
}

type fakeWorker struct {
	name     string
	startErr error
	stopped  bool
}

func (f *fakeWorker) Start(ctx context.Context) error { return f.startErr }
func (f *fakeWorker) Stop()                           { f.stopped = true }
func (f *fakeWorker) Name() string                    { return f.name }
