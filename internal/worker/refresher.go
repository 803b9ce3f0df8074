package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LoadFunc revalidates one cached collection against the upstream API.
type LoadFunc func(ctx context.Context, token string) error

// StoreRefresher periodically reloads the registered collection stores
// using the gateway's own service credential. A failed reload keeps the
// previous snapshot; the stores guarantee that themselves.
type StoreRefresher struct {
	interval time.Duration
	token    string
	loads    map[string]LoadFunc
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStoreRefresher(interval time.Duration, serviceToken string, logger *zap.Logger) *StoreRefresher {
	return &StoreRefresher{
		interval: interval,
		token:    serviceToken,
		loads:    make(map[string]LoadFunc),
		logger:   logger,
	}
}

// Track registers a named collection loader. Not safe to call after Start.
func (r *StoreRefresher) Track(name string, load LoadFunc) {
	r.loads[name] = load
}

func (r *StoreRefresher) Name() string { return "store-refresher" }

func (r *StoreRefresher) Start(ctx context.Context) error {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.run(ctx)
	return nil
}

func (r *StoreRefresher) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *StoreRefresher) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RefreshAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RefreshAll(ctx)
		}
	}
}

// RefreshAll reloads every tracked collection once. Failures are logged
// per collection and do not stop the remaining reloads.
func (r *StoreRefresher) RefreshAll(ctx context.Context) {
	for name, load := range r.loads {
		if err := load(ctx, r.token); err != nil {
			r.logger.Warn("Collection refresh failed, keeping previous snapshot",
				zap.String("collection", name),
				zap.Error(err))
			continue
		}
		r.logger.Debug("Collection refreshed", zap.String("collection", name))
	}
}
