package core

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/coregx/sqlassist/internal/logger"
)

// pingTimeout bounds a single background ping.
const pingTimeout = 5 * time.Second

// HealthStatus is the outcome of the background health checks.
type HealthStatus struct {
	Healthy   bool
	LastCheck time.Time
	// LastError is the error of the last ping, nil when it succeeded.
	LastError error
	// Failures counts consecutive failed pings.
	Failures int
}

// healthChecker pings the database at a fixed interval. While the last ping
// failed, the executor refuses statements with ErrUnhealthy instead of
// waiting on a dead pool; the next successful ping lifts the refusal.
type healthChecker struct {
	db       *sql.DB
	logger   logger.Logger
	interval time.Duration
	stop     chan struct{}
	wg       sync.WaitGroup

	mu     sync.RWMutex
	status HealthStatus
}

func newHealthChecker(db *sql.DB, log logger.Logger, interval time.Duration) *healthChecker {
	return &healthChecker{
		db:       db,
		logger:   log,
		interval: interval,
		stop:     make(chan struct{}),
		status:   HealthStatus{Healthy: true},
	}
}

func (h *healthChecker) start() {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				h.ping()
			case <-h.stop:
				return
			}
		}
	}()
}

func (h *healthChecker) ping() {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	err := h.db.PingContext(ctx)

	h.mu.Lock()
	wasHealthy := h.status.Healthy
	h.status.LastCheck = time.Now()
	h.status.LastError = err
	h.status.Healthy = err == nil
	if err != nil {
		h.status.Failures++
	} else {
		h.status.Failures = 0
	}
	failures := h.status.Failures
	h.mu.Unlock()

	switch {
	case err != nil && wasHealthy:
		h.logger.Error("database unhealthy, refusing statements", "error", err)
	case err != nil:
		h.logger.Warn("database still unhealthy", "error", err, "failures", failures)
	case !wasHealthy:
		h.logger.Info("database recovered")
	}
}

func (h *healthChecker) shutdown() {
	close(h.stop)
	h.wg.Wait()
}

func (h *healthChecker) snapshot() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}
