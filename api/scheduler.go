/*
scheduler.go - Automated leave snapshot scheduler

PURPOSE:
  Periodically records a leave summary for every pay person for the month
  that just ended. Snapshots are the history shown by
  GET /api/payroll/{id}/snapshots.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Snapshots the previous calendar month relative to the service clock
  - Skips pay persons that already have a snapshot for that month
  - A run that finds nothing new is a no-op, so the interval can be short

CONFIGURATION:
  - Interval: How often to check (scheduler.interval, default: 1 hour)
  - Enabled:  Whether scheduler is active (scheduler.enabled)

USAGE:
  scheduler := NewSnapshotScheduler(service, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - payroll/service.go: SnapshotPeriod
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/payroll-leave/leave"
	"github.com/warp/payroll-leave/payroll"
)

// SnapshotScheduler handles automated month-end leave snapshots.
type SnapshotScheduler struct {
	Service  *payroll.Service
	Logger   *zap.Logger
	Interval time.Duration
	Enabled  bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSnapshotScheduler creates a new scheduler.
func NewSnapshotScheduler(svc *payroll.Service, logger *zap.Logger) *SnapshotScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotScheduler{
		Service:  svc,
		Logger:   logger.Named("scheduler"),
		Interval: time.Hour,
		Enabled:  true,
	}
}

// Start begins the scheduler. Calling Start on a running scheduler does
// nothing.
func (s *SnapshotScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Logger.Info("disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run(s.ticker, s.stop)

	s.Logger.Info("started", zap.Duration("interval", s.Interval))
}

// Stop stops the scheduler and waits for an in-flight run to finish.
func (s *SnapshotScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.Logger.Info("stopped")
}

func (s *SnapshotScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	// Run immediately on start
	s.check(ctx)

	for {
		select {
		case <-ticker.C:
			s.check(ctx)
		case <-stop:
			return
		}
	}
}

func (s *SnapshotScheduler) check(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.Logger.Error("snapshot run failed", zap.Error(err))
	}
}

// RunOnce snapshots the month before the current one and returns how many
// snapshots were written.
func (s *SnapshotScheduler) RunOnce(ctx context.Context) (int, error) {
	now := s.Service.Now()
	period := leave.MonthPeriod(now.Year(), now.Month()).Previous()

	n, err := s.Service.SnapshotPeriod(ctx, period)
	if err != nil {
		return n, err
	}
	if n > 0 {
		s.Logger.Info("snapshots written", zap.Stringer("period", period), zap.Int("count", n))
	}
	return n, nil
}
