package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/elxora/elxora/internal/chat/store"
)

// HousekeepingService periodically clears an expired pending signup so a
// stale slot never lingers between sessions waiting for a verify call that
// will fail anyway.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Window   time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given sweep
// interval. Non-positive intervals default to one minute, matching the
// granularity of the signup window.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval, window time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Minute
	}
	if window <= 0 {
		window = DefaultSignupWindow
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		Window:   window,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Debug("housekeeping started", "interval", s.Interval)
}

// Stop shuts the worker down, blocking until any in-progress sweep finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Debug("housekeeping stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	ctx := context.Background()

	cutoff := time.Now().UTC().Add(-s.Window)
	if err := s.Store.PendingSignups().DeleteExpiredPendingSignup(ctx, cutoff); err != nil {
		s.Logger.Error("failed to clear expired pending signup", "error", err)
	}
}
