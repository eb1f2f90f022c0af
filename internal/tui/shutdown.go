package tui

import (
	"context"
	"errors"
	"time"
)

// ShutdownManager coordinates graceful shutdown of everything the dashboard
// started: outstanding requests, the metrics listener and the settings
// store.
type ShutdownManager struct {
	// DrainTimeout bounds how long the metrics listener may take to drain.
	DrainTimeout time.Duration

	// CancelRequests aborts stats API calls still in flight.
	CancelRequests func()

	// StopMetrics stops the metrics HTTP listener.
	StopMetrics func(ctx context.Context) error

	// CloseStore flushes pending settings writes and closes the store.
	CloseStore func() error

	// Cleanup performs any additional cleanup (e.g., closing the log file).
	Cleanup func()
}

// NewShutdownManager creates a ShutdownManager with a 5-second drain timeout.
func NewShutdownManager() *ShutdownManager {
	return &ShutdownManager{
		DrainTimeout: 5 * time.Second,
	}
}

// Shutdown runs every step even when an earlier one fails and returns the
// joined errors. Requests are cancelled first so nothing new reaches the
// store after it closes.
func (sm *ShutdownManager) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), sm.DrainTimeout)
	defer cancel()

	var errs []error

	if sm.CancelRequests != nil {
		sm.CancelRequests()
	}

	if sm.StopMetrics != nil {
		if err := sm.StopMetrics(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if sm.CloseStore != nil {
		if err := sm.CloseStore(); err != nil {
			errs = append(errs, err)
		}
	}

	if sm.Cleanup != nil {
		sm.Cleanup()
	}

	return errors.Join(errs...)
}
