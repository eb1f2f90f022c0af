package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestShutdown_Order(t *testing.T) {
	var steps []string
	sm := NewShutdownManager()
	sm.CancelRequests = func() { steps = append(steps, "cancel") }
	sm.StopMetrics = func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("metrics shutdown should get a deadline")
		}
		steps = append(steps, "metrics")
		return nil
	}
	sm.CloseStore = func() error {
		steps = append(steps, "store")
		return nil
	}
	sm.Cleanup = func() { steps = append(steps, "cleanup") }

	if err := sm.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := strings.Join(steps, ","); got != "cancel,metrics,store,cleanup" {
		t.Errorf("order: got %s", got)
	}
}

func TestShutdown_ContinuesAfterErrors(t *testing.T) {
	cleaned := false
	sm := NewShutdownManager()
	sm.StopMetrics = func(context.Context) error { return errors.New("listener") }
	sm.CloseStore = func() error { return errors.New("store") }
	sm.Cleanup = func() { cleaned = true }

	err := sm.Shutdown()
	if err == nil || !strings.Contains(err.Error(), "listener") || !strings.Contains(err.Error(), "store") {
		t.Errorf("both errors should be reported: %v", err)
	}
	if !cleaned {
		t.Error("cleanup skipped after an earlier failure")
	}
}

func TestShutdown_NothingConfigured(t *testing.T) {
	if err := NewShutdownManager().Shutdown(); err != nil {
		t.Errorf("empty manager: %v", err)
	}
}
