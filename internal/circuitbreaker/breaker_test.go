package circuitbreaker

import (
	"fmt"
	"testing"
	"time"

	"activity-guard/internal/common/errors"
	"activity-guard/internal/common/logging"
)

func TestExecutePassesThroughResult(t *testing.T) {
	b := New("test", DefaultConfig(), logging.NewDefaultLogger())

	result, err := b.Execute(func() (interface{}, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("expected result passed through, got %v", result)
	}
}

func TestExecutePassesThroughError(t *testing.T) {
	b := New("test", DefaultConfig(), logging.NewDefaultLogger())

	wantErr := fmt.Errorf("remote failure")
	_, err := b.Execute(func() (interface{}, error) {
		return nil, wantErr
	})
	if err != wantErr {
		t.Errorf("expected the call error back, got %v", err)
	}
}

func TestCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	config := Config{MaxFailures: 3, Timeout: time.Minute, MaxConcurrentRequests: 1}
	b := New("test", config, logging.NewDefaultLogger())

	for i := 0; i < 3; i++ {
		b.Execute(func() (interface{}, error) {
			return nil, fmt.Errorf("remote failure")
		})
	}

	if got := b.State(); got != "open" {
		t.Fatalf("expected open circuit after %d failures, got %s", config.MaxFailures, got)
	}

	_, err := b.Execute(func() (interface{}, error) {
		t.Fatal("call must not reach the remote while open")
		return nil, nil
	})
	if !errors.IsType(err, errors.ErrTypeConnection) {
		t.Errorf("expected connection error while open, got %v", err)
	}
}

func TestCircuitStaysClosedOnSuccess(t *testing.T) {
	b := New("test", DefaultConfig(), logging.NewDefaultLogger())

	for i := 0; i < 10; i++ {
		if _, err := b.Execute(func() (interface{}, error) { return nil, nil }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := b.State(); got != "closed" {
		t.Errorf("expected closed circuit, got %s", got)
	}
}
