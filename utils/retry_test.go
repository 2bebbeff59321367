package utils

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestRetryPolicySchedule(t *testing.T) {
	clock := NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	policy := &RetryPolicy{MaxAttempts: 5, Backoff: DefaultBackoff, Clock: clock, Logger: NewNopLogger()}

	calls := 0
	err := policy.Do(context.Background(), "always-fails", func(context.Context) error {
		calls++
		return errors.New("boom")
	})

	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 5 {
		t.Errorf("calls: got %d, want 5", calls)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	if got := clock.Sleeps(); !reflect.DeepEqual(got, want) {
		t.Errorf("sleeps: got %v, want %v", got, want)
	}
}

func TestRetryPolicySucceedsEventually(t *testing.T) {
	clock := NewFakeClock(time.Now())
	policy := &RetryPolicy{MaxAttempts: 5, Backoff: DefaultBackoff, Clock: clock}

	calls := 0
	err := policy.Do(context.Background(), "flaky", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
	if got := clock.Sleeps(); len(got) != 2 {
		t.Errorf("sleeps: got %v, want 2 waits", got)
	}
}

func TestRetryPolicyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := &RetryPolicy{MaxAttempts: 5, Backoff: DefaultBackoff, Clock: NewFakeClock(time.Now())}

	calls := 0
	err := policy.Do(ctx, "cancelled", func(context.Context) error {
		calls++
		cancel()
		return errors.New("network down")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls after cancel: got %d, want 1", calls)
	}
}

func TestRetryPolicyDelayRepeatsLast(t *testing.T) {
	policy := &RetryPolicy{Backoff: []time.Duration{time.Second, 3 * time.Second}}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 3 * time.Second},
		{7, 3 * time.Second},
	}
	for _, tt := range tests {
		if got := policy.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v; want %v", tt.attempt, got, tt.want)
		}
	}
}
