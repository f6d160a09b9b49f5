package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunWithTimeout_ReturnsResult(t *testing.T) {
	got, err := RunWithTimeout(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestRunWithTimeout_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := RunWithTimeout(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRunWithTimeout_ExpiresWithinBudget(t *testing.T) {
	start := time.Now()
	_, err := RunWithTimeout(context.Background(), 20*time.Millisecond, func(ctx context.Context) (string, error) {
		select {
		case <-time.After(5 * time.Second):
			return "too late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("expected ErrTimedOut, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("guard did not bound execution, took %v", elapsed)
	}
}

func TestRunWithTimeout_ZeroBudgetRejects(t *testing.T) {
	_, err := RunWithTimeout(context.Background(), 0, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("expected ErrTimedOut, got %v", err)
	}
}

func TestRunWithTimeout_ParentCancellationWins(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunWithTimeout(ctx, time.Second, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
