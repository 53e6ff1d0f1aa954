package blockchain

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithRetryExhaustsAttempts(t *testing.T) {
	client := NewSolanaClient("devnet", "", 50*time.Millisecond, 3)

	calls := 0
	err := client.withRetry(context.Background(), "getBalance", func(ctx context.Context) error {
		calls++
		return errors.New("connection refused")
	})

	if !errors.Is(err, ErrChainUnavailable) {
		t.Errorf("expected ErrChainUnavailable, got %v", err)
	}
	if calls != 3 {
		t.Errorf("attempts = %d, want 3", calls)
	}
}

func TestWithRetryStopsOnSuccess(t *testing.T) {
	client := NewSolanaClient("devnet", "", 50*time.Millisecond, 3)

	calls := 0
	err := client.withRetry(context.Background(), "getBalance", func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("connection reset")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("withRetry failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("attempts = %d, want 2", calls)
	}
}

func TestWithRetryStopsOnCancelledContext(t *testing.T) {
	client := NewSolanaClient("devnet", "", 50*time.Millisecond, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := client.withRetry(ctx, "getBalance", func(ctx context.Context) error {
		calls++
		return ctx.Err()
	})

	if !errors.Is(err, ErrChainUnavailable) {
		t.Errorf("expected ErrChainUnavailable, got %v", err)
	}
	if calls != 1 {
		t.Errorf("attempts = %d, want 1", calls)
	}
}
