package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy_DelayDoublesPerAttempt(t *testing.T) {
	p := RetryPolicy{BaseDelay: 100 * time.Millisecond}
	if p.delay(0) != 100*time.Millisecond {
		t.Errorf("delay(0) = %v", p.delay(0))
	}
	if p.delay(1) != 200*time.Millisecond {
		t.Errorf("delay(1) = %v", p.delay(1))
	}
	if p.delay(2) != 400*time.Millisecond {
		t.Errorf("delay(2) = %v", p.delay(2))
	}
}

func TestWithRetry_SucceedsWithoutRetrying(t *testing.T) {
	calls := 0
	reply, err := withRetry(context.Background(), RetryPolicy{BaseDelay: time.Millisecond}, 3,
		func(error) bool { return true },
		func() (string, error) {
			calls++
			return "ok", nil
		})
	if err != nil || reply != "ok" {
		t.Fatalf("reply=%q err=%v", reply, err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetry_RetriesTransportErrorsUntilSuccess(t *testing.T) {
	calls := 0
	reply, err := withRetry(context.Background(), RetryPolicy{BaseDelay: time.Millisecond}, 3,
		func(error) bool { return true },
		func() (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("transient")
			}
			return "recovered", nil
		})
	if err != nil || reply != "recovered" {
		t.Fatalf("reply=%q err=%v", reply, err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetry_GivesUpAfterExhaustingRetries(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), RetryPolicy{BaseDelay: time.Millisecond}, 2,
		func(error) bool { return true },
		func() (string, error) {
			calls++
			return "", errors.New("always fails")
		})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (1 initial + 2 retries)", calls)
	}
}

func TestWithRetry_DoesNotRetryNonTransportError(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), RetryPolicy{BaseDelay: time.Millisecond}, 5,
		func(error) bool { return false },
		func() (string, error) {
			calls++
			return "", errors.New("policy failure")
		})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry)", calls)
	}
}

func TestWithRetry_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	cancel()
	_, err := withRetry(ctx, RetryPolicy{BaseDelay: time.Second}, 3,
		func(error) bool { return true },
		func() (string, error) {
			calls++
			return "", errors.New("transient")
		})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (cancelled before first retry sleep completes)", calls)
	}
}

func TestMockClient_ReturnsRepliesInOrderThenDefault(t *testing.T) {
	m := &MockClient{Replies: []string{"first", "second"}, DefaultReply: "fallback"}
	ctx := context.Background()

	got, _ := m.Generate(ctx, "sys", "a", false)
	if got != "first" {
		t.Errorf("got %q, want first", got)
	}
	got, _ = m.Generate(ctx, "sys", "b", false)
	if got != "second" {
		t.Errorf("got %q, want second", got)
	}
	got, _ = m.Generate(ctx, "sys", "c", false)
	if got != "fallback" {
		t.Errorf("got %q, want fallback", got)
	}

	if len(m.Calls) != 3 {
		t.Fatalf("len(Calls) = %d, want 3", len(m.Calls))
	}
	if m.Calls[1].UserPrompt != "b" {
		t.Errorf("Calls[1].UserPrompt = %q", m.Calls[1].UserPrompt)
	}
}

func TestMockClient_GenerateFuncOverridesReplies(t *testing.T) {
	m := &MockClient{
		GenerateFunc: func(ctx context.Context, systemPrompt, userPrompt string, stream bool) (string, error) {
			return "custom:" + userPrompt, nil
		},
	}
	got, err := m.Generate(context.Background(), "sys", "x", false)
	if err != nil || got != "custom:x" {
		t.Fatalf("got=%q err=%v", got, err)
	}
}

func TestMockClient_GenerateWithRetryRecordsRetryCount(t *testing.T) {
	m := &MockClient{DefaultReply: "ok"}
	_, err := m.GenerateWithRetry(context.Background(), "sys", "x", false, 4)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if len(m.Calls) != 1 || m.Calls[0].Retries != 4 {
		t.Fatalf("Calls = %+v", m.Calls)
	}
}
