package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

type deadlineSpy struct {
	calls     int
	deadlines []time.Duration
}

func (d *deadlineSpy) Generate(ctx context.Context, _ Request) (*Response, error) {
	d.calls++
	if dl, ok := ctx.Deadline(); ok {
		d.deadlines = append(d.deadlines, time.Until(dl))
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (d *deadlineSpy) ModelID() string { return "spy" }

func TestTimeout_BoundsCall(t *testing.T) {
	spy := &deadlineSpy{}
	p := WithTimeout(spy, 10*time.Millisecond)

	_, err := p.Generate(context.Background(), Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if p.ModelID() != "spy" {
		t.Fatalf("expected ModelID to delegate, got %q", p.ModelID())
	}
}

func TestTimeout_CallerDeadlineIsNotRetried(t *testing.T) {
	spy := &deadlineSpy{}
	p := WithRetry(spy, RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, Linear: true})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Generate(ctx, Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if spy.calls != 1 {
		t.Fatalf("expected 1 call, got %d", spy.calls)
	}
}

func TestTimeout_ZeroIsPassThrough(t *testing.T) {
	mock := NewMockProvider()
	if p := WithTimeout(mock, 0); p != Provider(mock) {
		t.Fatal("expected the provider to be returned unwrapped")
	}
}

func TestTimeout_EachRetryAttemptGetsFreshDeadline(t *testing.T) {
	spy := &deadlineSpy{}
	p := WithRetry(WithTimeout(spy, 20*time.Millisecond), RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		Linear:      true,
	})

	_, err := p.Generate(context.Background(), Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if spy.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", spy.calls)
	}
	for i, d := range spy.deadlines {
		if d > 20*time.Millisecond {
			t.Fatalf("attempt %d: deadline %s exceeds the per-attempt timeout", i, d)
		}
	}
}
