package resilience

import (
	"context"
	"errors"
	"testing"

	answermock "github.com/voxteller/voxteller/pkg/collab/answer/mock"
)

func TestAnswerFallback_PrimarySuccess(t *testing.T) {
	primary := &answermock.Provider{Reply: "primary reply"}
	secondary := &answermock.Provider{Reply: "secondary reply"}

	fb := NewAnswerFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	got, err := fb.Answer(context.Background(), "what is my balance", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "primary reply" {
		t.Fatalf("reply = %q, want primary reply", got)
	}
	if secondary.CallCount() != 0 {
		t.Fatalf("secondary called %d times, want 0", secondary.CallCount())
	}
}

func TestAnswerFallback_Failover(t *testing.T) {
	primary := &answermock.Provider{Err: errors.New("primary down")}
	secondary := &answermock.Provider{Reply: "secondary reply"}

	fb := NewAnswerFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	got, err := fb.Answer(context.Background(), "hello", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "secondary reply" {
		t.Fatalf("reply = %q, want secondary reply", got)
	}
}

func TestAnswerFallback_AllFail(t *testing.T) {
	primary := &answermock.Provider{Err: errors.New("primary down")}
	secondary := &answermock.Provider{Err: errors.New("secondary down")}

	fb := NewAnswerFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	_, err := fb.Answer(context.Background(), "hello", nil)
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}
