package fact

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/moviefacts/internal/metrics"
	"github.com/hitoshi/moviefacts/internal/security"
)

type mockProvider struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, title string) (string, error)
}

func (m *mockProvider) GenerateFact(ctx context.Context, title string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.fn(ctx, title)
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockMetrics struct {
	mu        sync.Mutex
	generated int
	fallbacks map[string]int
	latencies int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{fallbacks: map[string]int{}}
}

func (m *mockMetrics) RecordFactGenerated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generated++
}

func (m *mockMetrics) RecordFactFallback(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks[reason]++
}

func (m *mockMetrics) RecordProviderLatency(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies++
}

func (m *mockMetrics) RecordMovieUpdated()         {}
func (m *mockMetrics) RecordHTTPStatus(int)        {}
func (m *mockMetrics) RecordSessionsCleaned(int64) {}

var _ metrics.MetricsCollector = (*mockMetrics)(nil)
var _ Provider = (*mockProvider)(nil)

func newTestService(p Provider, m metrics.MetricsCollector, cfg ServiceConfig) *Service {
	return NewService(p, security.NewFactSanitizer(), m, cfg)
}

func TestGetFact_Success_ReturnsSanitizedText(t *testing.T) {
	provider := &mockProvider{fn: func(ctx context.Context, title string) (string, error) {
		if title != "Inception" {
			t.Errorf("title = %q, want Inception", title)
		}
		return "<b>Inception</b> was shot in six countries.", nil
	}}
	m := newMockMetrics()

	got := newTestService(provider, m, ServiceConfig{Timeout: time.Second}).GetFact(context.Background(), "Inception")
	if got != "Inception was shot in six countries." {
		t.Errorf("GetFact() = %q", got)
	}
	if m.generated != 1 || len(m.fallbacks) != 0 {
		t.Errorf("metrics generated=%d fallbacks=%v", m.generated, m.fallbacks)
	}
	if m.latencies != 1 {
		t.Errorf("latency observations = %d, want 1", m.latencies)
	}
}

func TestGetFact_Failures_ReturnFallback(t *testing.T) {
	tests := []struct {
		name       string
		fn         func(ctx context.Context, title string) (string, error)
		wantReason string
	}{
		{
			name: "network error",
			fn: func(ctx context.Context, title string) (string, error) {
				return "", errors.New("dial tcp: connection refused")
			},
			wantReason: metrics.ReasonProviderError,
		},
		{
			name: "missing content",
			fn: func(ctx context.Context, title string) (string, error) {
				return "", ErrEmptyFact
			},
			wantReason: metrics.ReasonEmptyContent,
		},
		{
			name: "markup only",
			fn: func(ctx context.Context, title string) (string, error) {
				return "<br><br>", nil
			},
			wantReason: metrics.ReasonEmptyContent,
		},
		{
			name: "timeout",
			fn: func(ctx context.Context, title string) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			},
			wantReason: metrics.ReasonTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockMetrics()
			svc := newTestService(&mockProvider{fn: tt.fn}, m, ServiceConfig{Timeout: 20 * time.Millisecond})

			if got := svc.GetFact(context.Background(), "Inception"); got != FallbackFact {
				t.Errorf("GetFact() = %q, want fallback", got)
			}
			if m.fallbacks[tt.wantReason] != 1 {
				t.Errorf("fallbacks = %v, want one %q", m.fallbacks, tt.wantReason)
			}
			if m.generated != 0 {
				t.Errorf("generated = %d, want 0", m.generated)
			}
		})
	}
}

func TestGetFact_BreakerOpens_SkipsProvider(t *testing.T) {
	provider := &mockProvider{fn: func(ctx context.Context, title string) (string, error) {
		return "", errors.New("upstream 500")
	}}
	m := newMockMetrics()
	svc := newTestService(provider, m, ServiceConfig{BreakerThreshold: 2, BreakerCooldown: time.Minute})

	for i := 0; i < 2; i++ {
		svc.GetFact(context.Background(), "Inception")
	}
	if provider.callCount() != 2 {
		t.Fatalf("provider calls = %d, want 2", provider.callCount())
	}

	if got := svc.GetFact(context.Background(), "Inception"); got != FallbackFact {
		t.Errorf("GetFact() = %q, want fallback", got)
	}
	if provider.callCount() != 2 {
		t.Errorf("provider should not be called while breaker is open, calls = %d", provider.callCount())
	}
	if m.fallbacks[metrics.ReasonBreakerOpen] != 1 {
		t.Errorf("fallbacks = %v, want one breaker_open", m.fallbacks)
	}
}

func TestGetFact_CallerCancellation_DoesNotTripBreaker(t *testing.T) {
	provider := &mockProvider{fn: func(ctx context.Context, title string) (string, error) {
		return "", context.Canceled
	}}
	svc := newTestService(provider, newMockMetrics(), ServiceConfig{BreakerThreshold: 1, BreakerCooldown: time.Minute})

	svc.GetFact(context.Background(), "Inception")
	svc.GetFact(context.Background(), "Inception")

	if provider.callCount() != 2 {
		t.Errorf("provider calls = %d, want 2 (breaker should stay closed)", provider.callCount())
	}
}

func TestGetFact_NotCached(t *testing.T) {
	n := 0
	provider := &mockProvider{fn: func(ctx context.Context, title string) (string, error) {
		n++
		return strings.Repeat("fact ", n), nil
	}}
	svc := newTestService(provider, newMockMetrics(), ServiceConfig{})

	first := svc.GetFact(context.Background(), "Inception")
	second := svc.GetFact(context.Background(), "Inception")
	if first == second {
		t.Errorf("expected a fresh provider call per request, got %q twice", first)
	}
}
