package fact

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/hitoshi/moviefacts/internal/metrics"
	"github.com/hitoshi/moviefacts/internal/security"
)

// FallbackFact は豆知識を取得できなかった場合に返す固定文言。
const FallbackFact = "Unable to fetch movie fact at the moment."

// ServiceConfig は豆知識サービスの設定。
type ServiceConfig struct {
	// Timeout は1回のプロバイダー呼び出しの上限時間。0の場合は呼び出し元のコンテキストに従う。
	Timeout time.Duration
	// BreakerThreshold 回連続で失敗するとサーキットブレーカーが開く。
	BreakerThreshold uint32
	// BreakerCooldown はブレーカーが開いてから半開状態に移るまでの時間。
	BreakerCooldown time.Duration
}

// Service はプロバイダーの失敗を吸収し、常に表示可能な文字列を返す。
type Service struct {
	provider  Provider
	sanitizer security.FactSanitizer
	metrics   metrics.MetricsCollector
	breaker   *gobreaker.CircuitBreaker[string]
	timeout   time.Duration
}

// NewService はServiceを生成する。
func NewService(provider Provider, sanitizer security.FactSanitizer, m metrics.MetricsCollector, cfg ServiceConfig) *Service {
	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        "fact-provider",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// 呼び出し元の切断はプロバイダーの障害として数えない
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &Service{
		provider:  provider,
		sanitizer: sanitizer,
		metrics:   m,
		breaker:   gobreaker.NewCircuitBreaker[string](settings),
		timeout:   cfg.Timeout,
	}
}

// GetFact は映画タイトルの豆知識を返す。
// ネットワーク障害、クォータ超過、不正な応答、本文欠落のいずれの場合も
// エラーを返さずFallbackFactを返す。結果はキャッシュしない。
func (s *Service) GetFact(ctx context.Context, title string) string {
	text, err := s.breaker.Execute(func() (string, error) {
		callCtx := ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		start := time.Now()
		raw, err := s.provider.GenerateFact(callCtx, title)
		s.metrics.RecordProviderLatency(time.Since(start))
		if err != nil {
			return "", err
		}

		cleaned := s.sanitizer.Sanitize(raw)
		if cleaned == "" {
			return "", ErrEmptyFact
		}
		return cleaned, nil
	})
	if err != nil {
		reason := fallbackReason(err)
		slog.Warn("movie fact unavailable, returning fallback",
			slog.String("movie", title),
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordFactFallback(reason)
		return FallbackFact
	}

	s.metrics.RecordFactGenerated()
	return text
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return metrics.ReasonBreakerOpen
	case errors.Is(err, ErrEmptyFact):
		return metrics.ReasonEmptyContent
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.ReasonTimeout
	default:
		return metrics.ReasonProviderError
	}
}
