package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
)

// Service wraps a provider with the discipline the rest of the system relies
// on: a bounded concurrency pool, a minimum interval between calls, a
// per-call deadline, and retries on rate limit rejections. Deadline
// expirations surface wrapped in ErrServiceDegraded so callers can
// distinguish a slow provider from a broken request.
type Service struct {
	provider provider
	sem      *semaphore.Weighted
	limiter  *rate.Limiter
	timeout  time.Duration
	retry    RetryConfig
	logger   arbor.ILogger
}

// NewService creates a completion service for the configured provider.
func NewService(config *common.Config, logger arbor.ILogger) (*Service, error) {
	prov, err := newProvider(config, logger)
	if err != nil {
		return nil, err
	}
	return newServiceWith(prov, config, logger), nil
}

func newServiceWith(prov provider, config *common.Config, logger arbor.ILogger) *Service {
	maxConcurrent := config.LLM.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	interval := config.LLM.RateLimit
	limiter := rate.NewLimiter(rate.Inf, 1)
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	retry := NewDefaultRetryConfig()
	if config.LLM.MaxRetries > 0 {
		retry.MaxRetries = config.LLM.MaxRetries
	}

	logger.Info().
		Str("provider", prov.name()).
		Int("max_concurrent", maxConcurrent).
		Dur("timeout", config.LLM.Timeout).
		Msg("LLM completion service initialized")

	return &Service{
		provider: prov,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		limiter:  limiter,
		timeout:  config.LLM.Timeout,
		retry:    retry,
		logger:   logger,
	}
}

// Complete sends a prompt through the pooled, rate-limited provider.
func (s *Service) Complete(ctx context.Context, prompt string) (string, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("completion pool acquire: %w", err)
	}
	defer s.sem.Release(1)

	var lastErr error
	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("completion rate limit wait: %w", err)
		}

		response, err := s.callOnce(ctx, prompt)
		if err == nil {
			return response, nil
		}
		lastErr = err

		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: completion timed out after %s: %v",
				interfaces.ErrServiceDegraded, s.timeout, err)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !IsRateLimitError(err) || attempt == s.retry.MaxRetries {
			break
		}

		backoff := s.retry.backoffFor(attempt, err)
		s.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("Rate limited by LLM provider, backing off")
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	return "", fmt.Errorf("completion failed after %d attempts: %w", s.retry.MaxRetries+1, lastErr)
}

// callOnce runs a single provider call under the per-call deadline.
func (s *Service) callOnce(ctx context.Context, prompt string) (string, error) {
	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.provider.generate(callCtx, prompt)
}

// HealthCheck verifies the provider is reachable with a minimal prompt.
func (s *Service) HealthCheck(ctx context.Context) error {
	healthCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	response, err := s.provider.generate(healthCtx, "Reply with OK.")
	if err != nil {
		return fmt.Errorf("LLM health check failed: %w", err)
	}
	if response == "" {
		return fmt.Errorf("LLM health check returned empty response")
	}
	return nil
}

// Close releases the underlying provider.
func (s *Service) Close() error {
	return s.provider.close()
}
