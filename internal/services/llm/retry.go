package llm

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RetryConfig defines backoff behavior for transient provider failures.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// NewDefaultRetryConfig returns backoff defaults sized for per-minute
// provider quota windows.
func NewDefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    2 * time.Second,
		MaxBackoff:        60 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// IsRateLimitError reports whether an error is a provider rate limit
// rejection. Matches 429 status codes and quota-exhaustion markers.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "rate_limit") ||
		strings.Contains(errStr, "quota")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
// seen in provider rate limit messages.
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the provider-suggested retry delay from a rate
// limit error. Returns 0 when the message carries no delay hint.
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}
	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}
	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// backoffFor computes the wait before the given zero-based attempt, honoring
// a provider-suggested delay over the exponential schedule.
func (c RetryConfig) backoffFor(attempt int, err error) time.Duration {
	if suggested := ExtractRetryDelay(err); suggested > 0 {
		if suggested > c.MaxBackoff {
			return c.MaxBackoff
		}
		return suggested
	}
	backoff := time.Duration(float64(c.InitialBackoff) * pow(c.BackoffMultiplier, attempt))
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}
	return backoff
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
