package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
)

type fakeProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeProvider) generate(ctx context.Context, prompt string) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "ok", nil
}

func (f *fakeProvider) name() string { return "fake" }

func (f *fakeProvider) close() error { return nil }

func serviceConfig() *common.Config {
	config := common.NewDefaultConfig()
	config.LLM.MaxConcurrent = 2
	config.LLM.RateLimit = 0
	config.LLM.MaxRetries = 2
	config.LLM.Timeout = time.Second
	return config
}

func TestCompleteSuccess(t *testing.T) {
	prov := &fakeProvider{responses: []string{"hello"}}
	svc := newServiceWith(prov, serviceConfig(), arbor.NewLogger())

	response, err := svc.Complete(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, "hello", response)
	assert.Equal(t, 1, prov.calls)
}

func TestCompleteRetriesRateLimit(t *testing.T) {
	config := serviceConfig()
	prov := &fakeProvider{
		errs:      []error{fmt.Errorf("Error 429: RESOURCE_EXHAUSTED"), nil},
		responses: []string{"", "recovered"},
	}
	svc := newServiceWith(prov, config, arbor.NewLogger())
	svc.retry.InitialBackoff = time.Millisecond
	svc.retry.MaxBackoff = 5 * time.Millisecond

	response, err := svc.Complete(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, "recovered", response)
	assert.Equal(t, 2, prov.calls)
}

func TestCompleteDoesNotRetryOtherErrors(t *testing.T) {
	prov := &fakeProvider{errs: []error{errors.New("invalid request")}}
	svc := newServiceWith(prov, serviceConfig(), arbor.NewLogger())

	_, err := svc.Complete(context.Background(), "hi")

	require.Error(t, err)
	assert.Equal(t, 1, prov.calls)
}

func TestCompleteDeadlineMapsToDegraded(t *testing.T) {
	prov := &fakeProvider{errs: []error{fmt.Errorf("call aborted: %w", context.DeadlineExceeded)}}
	svc := newServiceWith(prov, serviceConfig(), arbor.NewLogger())

	_, err := svc.Complete(context.Background(), "hi")

	assert.ErrorIs(t, err, interfaces.ErrServiceDegraded)
}

func TestDetectProvider(t *testing.T) {
	assert.Equal(t, "claude", DetectProvider("claude-haiku-3-5-20241022", "gemini"))
	assert.Equal(t, "gemini", DetectProvider("gemini-3-flash-preview", "claude"))
	assert.Equal(t, "gemini", DetectProvider("mystery-model", "gemini"))
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, IsRateLimitError(errors.New("Error 429")))
	assert.True(t, IsRateLimitError(errors.New("RESOURCE_EXHAUSTED: quota exceeded")))
	assert.False(t, IsRateLimitError(errors.New("bad request")))
	assert.False(t, IsRateLimitError(nil))
}

func TestExtractRetryDelay(t *testing.T) {
	err := errors.New("Error 429, Please retry in 45.5s., Status: RESOURCE_EXHAUSTED")
	assert.Equal(t, time.Duration(45.5*float64(time.Second)), ExtractRetryDelay(err))

	assert.Equal(t, time.Duration(0), ExtractRetryDelay(errors.New("no hint here")))
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(nil))
}
