package resilience_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/threadwise/internal/apperr"
	"github.com/edgard/threadwise/internal/config"
	"github.com/edgard/threadwise/internal/logger"
	"github.com/edgard/threadwise/internal/resilience"
)

type stubClient struct {
	calls int
	err   error
}

func (s *stubClient) Generate(context.Context, string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "ok", nil
}

func (s *stubClient) Name() string { return "stub" }

func TestWrapDisabled(t *testing.T) {
	stub := &stubClient{}
	assert.Same(t, stub, resilience.Wrap(stub, config.BreakerConfig{}, nil))
}

func TestBreakerOpensAfterConsecutiveBackendFailures(t *testing.T) {
	stub := &stubClient{err: fmt.Errorf("%w: connection refused", apperr.ErrBackendUnavailable)}
	client := resilience.Wrap(stub, config.BreakerConfig{MaxFailures: 2, Cooldown: time.Hour}, logger.Discard())
	ctx := context.Background()

	for range 2 {
		_, err := client.Generate(ctx, "p")
		require.ErrorIs(t, err, apperr.ErrBackendUnavailable)
	}
	assert.Equal(t, resilience.StateOpen, client.(*resilience.BreakerClient).State())

	_, err := client.Generate(ctx, "p")
	require.ErrorIs(t, err, apperr.ErrBackendUnavailable)
	assert.Equal(t, 2, stub.calls, "open circuit does not call the backend")
}

func TestBreakerIgnoresNonBackendErrors(t *testing.T) {
	stub := &stubClient{err: context.Canceled}
	client := resilience.Wrap(stub, config.BreakerConfig{MaxFailures: 1, Cooldown: time.Hour}, logger.Discard())

	for range 3 {
		_, err := client.Generate(context.Background(), "p")
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, 3, stub.calls)
	assert.Equal(t, resilience.StateClosed, client.(*resilience.BreakerClient).State())

	stub.err = nil
	out, err := client.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, "stub", client.Name())
}
