// Package generation sends composed prompts to a text-generation backend.
// Backends are interchangeable behind Client; none of them retries.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/edgard/threadwise/internal/apperr"
	"github.com/edgard/threadwise/internal/config"
	"github.com/edgard/threadwise/internal/logger"
)

// Client generates text for a prompt.
//
// Errors wrap apperr.ErrBackendUnavailable when the backend cannot be reached
// (including the per-call timeout) and apperr.ErrBackendError when it answers
// with a non-success or unusable response. Caller cancellation is returned as
// the context error.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Name identifies the backend in logs and metrics.
	Name() string
}

// New builds the client selected by cfg.Backend. Missing credentials are
// reported as apperr.ErrConfiguration.
func New(ctx context.Context, cfg config.GenerationConfig, log *slog.Logger) (Client, error) {
	if log == nil {
		log = logger.Discard()
	}
	switch cfg.Backend {
	case config.BackendGemini:
		return NewGemini(ctx, cfg, log)
	case config.BackendOllama:
		return NewOllama(cfg, log)
	case config.BackendOpenAI, config.BackendAnthropic:
		return NewLangChain(cfg, log)
	default:
		return nil, fmt.Errorf("%w: unsupported generation backend %q", apperr.ErrConfiguration, cfg.Backend)
	}
}

// withTimeout bounds a single call. A zero timeout leaves ctx untouched.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// classify maps a backend call failure onto the error taxonomy. parent is the
// caller's context: its cancellation wins over any backend classification.
func classify(parent context.Context, backend string, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("%s generation aborted: %w", backend, parent.Err())
	}
	if errors.Is(err, apperr.ErrBackendError) || errors.Is(err, apperr.ErrBackendUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s timed out: %v", apperr.ErrBackendUnavailable, backend, err)
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %s: %v", apperr.ErrBackendUnavailable, backend, err)
	}
	return fmt.Errorf("%w: %s: %v", apperr.ErrBackendError, backend, err)
}
