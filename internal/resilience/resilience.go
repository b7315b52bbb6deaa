// Package resilience puts a circuit breaker in front of a generation backend
// so that a failing backend is skipped quickly instead of being waited on.
// It never retries.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/edgard/threadwise/internal/apperr"
	"github.com/edgard/threadwise/internal/config"
	"github.com/edgard/threadwise/internal/generation"
	"github.com/edgard/threadwise/internal/logger"
	"github.com/edgard/threadwise/internal/metrics"
)

const defaultCooldown = 30 * time.Second

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of CircuitState.
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateHalfOpen:
		return "HALF-OPEN"
	case StateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// mapState converts gobreaker state to our CircuitState.
func mapState(state gobreaker.State) CircuitState {
	switch state {
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	case gobreaker.StateOpen:
		return StateOpen
	default:
		return StateClosed
	}
}

// BreakerClient is a generation.Client guarded by a circuit breaker. Only
// backend failures count against the circuit; caller cancellation does not.
type BreakerClient struct {
	next generation.Client
	cb   *gobreaker.CircuitBreaker
}

// Wrap guards client with a breaker configured by cfg. A zero MaxFailures
// returns client unchanged.
func Wrap(client generation.Client, cfg config.BreakerConfig, log *slog.Logger) generation.Client {
	if cfg.MaxFailures <= 0 {
		return client
	}
	if log == nil {
		log = logger.Discard()
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}
	log = log.With("component", "circuit_breaker", "backend", client.Name())
	metrics.BreakerState.WithLabelValues(client.Name()).Set(float64(StateClosed))

	settings := gobreaker.Settings{
		Name:        client.Name(),
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.MaxFailures)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !apperr.IsBackendFailure(err) || apperr.IsCanceled(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(mapState(to)))
			log.Warn("Circuit breaker state changed", "from", mapState(from), "to", mapState(to))
		},
	}

	return &BreakerClient{next: client, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Generate forwards to the wrapped client unless the circuit is open, in
// which case it fails with apperr.ErrBackendUnavailable without calling it.
func (c *BreakerClient) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := c.cb.Execute(func() (any, error) {
		return c.next.Generate(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %s circuit is open: %v", apperr.ErrBackendUnavailable, c.next.Name(), err)
	}
	if err != nil {
		return "", err
	}
	text, _ := out.(string)
	return text, nil
}

// Name identifies the wrapped backend.
func (c *BreakerClient) Name() string { return c.next.Name() }

// State reports the current circuit state.
func (c *BreakerClient) State() CircuitState { return mapState(c.cb.State()) }
