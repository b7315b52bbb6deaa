// Package bot orchestrates the threadwise components: the HTTP API server, the
// optional Telegram listener and the maintenance scheduler.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 10 * time.Second

// Bot represents the main application and manages its components' lifecycle.
type Bot struct {
	logger          *slog.Logger
	tgBot           *tgbot.Bot
	httpServer      *http.Server
	scheduler       *Scheduler
	shutdownTimeout time.Duration
}

// Option configures a Bot.
type Option func(*Bot)

// WithTelegram runs the Telegram long-poll listener.
func WithTelegram(b *tgbot.Bot) Option {
	return func(o *Bot) { o.tgBot = b }
}

// WithHTTPServer serves the JSON API.
func WithHTTPServer(srv *http.Server, shutdownTimeout time.Duration) Option {
	return func(o *Bot) {
		o.httpServer = srv
		if shutdownTimeout > 0 {
			o.shutdownTimeout = shutdownTimeout
		}
	}
}

// NewBot creates the orchestrator. Components not passed as options are not run.
func NewBot(logger *slog.Logger, scheduler *Scheduler, opts ...Option) *Bot {
	b := &Bot{
		logger:          logger.With("component", "bot_orchestrator"),
		scheduler:       scheduler,
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run starts all components and blocks until ctx is cancelled or one of them fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	if b.tgBot != nil {
		g.Go(func() error {
			b.logger.Info("Starting Telegram bot listener...")

			b.tgBot.Start(gCtx)
			b.logger.Info("Telegram bot listener stopped.")

			if gCtx.Err() == nil {
				b.logger.Warn("Telegram bot listener stopped unexpectedly without context cancellation.")
				return fmt.Errorf("telegram listener stopped unexpectedly")
			}
			return nil
		})
	}

	if b.httpServer != nil {
		g.Go(func() error {
			b.logger.Info("Starting HTTP server...", "addr", b.httpServer.Addr)
			if err := b.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server failed: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gCtx.Done()
			b.logger.Info("Shutdown signal received, stopping HTTP server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), b.shutdownTimeout)
			defer cancel()
			if err := b.httpServer.Shutdown(shutdownCtx); err != nil {
				b.logger.Error("Error shutting down HTTP server", "error", err)
				return fmt.Errorf("http server shutdown failed: %w", err)
			}
			b.logger.Info("HTTP server stopped.")
			return nil
		})
	}

	if b.scheduler != nil {
		g.Go(func() error {
			b.logger.Info("Starting scheduler...")
			if err := b.scheduler.Start(); err != nil {
				b.logger.Error("Failed to start scheduler", "error", err)
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			<-gCtx.Done()
			b.logger.Info("Shutdown signal received, stopping scheduler...")

			if err := b.scheduler.Stop(); err != nil {
				b.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
