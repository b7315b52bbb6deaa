// Package main contains the entrypoint for the threadwise assistant service.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/threadwise/internal/api"
	"github.com/edgard/threadwise/internal/assistant"
	"github.com/edgard/threadwise/internal/bot"
	"github.com/edgard/threadwise/internal/bot/handlers"
	"github.com/edgard/threadwise/internal/bot/tasks"
	"github.com/edgard/threadwise/internal/config"
	"github.com/edgard/threadwise/internal/database"
	"github.com/edgard/threadwise/internal/generation"
	"github.com/edgard/threadwise/internal/logger"
	"github.com/edgard/threadwise/internal/resilience"
	"github.com/edgard/threadwise/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires config, logger, database, generation backend, assistant and the
// enabled front-ends, then blocks until shutdown. It returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	gen, err := generation.New(ctx, cfg.Generation, log)
	if err != nil {
		log.Error("Failed to initialize generation client", "backend", cfg.Generation.Backend, "error", err)
		return 1
	}

	gen = resilience.Wrap(gen, cfg.Generation.Breaker, log)

	svc := assistant.New(store, gen, cfg.Assistant, log)

	var opts []bot.Option

	if cfg.HTTP.Enabled {
		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           api.NewRouter(svc, store, cfg.HTTP.AllowedOrigins, log),
			ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
			ReadTimeout:       cfg.HTTP.ReadTimeout,
			WriteTimeout:      cfg.HTTP.WriteTimeout,
		}
		opts = append(opts, bot.WithHTTPServer(srv, cfg.HTTP.ShutdownTimeout))
	}

	if cfg.Telegram.Enabled {
		tg, err := setupTelegram(ctx, cfg, store, svc, log)
		if err != nil {
			log.Error("Failed to set up Telegram bot", "error", err)
			return 1
		}
		opts = append(opts, bot.WithTelegram(tg))
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{Logger: log, Store: store}))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, sched, opts...)

	log.Info("Starting threadwise...", "backend", gen.Name(), "http", cfg.HTTP.Enabled, "telegram", cfg.Telegram.Enabled)
	runErr := app.Run(ctx)
	log.Info("Run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Stopped gracefully.")
	return 0
}

func setupTelegram(ctx context.Context, cfg *config.Config, store database.Store, svc *assistant.Service, log *slog.Logger) (*tgbot.Bot, error) {
	hDeps := handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Store:     store,
		Assistant: svc,
	}

	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log,
		tgbot.WithMiddlewares(logger.Middleware(log), handlers.Ingest(hDeps)),
		tgbot.WithDefaultHandler(handlers.NewMentionHandler(hDeps)),
	)
	if err != nil {
		return nil, err
	}

	cfg.Telegram.BotInfo, err = telegram.FetchBotInfo(ctx, tg)
	if err != nil {
		return nil, err
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		return nil, err
	}
	if err := telegram.SetCommands(ctx, tg, cfg.Telegram.Commands); err != nil {
		log.Warn("Failed to publish command menu", "error", err)
	}
	return tg, nil
}
