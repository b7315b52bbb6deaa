package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/threadwise/internal/assistant"
	"github.com/edgard/threadwise/internal/config"
	"github.com/edgard/threadwise/internal/database"
	"github.com/edgard/threadwise/internal/parse"
	"github.com/edgard/threadwise/internal/scope"
)

// Assistant is the feature surface the Telegram handlers call.
type Assistant interface {
	SuggestReplies(ctx context.Context, req assistant.SuggestRequest) ([]string, error)
	AutoRespond(ctx context.Context, req assistant.RespondRequest) (*database.Message, error)
	AnalyzeTone(ctx context.Context, draft string) (*parse.Tone, error)
	Summarize(ctx context.Context, req assistant.SummaryRequest) (*assistant.SummaryResult, error)
}

// Store is the persistence the handlers use directly for ingestion.
type Store interface {
	EnsureMember(ctx context.Context, workspaceID, userID, name string) (*database.Member, error)
	GetMember(ctx context.Context, workspaceID, userID string) (*database.Member, error)
	SaveMessage(ctx context.Context, message *database.Message) error
	SetExternalID(ctx context.Context, messageID int64, externalID string) error
	GetMessageByExternalID(ctx context.Context, workspaceID string, s scope.Scope, externalID string) (*database.Message, error)
}

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     Store
	Assistant Assistant
}
