// Package tasks implements the scheduled maintenance tasks and their registry.
package tasks

import (
	"context"
	"log/slog"
)

// Maintainer runs database upkeep. database.Store satisfies it.
type Maintainer interface {
	RunSQLMaintenance(ctx context.Context) error
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  Maintainer
}
