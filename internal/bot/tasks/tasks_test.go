package tasks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/threadwise/internal/bot/tasks"
	"github.com/edgard/threadwise/internal/logger"
)

type fakeMaintainer struct {
	calls int
	err   error
}

func (f *fakeMaintainer) RunSQLMaintenance(context.Context) error {
	f.calls++
	return f.err
}

func TestSQLMaintenanceTask(t *testing.T) {
	store := &fakeMaintainer{}
	registry := tasks.RegisterAllTasks(tasks.TaskDeps{Logger: logger.Discard(), Store: store})

	task, ok := registry[tasks.SQLMaintenance]
	require.True(t, ok)
	require.NoError(t, task(context.Background()))
	assert.Equal(t, 1, store.calls)

	store.err = errors.New("disk full")
	err := task(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.err)
}
