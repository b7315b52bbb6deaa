package tasks

import (
	"context"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// SQLMaintenance is the configuration key of the database maintenance task.
const SQLMaintenance = "sql_maintenance"

// RegisterAllTasks initializes and returns a map of all registered scheduled tasks.
// The keys match the task names under scheduler.tasks in the configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)

	// Register tasks here. A task that is registered but missing from the
	// configuration never runs; one configured but not registered is skipped
	// with a warning by the scheduler.
	tasks[SQLMaintenance] = newSQLMaintenanceTask(deps) // sql_maintenance_task.go

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
