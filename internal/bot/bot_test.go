package bot

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/threadwise/internal/bot/tasks"
	"github.com/edgard/threadwise/internal/config"
	"github.com/edgard/threadwise/internal/logger"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestRunServesHTTPUntilCancelled(t *testing.T) {
	addr := freeAddr(t)
	srv := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "ok")
		}),
		ReadHeaderTimeout: time.Second,
	}

	sched, err := NewScheduler(logger.Discard(), &config.SchedulerConfig{
		Tasks: map[string]config.TaskConfig{
			tasks.SQLMaintenance: {Enabled: true, Schedule: "0 0 4 * * *"},
			"unknown":            {Enabled: true, Schedule: "0 0 5 * * *"},
		},
	}, map[string]tasks.ScheduledTaskFunc{
		tasks.SQLMaintenance: func(context.Context) error { return nil },
	})
	require.NoError(t, err)

	app := NewBot(logger.Discard(), sched, WithHTTPServer(srv, time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRunFailsWhenHTTPServerCannotListen(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	srv := &http.Server{Addr: l.Addr().String(), ReadHeaderTimeout: time.Second}
	app := NewBot(logger.Discard(), nil, WithHTTPServer(srv, time.Second))

	err = app.Run(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}

func TestSchedulerStartStop(t *testing.T) {
	sched, err := NewScheduler(logger.Discard(), nil, nil)
	require.NoError(t, err)

	require.NoError(t, sched.Start())
	assert.Error(t, sched.Start(), "second start is rejected")
	require.NoError(t, sched.Stop())
	require.NoError(t, sched.Stop(), "stopping a stopped scheduler is a no-op")
}

func TestSchedulerSkipsUnusableTasks(t *testing.T) {
	noop := func(context.Context) error { return nil }
	sched, err := NewScheduler(logger.Discard(), &config.SchedulerConfig{
		Tasks: map[string]config.TaskConfig{
			tasks.SQLMaintenance: {Enabled: true, Schedule: "0 0 4 * * *"},
			"no_schedule":        {Enabled: true},
			"disabled":           {Enabled: false, Schedule: "0 0 5 * * *"},
			"bad_cron":           {Enabled: true, Schedule: "not a cron"},
		},
	}, map[string]tasks.ScheduledTaskFunc{
		tasks.SQLMaintenance: noop,
		"no_schedule":        noop,
		"disabled":           noop,
		"bad_cron":           noop,
	})
	require.NoError(t, err)

	require.NoError(t, sched.Start())
	t.Cleanup(func() { _ = sched.Stop() })

	jobs := sched.scheduler.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, tasks.SQLMaintenance, jobs[0].Name())
}
