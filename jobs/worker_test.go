package jobs

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func noopHandler(context.Context, *asynq.Task) error { return nil }

func TestNewWorkerRequiresHandlers(t *testing.T) {
	_, err := NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"},
		Logger:    quietLogger(),
		Handlers:  []TaskHandler{{Type: "", Handler: noopHandler}},
	})
	require.Error(t, err)
}

func TestNewWorkerRejectsInvalidCron(t *testing.T) {
	task, err := NewCacheWarmupTask(CacheWarmupPayload{})
	require.NoError(t, err)

	_, err = NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"},
		Logger:    quietLogger(),
		Handlers:  []TaskHandler{{Type: TaskDispatchCacheWarmup, Handler: noopHandler}},
		Cron:      []CronRegistration{{Spec: "not a cron", Task: task}},
	})
	require.Error(t, err)
}

func TestNilWorkerRun(t *testing.T) {
	var w *Worker
	require.Error(t, w.Run(context.Background()))
}
