package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDispatchCacheWarmup refreshes cached dispatch views.
	TaskDispatchCacheWarmup = "dispatch:cache_warmup"
)

// CacheWarmupPayload describes why a warmup was requested.
type CacheWarmupPayload struct {
	Reason string `json:"reason"`
}

// NewCacheWarmupTask constructs an Asynq task.
func NewCacheWarmupTask(payload CacheWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDispatchCacheWarmup, data, asynq.Queue(QueueDefault), asynq.MaxRetry(2)), nil
}
