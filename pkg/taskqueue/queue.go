package taskqueue

import (
	"context"
	"encoding/json"
	"time"
)

// Queue enqueues background jobs and tracks their state.
type Queue interface {
	// Enqueue adds a task to the queue
	Enqueue(ctx context.Context, taskType TaskType, documentID string, payload interface{}) (string, error)

	// EnqueueIn adds a task to be processed after a delay
	EnqueueIn(ctx context.Context, taskType TaskType, documentID string, payload interface{}, delay time.Duration) (string, error)

	// GetTask returns a task by ID
	GetTask(ctx context.Context, taskID string) (*Task, error)

	// GetTasksByDocument returns every task of one document
	GetTasksByDocument(ctx context.Context, documentID string) ([]*Task, error)

	// WaitForTask blocks until the task completes or fails.
	// A zero timeout waits until the context is done.
	WaitForTask(ctx context.Context, taskID string, timeout time.Duration) (*Task, error)

	// DeleteTask removes a task
	DeleteTask(ctx context.Context, taskID string) error

	// UpdateTaskStatus updates a task's state and result
	UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus, result interface{}, errorMsg string) error

	// NotifyTaskUpdate publishes a status-change event for the task
	NotifyTaskUpdate(ctx context.Context, taskID string) error

	// Close closes the queue connections
	Close() error
}

// Handler executes one kind of task.
type Handler interface {
	// ProcessTask runs the task to completion
	ProcessTask(ctx context.Context, task *Task) error

	// TaskTypes returns the task types this handler accepts
	TaskTypes() []TaskType
}

// Worker runs handlers against queued tasks.
type Worker interface {
	// RegisterHandler binds a handler to a task type
	RegisterHandler(taskType TaskType, handler Handler)

	// Start begins processing; it blocks until Stop
	Start() error

	// Stop shuts the worker down
	Stop()
}

// Config holds queue connection and retry settings.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int            // parallel tasks per worker
	RetryLimit    int            // attempts before a task fails
	RetryDelay    time.Duration  // delay between attempts
	Queues        map[string]int // queue name to priority
}

// DefaultConfig returns the default queue configuration.
func DefaultConfig() *Config {
	return &Config{
		RedisAddr:   "localhost:6379",
		RedisDB:     0,
		Concurrency: 5,
		RetryLimit:  3,
		RetryDelay:  time.Minute,
		Queues: map[string]int{
			"default": 1,
		},
	}
}

// ErrTaskNotFound - no task stored under the given ID
var ErrTaskNotFound = TaskError("task not found")

// ErrTaskTimeout - WaitForTask gave up
var ErrTaskTimeout = TaskError("task timed out")

// TaskError is a sentinel queue error.
type TaskError string

// Error implements the error interface.
func (e TaskError) Error() string {
	return string(e)
}

// MarshalPayload encodes a task payload as JSON.
func MarshalPayload(payload interface{}) (json.RawMessage, error) {
	if payload == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(payload)
}

// UnmarshalPayload decodes a task payload.
func UnmarshalPayload(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
