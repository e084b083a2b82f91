// pkg/queue/queue.go
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/locapass/docverify/config"
)

// TaskType 定义任务类型
const (
	TaskTypeDocumentValidate = "document:validate"
	TaskTypeBatchValidate    = "batch:validate"
)

// Queue 接口定义
type Queue interface {
	Enqueue(ctx context.Context, task *Task) error
	GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error)
	CancelTask(ctx context.Context, taskID string) error
	SaveFinalStatus(ctx context.Context, status *TaskStatus) error
}

// Task 定义校验任务结构
type Task struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	TenantID  string            `json:"tenantId"`
	Documents []TaskDocument    `json:"documents"`
	Priority  int               `json:"priority"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// TaskDocument 任务中的单个待校验文档
type TaskDocument struct {
	Locator      string `json:"locator"`
	DocumentType string `json:"documentType"`
}

// TaskStatus 定义任务状态
type TaskStatus struct {
	TaskID     string    `json:"taskId"`
	Status     string    `json:"status"`
	Progress   float64   `json:"progress"`
	ResultIDs  []string  `json:"resultIds,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// AsynqQueue 实现
type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	server    *asynq.Server
	redis     *redis.Client
}

// QueueConfig 定义队列配置
type QueueConfig struct {
	RedisAddr      string
	RedisDB        int
	MaxRetries     int
	RetryDelay     time.Duration
	ProcessTimeout time.Duration
	Concurrency    int
}

// GetQueue 获取队列实例
func GetQueue() (*AsynqQueue, error) {
	redisCfg := config.GetRedisConfig()
	return NewAsynqQueue(&QueueConfig{
		RedisAddr:      redisCfg.Addr,
		RedisDB:        redisCfg.DB,
		MaxRetries:     3,
		RetryDelay:     1 * time.Minute,
		ProcessTimeout: 10 * time.Minute,
		Concurrency:    5,
	})
}

// NewAsynqQueue 创建新的队列实例
func NewAsynqQueue(cfg *QueueConfig) (*AsynqQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})

	client := asynq.NewClient(redisOpt)
	inspector := asynq.NewInspector(redisOpt)

	serverOpt := asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			return cfg.RetryDelay
		},
	}
	server := asynq.NewServer(redisOpt, serverOpt)

	return &AsynqQueue{
		client:    client,
		inspector: inspector,
		server:    server,
		redis:     redisClient,
	}, nil
}

// Server 暴露底层 asynq server 给 worker 使用
func (q *AsynqQueue) Server() *asynq.Server {
	return q.server
}

// Enqueue 将校验任务加入队列
func (q *AsynqQueue) Enqueue(ctx context.Context, task *Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	opts := []asynq.Option{
		asynq.MaxRetry(3),
		asynq.Timeout(10 * time.Minute),
		asynq.TaskID(task.ID),
	}

	// 根据优先级选择队列
	switch task.Priority {
	case 1:
		opts = append(opts, asynq.Queue("critical"))
	case 2:
		opts = append(opts, asynq.Queue("default"))
	default:
		opts = append(opts, asynq.Queue("low"))
	}

	t := asynq.NewTask(task.Type, payload, opts...)
	info, err := q.client.EnqueueContext(ctx, t)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	task.ID = info.ID

	return nil
}

// GetTaskStatus 获取任务状态
func (q *AsynqQueue) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	// 优先读取 worker 写入的最终状态
	key := fmt.Sprintf("task_status:%s", taskID)
	data, err := q.redis.Get(ctx, key).Bytes()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get status from redis: %w", err)
	}

	if err == nil {
		var status TaskStatus
		if err := json.Unmarshal(data, &status); err != nil {
			return nil, fmt.Errorf("failed to unmarshal status: %w", err)
		}
		return &status, nil
	}

	// Redis 中没有最终状态，从队列中查找
	info, err := findTaskInfo([]string{"critical", "default", "low"}, func(queueName string) (*asynq.TaskInfo, error) {
		return q.inspector.GetTaskInfo(queueName, taskID)
	})
	if err != nil {
		return nil, err
	}

	return convertAsynqStatus(info), nil
}

// findTaskInfo 依次扫描队列，命中即停。A miss in an earlier queue
// must not mask a hit in a later one.
func findTaskInfo(queues []string, lookup func(queue string) (*asynq.TaskInfo, error)) (*asynq.TaskInfo, error) {
	var lastErr error

	for _, queueName := range queues {
		info, err := lookup(queueName)
		if err == nil {
			return info, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("task not found in any queue: %w", lastErr)
}

// CancelTask 取消任务
func (q *AsynqQueue) CancelTask(ctx context.Context, taskID string) error {
	queues := []string{"critical", "default", "low"}
	var lastErr error

	for _, queue := range queues {
		err := q.inspector.DeleteTask(queue, taskID)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("failed to cancel task: %w", lastErr)
}

// SaveFinalStatus 保存最终任务状态
func (q *AsynqQueue) SaveFinalStatus(ctx context.Context, status *TaskStatus) error {
	key := fmt.Sprintf("task_status:%s", status.TaskID)
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	// 状态保留 24 小时
	err = q.redis.Set(ctx, key, data, 24*time.Hour).Err()
	if err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}

	return nil
}

// convertAsynqStatus 将 asynq 状态转换为 TaskStatus
func convertAsynqStatus(info *asynq.TaskInfo) *TaskStatus {
	status := &TaskStatus{
		TaskID:    info.ID,
		StartedAt: info.NextProcessAt,
	}

	switch info.State {
	case asynq.TaskStatePending:
		status.Status = "pending"
	case asynq.TaskStateActive:
		status.Status = "running"
		status.Progress = 0.5
	case asynq.TaskStateCompleted:
		status.Status = "completed"
		status.Progress = 1.0
		status.FinishedAt = info.CompletedAt
	case asynq.TaskStateRetry:
		status.Status = "failed"
		status.Error = info.LastErr
	default:
		// scheduled, archived, aggregating
		status.Status = info.State.String()
	}

	return status
}
