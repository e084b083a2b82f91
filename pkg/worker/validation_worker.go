package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/locapass/docverify/internal/models"
	"github.com/locapass/docverify/internal/service/validation"
	"github.com/locapass/docverify/pkg/logger"
	"github.com/locapass/docverify/pkg/queue"
)

type ValidationWorker struct {
	BaseWorker
	validator validation.DocumentValidator
	statuses  queue.Queue
}

func NewValidationWorker(cfg *Config, validator validation.DocumentValidator, statuses queue.Queue, logger logger.Logger) (*ValidationWorker, error) {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues:      cfg.Queues,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(n) * time.Minute
			},
		},
	)

	w := &ValidationWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   logger,
			stopChan: make(chan struct{}),
		},
		validator: validator,
		statuses:  statuses,
	}

	// 注册任务处理器
	w.registerHandlers()
	return w, nil
}

func (w *ValidationWorker) registerHandlers() {
	w.mux.HandleFunc(queue.TaskTypeDocumentValidate, w.handleValidate)
	w.mux.HandleFunc(queue.TaskTypeBatchValidate, w.handleValidate)
}

func (w *ValidationWorker) handleValidate(ctx context.Context, t *asynq.Task) error {
	var task queue.Task
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		w.logger.Error("Failed to unmarshal task",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal task: %w", err)
	}

	w.logger.Info("Processing validation task",
		logger.String("taskId", task.ID),
		logger.String("tenantId", task.TenantID),
		logger.Int("documents", len(task.Documents)),
	)

	if task.ID == "" || task.TenantID == "" || len(task.Documents) == 0 {
		w.logger.Error("Invalid task data",
			logger.String("taskId", task.ID),
			logger.String("tenantId", task.TenantID),
		)
		return fmt.Errorf("invalid task data: missing required fields")
	}

	startedAt := time.Now()

	requests := make([]validation.Request, 0, len(task.Documents))
	for _, doc := range task.Documents {
		requests = append(requests, validation.Request{
			Locator:      doc.Locator,
			DocumentType: models.DocumentType(doc.DocumentType),
		})
	}

	results, err := w.validator.ValidateBatch(ctx, task.TenantID, requests)
	if err != nil {
		w.saveStatus(ctx, &queue.TaskStatus{
			TaskID:     task.ID,
			Status:     "failed",
			Error:      err.Error(),
			StartedAt:  startedAt,
			FinishedAt: time.Now(),
		})
		return err
	}

	resultIDs := make([]string, 0, len(results))
	for _, result := range results {
		resultIDs = append(resultIDs, result.DocumentID)
	}

	w.saveStatus(ctx, &queue.TaskStatus{
		TaskID:     task.ID,
		Status:     "completed",
		Progress:   1.0,
		ResultIDs:  resultIDs,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	})

	return nil
}

// saveStatus 失败只记录日志，不影响任务结果
func (w *ValidationWorker) saveStatus(ctx context.Context, status *queue.TaskStatus) {
	if w.statuses == nil {
		return
	}
	if err := w.statuses.SaveFinalStatus(ctx, status); err != nil {
		w.logger.Error("Failed to save task status",
			logger.String("taskId", status.TaskID),
			logger.Error(err),
		)
	}
}

func (w *ValidationWorker) Start(ctx context.Context) error {
	go func() {
		if err := w.server.Run(w.mux); err != nil {
			w.logger.Error("Worker server stopped", logger.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	return nil
}
