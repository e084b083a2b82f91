package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/locapass/docverify/internal/models"
	"github.com/locapass/docverify/internal/service/validation"
	"github.com/locapass/docverify/pkg/logger"
	"github.com/locapass/docverify/pkg/queue"
)

type ValidationHandler struct {
	service validation.DocumentValidator
	queue   queue.Queue
	logger  logger.Logger
}

// ValidateRequest 单文档校验请求
type ValidateRequest struct {
	TenantID     string `json:"tenantId" binding:"required"`
	Locator      string `json:"locator" binding:"required"`
	DocumentType string `json:"documentType" binding:"required"`
}

// BatchRequest 批量校验请求
type BatchRequest struct {
	TenantID  string             `json:"tenantId" binding:"required"`
	Documents []BatchRequestItem `json:"documents" binding:"required,min=1"`
	Priority  int                `json:"priority"`
}

type BatchRequestItem struct {
	Locator      string `json:"locator" binding:"required"`
	DocumentType string `json:"documentType" binding:"required"`
}

// ErrorResponse 定义错误响应结构
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewValidationHandler(service validation.DocumentValidator, q queue.Queue, logger logger.Logger) *ValidationHandler {
	return &ValidationHandler{
		service: service,
		queue:   q,
		logger:  logger,
	}
}

// ValidateDocument 同步校验单个文档
func (h *ValidationHandler) ValidateDocument(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.service.ValidateDocument(
		c.Request.Context(),
		req.Locator,
		models.DocumentType(req.DocumentType),
		req.TenantID,
	)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to validate document", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ValidateBatch 同步批量校验
func (h *ValidationHandler) ValidateBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	requests := make([]validation.Request, 0, len(req.Documents))
	for _, doc := range req.Documents {
		requests = append(requests, validation.Request{
			Locator:      doc.Locator,
			DocumentType: models.DocumentType(doc.DocumentType),
		})
	}

	results, err := h.service.ValidateBatch(c.Request.Context(), req.TenantID, requests)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to validate documents", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tenantId": req.TenantID,
		"results":  results,
	})
}

// EnqueueValidation 异步批量校验，立即返回任务 ID
func (h *ValidationHandler) EnqueueValidation(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	documents := make([]queue.TaskDocument, 0, len(req.Documents))
	for _, doc := range req.Documents {
		documents = append(documents, queue.TaskDocument{
			Locator:      doc.Locator,
			DocumentType: doc.DocumentType,
		})
	}

	task := &queue.Task{
		ID:        uuid.New().String(),
		Type:      queue.TaskTypeBatchValidate,
		TenantID:  req.TenantID,
		Documents: documents,
		Priority:  req.Priority,
		CreatedAt: time.Now(),
	}

	if err := h.queue.Enqueue(c.Request.Context(), task); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to enqueue validation task", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"taskId":    task.ID,
		"status":    "pending",
		"tenantId":  req.TenantID,
		"documents": len(documents),
		"createdAt": task.CreatedAt.Format(time.RFC3339),
	})
}

// GetTaskStatus 查询异步任务状态
func (h *ValidationHandler) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		h.handleError(c, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	status, err := h.queue.GetTaskStatus(c.Request.Context(), taskID)
	if err != nil {
		h.handleError(c, http.StatusNotFound, "Task not found", err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// CancelTask 取消异步任务
func (h *ValidationHandler) CancelTask(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		h.handleError(c, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	if err := h.queue.CancelTask(c.Request.Context(), taskID); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to cancel task", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task cancelled successfully",
		"taskId":  taskID,
	})
}

// GetHistory 租户校验历史，新的在前
func (h *ValidationHandler) GetHistory(c *gin.Context) {
	tenantID := c.Param("tenantId")
	if tenantID == "" {
		h.handleError(c, http.StatusBadRequest, "Tenant ID is required", nil)
		return
	}

	results, err := h.service.History(c.Request.Context(), tenantID)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to load history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tenantId": tenantID,
		"count":    len(results),
		"results":  results,
	})
}

// Cleanup 清空结果缓存并释放 OCR 资源
func (h *ValidationHandler) Cleanup(c *gin.Context) {
	if err := h.service.Cleanup(); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to clean up", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cache cleared",
	})
}

// handleError 统一错误处理
func (h *ValidationHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	response := ErrorResponse{
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(status, response)
}
