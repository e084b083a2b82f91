package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/locapass/docverify/api/handlers"
	"github.com/locapass/docverify/api/middleware"
)

// SetupRoutes 配置所有路由
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	// 全局中间件
	r.Use(middleware.CORS())

	// API 版本组
	v1 := r.Group("/api/v1")

	// 校验路由组
	validations := v1.Group("/validations")
	{
		validations.POST("", h.Validation.ValidateDocument)
		validations.POST("/batch", h.Validation.ValidateBatch)
		validations.POST("/async", h.Validation.EnqueueValidation)
		validations.GET("/status/:taskId", h.Validation.GetTaskStatus)
		validations.DELETE("/task/:taskId", h.Validation.CancelTask)
		validations.POST("/cleanup", h.Validation.Cleanup)
	}

	// 租户历史
	v1.GET("/tenants/:tenantId/history", h.Validation.GetHistory)
}
