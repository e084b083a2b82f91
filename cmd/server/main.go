package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/locapass/docverify/api/handlers"
	"github.com/locapass/docverify/api/routes"
	"github.com/locapass/docverify/internal/service/validation"
	"github.com/locapass/docverify/pkg/logger"
	"github.com/locapass/docverify/pkg/queue"
)

func main() {
	// init logger
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/app.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// init validation service
	validationService, err := validation.GetService(log)
	if err != nil {
		log.Fatal("Failed to get validation service:", logger.Error(err))
	}

	// init task queue
	taskQueue, err := queue.GetQueue()
	if err != nil {
		log.Fatal("Failed to get task queue:", logger.Error(err))
	}

	// init handlers
	h := handlers.NewHandlers(validationService, taskQueue, log)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h)

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	// start server
	go func() {
		log.Info("Server starting on port 8080")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error:", logger.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown:", logger.Error(err))
	}

	if err := validationService.Cleanup(); err != nil {
		log.Error("Cleanup failed:", logger.Error(err))
	}
}
