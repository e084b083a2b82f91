package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/locapass/docverify/config"
	"github.com/locapass/docverify/internal/service/validation"
	"github.com/locapass/docverify/pkg/logger"
	"github.com/locapass/docverify/pkg/queue"
	"github.com/locapass/docverify/pkg/worker"
)

func main() {
	// 初始化日志
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// 创建校验服务
	validationService, err := validation.GetService(log)
	if err != nil {
		log.Error("Failed to create validation service", logger.Error(err))
		os.Exit(1)
	}

	// 任务状态存储
	taskQueue, err := queue.GetQueue()
	if err != nil {
		log.Error("Failed to create task queue", logger.Error(err))
		os.Exit(1)
	}

	// 创建 worker 配置
	redisCfg := config.GetRedisConfig()
	workerCfg := &worker.Config{
		RedisAddr:   redisCfg.Addr,
		RedisDB:     redisCfg.DB,
		Concurrency: 10,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
	}

	// 创建 worker
	validationWorker, err := worker.NewValidationWorker(workerCfg, validationService, taskQueue, log)
	if err != nil {
		log.Error("Failed to create validation worker", logger.Error(err))
		os.Exit(1)
	}

	// 创建上下文和取消函数
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启动 worker
	if err := validationWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	// 优雅关闭
	log.Info("Shutting down worker...")
	validationWorker.Stop()
	if err := validationService.Cleanup(); err != nil {
		log.Error("Cleanup failed", logger.Error(err))
	}
	log.Info("Worker stopped")
}
