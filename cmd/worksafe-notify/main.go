package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"worksafe-notify/internal/compliance"
	"worksafe-notify/internal/config"
	"worksafe-notify/internal/database"
	"worksafe-notify/internal/engine"
	"worksafe-notify/internal/httpapi"
	"worksafe-notify/internal/ledger"
	"worksafe-notify/internal/logger"
	"worksafe-notify/internal/notify"
	"worksafe-notify/internal/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "worksafe-notify")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 3. 获取租户ID（单实例调度假设：一个进程服务一个租户）
	tenantID := os.Getenv("TENANT_ID")
	if tenantID == "" {
		log.Fatal("TENANT_ID environment variable is required")
	}

	// 4. 初始化数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database",
			zap.Error(err),
		)
	}
	defer database.Close(db)

	// 5. 初始化 Redis（去重账本缓存）
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	// 6. 仓库
	casesRepo := repository.NewCasesRepository(db, log)
	actionsRepo := repository.NewActionsRepository(db, log)
	alertsRepo := repository.NewAlertsRepository(db, log)
	tenantsRepo := repository.NewTenantsRepository(db, log)

	// 7. 去重账本（Postgres 真源 + Redis 正向缓存）
	dedupeLedger := ledger.NewLedger(
		redisClient,
		alertsRepo,
		cfg.Notify.Ledger.KeyPrefix,
		time.Duration(cfg.Notify.Ledger.CacheTTL)*time.Second,
		log,
	)

	// 8. 合规 Oracle 客户端
	oracleClient := compliance.NewOracleClient(
		cfg.Oracle.BaseURL,
		time.Duration(cfg.Oracle.TimeoutSec)*time.Second,
		log,
	)

	// 9. 投递通道
	var sink notify.Sink
	switch cfg.Notify.Channel.Mode {
	case "webhook":
		if cfg.Notify.Channel.WebhookURL == "" {
			log.Fatal("NOTIFY_WEBHOOK_URL is required when NOTIFY_CHANNEL=webhook")
		}
		sink = notify.NewWebhookSink(
			cfg.Notify.Channel.WebhookURL,
			time.Duration(cfg.Notify.Channel.TimeoutSec)*time.Second,
			log,
		)
	default:
		sink = notify.NewLogSink(log)
	}

	// 10. 收件人解析
	resolver := notify.NewTenantRecipientResolver(tenantsRepo, cfg.Notify.DefaultRecipient, log)

	// 11. 引擎
	generator := engine.NewGenerator(casesRepo, actionsRepo, alertsRepo, dedupeLedger, oracleClient, resolver, log)
	sender := engine.NewSender(alertsRepo, sink, log)
	scheduler := engine.NewScheduler(
		generator,
		sender,
		tenantID,
		time.Duration(cfg.Notify.PollInterval)*time.Second,
		cfg.Notify.SendBatchSize,
		cfg.Notify.Digest.Enabled,
		log,
	)

	// 12. HTTP 控制面
	handler := httpapi.NewNotificationHandler(alertsRepo, scheduler, sink, log)
	router := httpapi.NewRouter(log)
	router.RegisterNotificationRoutes(handler)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// 13. 创建上下文（支持优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 14. 启动调度器与 HTTP 服务
	errChan := make(chan error, 2)
	go func() {
		if err := scheduler.Start(ctx); err != nil {
			errChan <- err
		}
	}()
	go func() {
		log.Info("HTTP server listening",
			zap.String("addr", cfg.HTTP.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// 15. 等待信号（优雅关闭）
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down",
			zap.String("signal", sig.String()),
		)
	case err := <-errChan:
		log.Error("Service error, shutting down",
			zap.Error(err),
		)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed",
			zap.Error(err),
		)
	}

	log.Info("Notification service stopped")
}
