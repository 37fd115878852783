package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"

	"github.com/d60-Lab/thread-graph/config"
	"github.com/d60-Lab/thread-graph/internal/api"
	"github.com/d60-Lab/thread-graph/internal/api/handler"
	"github.com/d60-Lab/thread-graph/internal/realtime"
	"github.com/d60-Lab/thread-graph/internal/repository"
	"github.com/d60-Lab/thread-graph/internal/service"
	"github.com/d60-Lab/thread-graph/pkg/database"
	"github.com/d60-Lab/thread-graph/pkg/logger"
)

// @title thread-graph API
// @version 1.0
// @description social graph access control and feed composition service
// @BasePath /api/v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Encoding); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Trace.Enabled {
		shutdown, err := initTracer(ctx, cfg.Trace.Endpoint)
		if err != nil {
			logger.Warn("tracer init failed", zap.Error(err))
		} else {
			defer shutdown(context.Background())
		}
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("database init failed", zap.Error(err))
		return
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, realtime push degraded", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	threadRepo := repository.NewThreadRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	replyRepo := repository.NewReplyRepository(db)
	flagRepo := repository.NewFlagRepository(db)

	publisher := realtime.NewPublisher(rdb)

	settingsSvc := service.NewSettingsService(settingsRepo, userRepo, followRepo)
	notifSvc := service.NewNotificationService(notifRepo, userRepo, threadRepo, settingsSvc, publisher)
	followSvc := service.NewFollowService(followRepo, userRepo, settingsSvc, notifSvc)
	threadSvc := service.NewThreadService(threadRepo, likeRepo, replyRepo, userRepo, followRepo, settingsSvc, notifSvc)
	userSvc := service.NewUserService(userRepo, settingsRepo, followRepo, threadRepo, replyRepo, likeRepo, notifRepo)
	modSvc := service.NewModerationService(threadRepo, replyRepo, likeRepo, flagRepo, notifSvc)

	// 每日清理过期已读通知
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := notifSvc.CleanupOld(ctx); err != nil {
					logger.Warn("notification cleanup failed", zap.Error(err))
				}
			}
		}
	}()

	h := handler.New(userSvc, followSvc, threadSvc, notifSvc, settingsSvc, modSvc, cfg.JWT.Secret, cfg.JWT.ExpireHrs)
	router := api.NewRouter(cfg, h)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	_ = rdb.Close()
}

func initTracer(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName("thread-graph")),
	)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
