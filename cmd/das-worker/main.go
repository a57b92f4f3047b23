// Точка входа das-worker — исполнитель исходящих вызовов из очереди Redis.
// Используется при DAS_DISPATCH_MODE=queue: API ставит задания в список
// DAS_QUEUE_NAME, воркер выполняет их с параллелизмом DAS_WORKERS.
// Метрики вызовов отдаются на /metrics порта DAS_PORT.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/bigkaa/goartstore/data-acquisition/internal/config"
	"github.com/bigkaa/goartstore/data-acquisition/internal/dispatch"
	"github.com/bigkaa/goartstore/data-acquisition/internal/downstream"
)

func main() {
	// 1. Загрузка конфигурации (общая с API)
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("das-worker запускается",
		slog.String("version", config.Version),
		slog.String("queue", cfg.QueueName),
		slog.Int("workers", cfg.Workers),
	)

	// 3. Отмена по SIGINT / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("Redis недоступен", slog.String("addr", cfg.RedisAddr), slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Клиент внешних сервисов
	client, err := downstream.New(cfg.CACertPath, cfg.DownstreamTimeout, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента внешних сервисов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. /metrics
	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: cfg.HTTPReadTimeout,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Сервер метрик остановлен", slog.String("error", err.Error()))
		}
	}()

	// 7. Обработка очереди до сигнала завершения
	queue := dispatch.NewRedisQueue(redisClient, cfg.QueueName, logger)
	if err := queue.Consume(ctx, client, cfg.Workers); err != nil {
		logger.Error("Ошибка обработки очереди", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	logger.Info("das-worker остановлен")
}
