// Точка входа Data Acquisition Service.
// Загружает конфигурацию, открывает хранилище заявок (Redis, PostgreSQL
// или память), получает ключ проверки JWT, собирает движок заявок
// с исходящими вызовами (пул воркеров или очередь Redis), запускает
// мониторинг зависимостей и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/bigkaa/goartstore/data-acquisition/internal/api/handlers"
	"github.com/bigkaa/goartstore/data-acquisition/internal/api/middleware"
	"github.com/bigkaa/goartstore/data-acquisition/internal/api/openapi"
	"github.com/bigkaa/goartstore/data-acquisition/internal/auth"
	"github.com/bigkaa/goartstore/data-acquisition/internal/config"
	"github.com/bigkaa/goartstore/data-acquisition/internal/database"
	"github.com/bigkaa/goartstore/data-acquisition/internal/dispatch"
	"github.com/bigkaa/goartstore/data-acquisition/internal/downstream"
	"github.com/bigkaa/goartstore/data-acquisition/internal/repository"
	"github.com/bigkaa/goartstore/data-acquisition/internal/server"
	"github.com/bigkaa/goartstore/data-acquisition/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Data Acquisition запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("store", cfg.StoreBackend),
		slog.String("dispatch", cfg.DispatchMode),
	)

	ctx := context.Background()

	// 3. Redis — для хранилища redis и очереди заданий
	var redisClient *redis.Client
	if cfg.StoreBackend == config.StoreRedis || cfg.DispatchMode == config.DispatchQueue {
		redisClient = newRedisClient(cfg)
		defer redisClient.Close()
	}

	// 4. Хранилище заявок
	store, storeChecker, pool, err := openStore(ctx, cfg, redisClient, logger)
	if err != nil {
		logger.Error("Ошибка открытия хранилища заявок", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	// 5. HTTP-клиенты с общим CA для ключа JWT и сервиса прав
	keyClient, err := downstream.NewHTTPClient(cfg.CACertPath, cfg.DownstreamTimeout)
	if err != nil {
		logger.Error("Ошибка загрузки CA-сертификата", slog.String("path", cfg.CACertPath), slog.String("error", err.Error()))
		os.Exit(1)
	}
	permissionClient, err := downstream.NewHTTPClient(cfg.CACertPath, cfg.PermissionTimeout)
	if err != nil {
		logger.Error("Ошибка загрузки CA-сертификата", slog.String("path", cfg.CACertPath), slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Проверка JWT: ключ UAA загружается один раз, JWKS обновляется в фоне
	verifier, err := newVerifier(ctx, cfg, keyClient, logger)
	if err != nil {
		logger.Error("Ошибка получения ключа проверки JWT",
			slog.String("url", cfg.JWTKeyURL),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	logger.Info("Ключ проверки JWT получен",
		slog.String("url", cfg.JWTKeyURL),
		slog.String("format", cfg.JWTKeyFormat),
	)

	// 7. Проверка доступа к организациям
	guard := auth.NewOrgAccessGuard(cfg.UserManagementURL, cfg.JWTBearerPrefix, cfg.AdminScope, permissionClient, logger)

	// 8. Исходящие вызовы
	callClient, err := downstream.New(cfg.CACertPath, cfg.DownstreamTimeout, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента внешних сервисов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var dispatcher dispatch.Dispatcher
	switch cfg.DispatchMode {
	case config.DispatchQueue:
		dispatcher = dispatch.NewRedisQueue(redisClient, cfg.QueueName, logger)
		logger.Info("Исходящие вызовы через очередь Redis", slog.String("queue", cfg.QueueName))
	default:
		workerPool := dispatch.NewPool(callClient, cfg.Workers, cfg.QueueSize, logger)
		workerPool.Start(ctx)
		defer workerPool.Stop()
		dispatcher = workerPool
	}

	// 9. Движок заявок
	orch := service.NewOrchestrator(store, guard, dispatcher, service.OrchestratorConfig{
		SelfURL:           cfg.SelfURL,
		DownloaderURL:     cfg.DownloaderURL,
		MetadataParserURL: cfg.MetadataParserURL,
		HDFSPrefix:        cfg.HDFSPrefix,
	}, logger)

	// 10. topologymetrics — мониторинг внешних сервисов и PostgreSQL
	targets := service.DephealthTargets{
		DownloaderURL:     cfg.DownloaderURL,
		MetadataParserURL: cfg.MetadataParserURL,
		UserManagementURL: cfg.UserManagementURL,
	}
	if pool != nil {
		// Адаптер pgxpool → *sql.DB: проверка идёт через существующий пул
		pgDB := stdlib.OpenDBFromPool(pool)
		defer pgDB.Close()
		targets.DB = pgDB
		targets.DBURL = cfg.DatabaseURL()
	}
	dephealthSvc, dephealthErr := service.NewDephealthService("data-acquisition", cfg.DephealthGroup,
		targets, cfg.DephealthCheckInterval, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
		} else {
			defer dephealthSvc.Stop()
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 11. Health и API handlers
	checks := []handlers.NamedChecker{{Name: cfg.StoreBackend, Checker: storeChecker}}
	if cfg.DispatchMode == config.DispatchQueue && cfg.StoreBackend != config.StoreRedis {
		checks = append(checks, handlers.NamedChecker{
			Name:    "redis_queue",
			Checker: repository.NewRedisReadinessChecker(redisClient),
		})
	}
	apiHandler := handlers.NewAPIHandler(handlers.NewHealthHandler(checks...), orch, logger)

	// 12. Middleware: метрики, логирование, JWT, проверка схемы
	doc, err := openapi.Load(ctx)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI", slog.String("error", err.Error()))
		os.Exit(1)
	}
	validator, err := middleware.NewOpenAPIValidator(doc, logger)
	if err != nil {
		logger.Error("Ошибка создания OpenAPI validator", slog.String("error", err.Error()))
		os.Exit(1)
	}
	jwtAuth := middleware.NewJWTAuth(verifier, logger)

	// 13. HTTP-сервер
	srv := server.New(cfg, logger, apiHandler,
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
		server.JWTAuthWithExclusions(jwtAuth.Middleware(), "/health/", "/metrics"),
		validator.Middleware(),
	)

	// 14. Запуск (блокирующий вызов с graceful shutdown)
	if err := srv.Run(); err != nil {
		logger.Error("Сервер завершился с ошибкой", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Data Acquisition остановлен")
}

// newRedisClient создаёт клиент Redis по конфигурации.
func newRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// openStore открывает хранилище заявок выбранного типа.
// Для postgres применяет миграции и возвращает пул соединений.
func openStore(
	ctx context.Context,
	cfg *config.Config,
	redisClient *redis.Client,
	logger *slog.Logger,
) (repository.RequestStore, handlers.ReadinessChecker, *pgxpool.Pool, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		logger.Info("Применение миграций БД...")
		if err := database.Migrate(cfg, logger); err != nil {
			return nil, nil, nil, fmt.Errorf("миграции: %w", err)
		}
		pool, err := database.Connect(ctx, cfg, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return repository.NewPostgresStore(pool), database.NewReadinessChecker(pool), pool, nil

	case config.StoreMemory:
		logger.Warn("Заявки хранятся в памяти и теряются при перезапуске")
		store := repository.NewMemoryStore(logger)
		return store, store, nil, nil

	default:
		keys := repository.NewKeyCache(cfg.KeyCacheSize, cfg.KeyCacheTTL)
		store := repository.NewRedisStore(redisClient, cfg.RedisHash, keys, logger)
		logger.Info("Хранилище заявок Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.String("hash", cfg.RedisHash),
			slog.Int("key_cache_size", cfg.KeyCacheSize),
		)
		return store, repository.NewRedisReadinessChecker(redisClient), nil, nil
	}
}

// newVerifier создаёт проверку JWT по формату ключа.
func newVerifier(ctx context.Context, cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (*auth.Verifier, error) {
	if cfg.JWTKeyFormat == config.KeyFormatJWKS {
		return auth.NewJWKSVerifier(cfg.JWTKeyURL, httpClient, cfg.JWTJWKSRefreshInterval,
			cfg.JWTBearerPrefix, cfg.JWTLeeway, logger)
	}

	key, err := auth.FetchPEMKey(ctx, httpClient, cfg.JWTKeyURL)
	if err != nil {
		return nil, err
	}
	return auth.NewVerifier(key, cfg.JWTBearerPrefix, cfg.JWTLeeway, logger), nil
}
