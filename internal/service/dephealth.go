// dephealth.go — мониторинг зависимостей через topologymetrics SDK.
//
// Data Acquisition мониторит:
//   - Downloader, Metadata Parser, User-Management — HTTP checker к /health (critical)
//   - PostgreSQL — SQL checker через pgxpool, только при хранилище postgres
//
// Метрики app_dependency_* отдаются на /metrics вместе с остальными.
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // регистрация HTTP checker factory
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"
	"github.com/prometheus/client_golang/prometheus"
)

// dependencyHealthPath — health endpoint внешних сервисов.
const dependencyHealthPath = "/health"

// DephealthTargets — зависимости для мониторинга.
type DephealthTargets struct {
	DownloaderURL     string
	MetadataParserURL string
	UserManagementURL string
	// DB и DBURL задаются только для хранилища postgres.
	DB    *sql.DB
	DBURL string
}

// DephealthService — мониторинг зависимостей.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт мониторинг с глобальным Prometheus registry.
func NewDephealthService(
	serviceID, group string,
	targets DephealthTargets,
	checkInterval time.Duration,
	logger *slog.Logger,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, targets, checkInterval, logger)
}

// NewDephealthServiceWithRegisterer создаёт мониторинг с указанным registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(
	serviceID, group string,
	targets DephealthTargets,
	checkInterval time.Duration,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, targets, checkInterval, logger,
		dephealth.WithRegisterer(registerer))
}

func newDephealthService(
	serviceID, group string,
	targets DephealthTargets,
	checkInterval time.Duration,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	opts := []dephealth.Option{
		dephealth.WithLogger(logger),
		dephealth.HTTP("downloader", httpDependencyOptions(targets.DownloaderURL, checkInterval)...),
		dephealth.HTTP("metadata-parser", httpDependencyOptions(targets.MetadataParserURL, checkInterval)...),
		dephealth.HTTP("user-management", httpDependencyOptions(targets.UserManagementURL, checkInterval)...),
	}
	if targets.DB != nil {
		opts = append(opts, dephealth.AddDependency("postgresql", dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(targets.DB)),
			dephealth.FromURL(targets.DBURL),
			dephealth.CheckInterval(checkInterval),
			dephealth.Critical(true),
		))
	}
	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(serviceID, group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// httpDependencyOptions — опции HTTP-зависимости по её базовому URL.
func httpDependencyOptions(rawURL string, checkInterval time.Duration) []dephealth.DependencyOption {
	opts := []dephealth.DependencyOption{
		dephealth.FromURL(rawURL),
		dephealth.WithHTTPHealthPath(dependencyHealthPath),
		dephealth.CheckInterval(checkInterval),
		dephealth.Critical(true),
	}
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Scheme == "https" {
		opts = append(opts, dephealth.WithHTTPTLSSkipVerify(false))
	}
	return opts
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает состояние зависимостей: имя → true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
