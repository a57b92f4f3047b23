// Пакет database — PostgreSQL-бэкенд хранилища заявок (DAS_STORE=postgres):
// пул pgxpool, схема acquisition_requests через golang-migrate и readiness.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bigkaa/goartstore/data-acquisition/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	// applicationName — видно в pg_stat_activity.
	applicationName = "data-acquisition"
	// migrationsTable — таблица версий схемы DAS.
	migrationsTable = "das_schema_migrations"
	// connectAttempts — попытки ping при старте, пауза растёт линейно.
	connectAttempts = 5
	connectBackoff  = time.Second
	// readinessTimeout — предел ping для /health/ready.
	readinessTimeout = 3 * time.Second
)

// ErrDirtySchema — предыдущая миграция прервана, нужен ручной migrate force.
var ErrDirtySchema = errors.New("схема acquisition_requests в состоянии dirty")

// Connect открывает пул и дожидается доступности PostgreSQL.
// Postgres может подниматься одновременно с сервисом, поэтому ping
// повторяется до connectAttempts раз или до отмены ctx.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger = logger.With(slog.String("component", "postgres"), slog.String("url", cfg.DatabaseURL()))

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}
	poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула подключений: %w", err)
	}

	for attempt := 1; ; attempt++ {
		err = pool.Ping(ctx)
		if err == nil {
			break
		}
		if attempt == connectAttempts {
			pool.Close()
			return nil, fmt.Errorf("PostgreSQL недоступен после %d попыток: %w", attempt, err)
		}
		logger.Warn("PostgreSQL недоступен, повтор",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, fmt.Errorf("ожидание PostgreSQL прервано: %w", ctx.Err())
		case <-time.After(time.Duration(attempt) * connectBackoff):
		}
	}

	logger.Info("Пул PostgreSQL готов", slog.Int("max_conns", int(poolCfg.MaxConns)))
	return pool, nil
}

// migrationURL — адрес для драйвера pgx5 golang-migrate.
func migrationURL(cfg *config.Config) string {
	q := url.Values{}
	q.Set("sslmode", cfg.DBSSLMode)
	q.Set("x-migrations-table", migrationsTable)
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(cfg.DBUser, cfg.DBPassword),
		Host:     net.JoinHostPort(cfg.DBHost, strconv.Itoa(cfg.DBPort)),
		Path:     "/" + cfg.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Migrate приводит схему к последней встроенной версии.
// Dirty-состояние не исправляется автоматически: ErrDirtySchema.
func Migrate(cfg *config.Config, logger *slog.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("ошибка создания источника миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrationURL(cfg))
	if err != nil {
		return fmt.Errorf("ошибка инициализации миграций: %w", err)
	}
	defer m.Close()

	before, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		before = 0
	case err != nil:
		return fmt.Errorf("ошибка чтения версии схемы: %w", err)
	case dirty:
		return fmt.Errorf("%w: версия %d", ErrDirtySchema, before)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	after, _, _ := m.Version()
	logger.Info("Схема acquisition_requests актуальна",
		slog.Uint64("from_version", uint64(before)),
		slog.Uint64("version", uint64(after)),
	)
	return nil
}

// ReadinessChecker — проверка PostgreSQL для /health/ready.
type ReadinessChecker struct {
	pool *pgxpool.Pool
}

// NewReadinessChecker создаёт проверку готовности PostgreSQL.
func NewReadinessChecker(pool *pgxpool.Pool) *ReadinessChecker {
	return &ReadinessChecker{pool: pool}
}

// CheckReady выполняет ping и сообщает занятость пула.
func (c *ReadinessChecker) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), readinessTimeout)
	defer cancel()

	if err := c.pool.Ping(ctx); err != nil {
		return "fail", fmt.Sprintf("PostgreSQL недоступен: %v", err)
	}
	stat := c.pool.Stat()
	return "ok", fmt.Sprintf("соединений занято %d из %d", stat.AcquiredConns(), stat.TotalConns())
}
