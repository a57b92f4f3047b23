// Пакет repository — хранилище заявок на загрузку.
// Реализации: Redis (хеш), PostgreSQL (чистый SQL через pgx) и память.
// Ключ записи всегда orgUUID:id. Блокировок нет, выигрывает последняя запись.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bigkaa/goartstore/data-acquisition/internal/domain/model"
)

// ErrNotFound — запись не найдена.
var ErrNotFound = errors.New("запись не найдена")

// RequestStore — хранилище заявок на загрузку.
type RequestStore interface {
	// Put сохраняет заявку по ключу orgUUID:id, перезаписывая предыдущую версию.
	Put(ctx context.Context, req *model.AcquisitionRequest) error
	// Get возвращает заявку по id без знания организации.
	Get(ctx context.Context, id string) (*model.AcquisitionRequest, error)
	// GetForOrg возвращает все заявки организации.
	GetForOrg(ctx context.Context, orgUUID string) ([]*model.AcquisitionRequest, error)
	// Delete удаляет заявку. Отсутствие записи ошибкой не является.
	Delete(ctx context.Context, req *model.AcquisitionRequest) error
}

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// keyHasID проверяет, что составной ключ относится к заявке id.
func keyHasID(key, id string) bool {
	return id != "" && strings.HasSuffix(key, ":"+id)
}

// keyHasOrg проверяет, что составной ключ относится к организации org.
func keyHasOrg(key, org string) bool {
	return strings.HasPrefix(key, org+":")
}
