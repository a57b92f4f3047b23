// postgres.go — хранилище заявок в PostgreSQL.
// Заявка хранится целиком в jsonb, ключевые поля продублированы в колонках.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goartstore/data-acquisition/internal/domain/model"
)

// readinessTimeout — таймаут проверок готовности хранилищ.
const readinessTimeout = 3 * time.Second

// PostgresStore — хранилище заявок в PostgreSQL.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore создаёт хранилище поверх пула или транзакции.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// Put сохраняет заявку (upsert по org_uuid, id).
func (s *PostgresStore) Put(ctx context.Context, req *model.AcquisitionRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("сериализация заявки %s: %w", req.ID, err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO acquisition_requests (org_uuid, id, state, data, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (org_uuid, id) DO UPDATE SET
			state = EXCLUDED.state,
			data = EXCLUDED.data,
			updated_at = NOW()`,
		req.OrgUUID, req.ID, string(req.State), data,
	)
	if err != nil {
		return fmt.Errorf("сохранение заявки %s: %w", req.ID, err)
	}
	return nil
}

// Get возвращает заявку по id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*model.AcquisitionRequest, error) {
	var data []byte
	err := s.db.QueryRow(ctx,
		`SELECT data FROM acquisition_requests WHERE id = $1 LIMIT 1`, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("заявка %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("получение заявки %s: %w", id, err)
	}
	return decodeRequest(data)
}

// GetForOrg возвращает заявки организации, отсортированные по id.
func (s *PostgresStore) GetForOrg(ctx context.Context, orgUUID string) ([]*model.AcquisitionRequest, error) {
	rows, err := s.db.Query(ctx,
		`SELECT data FROM acquisition_requests WHERE org_uuid = $1 ORDER BY id`, orgUUID,
	)
	if err != nil {
		return nil, fmt.Errorf("список заявок организации %s: %w", orgUUID, err)
	}
	defer rows.Close()

	result := make([]*model.AcquisitionRequest, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("сканирование заявки: %w", err)
		}
		req, err := decodeRequest(data)
		if err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация заявок: %w", err)
	}
	return result, nil
}

// Delete удаляет заявку.
func (s *PostgresStore) Delete(ctx context.Context, req *model.AcquisitionRequest) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM acquisition_requests WHERE org_uuid = $1 AND id = $2`,
		req.OrgUUID, req.ID,
	)
	if err != nil {
		return fmt.Errorf("удаление заявки %s: %w", req.ID, err)
	}
	return nil
}
