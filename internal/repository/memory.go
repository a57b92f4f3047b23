package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/bigkaa/goartstore/data-acquisition/internal/domain/model"
)

// MemoryStore — хранилище в памяти процесса (разработка и тесты).
// Записи хранятся в JSON, как в Redis.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
	logger  *slog.Logger
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]byte),
		logger:  logger.With(slog.String("component", "memory_store")),
	}
}

// Put сохраняет заявку.
func (s *MemoryStore) Put(_ context.Context, req *model.AcquisitionRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("сериализация заявки %s: %w", req.ID, err)
	}

	s.mu.Lock()
	s.records[req.StoreKey()] = data
	s.mu.Unlock()
	return nil
}

// PutRaw сохраняет произвольный JSON по ключу (для тестов совместимости формата).
func (s *MemoryStore) PutRaw(key string, data []byte) {
	s.mu.Lock()
	s.records[key] = data
	s.mu.Unlock()
}

// Get ищет заявку по суффиксу :id и сверяет id разобранной записи.
func (s *MemoryStore) Get(_ context.Context, id string) (*model.AcquisitionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var decodeErr error
	for key, data := range s.records {
		if !keyHasID(key, id) {
			continue
		}
		req, err := decodeRequest(data)
		if err != nil {
			decodeErr = err
			continue
		}
		if req.ID == id {
			return req, nil
		}
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return nil, fmt.Errorf("заявка %s: %w", id, ErrNotFound)
}

// GetForOrg возвращает заявки организации, отсортированные по id.
func (s *MemoryStore) GetForOrg(_ context.Context, orgUUID string) ([]*model.AcquisitionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.AcquisitionRequest, 0)
	for key, data := range s.records {
		if !keyHasOrg(key, orgUUID) {
			continue
		}
		req, err := decodeRequest(data)
		if err != nil {
			s.logger.Warn("Пропущена повреждённая запись",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			continue
		}
		if req.OrgUUID != orgUUID {
			continue
		}
		result = append(result, req)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Delete удаляет заявку.
func (s *MemoryStore) Delete(_ context.Context, req *model.AcquisitionRequest) error {
	s.mu.Lock()
	delete(s.records, req.StoreKey())
	s.mu.Unlock()
	return nil
}

// CheckReady — хранилище в памяти всегда готово.
func (s *MemoryStore) CheckReady() (status, message string) {
	return "ok", "хранилище в памяти"
}

// errCorruptRecord — сохранённый JSON заявки не разбирается.
var errCorruptRecord = errors.New("повреждённая запись заявки")

// decodeRequest разбирает JSON заявки. Лишние поля игнорируются.
func decodeRequest(data []byte) (*model.AcquisitionRequest, error) {
	var req model.AcquisitionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptRecord, err)
	}
	if req.Timestamps == nil {
		req.Timestamps = make(map[model.State]int64)
	}
	return &req, nil
}
