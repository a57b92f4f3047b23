// redis.go — хранилище заявок в одном хеше Redis.
// Поле хеша — orgUUID:id, значение — JSON заявки.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/bigkaa/goartstore/data-acquisition/internal/domain/model"
)

// DefaultRedisHash — имя хеша по умолчанию.
const DefaultRedisHash = "acquisition_requests"

// RedisStore — хранилище заявок в Redis.
type RedisStore struct {
	client redis.UniversalClient
	hash   string
	keys   *KeyCache
	logger *slog.Logger
}

// NewRedisStore создаёт хранилище поверх клиента Redis.
// keys может быть nil — тогда Get всегда сканирует поля хеша.
func NewRedisStore(client redis.UniversalClient, hash string, keys *KeyCache, logger *slog.Logger) *RedisStore {
	if hash == "" {
		hash = DefaultRedisHash
	}
	return &RedisStore{
		client: client,
		hash:   hash,
		keys:   keys,
		logger: logger.With(slog.String("component", "redis_store")),
	}
}

// Put сохраняет заявку.
func (s *RedisStore) Put(ctx context.Context, req *model.AcquisitionRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("сериализация заявки %s: %w", req.ID, err)
	}

	key := req.StoreKey()
	if err := s.client.HSet(ctx, s.hash, key, data).Err(); err != nil {
		return fmt.Errorf("HSET %s: %w", key, err)
	}
	s.keys.Set(req.ID, key)
	return nil
}

// Get возвращает заявку по id.
// Ключ берётся из кэша, при промахе ищется среди полей хеша по суффиксу :id.
func (s *RedisStore) Get(ctx context.Context, id string) (*model.AcquisitionRequest, error) {
	if key, ok := s.keys.Get(id); ok {
		req, err := s.getByKey(ctx, key)
		if err == nil && req.ID == id {
			return req, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		s.keys.Delete(id)
	}

	fields, err := s.client.HKeys(ctx, s.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("HKEYS %s: %w", s.hash, err)
	}
	var decodeErr error
	for _, key := range fields {
		if !keyHasID(key, id) {
			continue
		}
		req, err := s.getByKey(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if errors.Is(err, errCorruptRecord) {
			decodeErr = err
			continue
		}
		if err != nil {
			return nil, err
		}
		if req.ID != id {
			continue
		}
		s.keys.Set(id, key)
		return req, nil
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return nil, fmt.Errorf("заявка %s: %w", id, ErrNotFound)
}

// getByKey читает заявку по составному ключу.
func (s *RedisStore) getByKey(ctx context.Context, key string) (*model.AcquisitionRequest, error) {
	data, err := s.client.HGet(ctx, s.hash, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("заявка %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("HGET %s: %w", key, err)
	}
	return decodeRequest(data)
}

// GetForOrg возвращает заявки организации, отсортированные по id.
func (s *RedisStore) GetForOrg(ctx context.Context, orgUUID string) ([]*model.AcquisitionRequest, error) {
	all, err := s.client.HGetAll(ctx, s.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("HGETALL %s: %w", s.hash, err)
	}

	result := make([]*model.AcquisitionRequest, 0)
	for key, data := range all {
		if !keyHasOrg(key, orgUUID) {
			continue
		}
		req, err := decodeRequest([]byte(data))
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
func (s *RedisStore) Delete(ctx context.Context, req *model.AcquisitionRequest) error {
	key := req.StoreKey()
	if err := s.client.HDel(ctx, s.hash, key).Err(); err != nil {
		return fmt.Errorf("HDEL %s: %w", key, err)
	}
	s.keys.Delete(req.ID)
	return nil
}

// RedisReadinessChecker — проверка готовности Redis для health endpoint.
type RedisReadinessChecker struct {
	client redis.UniversalClient
}

// NewRedisReadinessChecker создаёт проверку готовности Redis.
func NewRedisReadinessChecker(client redis.UniversalClient) *RedisReadinessChecker {
	return &RedisReadinessChecker{client: client}
}

// CheckReady проверяет подключение к Redis через PING.
func (c *RedisReadinessChecker) CheckReady() (status, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), readinessTimeout)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return "fail", fmt.Sprintf("Redis недоступен: %v", err)
	}
	return "ok", "подключение активно"
}
