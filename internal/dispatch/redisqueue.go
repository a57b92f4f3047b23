// redisqueue.go — очередь заданий в списке Redis (LPUSH / BRPOP).
// Процесс API ставит задания, процесс das-worker их выполняет.
// Токен в очереди хранится в открытом виде: он нужен воркеру для вызова.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bigkaa/goartstore/data-acquisition/internal/downstream"
)

// pollTimeout — таймаут BRPOP, после которого воркер проверяет контекст.
const pollTimeout = 5 * time.Second

// queuedJob — формат задания в Redis.
type queuedJob struct {
	URL   string          `json:"url"`
	Body  json.RawMessage `json:"body"`
	Token string          `json:"token"`
}

// RedisQueue — очередь заданий в списке Redis.
type RedisQueue struct {
	client redis.UniversalClient
	key    string
	logger *slog.Logger
}

// NewRedisQueue создаёт очередь в списке key.
func NewRedisQueue(client redis.UniversalClient, key string, logger *slog.Logger) *RedisQueue {
	return &RedisQueue{
		client: client,
		key:    key,
		logger: logger.With(slog.String("component", "redis_queue")),
	}
}

// Submit сериализует задание и добавляет его в начало списка.
func (q *RedisQueue) Submit(ctx context.Context, job Job) error {
	body, err := json.Marshal(job.Body)
	if err != nil {
		return fmt.Errorf("сериализация тела задания: %w", err)
	}
	data, err := json.Marshal(queuedJob{URL: job.URL, Body: body, Token: job.Token.Value()})
	if err != nil {
		return fmt.Errorf("сериализация задания: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("LPUSH %s: %w", q.key, err)
	}
	return nil
}

// Len возвращает длину очереди.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// Consume разбирает очередь в concurrency горутинах до отмены ctx.
// Уже начатые вызовы завершаются перед возвратом.
func (q *RedisQueue) Consume(ctx context.Context, caller Caller, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}
	q.logger.Info("Обработка очереди заданий запущена",
		slog.String("queue", q.key),
		slog.Int("workers", concurrency),
	)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.consumeLoop(ctx, caller)
		}()
	}
	wg.Wait()

	q.logger.Info("Обработка очереди заданий остановлена")
	return nil
}

// consumeLoop — цикл одного воркера.
func (q *RedisQueue) consumeLoop(ctx context.Context, caller Caller) {
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := q.pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			q.logger.Error("Ошибка чтения очереди", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue
		}

		// Вызов не прерывается отменой ctx, задание уже снято с очереди.
		caller.Call(context.WithoutCancel(ctx), job.URL, job.Body, downstream.NewSecret(job.Token))
	}
}

// pop снимает одно задание. Возвращает nil, nil по таймауту.
func (q *RedisQueue) pop(ctx context.Context) (*queuedJob, error) {
	res, err := q.client.BRPop(ctx, pollTimeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPOP возвращает [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("неожиданный ответ BRPOP: %v", res)
	}

	var job queuedJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		q.logger.Error("Повреждённое задание пропущено", slog.String("error", err.Error()))
		return nil, nil
	}
	return &job, nil
}
