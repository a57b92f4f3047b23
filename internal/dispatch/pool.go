// pool.go — пул из фиксированного числа горутин с ограниченным буфером.
package dispatch

import (
	"context"
	"log/slog"
	"sync"
)

// Pool выполняет задания в workers горутинах.
type Pool struct {
	caller  Caller
	workers int
	jobs    chan Job
	logger  *slog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewPool создаёт пул. queueSize — ёмкость буфера ожидающих заданий.
func NewPool(caller Caller, workers, queueSize int, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		caller:  caller,
		workers: workers,
		jobs:    make(chan Job, queueSize),
		logger:  logger.With(slog.String("component", "dispatch_pool")),
	}
}

// Start запускает воркеры. Задания выполняются с контекстом ctx.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	p.logger.Info("Пул исходящих вызовов запущен", slog.Int("workers", p.workers))
}

// worker выполняет задания до закрытия канала.
func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for job := range p.jobs {
		jobsQueued.Dec()
		p.caller.Call(ctx, job.URL, job.Body, job.Token)
	}
}

// Submit ставит задание в буфер без блокировки.
func (p *Pool) Submit(_ context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrStopped
	}
	select {
	case p.jobs <- job:
		jobsQueued.Inc()
		return nil
	default:
		p.logger.Error("Очередь исходящих вызовов переполнена, задание отброшено",
			slog.String("url", job.URL),
		)
		return ErrQueueFull
	}
}

// Stop прекращает приём заданий и дожидается выполнения уже поставленных.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
	p.logger.Info("Пул исходящих вызовов остановлен")
}
