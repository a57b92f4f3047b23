// Пакет dispatch — асинхронная отправка исходящих вызовов.
// Обработчик HTTP ставит задание и сразу отвечает клиенту; задание
// выполняется пулом горутин в процессе или воркером из очереди Redis.
// Повторов нет: неуспешный вызов только логируется.
package dispatch

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/data-acquisition/internal/downstream"
)

// ErrQueueFull — буфер пула заполнен, задание отброшено.
var ErrQueueFull = errors.New("очередь заданий переполнена")

// ErrStopped — диспетчер остановлен.
var ErrStopped = errors.New("диспетчер остановлен")

// jobsQueued — задания, ожидающие выполнения в пуле.
var jobsQueued = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "das_jobs_queued",
	Help: "Количество заданий в очереди исходящих вызовов",
})

// Job — исходящий вызов: POST Body на URL с заголовком Authorization = Token.
type Job struct {
	URL   string
	Body  any
	Token downstream.Secret
}

// Dispatcher ставит задания в очередь.
type Dispatcher interface {
	Submit(ctx context.Context, job Job) error
}

// Caller выполняет исходящий вызов. Реализуется downstream.Client.
type Caller interface {
	Call(ctx context.Context, url string, body any, token downstream.Secret) bool
}
