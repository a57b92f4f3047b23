package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/goartstore/data-acquisition/internal/downstream"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// recordedCall — один вызов mockCaller.
type recordedCall struct {
	URL   string
	Body  any
	Token downstream.Secret
}

// mockCaller записывает вызовы и опционально блокируется на release.
type mockCaller struct {
	mu      sync.Mutex
	calls   []recordedCall
	release chan struct{}
	started chan struct{}
}

func (m *mockCaller) Call(_ context.Context, url string, body any, token downstream.Secret) bool {
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.release != nil {
		<-m.release
	}
	m.mu.Lock()
	m.calls = append(m.calls, recordedCall{URL: url, Body: body, Token: token})
	m.mu.Unlock()
	return true
}

func (m *mockCaller) snapshot() []recordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recordedCall(nil), m.calls...)
}

func TestPool_RunsJobs(t *testing.T) {
	caller := &mockCaller{}
	pool := NewPool(caller, 2, 10, testLogger())
	pool.Start(context.Background())

	for i := 0; i < 5; i++ {
		if err := pool.Submit(context.Background(), Job{URL: "http://x", Token: downstream.NewSecret("t")}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	pool.Stop()

	calls := caller.snapshot()
	if len(calls) != 5 {
		t.Fatalf("выполнено %d заданий, ожидалось 5", len(calls))
	}
	if calls[0].Token.Value() != "t" {
		t.Errorf("токен не передан воркеру")
	}
}

func TestPool_Bounded(t *testing.T) {
	caller := &mockCaller{release: make(chan struct{}), started: make(chan struct{}, 1)}
	pool := NewPool(caller, 1, 1, testLogger())
	pool.Start(context.Background())

	// Первое задание занимает воркер
	if err := pool.Submit(context.Background(), Job{URL: "1"}); err != nil {
		t.Fatal(err)
	}
	<-caller.started

	// Второе занимает буфер
	if err := pool.Submit(context.Background(), Job{URL: "2"}); err != nil {
		t.Fatal(err)
	}
	// Третье не помещается
	if err := pool.Submit(context.Background(), Job{URL: "3"}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("ожидалась ErrQueueFull, получено %v", err)
	}

	close(caller.release)
	pool.Stop()

	if n := len(caller.snapshot()); n != 2 {
		t.Errorf("выполнено %d заданий, ожидалось 2", n)
	}
}

func TestPool_SubmitAfterStop(t *testing.T) {
	pool := NewPool(&mockCaller{}, 1, 1, testLogger())
	pool.Start(context.Background())
	pool.Stop()
	pool.Stop()

	if err := pool.Submit(context.Background(), Job{}); !errors.Is(err, ErrStopped) {
		t.Errorf("ожидалась ErrStopped, получено %v", err)
	}
}

// --- Интеграционные тесты ---

// setupRedis запускает Redis в Docker-контейнере.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "docker.io/redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Не удалось запустить Redis контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Не удалось получить адрес контейнера: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisQueue_RoundTrip(t *testing.T) {
	client := setupRedis(t)
	queue := NewRedisQueue(client, "test:jobs", testLogger())
	ctx := context.Background()

	body := downstream.DownloadRequest{Source: "http://some-fake-url", Callback: "http://das/cb"}
	if err := queue.Submit(ctx, Job{URL: "http://downloader/rest/downloader/requests", Body: body, Token: downstream.NewSecret("bearer abc")}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if n, _ := queue.Len(ctx); n != 1 {
		t.Fatalf("Len() = %d, ожидалось 1", n)
	}

	caller := &mockCaller{started: make(chan struct{}, 1)}
	consumeCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		_ = queue.Consume(consumeCtx, caller, 2)
		close(done)
	}()

	select {
	case <-caller.started:
	case <-time.After(10 * time.Second):
		t.Fatal("задание не получено воркером")
	}
	cancel()
	<-done

	calls := caller.snapshot()
	if len(calls) != 1 {
		t.Fatalf("выполнено %d заданий, ожидалось 1", len(calls))
	}
	if calls[0].Token.Value() != "bearer abc" {
		t.Errorf("токен = %q", calls[0].Token.Value())
	}
	var got downstream.DownloadRequest
	raw, _ := calls[0].Body.(json.RawMessage)
	if err := json.Unmarshal(raw, &got); err != nil || got != body {
		t.Errorf("тело = %s, ожидалось %+v", raw, body)
	}
}
