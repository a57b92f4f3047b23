package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/goartstore/data-acquisition/internal/config"
	"github.com/bigkaa/goartstore/data-acquisition/internal/database"
	"github.com/bigkaa/goartstore/data-acquisition/internal/domain/model"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newRequest создаёт заявку в состоянии VALIDATED.
func newRequest(t *testing.T, id, org string) *model.AcquisitionRequest {
	t.Helper()
	req := model.NewAcquisitionRequest(id, org, "My test download", "http://some-fake-url", "other", true)
	if err := req.TransitionTo(model.StateValidated, time.Unix(1449523225, 0)); err != nil {
		t.Fatal(err)
	}
	return req
}

// testStoreContract проверяет общий контракт RequestStore.
func testStoreContract(t *testing.T, store RequestStore) {
	ctx := context.Background()

	t.Run("put/get", func(t *testing.T) {
		req := newRequest(t, "id-1", "org-a")
		if err := store.Put(ctx, req); err != nil {
			t.Fatalf("Put: %v", err)
		}

		got, err := store.Get(ctx, "id-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.OrgUUID != "org-a" || got.State != model.StateValidated {
			t.Errorf("получено %+v", got)
		}
		if got.Timestamps[model.StateValidated] != 1449523225 {
			t.Errorf("Timestamps = %v", got.Timestamps)
		}
	})

	t.Run("перезапись", func(t *testing.T) {
		req := newRequest(t, "id-2", "org-a")
		_ = store.Put(ctx, req)
		if err := req.TransitionTo(model.StateDownloaded, time.Unix(1449523300, 0)); err != nil {
			t.Fatal(err)
		}
		if err := store.Put(ctx, req); err != nil {
			t.Fatalf("Put: %v", err)
		}

		got, err := store.Get(ctx, "id-2")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.State != model.StateDownloaded || len(got.Timestamps) != 2 {
			t.Errorf("получено %+v", got)
		}
	})

	t.Run("неизвестный id", func(t *testing.T) {
		_, err := store.Get(ctx, "no-such-id")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("ожидалась ErrNotFound, получено %v", err)
		}
	})

	t.Run("изоляция организаций", func(t *testing.T) {
		_ = store.Put(ctx, newRequest(t, "id-b1", "org-b"))
		_ = store.Put(ctx, newRequest(t, "id-b2", "org-b"))
		_ = store.Put(ctx, newRequest(t, "id-c1", "org-c"))

		got, err := store.GetForOrg(ctx, "org-b")
		if err != nil {
			t.Fatalf("GetForOrg: %v", err)
		}
		if len(got) != 2 || got[0].ID != "id-b1" || got[1].ID != "id-b2" {
			t.Errorf("GetForOrg(org-b) = %v", ids(got))
		}

		got, err = store.GetForOrg(ctx, "org")
		if err != nil {
			t.Fatalf("GetForOrg: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("префикс организации не должен совпадать частично: %v", ids(got))
		}

		got, _ = store.GetForOrg(ctx, "org-empty")
		if got == nil || len(got) != 0 {
			t.Errorf("ожидался пустой непустой срез, получено %v", got)
		}
	})

	t.Run("двоеточие в организации и id", func(t *testing.T) {
		_ = store.Put(ctx, newRequest(t, "id-x", "org-x"))
		_ = store.Put(ctx, newRequest(t, "id-s", "org-x:secret"))
		_ = store.Put(ctx, newRequest(t, "y:x", "org-y"))

		got, err := store.GetForOrg(ctx, "org-x")
		if err != nil {
			t.Fatalf("GetForOrg: %v", err)
		}
		if len(got) != 1 || got[0].ID != "id-x" {
			t.Errorf("GetForOrg(org-x) вернул записи другой организации: %v", ids(got))
		}

		// Порядок обхода map случаен, поэтому проверка повторяется
		for range 50 {
			if req, err := store.Get(ctx, "x"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get(x) должен давать ErrNotFound, получено %v (%v)", err, req)
			}
		}
		got1, err := store.Get(ctx, "y:x")
		if err != nil || got1.OrgUUID != "org-y" {
			t.Errorf("Get(y:x) = %v, %v", got1, err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		req := newRequest(t, "id-del", "org-d")
		_ = store.Put(ctx, req)

		if err := store.Delete(ctx, req); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := store.Get(ctx, "id-del"); !errors.Is(err, ErrNotFound) {
			t.Errorf("после Delete ожидалась ErrNotFound, получено %v", err)
		}
		if err := store.Delete(ctx, req); err != nil {
			t.Errorf("повторный Delete: %v", err)
		}
	})
}

func ids(reqs []*model.AcquisitionRequest) []string {
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.StoreKey())
	}
	return out
}

func TestMemoryStore_Contract(t *testing.T) {
	testStoreContract(t, NewMemoryStore(testLogger()))
}

func TestMemoryStore_UnknownFields(t *testing.T) {
	store := NewMemoryStore(testLogger())
	store.PutRaw("fake-org-uuid:fake-id", []byte(`{"id":"fake-id","orgUUID":"fake-org-uuid",
		"publicRequest":true,"source":"http://some-fake-url","category":"other",
		"title":"My test download","state":"VALIDATED","timestamps":{"VALIDATED":1449523225},
		"unnecessary_field":"blablabla"}`))

	got, err := store.Get(context.Background(), "fake-id")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "My test download" || got.State != model.StateValidated {
		t.Errorf("получено %+v", got)
	}
}

func TestMemoryStore_CorruptRecordSkipped(t *testing.T) {
	store := NewMemoryStore(testLogger())
	ctx := context.Background()
	_ = store.Put(ctx, newRequest(t, "id-1", "org-a"))
	store.PutRaw("org-a:id-bad", []byte(`{not json`))

	got, err := store.GetForOrg(ctx, "org-a")
	if err != nil {
		t.Fatalf("GetForOrg: %v", err)
	}
	if len(got) != 1 || got[0].ID != "id-1" {
		t.Errorf("GetForOrg(org-a) = %v, ожидалась одна целая запись", ids(got))
	}
	if _, err := store.Get(ctx, "id-bad"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get повреждённой записи должен давать ошибку разбора, получено %v", err)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore(testLogger())
	req := newRequest(t, "id-1", "org-a")
	_ = store.Put(context.Background(), req)

	got, _ := store.Get(context.Background(), "id-1")
	_ = got.TransitionTo(model.StateDownloaded, time.Now())

	again, _ := store.Get(context.Background(), "id-1")
	if again.State != model.StateValidated {
		t.Errorf("изменение прочитанной заявки попало в хранилище: %q", again.State)
	}
}

func TestKeyCache(t *testing.T) {
	cache := NewKeyCache(2, time.Minute)

	if _, ok := cache.Get("a"); ok {
		t.Fatal("ожидался промах для нового ключа")
	}
	cache.Set("a", "org:a")
	if key, ok := cache.Get("a"); !ok || key != "org:a" {
		t.Errorf("Get(a) = %q, %v", key, ok)
	}

	cache.Set("b", "org:b")
	cache.Set("c", "org:c")
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, ожидалось 2", cache.Len())
	}

	cache.Delete("c")
	if _, ok := cache.Get("c"); ok {
		t.Error("ключ c должен быть удалён")
	}
}

func TestKeyCache_TTL(t *testing.T) {
	cache := NewKeyCache(10, 50*time.Millisecond)
	cache.Set("a", "org:a")
	time.Sleep(150 * time.Millisecond)
	if _, ok := cache.Get("a"); ok {
		t.Error("ключ должен истечь по TTL")
	}
}

func TestKeyCache_Disabled(t *testing.T) {
	cache := NewKeyCache(0, time.Minute)
	if cache != nil {
		t.Fatal("кэш размера 0 должен быть nil")
	}
	cache.Set("a", "org:a")
	if _, ok := cache.Get("a"); ok {
		t.Error("отключённый кэш не должен возвращать значения")
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

// setupPostgres запускает PostgreSQL контейнер и применяет миграции.
func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("das_test"),
		postgres.WithUsername("das"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	cfg := &config.Config{
		DBHost:     host,
		DBPort:     port.Int(),
		DBName:     "das_test",
		DBUser:     "das",
		DBPassword: "test-password",
		DBSSLMode:  "disable",
	}

	if err := database.Migrate(cfg, testLogger()); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}
	pool, err := database.Connect(ctx, cfg, testLogger())
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestRedisStore_Contract(t *testing.T) {
	client := setupRedis(t)
	testStoreContract(t, NewRedisStore(client, "test_requests", NewKeyCache(100, time.Minute), testLogger()))
}

func TestRedisStore_WithoutCache(t *testing.T) {
	client := setupRedis(t)
	testStoreContract(t, NewRedisStore(client, "test_requests_nocache", nil, testLogger()))
}

func TestRedisStore_StaleCacheEntry(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	keys := NewKeyCache(100, time.Minute)
	store := NewRedisStore(client, "test_requests_stale", keys, testLogger())

	req := newRequest(t, "id-1", "org-a")
	_ = store.Put(ctx, req)
	client.HDel(ctx, "test_requests_stale", req.StoreKey())

	if _, err := store.Get(ctx, "id-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ErrNotFound, получено %v", err)
	}
	if _, ok := keys.Get("id-1"); ok {
		t.Error("устаревший ключ должен быть удалён из кэша")
	}
}

func TestRedisStore_Format(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	store := NewRedisStore(client, "test_requests_fmt", nil, testLogger())

	_ = store.Put(ctx, newRequest(t, "id-1", "org-a"))

	raw, err := client.HGet(ctx, "test_requests_fmt", "org-a:id-1").Result()
	if err != nil {
		t.Fatalf("поле org-a:id-1 не найдено: %v", err)
	}
	if raw == "" {
		t.Error("пустое значение")
	}

	checker := NewRedisReadinessChecker(client)
	if status, msg := checker.CheckReady(); status != "ok" {
		t.Errorf("CheckReady() = %s, %s", status, msg)
	}
}

func TestRedisStore_CorruptRecordSkipped(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	store := NewRedisStore(client, "test_requests_corrupt", nil, testLogger())

	_ = store.Put(ctx, newRequest(t, "id-1", "org-a"))
	client.HSet(ctx, "test_requests_corrupt", "org-a:id-bad", "{not json")

	got, err := store.GetForOrg(ctx, "org-a")
	if err != nil {
		t.Fatalf("GetForOrg: %v", err)
	}
	if len(got) != 1 || got[0].ID != "id-1" {
		t.Errorf("GetForOrg(org-a) = %v, ожидалась одна целая запись", ids(got))
	}
}

func TestPostgresStore_Contract(t *testing.T) {
	pool := setupPostgres(t)
	testStoreContract(t, NewPostgresStore(pool))
}
