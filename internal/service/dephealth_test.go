package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// healthServer отвечает status на /health.
func healthServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewDephealthService_WithoutDatabase(t *testing.T) {
	srv := healthServer(t, http.StatusOK)

	ds, err := NewDephealthServiceWithRegisterer("das-test-01", "das",
		DephealthTargets{
			DownloaderURL:     srv.URL,
			MetadataParserURL: srv.URL,
			UserManagementURL: srv.URL,
		},
		5*time.Second, testLogger(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("Ошибка создания DephealthService: %v", err)
	}
	if ds == nil {
		t.Fatal("DephealthService nil")
	}
}

func TestDephealthService_Health(t *testing.T) {
	healthy := healthServer(t, http.StatusOK)
	broken := healthServer(t, http.StatusInternalServerError)

	ds, err := NewDephealthServiceWithRegisterer("das-test-02", "das",
		DephealthTargets{
			DownloaderURL:     healthy.URL,
			MetadataParserURL: healthy.URL,
			UserManagementURL: broken.URL,
		},
		1*time.Second, testLogger(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("Ошибка создания DephealthService: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := ds.Start(ctx); err != nil {
		t.Fatalf("Ошибка запуска: %v", err)
	}
	defer ds.Stop()

	// Интервал 1s + запас на первую проверку
	time.Sleep(3 * time.Second)

	want := map[string]bool{
		"downloader":      true,
		"metadata-parser": true,
		"user-management": false,
	}
	health := ds.Health()
	for name, expected := range want {
		found := false
		for key, val := range health {
			if strings.HasPrefix(key, name+":") {
				found = true
				if val != expected {
					t.Errorf("%s health = %v, ожидалось %v", key, val, expected)
				}
			}
		}
		if !found {
			t.Errorf("Нет записи для %s в Health(): %v", name, health)
		}
	}
}
