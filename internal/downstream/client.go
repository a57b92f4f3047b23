// Пакет downstream — исходящие вызовы к Downloader и Metadata Parser.
// Вызовы идут от имени пользователя: заголовок Authorization передаётся
// без изменений. Ошибки только логируются, повторов нет.
package downstream

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// maxErrorBody — сколько байт тела ответа с ошибкой попадает в лог.
const maxErrorBody = 4096

// downstreamCallsTotal — исходы исходящих вызовов.
var downstreamCallsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "das_downstream_calls_total",
		Help: "Количество исходящих вызовов к внешним сервисам",
	},
	[]string{"target", "result"},
)

// Client — HTTP-клиент для вызовов внешних сервисов.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент.
// caCertPath — путь к CA-сертификату для TLS (пустая строка — системный пул).
func New(caCertPath string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	httpClient, err := NewHTTPClient(caCertPath, timeout)
	if err != nil {
		return nil, err
	}
	if caCertPath != "" {
		logger.Info("CA-сертификат добавлен в пул доверия исходящих вызовов",
			slog.String("ca_cert", caCertPath),
		)
	}

	return &Client{
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "downstream_client")),
	}, nil
}

// NewWithHTTPClient создаёт клиент поверх готового http.Client.
func NewWithHTTPClient(httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "downstream_client")),
	}
}

// NewHTTPClient создаёт http.Client с таймаутом и опциональным CA.
func NewHTTPClient(caCertPath string, timeout time.Duration) (*http.Client, error) {
	httpClient := &http.Client{Timeout: timeout}
	if caCertPath == "" {
		return httpClient, nil
	}

	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата %s: %w", caCertPath, err)
	}
	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	httpClient.Transport = &http.Transport{
		TLSClientConfig: &tls.Config{RootCAs: caCertPool},
	}
	return httpClient, nil
}

// Call отправляет POST с JSON-телом и заголовком Authorization.
// Возвращает true при 2xx. Любая ошибка логируется и даёт false.
func (c *Client) Call(ctx context.Context, target string, body any, token Secret) bool {
	label := targetLabel(target)

	data, err := json.Marshal(body)
	if err != nil {
		c.logger.Error("Не удалось сериализовать тело запроса",
			slog.String("url", target),
			slog.String("error", err.Error()),
		)
		downstreamCallsTotal.WithLabelValues(label, "error").Inc()
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		c.logger.Error("Не удалось создать запрос",
			slog.String("url", target),
			slog.String("error", err.Error()),
		)
		downstreamCallsTotal.WithLabelValues(label, "error").Inc()
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token.Value())

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL из конфигурации
	if err != nil {
		c.logger.Error("Ошибка соединения с внешним сервисом",
			slog.String("url", target),
			slog.String("data", string(data)),
			slog.String("error", err.Error()),
		)
		downstreamCallsTotal.WithLabelValues(label, "error").Inc()
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("Внешний сервис отклонил запрос",
			slog.String("url", target),
			slog.String("data", string(data)),
			slog.Int("status", resp.StatusCode),
			slog.String("response", string(respBody)),
		)
		downstreamCallsTotal.WithLabelValues(label, "rejected").Inc()
		return false
	}

	c.logger.Info("Запрос к внешнему сервису выполнен",
		slog.String("url", target),
		slog.String("data", string(data)),
	)
	downstreamCallsTotal.WithLabelValues(label, "ok").Inc()
	return true
}

// targetLabel — путь URL как лейбл метрики (без хоста и query).
func targetLabel(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Path == "" {
		return "unknown"
	}
	return u.Path
}
