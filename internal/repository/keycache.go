// keycache.go — LRU-кэш соответствия id → orgUUID:id с TTL.
// Составной ключ заявки не меняется, поэтому кэшируется только ключ,
// а сама запись всегда читается из хранилища.
package repository

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики кэша ключей.
var (
	keyCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "das_key_cache_hits_total",
		Help: "Количество попаданий в кэш ключей заявок.",
	})
	keyCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "das_key_cache_misses_total",
		Help: "Количество промахов кэша ключей заявок.",
	})
)

// KeyCache — кэш составных ключей заявок.
type KeyCache struct {
	cache *expirable.LRU[string, string]
}

// NewKeyCache создаёт кэш. size <= 0 отключает кэширование (возвращает nil).
func NewKeyCache(size int, ttl time.Duration) *KeyCache {
	if size <= 0 {
		return nil
	}
	return &KeyCache{cache: expirable.NewLRU[string, string](size, nil, ttl)}
}

// Get возвращает составной ключ заявки id.
func (c *KeyCache) Get(id string) (string, bool) {
	if c == nil {
		return "", false
	}
	key, ok := c.cache.Get(id)
	if ok {
		keyCacheHitsTotal.Inc()
		return key, true
	}
	keyCacheMissesTotal.Inc()
	return "", false
}

// Set запоминает составной ключ заявки id.
func (c *KeyCache) Set(id, key string) {
	if c == nil {
		return
	}
	c.cache.Add(id, key)
}

// Delete удаляет ключ заявки id.
func (c *KeyCache) Delete(id string) {
	if c == nil {
		return
	}
	c.cache.Remove(id)
}

// Len возвращает количество ключей в кэше.
func (c *KeyCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}
