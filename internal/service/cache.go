// cache.go — LRU-кэш препаратов по отпечатку подлинности с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш препаратов.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша препаратов.",
	})
)

// MedicineCache — LRU-кэш препаратов по отпечатку с автоматическим TTL.
// Снижает нагрузку на PostgreSQL при массовых сканированиях одной партии.
type MedicineCache struct {
	cache *expirable.LRU[string, *model.Medicine]
}

// NewMedicineCache создаёт LRU-кэш с указанным максимальным размером и TTL.
func NewMedicineCache(maxSize int, ttl time.Duration) *MedicineCache {
	cache := expirable.NewLRU[string, *model.Medicine](maxSize, nil, ttl)
	return &MedicineCache{cache: cache}
}

// Get возвращает препарат из кэша по отпечатку.
// Возвращает (запись, true) при hit или (nil, false) при miss.
// Обновляет Prometheus-метрики hit/miss.
func (c *MedicineCache) Get(fingerprint string) (*model.Medicine, bool) {
	val, ok := c.cache.Get(fingerprint)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись в кэше.
func (c *MedicineCache) Set(fingerprint string, m *model.Medicine) {
	c.cache.Add(fingerprint, m)
}

// Delete удаляет запись из кэша (инвалидация при удалении препарата).
func (c *MedicineCache) Delete(fingerprint string) {
	c.cache.Remove(fingerprint)
}
