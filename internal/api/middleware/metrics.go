// metrics.go — Prometheus HTTP метрики бэкенда PureMeds.
// Регистрирует метрики: pm_http_requests_total, pm_http_request_duration_seconds.
// Нормализация путей предотвращает взрывной рост кардинальности.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики бэкенда
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm_http_requests_total",
			Help: "Общее количество HTTP-запросов к бэкенду PureMeds",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pm_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к бэкенду PureMeds в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем идентификаторы на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет динамические сегменты пути на плейсхолдеры.
// /api/v1/medicines/a1b2c3d4-... → /api/v1/medicines/{id}
// /api/v1/supply-chain/PM-1001 → /api/v1/supply-chain/{batchId}
func normalizePath(path string) string {
	// Статические пути — возвращаем как есть
	switch path {
	case "/health/live", "/health/ready", "/metrics",
		"/api/v1/verify/qrcode", "/api/v1/verify/hash",
		"/api/v1/medicines", "/api/v1/medicines/featured",
		"/api/v1/orders", "/api/v1/complaints",
		"/api/v1/payments", "/api/v1/payments/checkout-session",
		"/api/v1/payments/session-status", "/api/v1/payments/cod",
		"/api/v1/supply-chain",
		"/api/v1/admin/dashboard", "/api/v1/admin/dashboard/orders.csv",
		"/api/v1/admin/dashboard/medicines.csv",
		"/api/v1/admin/orders", "/api/v1/admin/complaints":
		return path
	}

	prefixes := []struct {
		prefix      string
		placeholder string
	}{
		{"/api/v1/medicines/batch/", "/api/v1/medicines/batch/{batchId}"},
		{"/api/v1/medicines/", "/api/v1/medicines/{id}"},
		{"/api/v1/orders/", "/api/v1/orders/{id}"},
		{"/api/v1/complaints/", "/api/v1/complaints/{id}"},
		{"/api/v1/payments/order/", "/api/v1/payments/order/{orderId}"},
		{"/api/v1/supply-chain/", "/api/v1/supply-chain/{batchId}"},
		{"/api/v1/admin/complaints/", "/api/v1/admin/complaints/{id}"},
		{"/api/v1/admin/orders/", "/api/v1/admin/orders/{id}"},
	}
	for _, p := range prefixes {
		if strings.HasPrefix(path, p.prefix) && len(path) > len(p.prefix) {
			return p.placeholder
		}
	}

	return path
}
