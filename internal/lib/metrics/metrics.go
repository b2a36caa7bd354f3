// Package metrics объявляет метрики Prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests количество обработанных HTTP‑запросов.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "omniclass",
		Name:      "http_requests_total",
		Help:      "Number of handled HTTP requests.",
	}, []string{"method", "route", "status"})

	// HTTPDuration длительность обработки HTTP‑запросов.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "omniclass",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// Payments переходы платежей по статусам.
	Payments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "omniclass",
		Name:      "payments_total",
		Help:      "Payments by resulting status.",
	}, []string{"status"})

	// VideoGenerations завершённые генерации видеообъяснений.
	VideoGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "omniclass",
		Name:      "video_generations_total",
		Help:      "Finished video script generations by result.",
	}, []string{"result"})

	// AIRequests обращения к ИИ‑провайдеру.
	AIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "omniclass",
		Name:      "ai_requests_total",
		Help:      "Calls to the text generation provider by outcome.",
	}, []string{"outcome"})
)
