package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics набор метрик сервиса
// Каждый экземпляр владеет собственным registry, поэтому его безопасно создавать в тестах
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration   *prometheus.HistogramVec
	DBOpenConnections *prometheus.GaugeVec
	DBInUse           *prometheus.GaugeVec
	DBIdle            *prometheus.GaugeVec
	DBWaitCount       *prometheus.GaugeVec

	AllocationsTotal    *prometheus.CounterVec
	InvariantViolations *prometheus.CounterVec
	LeasesSwept         prometheus.Counter
	RefundsTotal        *prometheus.CounterVec
}

// New создает и регистрирует метрики с префиксом по имени сервиса
func New(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency",
			ConstLabels: constLabels,
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		DBOpenConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Open connections in the pool",
			ConstLabels: constLabels,
		}, []string{"db"}),
		DBInUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Connections currently in use",
			ConstLabels: constLabels,
		}, []string{"db"}),
		DBIdle: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Idle connections in the pool",
			ConstLabels: constLabels,
		}, []string{"db"}),
		DBWaitCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: constLabels,
		}, []string{"db"}),
		AllocationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_engine_allocations_total",
			Help:        "Capacity allocator operations by shape, operation and result",
			ConstLabels: constLabels,
		}, []string{"shape", "operation", "result"}),
		InvariantViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_engine_invariant_violations_total",
			Help:        "Detected sold > capacity or sold < 0 after a mutation",
			ConstLabels: constLabels,
		}, []string{"shape"}),
		LeasesSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "booking_engine_seat_leases_swept_total",
			Help:        "Expired seat leases reverted to available by the sweeper",
			ConstLabels: constLabels,
		}),
		RefundsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_engine_refunds_total",
			Help:        "Cancellations by refund fraction",
			ConstLabels: constLabels,
		}, []string{"kind", "fraction"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBOpenConnections,
		m.DBInUse,
		m.DBIdle,
		m.DBWaitCount,
		m.AllocationsTotal,
		m.InvariantViolations,
		m.LeasesSwept,
		m.RefundsTotal,
	)

	return m
}

// Handler HTTP handler для эндпоинта /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry возвращает registry (для тестов)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTP фиксирует завершенный HTTP запрос
func (m *Metrics) ObserveHTTP(method, route, status string, started time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(started).Seconds())
}

// ObserveDB фиксирует длительность запроса к БД
func (m *Metrics) ObserveDB(operation string, started time.Time) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// IncAllocation учитывает результат операции аллокатора
func (m *Metrics) IncAllocation(shape, operation, result string) {
	if m == nil {
		return
	}
	m.AllocationsTotal.WithLabelValues(shape, operation, result).Inc()
}

// IncInvariantViolation учитывает нарушение инварианта sold <= capacity
func (m *Metrics) IncInvariantViolation(shape string) {
	if m == nil {
		return
	}
	m.InvariantViolations.WithLabelValues(shape).Inc()
}

// AddLeasesSwept учитывает количество освобожденных просроченных мест
func (m *Metrics) AddLeasesSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.LeasesSwept.Add(float64(n))
}

// IncRefund учитывает отмену с указанной долей возврата
func (m *Metrics) IncRefund(kind, fraction string) {
	if m == nil {
		return
	}
	m.RefundsTotal.WithLabelValues(kind, fraction).Inc()
}
