package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	SalesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_sales_total",
			Help: "Committed sale operations by action",
		},
		[]string{"action"},
	)

	SaleAmount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pos_sale_total_amount",
			Help:    "Total amount of created sales",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
	)

	StockRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_stock_rejections_total",
			Help: "Sale submissions rejected for insufficient stock",
		},
	)
)

var once sync.Once

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(HttpRequestsTotal, HttpRequestDuration, SalesTotal, SaleAmount, StockRejections)
	})
}
