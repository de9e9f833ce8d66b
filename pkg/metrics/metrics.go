// Package metrics provides Prometheus metrics for the bridge backend.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OracleRequestsTotal counts oracle batches by outcome.
	OracleRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_requests_total",
			Help: "Total number of oracle batch requests",
		},
		[]string{"oracle", "status"},
	)

	// OracleRequestDuration is a histogram of oracle batch latencies.
	OracleRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oracle_request_duration_seconds",
			Help:    "Duration of oracle batch requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"oracle"},
	)

	// QuotesTotal counts per-symbol quotes by whether a price was present.
	QuotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_quotes_total",
			Help: "Total number of per-symbol quotes returned by oracles",
		},
		[]string{"oracle", "result"},
	)

	// PriceAggregationDuration is a histogram of price aggregation duration.
	PriceAggregationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "price_aggregation_duration_seconds",
			Help:    "Duration of price aggregation operations",
			Buckets: prometheus.DefBuckets,
		},
	)

	// UnpricedSymbolsTotal counts symbols that no oracle could price.
	UnpricedSymbolsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unpriced_symbols_total",
			Help: "Total number of symbols without any valid quote",
		},
		[]string{"symbol"},
	)

	// JobRunsTotal counts scheduled job runs by outcome.
	JobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_runs_total",
			Help: "Total number of scheduled job runs",
		},
		[]string{"job", "status"},
	)

	// JobDuration is a histogram of job run durations.
	JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Duration of scheduled job runs",
			Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"job"},
	)

	// StoreWritesTotal counts documents modified by store writes.
	StoreWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_documents_written_total",
			Help: "Total number of documents inserted or modified",
		},
		[]string{"collection", "operation"},
	)

	// HTTPRequestsTotal is a counter of total HTTP requests.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	// HTTPRequestDuration is a histogram of HTTP request latencies.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint"},
	)

	// CacheLookupsTotal counts API cache lookups by result.
	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Total number of API cache lookups",
		},
		[]string{"result"},
	)

	// ChainRequestsTotal counts chain RPC calls by operation and status.
	ChainRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chain_requests_total",
			Help: "Total number of chain gRPC requests",
		},
		[]string{"operation", "status"},
	)

	// ChainFailoversTotal is a counter of gRPC endpoint failovers.
	ChainFailoversTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chain_failovers_total",
			Help: "Total number of chain endpoint failovers",
		},
	)
)

// Init initializes Prometheus metrics registry.
func Init() {
	prometheus.MustRegister(
		OracleRequestsTotal,
		OracleRequestDuration,
		QuotesTotal,
		PriceAggregationDuration,
		UnpricedSymbolsTotal,
		JobRunsTotal,
		JobDuration,
		StoreWritesTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		CacheLookupsTotal,
		ChainRequestsTotal,
		ChainFailoversTotal,
	)
}

// ServeHTTP serves Prometheus metrics on the specified address.
func ServeHTTP(addr, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

// RecordOracleRequest records one oracle batch.
func RecordOracleRequest(oracle string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	OracleRequestsTotal.WithLabelValues(oracle, status).Inc()
	OracleRequestDuration.WithLabelValues(oracle).Observe(duration.Seconds())
}

// RecordQuote records whether an oracle priced a symbol.
func RecordQuote(oracle string, present bool) {
	result := "absent"
	if present {
		result = "present"
	}
	QuotesTotal.WithLabelValues(oracle, result).Inc()
}

// RecordAggregation records a price aggregation operation.
func RecordAggregation(duration time.Duration) {
	PriceAggregationDuration.Observe(duration.Seconds())
}

// RecordUnpriced records a symbol without any valid quote.
func RecordUnpriced(symbol string) {
	UnpricedSymbolsTotal.WithLabelValues(symbol).Inc()
}

// RecordJobRun records a scheduled job run.
func RecordJobRun(job string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	JobRunsTotal.WithLabelValues(job, status).Inc()
	JobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// RecordStoreWrite records documents written to a collection.
func RecordStoreWrite(collection, operation string, count int64) {
	StoreWritesTotal.WithLabelValues(collection, operation).Add(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordChainRequest records a chain RPC call.
func RecordChainRequest(operation, status string) {
	ChainRequestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordChainFailover records a gRPC endpoint failover event.
func RecordChainFailover() {
	ChainFailoversTotal.Inc()
}
