package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes. A nil gatherer disables /metrics.
func SetupRoutes(handler *Handler, metrics *HTTPMetrics, gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestID, Instrument(metrics))

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// Analytics routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/stocks", handler.GetSymbols).Methods(http.MethodGet)
	api.HandleFunc("/stocks/{symbol}/metrics", handler.GetMetrics).Methods(http.MethodGet)
	api.HandleFunc("/stocks/{symbol}/chart-data", handler.GetChartData).Methods(http.MethodGet)
	api.HandleFunc("/stocks/{symbol}/runs", handler.GetRuns).Methods(http.MethodGet)
	api.HandleFunc("/stocks/{symbol}/transactions", handler.GetTransactions).Methods(http.MethodGet)
	api.HandleFunc("/correlation", handler.GetCorrelation).Methods(http.MethodGet)

	return r
}
