package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/trogers1052/stock-analytics-engine/internal/analytics"
	"github.com/trogers1052/stock-analytics-engine/internal/loader"
	"github.com/trogers1052/stock-analytics-engine/internal/models"
	"github.com/trogers1052/stock-analytics-engine/internal/service"
)

// Error codes returned in the JSON error body
const (
	CodeBadRequest  = "BAD_REQUEST"
	CodeNotFound    = "INSTRUMENT_NOT_FOUND"
	CodeInvalidData = "INVALID_DATA"
	CodeCancelled   = "REQUEST_CANCELLED"
	CodeTimeout     = "TIMEOUT"
	CodeInternal    = "INTERNAL_ERROR"
)

// StatusClientClosedRequest is the non-standard status for a request the
// client abandoned
const StatusClientClosedRequest = 499

// Analyzer is the service surface the handlers depend on
type Analyzer interface {
	Metrics(ctx context.Context, req service.Request) (models.Metrics, error)
	ChartData(ctx context.Context, req service.Request) (*service.ChartData, error)
	Runs(ctx context.Context, req service.Request) (models.RunAnalysis, error)
	Transactions(ctx context.Context, req service.Request) (models.MaxProfitResult, error)
	Correlation(ctx context.Context, symbols []string, start, end *time.Time) (models.CorrelationMatrix, error)
	Symbols(ctx context.Context) ([]string, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	analyzer Analyzer
	validate *validator.Validate
}

// NewHandler creates a new Handler
func NewHandler(analyzer Analyzer) *Handler {
	return &Handler{
		analyzer: analyzer,
		validate: newValidator(),
	}
}

// GetSymbols handles GET /stocks
func (h *Handler) GetSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.analyzer.Symbols(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, symbols)
}

// GetMetrics handles GET /stocks/{symbol}/metrics
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	req, ok := h.analysisRequest(w, r)
	if !ok {
		return
	}

	metrics, err := h.analyzer.Metrics(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, metrics)
}

// GetChartData handles GET /stocks/{symbol}/chart-data
func (h *Handler) GetChartData(w http.ResponseWriter, r *http.Request) {
	req, ok := h.analysisRequest(w, r)
	if !ok {
		return
	}

	data, err := h.analyzer.ChartData(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, data)
}

// GetRuns handles GET /stocks/{symbol}/runs
func (h *Handler) GetRuns(w http.ResponseWriter, r *http.Request) {
	req, ok := h.analysisRequest(w, r)
	if !ok {
		return
	}

	runs, err := h.analyzer.Runs(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, runs)
}

// GetTransactions handles GET /stocks/{symbol}/transactions
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	req, ok := h.analysisRequest(w, r)
	if !ok {
		return
	}

	result, err := h.analyzer.Transactions(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetCorrelation handles GET /correlation?symbols=A,B
func (h *Handler) GetCorrelation(w http.ResponseWriter, r *http.Request) {
	q := correlationQuery{
		Symbols:   r.URL.Query().Get("symbols"),
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}
	if err := h.validate.Struct(q); err != nil {
		respondValidationError(w, err)
		return
	}
	start, end, err := q.bounds()
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: CodeBadRequest})
		return
	}

	matrix, err := h.analyzer.Correlation(r.Context(), splitList(q.Symbols), start, end)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, matrix)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// analysisRequest parses and validates the symbol path variable and the
// shared query parameters, writing a 400 on failure
func (h *Handler) analysisRequest(w http.ResponseWriter, r *http.Request) (service.Request, bool) {
	q := analysisQuery{
		Symbol:    mux.Vars(r)["symbol"],
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
		Windows:   r.URL.Query().Get("windows"),
	}
	if err := h.validate.Struct(q); err != nil {
		respondValidationError(w, err)
		return service.Request{}, false
	}

	req, err := q.request()
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: CodeBadRequest})
		return service.Request{}, false
	}
	return req, true
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError maps service errors to HTTP statuses
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, loader.ErrInstrumentNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: err.Error(), Code: CodeNotFound})
	case errors.Is(err, analytics.ErrInvalidData):
		respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Code: CodeInvalidData})
	case errors.Is(err, service.ErrInvalidRequest):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: CodeBadRequest})
	case errors.Is(err, context.Canceled):
		log.Debug().Str("request_id", RequestIDFromContext(r.Context())).Msg("request cancelled by client")
		respondJSON(w, StatusClientClosedRequest, errorBody{Error: "request cancelled", Code: CodeCancelled})
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).
			Str("request_id", RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request timed out")
		respondJSON(w, http.StatusServiceUnavailable, errorBody{Error: "request timed out", Code: CodeTimeout})
	default:
		log.Error().Err(err).
			Str("request_id", RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error", Code: CodeInternal})
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}
