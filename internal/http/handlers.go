package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"boutique/internal/core"
	"boutique/internal/log"
	"boutique/internal/services"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}).Write(w)
}

// handleReady reports 503 until the record store has finished loading.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, code := "ready", http.StatusOK
	store := "ok"
	if s.store.Loading() {
		status, code, store = "not_ready", http.StatusServiceUnavailable, "loading"
	}
	NewResponse().Status(code).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": map[string]any{
			"store": store,
			"rate_limiter": map[string]any{
				"active_clients": s.limiter.ActiveClients(),
				"status":         "ok",
			},
		},
	}).Write(w)
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_response_time_microseconds_avg", "gauge", "Mean response time", traceMetrics.AverageResponseTime)
	metric("login_rate_limit_requests_total", "counter", "Login attempts seen by the rate limiter", limitMetrics.TotalHits)
	metric("login_rate_limit_clients", "gauge", "Clients tracked by the login rate limiter", limitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Requests matching a scanner signature", s.detector.SuspiciousRequests())

	fmt.Fprintf(w, "# HELP ledger_records Records held in the store\n# TYPE ledger_records gauge\n")
	fmt.Fprintf(w, "ledger_records{collection=%q} %d\n", core.CollectionSales, len(s.store.Sales()))
	fmt.Fprintf(w, "ledger_records{collection=%q} %d\n", core.CollectionExpenses, len(s.store.Expenses()))
	fmt.Fprintf(w, "ledger_records{collection=%q} %d\n", core.CollectionOrders, len(s.store.Orders()))
	fmt.Fprintf(w, "ledger_records{collection=%q} %d\n\n", core.CollectionDesigns, len(s.store.Designs()))

	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.started).Seconds()))
}

// respondError maps a service error onto the error envelope. Anything that
// is neither a validation nor a known service failure is a 500 with fallback
// as its message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var fields core.FieldErrors
	var persist *services.PersistenceError
	switch {
	case errors.As(err, &fields):
		ValidationError(fields).Write(w)
	case errors.Is(err, services.ErrOrderNotFound):
		NotFoundError("tailoring order not found").Write(w)
	case errors.Is(err, services.ErrOrderConflict):
		ConflictError("tailoring order changed, reload and try again").Write(w)
	case errors.As(err, &persist):
		InternalServerError(persist.Message).Write(w)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		InternalServerError(fallback).Write(w)
	}
}

// decode reads the request body into dst, answering 400 or 422 itself.
// It reports whether the handler should go on.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := decodeForm(r, dst)
	if err == nil {
		return true
	}
	var fields core.FieldErrors
	if errors.As(err, &fields) {
		ValidationError(fields).Write(w)
		return false
	}
	BadRequestError(err.Error()).Write(w)
	return false
}

// loaded answers 503 while the store is still loading.
func (s *Server) loaded(w http.ResponseWriter) bool {
	if s.store.Loading() {
		LoadingError().Write(w)
		return false
	}
	return true
}
