package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady checks templates and the store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.store == nil {
		checks["store"] = "not_configured"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else if err := s.store.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["report_cache"] = map[string]any{"entries": s.reports.CacheStats().Size}
	checks["rate_limiter"] = map[string]any{"active_clients": s.limiter.ActiveClients()}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	cacheStats := s.reports.CacheStats()

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "HTTP responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_requests_in_flight", "gauge", "HTTP requests being served", traceMetrics.InFlight)
	metric("http_request_duration_avg_seconds", "gauge", "Average HTTP request duration", traceMetrics.AverageResponseTime.Seconds())

	fmt.Fprintf(w, "# HELP expense_writes_total Successful expense writes\n# TYPE expense_writes_total counter\n")
	fmt.Fprintf(w, "expense_writes_total{action=\"created\"} %d\n", s.metrics.created.Load())
	fmt.Fprintf(w, "expense_writes_total{action=\"updated\"} %d\n", s.metrics.updated.Load())
	fmt.Fprintf(w, "expense_writes_total{action=\"deleted\"} %d\n\n", s.metrics.deleted.Load())
	metric("expense_exports_total", "counter", "XLSX exports served", s.metrics.exports.Load())

	metric("report_cache_entries", "gauge", "Cached dashboard reports", cacheStats.Size)
	metric("report_cache_hits_total", "counter", "Report cache hits", cacheStats.Hits)
	metric("report_cache_misses_total", "counter", "Report cache misses", cacheStats.Misses)

	metric("rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", limitMetrics.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", limitMetrics.ClientCount)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(s.now().Sub(s.startedAt).Seconds()))
}
