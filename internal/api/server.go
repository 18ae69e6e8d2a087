// Package api provides the HTTP API server for zone inspections and lookups.
// Uses chi router, tollbooth rate limiting, and Prometheus metrics.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"github.com/zonetools/zoneinfo/internal/config"
	"github.com/zonetools/zoneinfo/internal/metrics"
	"github.com/zonetools/zoneinfo/internal/models"
	"github.com/zonetools/zoneinfo/internal/normalize"
	"github.com/zonetools/zoneinfo/internal/tasks"

	_ "github.com/zonetools/zoneinfo/internal/api/docs" // swagger docs
)

// APIVersion is the current version of the API
const APIVersion = "1.0.0"

// Server wraps chi router with a task queue client for async inspections.
type Server struct {
	router      *chi.Mux
	config      *config.Config
	tasksClient tasks.ClientInterface
}

// NewServer configures middleware stack: tollbooth, chi logging, panic recovery.
func NewServer(cfg *config.Config) *Server {
	s := &Server{router: chi.NewRouter(), config: cfg}

	// Tollbooth rate limiter with configurable IP source (RemoteAddr, X-Forwarded-For, etc.)
	// Only enable if RequestsPerSecond > 0 (0 = disabled)
	if cfg.RateLimiting.RequestsPerSecond > 0 {
		lmt := tollbooth.NewLimiter(
			float64(cfg.GetRateLimitRequestsPerSecond()),
			&limiter.ExpirableOptions{DefaultExpirationTTL: 10 * time.Minute},
		)
		lmt.SetBurst(cfg.GetRateLimitBurstSize())

		ipSource := os.Getenv("RATE_LIMIT_IP_SOURCE")
		if ipSource == "" {
			ipSource = "RemoteAddr"
		}
		lmt.SetIPLookup(limiter.IPLookup{Name: ipSource, IndexFromRight: 0})
		lmt.SetMessage(`{"error":"rate limit exceeded"}`)
		lmt.SetMessageContentType("application/json")

		s.router.Use(func(next http.Handler) http.Handler {
			return tollbooth.HTTPMiddleware(lmt)(next)
		})
	}

	// Chi middleware for logging, recovery, request ID, real IP
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)

	s.router.Post("/zone-info", s.handleZoneInfo)
	s.router.Post("/dns-lookup", s.handleDNSLookup)
	s.router.Get("/tasks/{taskID}", s.handleGetTaskStatus)
	s.router.Get("/health", s.handleHealthCheck)
	s.router.Head("/health", s.handleHealthCheck)
	s.router.Get("/metrics", s.handleMetrics)

	// Swagger UI and OpenAPI endpoints
	s.router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/index.html", http.StatusMovedPermanently)
	})
	s.router.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))
	return s
}

// SetTasksClient injects task queue client (Asynq or in-memory).
func (s *Server) SetTasksClient(c tasks.ClientInterface) { s.tasksClient = c }

// Router exposes chi.Mux for testing.
func (s *Server) Router() http.Handler { return s.router }

// Run starts HTTP server with config-driven timeouts.
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.GetServerReadTimeout()) * time.Second,
		WriteTimeout: time.Duration(s.config.GetServerWriteTimeout()) * time.Second,
		IdleTimeout:  time.Duration(s.config.GetServerIdleTimeout()) * time.Second,
	}
	return srv.ListenAndServe()
}

// handleZoneInfo submits a zone inspection task for asynchronous processing
// @Summary Submit zone inspection task
// @Description Enqueue a zone inspection for asynchronous processing. Returns a task ID that can be polled.
// @Tags Zones
// @Accept json
// @Produce json
// @Param request body models.ZoneInfoRequest true "Zone inspection parameters"
// @Success 200 {object} models.TaskResponse "Task accepted and enqueued"
// @Failure 400 {object} models.ErrorResponse "Invalid request or missing parameters"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 503 {object} models.ErrorResponse "No workers available"
// @Router /zone-info [post]
func (s *Server) handleZoneInfo(w http.ResponseWriter, r *http.Request) {
	var req models.ZoneInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	metrics.APIRequestsTotal.WithLabelValues("zone-info").Inc()

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resolvers, errMsg := s.prepareResolvers(req.Resolvers)
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, errMsg)
		return
	}
	req.Resolvers = resolvers

	if !s.checkWorkers(w, r) {
		return
	}

	id, err := s.tasksClient.EnqueueZoneInspect(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, models.TaskResponse{TaskID: id, Message: "zone inspection enqueued"})
}

// handleDNSLookup submits a DNS lookup task for asynchronous processing
// @Summary Submit DNS lookup task
// @Description Enqueue a DNS lookup for asynchronous processing. Returns a task ID that can be polled.
// @Tags DNS
// @Accept json
// @Produce json
// @Param request body models.DNSLookupRequest true "DNS lookup parameters"
// @Success 200 {object} models.TaskResponse "Task accepted and enqueued"
// @Failure 400 {object} models.ErrorResponse "Invalid request or missing parameters"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 503 {object} models.ErrorResponse "No workers available"
// @Router /dns-lookup [post]
func (s *Server) handleDNSLookup(w http.ResponseWriter, r *http.Request) {
	var req models.DNSLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	metrics.APIRequestsTotal.WithLabelValues("dns-lookup").Inc()

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resolvers, errMsg := s.prepareResolvers(req.Resolvers)
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, errMsg)
		return
	}
	req.Resolvers = resolvers

	if !s.checkWorkers(w, r) {
		return
	}

	id, err := s.tasksClient.EnqueueDNSLookup(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, models.TaskResponse{TaskID: id, Message: "DNS lookup enqueued"})
}

// prepareResolvers falls back to config resolvers, enforces the per-request
// limit and normalizes all targets. The returned message is empty on success.
func (s *Server) prepareResolvers(resolvers []models.Resolver) ([]models.Resolver, string) {
	if len(resolvers) == 0 {
		for _, t := range s.config.GetResolverTargets() {
			resolvers = append(resolvers, models.Resolver{Target: t.Target, Tags: t.Tags})
		}
	}
	if len(resolvers) == 0 {
		return nil, "no resolvers configured - provide resolvers in the request or server config"
	}

	maxResolvers := s.config.GetMaxResolversPerRequest()
	if len(resolvers) > maxResolvers {
		return nil, fmt.Sprintf("too many resolvers: %d (maximum allowed: %d)", len(resolvers), maxResolvers)
	}

	for i := range resolvers {
		norm, err := normalize.Target(resolvers[i].Target)
		if err != nil {
			return nil, err.Error()
		}
		resolvers[i].Target = norm
	}

	return resolvers, ""
}

// checkWorkers rejects requests when no Asynq workers are connected.
// The in-memory client always has capacity.
func (s *Server) checkWorkers(w http.ResponseWriter, r *http.Request) bool {
	if s.tasksClient == nil {
		respondError(w, http.StatusInternalServerError, "tasks client not configured")
		return false
	}
	if asynqClient, ok := s.tasksClient.(*tasks.Client); ok {
		if !asynqClient.HasActiveWorkers(r.Context()) {
			respondError(w, http.StatusServiceUnavailable, "no workers available - tasks cannot be processed")
			return false
		}
	}
	return true
}

// handleGetTaskStatus retrieves the status and result of a submitted task
// @Summary Get task status and result
// @Description Retrieve the status and result of a previously submitted task
// @Tags Tasks
// @Produce json
// @Param taskID path string true "Task ID"
// @Success 200 {object} models.TaskStatusResponse "Task found"
// @Failure 404 {object} models.ErrorResponse "Task not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /tasks/{taskID} [get]
func (s *Server) handleGetTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if s.tasksClient == nil {
		respondError(w, http.StatusInternalServerError, "tasks client not configured")
		return
	}
	status, err := s.tasksClient.GetTaskStatus(r.Context(), taskID)
	if err != nil {
		if err.Error() == "not found" {
			respondError(w, http.StatusNotFound, "task not found")
		} else {
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	// Metrics on-demand: update when the client polls results
	metrics.APIResultPollsTotal.Inc()
	updateMetricsFromTaskResult(*status)

	respondJSON(w, http.StatusOK, status)
}

// updateMetricsFromTaskResult collects lookup metrics on demand when clients
// poll results. Works without worker HTTP endpoints.
func updateMetricsFromTaskResult(status models.TaskStatusResponse) {
	if status.Status != "SUCCESS" || status.Result == nil || status.Result.Lookup == nil {
		return
	}

	for target, detail := range status.Result.Lookup.Details {
		qtype := detail.QType
		if qtype == "" {
			qtype = "A"
		}

		if detail.CommandStatus == "ok" {
			metrics.DNSLookupTotal.WithLabelValues(target, qtype, "success").Inc()
			metrics.DNSLookupDuration.WithLabelValues(target, qtype).Observe(detail.TimeMs / 1000.0)
		} else {
			metrics.DNSLookupTotal.WithLabelValues(target, qtype, "error").Inc()
			if detail.Error != "" {
				metrics.DNSLookupErrors.WithLabelValues(target, detail.Error).Inc()
			} else {
				metrics.DNSLookupErrors.WithLabelValues(target, "unknown").Inc()
			}
		}
	}
}

// handleHealthCheck returns degraded if Asynq workers unavailable
// @Summary Health check
// @Description Check if the API service is running and workers are available
// @Tags System
// @Produce json
// @Success 200 {object} models.HealthResponse "Service is healthy or degraded"
// @Router /health [get]
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.HealthResponse{Status: "ok"}

	if asynqClient, ok := s.tasksClient.(*tasks.Client); ok {
		if !asynqClient.HasActiveWorkers(r.Context()) {
			health.Status = "degraded"
			health.Warning = "no active workers detected"
		}
	}

	if health.Status == "degraded" {
		respondJSON(w, http.StatusServiceUnavailable, health)
		return
	}

	respondJSON(w, http.StatusOK, health)
}

// handleMetrics exposes Prometheus metrics
// @Summary Prometheus metrics
// @Description Expose application metrics in Prometheus format
// @Tags System
// @Produce text/plain
// @Success 200 {string} string "Prometheus metrics"
// @Router /metrics [get]
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// LoadConfigFromEnv provides default config path fallback.
func LoadConfigFromEnv() string {
	p := os.Getenv("CONFIG_PATH")
	if p == "" {
		p = "conf/config.yaml"
	}
	return p
}
