package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"slochecker/internal/scheduler"
	"slochecker/internal/storage"
)

// Server is the read-only HTTP surface: health, configured definitions,
// latest verdicts, stored history, and self-telemetry.
type Server struct {
	scheduler *scheduler.Scheduler
	server    *http.Server
}

// NewServer creates a new API server
func NewServer(sched *scheduler.Scheduler, addr string) *Server {
	s := &Server{
		scheduler: sched,
	}

	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	// SLO definition endpoints
	mux.HandleFunc("/v1/slo", s.handleSLOList)
	mux.HandleFunc("/v1/slo/", s.handleSLOGet)

	// Verdict endpoints
	mux.HandleFunc("/v1/verdicts", s.handleVerdictList)
	mux.HandleFunc("/v1/verdicts/", s.handleVerdictGet)

	// History endpoint
	mux.HandleFunc("/v1/history", s.handleHistory)

	// Self-telemetry
	mux.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:         addr,
		Handler:      loggingMiddleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting API server on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down API server...")
	return s.server.Shutdown(ctx)
}

// Handler returns the server's handler (for tests)
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleReady handles GET /readyz
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defs := s.scheduler.Definitions()
	cacheSize := s.scheduler.Cache().Size()

	ready := len(defs) > 0
	reasons := []string{}

	if len(defs) == 0 {
		reasons = append(reasons, "no SLO definitions loaded")
	}

	if cacheSize == 0 {
		reasons = append(reasons, "no evaluations cached yet")
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, ReadyResponse{
		Ready:      ready,
		SLOsLoaded: len(defs),
		Reasons:    reasons,
	})
}

// handleSLOList handles GET /v1/slo
func (s *Server) handleSLOList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defs := s.scheduler.Definitions()

	definitions := make([]interface{}, 0, len(defs))
	for _, dwf := range defs {
		definitions = append(definitions, dwf.Definition)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"slos": definitions})
}

// handleSLOGet handles GET /v1/slo/{name}
func (s *Server) handleSLOGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/v1/slo/")
	if name == "" {
		respondError(w, http.StatusBadRequest, "SLO name required")
		return
	}

	for _, dwf := range s.scheduler.Definitions() {
		if dwf.Definition.Name == name {
			respondJSON(w, http.StatusOK, dwf.Definition)
			return
		}
	}

	respondError(w, http.StatusNotFound, fmt.Sprintf("SLO not found: %s", name))
}

// handleVerdictList handles GET /v1/verdicts
func (s *Server) handleVerdictList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	all := s.scheduler.Cache().GetAll()

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	verdicts := make([]VerdictResponse, 0, len(names))
	for _, name := range names {
		verdicts = append(verdicts, verdictResponse(all[name]))
	}

	respondJSON(w, http.StatusOK, VerdictListResponse{Verdicts: verdicts})
}

// handleVerdictGet handles GET /v1/verdicts/{name}
func (s *Server) handleVerdictGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/v1/verdicts/")
	if name == "" {
		respondError(w, http.StatusBadRequest, "SLO name required")
		return
	}

	record, ok := s.scheduler.Cache().Get(name)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no evaluation found for SLO: %s", name))
		return
	}

	respondJSON(w, http.StatusOK, verdictResponse(record))
}

// handleHistory handles GET /v1/history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	filter := storage.RecordFilter{
		SLOName: query.Get("slo"),
		Verdict: query.Get("verdict"),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	if startTimeStr := query.Get("startTime"); startTimeStr != "" {
		if startTime, err := time.Parse(time.RFC3339, startTimeStr); err == nil {
			filter.StartTime = &startTime
		}
	}

	if endTimeStr := query.Get("endTime"); endTimeStr != "" {
		if endTime, err := time.Parse(time.RFC3339, endTimeStr); err == nil {
			filter.EndTime = &endTime
		}
	}

	records, err := s.scheduler.Store().List(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to query history: %v", err))
		return
	}

	responseRecords := make([]HistoryRecordResponse, len(records))
	for i, record := range records {
		responseRecords[i] = historyRecordResponse(record)
	}

	respondJSON(w, http.StatusOK, HistoryResponse{
		Records: responseRecords,
		Total:   len(responseRecords),
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
