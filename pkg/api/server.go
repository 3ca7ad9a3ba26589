package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmax-ai/schedgraph/pkg/domain"
	"github.com/rmax-ai/schedgraph/pkg/graph"
	"github.com/rmax-ai/schedgraph/pkg/ledger"
)

// Context keys
type contextKey string

const traceIDKey contextKey = "trace_id"

// WriterStatus reports whether this process holds the snapshot writer lease.
type WriterStatus interface {
	IsLeader() bool
}

// Server encapsulates the read-only HTTP API over a frozen graph and its ledger.
type Server struct {
	graph  *graph.ScheduleGraph
	params *ledger.StrategicParameters
	server *http.Server
	logger *slog.Logger

	// High Availability
	writer WriterStatus
}

// NewServer creates a new API server instance. The graph should be frozen
// before the server starts handling requests.
func NewServer(g *graph.ScheduleGraph, params *ledger.StrategicParameters, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		graph:  g,
		params: params,
		logger: logger,
	}

	// Use default port if addr is empty
	if addr == "" {
		addr = "127.0.0.1:8091"
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/health", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/summary", s.handleSummary)
	mux.HandleFunc("/v1/assignments", s.handleAssignments)
	mux.HandleFunc("/v1/capacity", s.handleCapacity)
	mux.HandleFunc("/v1/work-order", s.handleWorkOrder)

	// Middleware: Logging, Panic Recovery, Security Headers
	return s.withLogging(s.withRecovery(withSecureHeaders(mux)))
}

// SetWriterStatus lets the summary report snapshot writer ownership.
func (s *Server) SetWriterStatus(w WriterStatus) {
	s.writer = w
}

// Start runs the HTTP server (blocking)
func (s *Server) Start() error {
	s.logger.Info("server_starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("server_stopping")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	resp := SummaryResponse{
		Summary:       s.graph.Summary(),
		Periods:       s.graph.Periods(),
		LockedPeriods: s.params.LockedPeriods(),
		Technicians:   s.graph.Technicians(),
		WorkOrders:    s.graph.WorkOrders(),
		Writer:        s.writer != nil && s.writer.IsLeader(),
	}
	s.writeJSON(w, r, resp)
}

// handleAssignments lists the Assign edges touching a period or its days.
// With active=true retracted edges are left out.
func (s *Server) handleAssignments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	period, ok := s.periodParam(w, r)
	if !ok {
		return
	}

	active := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_active_flag")
			return
		}
		active = v
	}

	var (
		edges []graph.Edge
		err   error
	)
	if active {
		edges, err = s.graph.ActiveAssignmentsForPeriod(period)
	} else {
		edges, err = s.graph.FindAllAssignmentsForPeriod(period)
	}
	if err != nil {
		s.writeGraphError(w, r, err)
		return
	}
	if edges == nil {
		edges = []graph.Edge{}
	}

	s.writeJSON(w, r, AssignmentsResponse{Period: period, Active: active, Assignments: edges})
}

func (s *Server) handleCapacity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	period, ok := s.periodParam(w, r)
	if !ok {
		return
	}
	if !s.graph.HasPeriod(period) {
		writeError(w, http.StatusNotFound, "period_missing")
		return
	}

	capacity := s.params.Capacity()
	resp := CapacityResponse{
		Period:     period,
		Locked:     s.params.IsLocked(period),
		TotalHours: capacity.TotalHours(period),
		SkillHours: make(map[domain.Skill]domain.Work),
		Resources:  capacity.ForPeriod(period),
	}
	for _, skill := range domain.Skills() {
		if hours := capacity.SkillHours(period, skill); hours > 0 {
			resp.SkillHours[skill] = hours
		}
	}
	if resp.Resources == nil {
		resp.Resources = []ledger.OperationalResource{}
	}
	s.writeJSON(w, r, resp)
}

func (s *Server) handleWorkOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	raw := r.URL.Query().Get("number")
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_work_order_number")
		return
	}
	number := domain.WorkOrderNumber(n)

	activities, err := s.graph.Activities(number)
	if err != nil {
		s.writeGraphError(w, r, err)
		return
	}
	basicStart, err := s.graph.BasicStart(number)
	if err != nil {
		s.writeGraphError(w, r, err)
		return
	}
	excluded, err := s.graph.ExcludedPeriods(number)
	if err != nil {
		s.writeGraphError(w, r, err)
		return
	}

	resp := WorkOrderResponse{
		Number:          number,
		BasicStart:      domain.FormatDate(basicStart),
		Activities:      make([]ActivityView, 0, len(activities)),
		ExcludedPeriods: excluded,
	}
	for _, activity := range activities {
		skill, err := s.graph.ActivitySkill(number, activity)
		if err != nil {
			s.writeGraphError(w, r, err)
			return
		}
		resp.Activities = append(resp.Activities, ActivityView{Number: activity, Skill: skill})
	}
	if resp.ExcludedPeriods == nil {
		resp.ExcludedPeriods = []domain.Period{}
	}
	if param, ok := s.params.WorkOrderParameter(number); ok {
		resp.Parameter = &param
	}
	s.writeJSON(w, r, resp)
}

// periodParam parses ?period=YYYY-MM-DD, writing a 400 on failure.
func (s *Server) periodParam(w http.ResponseWriter, r *http.Request) (domain.Period, bool) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing_period")
		return domain.Period{}, false
	}
	period, err := domain.ParsePeriod(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_period")
		return domain.Period{}, false
	}
	return period, true
}

func (s *Server) writeGraphError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, graph.ErrPeriodMissing):
		writeError(w, http.StatusNotFound, "period_missing")
	case errors.Is(err, graph.ErrWorkOrderMissing):
		writeError(w, http.StatusNotFound, "work_order_missing")
	case errors.Is(err, graph.ErrActivityMissing):
		writeError(w, http.StatusNotFound, "activity_missing")
	default:
		s.logger.Error("graph_query_failed", "trace_id", getTraceID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "internal_server_error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed_to_encode_response", "trace_id", getTraceID(r.Context()), "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`+"\n", code)
}

// handleHealth returns simple status
func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// Middleware: Panic Recovery
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic_recovered", "error", fmt.Sprint(err), "path", r.URL.Path)
				writeError(w, http.StatusInternalServerError, "internal_server_error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Middleware: Request Logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		r = r.WithContext(context.WithValue(r.Context(), traceIDKey, traceID))

		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(ww, r)

		s.logger.Info("http_request",
			"trace_id", traceID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func getTraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

// statusWriter captures HTTP status code
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Middleware: Secure Headers
func withSecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")

		next.ServeHTTP(w, r)
	})
}
