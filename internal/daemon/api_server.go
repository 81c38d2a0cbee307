package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"slate/internal/api"
	"slate/internal/config"
	"slate/internal/jobs"
	"slate/internal/logging"
	"slate/internal/pipeline"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon
	jobSvc *api.JobService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	svc := api.NewJobService(d.store)
	mux := http.NewServeMux()
	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
		jobSvc: svc,
	}

	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/jobs", srv.handleJobs)
	mux.HandleFunc("/api/jobs/", srv.handleJobResource)
	mux.HandleFunc("/api/batches", srv.handleBatches)
	mux.HandleFunc("/api/notifications/test", srv.handleTestNotification)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		JobDBPath:    status.JobDBPath,
		LockFilePath: status.LockFilePath,
		Pipeline:     status.Pipeline,
	})
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	var statuses []jobs.Status
	for _, value := range query["status"] {
		parsed, ok := jobs.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
			return
		}
		statuses = append(statuses, parsed)
	}

	if stageName := strings.TrimSpace(query.Get("stage")); stageName != "" {
		if len(statuses) > 0 {
			s.writeError(w, http.StatusBadRequest, "filter by stage or status, not both")
			return
		}
		target, ok := jobs.ParseStage(stageName)
		if !ok || !target.Persisted() {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown stage %q", stageName))
			return
		}
		items, err := s.jobSvc.ListByStage(r.Context(), target)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: items})
		return
	}

	items, err := s.jobSvc.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: items})
}

// handleJobResource dispatches /api/jobs/{id} and its sub-resources.
func (s *apiServer) handleJobResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	idStr, sub, _ := strings.Cut(rest, "/")
	if idStr == "" || strings.Contains(sub, "/") {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	switch sub {
	case "":
		s.handleJobDetail(w, r, id)
	case "audit":
		s.handleJobAudit(w, r, id)
	case "preprocessing":
		s.handleJobPreprocessing(w, r, id)
	case "transition":
		s.handleJobTransition(w, r, id)
	default:
		s.writeError(w, http.StatusNotFound, "job not found")
	}
}

func (s *apiServer) handleJobDetail(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	detail, err := s.jobSvc.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if detail == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *apiServer) handleJobAudit(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	entries, err := s.jobSvc.Audit(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.AuditResponse{Entries: entries})
}

func (s *apiServer) handleJobPreprocessing(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stageName := strings.TrimSpace(r.URL.Query().Get("stage"))
	target, ok := jobs.ParseStage(stageName)
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown stage %q", stageName))
		return
	}
	state, err := s.daemon.Manager().PreprocessingStatus(r.Context(), id, target)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.PreprocessingResponse{
		JobID: id,
		Stage: target.String(),
		State: string(state),
	})
}

func (s *apiServer) handleJobTransition(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	target, ok := jobs.ParseStage(req.TargetStage)
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown stage %q", req.TargetStage))
		return
	}
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		s.writeError(w, http.StatusBadRequest, "actor is required")
		return
	}

	job, err := s.daemon.Manager().Transition(r.Context(), pipeline.TransitionRequest{
		JobID:          id,
		TargetStage:    target,
		Actor:          actor,
		OverrideReason: strings.TrimSpace(req.OverrideReason),
	})
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrJobNotFound):
			s.writeError(w, http.StatusNotFound, "job not found")
		case errors.Is(err, pipeline.ErrMissingOverrideReason):
			s.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, pipeline.ErrIllegalTransition):
			s.writeError(w, http.StatusConflict, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.writeJSON(w, http.StatusOK, api.TransitionResponse{Job: api.FromJob(job)})
}

func (s *apiServer) handleBatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		s.writeError(w, http.StatusBadRequest, "batch requires at least one item")
		return
	}

	params := make([]jobs.NewJobParams, 0, len(req.Items))
	for i, item := range req.Items {
		if strings.TrimSpace(item.DesignFile) == "" || strings.TrimSpace(item.TemplateFile) == "" {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("item %d requires design and template files", i))
			return
		}
		params = append(params, jobs.NewJobParams{
			Title:        strings.TrimSpace(item.Title),
			DesignFile:   strings.TrimSpace(item.DesignFile),
			TemplateFile: strings.TrimSpace(item.TemplateFile),
			Priority:     item.Priority,
		})
	}

	batchID, created, err := s.daemon.Manager().IngestBatch(r.Context(), params)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, api.IngestResponse{
		BatchID: batchID,
		Jobs:    api.FromJobs(created),
	})
}

func (s *apiServer) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sent, detail, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, detail)
		return
	}
	s.writeJSON(w, http.StatusOK, api.TestNotificationResponse{Sent: sent, Detail: detail})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}
