package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"soundlab/internal/config"
	"soundlab/internal/logging"
	"soundlab/internal/session"
	"soundlab/internal/timeline"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
	stream   *transportStream
}

type statusResponse struct {
	Running       bool           `json:"running"`
	WorkerRunning bool           `json:"worker_running"`
	SessionDBPath string         `json:"session_db_path"`
	LockFilePath  string         `json:"lock_file_path"`
	Jobs          map[string]int `json:"jobs"`
}

type sessionSummary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Clips     int       `json:"clips"`
	Duration  float64   `json:"duration"`
	UpdatedAt time.Time `json:"updated_at"`
}

type sessionDetail struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	State          *timeline.State `json:"state"`
	CollapsedLanes []timeline.Lane `json:"collapsed_lanes"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type renderRequest struct {
	SessionID  int64           `json:"session_id"`
	SampleRate int             `json:"sample_rate"`
	Channels   int             `json:"channels"`
	SoloLanes  []timeline.Lane `json:"solo_lanes"`
}

type renderJobResponse struct {
	ID              string          `json:"id"`
	SessionID       int64           `json:"session_id"`
	Status          string          `json:"status"`
	ProgressPercent int             `json:"progress_percent"`
	ProgressMessage string          `json:"progress_message,omitempty"`
	OutputPath      string          `json:"output_path,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	SoloLanes       []timeline.Lane `json:"solo_lanes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
		stream: newTransportStream(d.Mixer(), logger),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/sessions", srv.handleSessions)
	mux.HandleFunc("/api/sessions/", srv.handleSession)
	mux.HandleFunc("/api/render", srv.handleRender)
	mux.HandleFunc("/api/render/", srv.handleRenderJob)
	mux.HandleFunc("/api/transport/stream", srv.stream.handle)

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
	s.stream.start()

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
	if s.stream != nil {
		s.stream.stop()
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
	status, err := s.daemon.Status(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{
		Running:       status.Running,
		WorkerRunning: status.WorkerRunning,
		SessionDBPath: status.SessionDBPath,
		LockFilePath:  status.LockFilePath,
		Jobs:          status.JobStats,
	})
}

func (s *apiServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sessions, err := s.daemon.Store().ListSessions(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out := make([]sessionSummary, 0, len(sessions))
		for _, sess := range sessions {
			out = append(out, sessionSummary{
				ID:        sess.ID,
				Name:      sess.Name,
				Clips:     sess.State.ClipCount(),
				Duration:  sess.State.Duration(),
				UpdatedAt: sess.UpdatedAt,
			})
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
	case http.MethodPost:
		var req struct {
			Name  string          `json:"name"`
			State *timeline.State `json:"state"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.State == nil {
			req.State = timeline.NewState()
		}
		sess, err := s.daemon.Store().SaveSession(r.Context(), req.Name, req.State, nil)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, toSessionDetail(sess))
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleSession(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	if idStr == "" || strings.Contains(idStr, "/") {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		sess, err := s.daemon.Store().GetSession(r.Context(), id)
		if errors.Is(err, session.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, toSessionDetail(sess))
	case http.MethodDelete:
		if err := s.daemon.Store().DeleteSession(r.Context(), id); err != nil {
			if errors.Is(err, session.ErrNotFound) {
				s.writeError(w, http.StatusNotFound, "session not found")
				return
			}
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleRender(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var statuses []session.JobStatus
		for _, value := range r.URL.Query()["status"] {
			trimmed := strings.TrimSpace(value)
			if trimmed == "" {
				continue
			}
			statuses = append(statuses, session.JobStatus(trimmed))
		}
		jobs, err := s.daemon.Store().ListRenderJobs(r.Context(), statuses...)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out := make([]renderJobResponse, 0, len(jobs))
		for _, job := range jobs {
			out = append(out, toJobResponse(job))
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"jobs": out})
	case http.MethodPost:
		var req renderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		cfg := s.daemon.Config()
		if req.SampleRate == 0 {
			req.SampleRate = cfg.Audio.SampleRate
		}
		if req.Channels == 0 {
			req.Channels = cfg.Audio.Channels
		}
		if _, err := s.daemon.Store().GetSession(r.Context(), req.SessionID); err != nil {
			if errors.Is(err, session.ErrNotFound) {
				s.writeError(w, http.StatusNotFound, "session not found")
				return
			}
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		job, err := s.daemon.Store().NewRenderJob(r.Context(), req.SessionID, req.SampleRate, req.Channels, req.SoloLanes)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusAccepted, toJobResponse(job))
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleRenderJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/render/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "render job not found")
		return
	}
	job, err := s.daemon.Store().GetRenderJob(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "render job not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, toJobResponse(job))
}

func toSessionDetail(sess *session.Session) sessionDetail {
	return sessionDetail{
		ID:             sess.ID,
		Name:           sess.Name,
		State:          sess.State,
		CollapsedLanes: sess.CollapsedLanes,
		CreatedAt:      sess.CreatedAt,
		UpdatedAt:      sess.UpdatedAt,
	}
}

func toJobResponse(job *session.RenderJob) renderJobResponse {
	return renderJobResponse{
		ID:              job.ID,
		SessionID:       job.SessionID,
		Status:          string(job.Status),
		ProgressPercent: job.ProgressPercent,
		ProgressMessage: job.ProgressMessage,
		OutputPath:      job.OutputPath,
		ErrorMessage:    job.ErrorMessage,
		SoloLanes:       job.SoloLanes,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
	}
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
		return logging.NewComponentLogger(s.logger, "api-server")
	}
	return logging.NewNop()
}
