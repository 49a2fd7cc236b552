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
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"storyreel/internal/api"
	"storyreel/internal/clip"
	"storyreel/internal/config"
	"storyreel/internal/logging"
	"storyreel/internal/services"
	"storyreel/internal/tasklog"
)

type apiServer struct {
	bind     string
	logger   *slog.Logger
	daemon   *Daemon
	handler  http.Handler
	maxBody  int64
	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.API.Bind),
		logger: logging.NewComponentLogger(logger, "api"),
		daemon: d,
	}
	// Inline frames arrive base64 encoded, about 4/3 of their decoded size.
	srv.maxBody = int64(cfg.Frames.MaxBytes)*clip.MaxFrames*2 + 1<<20

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(srv.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(cfg.API.Tokens))
		r.Get("/status", srv.handleStatus)
		r.Post("/narratives", srv.handleSubmit)
		r.Get("/clips/{taskId}", srv.handlePoll)
		r.Get("/tasks", srv.handleTasks)
	})
	srv.handler = r

	writeTimeout := time.Duration(cfg.API.WriteTimeoutSeconds) * time.Second
	srv.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *apiServer) addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

func (s *apiServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.WithContext(r.Context(), s.logger).Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.daemon.Status())
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	var req api.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.daemon.Submit(r.Context(), req.Frames)
	if err != nil {
		s.logFailure(r, "narrative request failed", "narrative_failed", err)
		writeError(w, services.HTTPStatus(err), err.Error())
		return
	}
	plans := result.Plans
	if plans == nil {
		plans = []clip.Plan{}
	}
	writeJSON(w, http.StatusOK, api.SubmitResponse{Frames: plans, StoryRaw: result.StoryRaw})
}

func (s *apiServer) handlePoll(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")
	res, err := s.daemon.PollClip(r.Context(), taskID)
	if err != nil {
		s.logFailure(r, "clip poll failed", "clip_poll_failed", err)
		writeError(w, services.HTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, api.NewPollResponse(res))
}

func (s *apiServer) handleTasks(w http.ResponseWriter, r *http.Request) {
	limit := tasklog.DefaultListLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = value
	}
	owner, _ := services.OwnerFromContext(r.Context())
	records, err := s.daemon.ListTasks(r.Context(), owner, limit)
	if err != nil {
		s.logFailure(r, "task list failed", "task_list_failed", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []tasklog.Record{}
	}
	writeJSON(w, http.StatusOK, api.TasksResponse{Tasks: records})
}

func (s *apiServer) logFailure(r *http.Request, msg, eventType string, err error) {
	logger := logging.WithContext(r.Context(), s.logger)
	status := services.HTTPStatus(err)
	if status < http.StatusInternalServerError {
		logger.Info(msg, logging.Int("status", status), logging.Error(err))
		return
	}
	logging.ErrorWithContext(logger, msg, eventType,
		logging.Int("status", status),
		logging.Error(err),
	)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: message})
}
