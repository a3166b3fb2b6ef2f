// Package api serves the calendar and reminder views over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hray3182/daybook/internal/calendar"
	appLog "github.com/hray3182/daybook/internal/log"
	"github.com/hray3182/daybook/internal/models"
)

// UserHeader carries the authenticated user id, set by the fronting proxy.
const UserHeader = "X-User-ID"

// CalendarService is what the handlers need from calendar.Service.
type CalendarService interface {
	Aggregate(ctx context.Context, q calendar.Query) (*models.AggregationResponse, error)
	Calendar(ctx context.Context, q calendar.Query) (*models.CalendarResponse, error)
	TaskOccurrences(ctx context.Context, userID, taskID, from string, limit int, timezone string) (*models.TaskOccurrences, error)
}

// TaskActions changes stored reminder state on behalf of a user. Errors
// wrapping calendar.ErrNotFound mean the user may not touch the target.
type TaskActions interface {
	CompleteTask(ctx context.Context, userID, taskID string, completed bool) error
	SnoozeTask(ctx context.Context, userID, taskID string, until *time.Time) error
	SetReminderEnabled(ctx context.Context, userID, reminderID string, enabled bool) error
}

// Notifier is poked after a write so cached triggers are recomputed early.
type Notifier interface {
	Notify()
}

type Config struct {
	Addr        string
	CORSOrigins []string
	Service     CalendarService
	// Actions enables the write endpoints when set.
	Actions  TaskActions
	Notifier Notifier
}

type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	service    CalendarService
	actions    TaskActions
	notifier   Notifier
	now        func() time.Time
}

func New(cfg Config) *Server {
	s := &Server{
		service:  cfg.Service,
		actions:  cfg.Actions,
		notifier: cfg.Notifier,
		now:      time.Now,
	}
	s.setupRouter(cfg.CORSOrigins)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRouter(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", UserHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/calendar", s.handleCalendar)
		r.Get("/calendar/aggregate", s.handleAggregate)
		r.Get("/tasks/{taskID}/occurrences", s.handleTaskOccurrences)

		if s.actions != nil {
			r.Post("/tasks/{taskID}/complete", s.handleCompleteTask)
			r.Post("/tasks/{taskID}/snooze", s.handleSnoozeTask)
			r.Put("/reminders/{reminderID}/enabled", s.handleSetReminderEnabled)
		}
	})

	s.router = r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Stop is called.
func (s *Server) Start() error {
	appLog.Info("api server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		appLog.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// --- Response helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		appLog.Error("encode response", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
