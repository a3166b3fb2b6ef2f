package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hray3182/daybook/internal/calendar"
)

// maxSnooze bounds relative snoozes.
const maxSnooze = 365 * 24 * 60

type completeRequest struct {
	Completed *bool `json:"completed"`
}

type snoozeRequest struct {
	Until   *time.Time `json:"until"`
	Minutes *int       `json:"minutes"`
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req completeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}

	taskID := chi.URLParam(r, "taskID")
	if err := s.actions.CompleteTask(r.Context(), userID, taskID, completed); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.notify()
	s.respondJSON(w, http.StatusOK, map[string]any{"taskId": taskID, "completed": completed})
}

// handleSnoozeTask accepts {"until": <RFC 3339>} or {"minutes": n}. An empty
// body clears the snooze.
func (s *Server) handleSnoozeTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req snoozeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	var until *time.Time
	switch {
	case req.Until != nil && req.Minutes != nil:
		s.respondError(w, http.StatusBadRequest, "give either until or minutes, not both")
		return
	case req.Minutes != nil:
		if *req.Minutes <= 0 || *req.Minutes > maxSnooze {
			s.respondError(w, http.StatusBadRequest, "minutes must be between 1 and 525600")
			return
		}
		t := s.now().UTC().Add(time.Duration(*req.Minutes) * time.Minute).Truncate(time.Second)
		until = &t
	case req.Until != nil:
		t := req.Until.UTC()
		until = &t
	}

	taskID := chi.URLParam(r, "taskID")
	if err := s.actions.SnoozeTask(r.Context(), userID, taskID, until); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.notify()
	s.respondJSON(w, http.StatusOK, map[string]any{"taskId": taskID, "snoozedUntil": until})
}

func (s *Server) handleSetReminderEnabled(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req enabledRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		s.respondError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	reminderID := chi.URLParam(r, "reminderID")
	if err := s.actions.SetReminderEnabled(r.Context(), userID, reminderID, *req.Enabled); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.notify()
	s.respondJSON(w, http.StatusOK, map[string]any{"reminderId": reminderID, "enabled": *req.Enabled})
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(UserHeader)
	if userID == "" {
		s.respondServiceError(w, r, calendar.ErrMissingUser)
		return "", false
	}
	return userID, true
}

// decodeBody reads an optional JSON body into v. An empty body leaves v
// untouched.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) notify() {
	if s.notifier != nil {
		s.notifier.Notify()
	}
}
