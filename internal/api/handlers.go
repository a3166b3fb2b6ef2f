package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hray3182/daybook/internal/calendar"
	appLog "github.com/hray3182/daybook/internal/log"
)

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	resp, err := s.service.Calendar(r.Context(), calendarQuery(r))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	resp, err := s.service.Aggregate(r.Context(), calendarQuery(r))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTaskOccurrences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	resp, err := s.service.TaskOccurrences(r.Context(),
		r.Header.Get(UserHeader),
		chi.URLParam(r, "taskID"),
		q.Get("from"),
		limit,
		q.Get("timezone"),
	)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func calendarQuery(r *http.Request) calendar.Query {
	q := r.URL.Query()
	return calendar.Query{
		UserID:   r.Header.Get(UserHeader),
		From:     q.Get("from"),
		To:       q.Get("to"),
		Timezone: q.Get("timezone"),
		Scope:    q.Get("scope"),
	}
}

// respondServiceError maps service errors onto status codes. Anything not
// recognised is an upstream failure and is logged.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, calendar.ErrMissingUser):
		s.respondError(w, http.StatusUnauthorized, "missing "+UserHeader+" header")
	case errors.Is(err, calendar.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, calendar.ErrInvalidDate),
		errors.Is(err, calendar.ErrInvalidRange),
		errors.Is(err, calendar.ErrInvalidScope),
		errors.Is(err, calendar.ErrInvalidLimit):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		appLog.Error("calendar request failed", err, "path", r.URL.Path)
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}
