package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hray3182/daybook/internal/calendar"
	"github.com/hray3182/daybook/internal/models"
)

type fakeService struct {
	err       error
	lastQuery calendar.Query
	lastLimit int
	lastTask  string
}

func (f *fakeService) Aggregate(ctx context.Context, q calendar.Query) (*models.AggregationResponse, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return &models.AggregationResponse{
		Timezone: "UTC",
		Days:     []models.CalendarDay{{Date: "2024-06-01"}},
	}, nil
}

func (f *fakeService) Calendar(ctx context.Context, q calendar.Query) (*models.CalendarResponse, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return &models.CalendarResponse{
		Timezone: "UTC",
		Scope:    models.ScopeAll,
		Events:   []models.CalendarEvent{{ID: "t1:due", Type: models.EventTaskDue}},
	}, nil
}

func (f *fakeService) TaskOccurrences(ctx context.Context, userID, taskID, from string, limit int, timezone string) (*models.TaskOccurrences, error) {
	f.lastTask, f.lastLimit = taskID, limit
	if f.err != nil {
		return nil, f.err
	}
	return &models.TaskOccurrences{
		TaskID:      taskID,
		Timezone:    "UTC",
		Occurrences: []time.Time{time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)},
	}, nil
}

func ptr[T any](v T) *T { return &v }

func testServer(svc CalendarService) *Server {
	return New(Config{Addr: ":0", Service: svc})
}

func do(t *testing.T, srv *Server, target, user string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	rr := do(t, testServer(&fakeService{}), "/health", "")
	if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Errorf("got %d %q", rr.Code, rr.Body.String())
	}
}

func TestCalendarPassesQuery(t *testing.T) {
	svc := &fakeService{}
	rr := do(t, testServer(svc), "/api/calendar?from=2024-06-01&to=2024-06-07&timezone=Asia/Tokyo&scope=shared", "u1")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	want := calendar.Query{UserID: "u1", From: "2024-06-01", To: "2024-06-07", Timezone: "Asia/Tokyo", Scope: "shared"}
	if svc.lastQuery != want {
		t.Errorf("query = %+v, want %+v", svc.lastQuery, want)
	}

	var resp models.CalendarResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].ID != "t1:due" {
		t.Errorf("events = %+v", resp.Events)
	}
}

func TestAggregateResponse(t *testing.T) {
	rr := do(t, testServer(&fakeService{}), "/api/calendar/aggregate", "u1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var resp models.AggregationResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Days) != 1 || resp.Days[0].Date != "2024-06-01" {
		t.Errorf("days = %+v", resp.Days)
	}
}

func TestTaskOccurrences(t *testing.T) {
	svc := &fakeService{}
	rr := do(t, testServer(svc), "/api/tasks/abc/occurrences?limit=3", "u1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if svc.lastTask != "abc" || svc.lastLimit != 3 {
		t.Errorf("task=%q limit=%d", svc.lastTask, svc.lastLimit)
	}

	rr = do(t, testServer(svc), "/api/tasks/abc/occurrences?limit=many", "u1")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for bad limit, got %d", rr.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing user", calendar.ErrMissingUser, http.StatusUnauthorized},
		{"bad date", fmt.Errorf("from: %w", calendar.ErrInvalidDate), http.StatusBadRequest},
		{"inverted range", calendar.ErrInvalidRange, http.StatusBadRequest},
		{"bad scope", calendar.ErrInvalidScope, http.StatusBadRequest},
		{"not found", fmt.Errorf("load task x: %w", calendar.ErrNotFound), http.StatusNotFound},
		{"upstream", errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, testServer(&fakeService{err: tt.err}), "/api/calendar/aggregate", "u1")
			if rr.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rr.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Errorf("missing error body: %s", rr.Body.String())
			}
		})
	}
}

func TestUpstreamErrorIsNotLeaked(t *testing.T) {
	rr := do(t, testServer(&fakeService{err: errors.New("password=hunter2")}), "/api/calendar", "u1")
	var body map[string]string
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body["error"] != "internal error" {
		t.Errorf("error body = %q", body["error"])
	}
}

type fakeActions struct {
	err       error
	user      string
	target    string
	completed *bool
	enabled   *bool
	until     *time.Time
	snoozed   bool
}

func (f *fakeActions) CompleteTask(ctx context.Context, userID, taskID string, completed bool) error {
	f.user, f.target, f.completed = userID, taskID, &completed
	return f.err
}

func (f *fakeActions) SnoozeTask(ctx context.Context, userID, taskID string, until *time.Time) error {
	f.user, f.target, f.until, f.snoozed = userID, taskID, until, true
	return f.err
}

func (f *fakeActions) SetReminderEnabled(ctx context.Context, userID, reminderID string, enabled bool) error {
	f.user, f.target, f.enabled = userID, reminderID, &enabled
	return f.err
}

type countingNotifier struct{ n int }

func (c *countingNotifier) Notify() { c.n++ }

func actionServer(actions TaskActions, notifier Notifier) *Server {
	srv := New(Config{Addr: ":0", Service: &fakeService{}, Actions: actions, Notifier: notifier})
	srv.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return srv
}

func send(t *testing.T, srv *Server, method, target, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func TestWriteRoutesNeedActions(t *testing.T) {
	rr := send(t, testServer(&fakeService{}), "POST", "/api/tasks/t1/complete", "u1", "")
	if rr.Code != http.StatusMethodNotAllowed && rr.Code != http.StatusNotFound {
		t.Errorf("expected write route to be absent, got %d", rr.Code)
	}
}

func TestCompleteTask(t *testing.T) {
	actions, notifier := &fakeActions{}, &countingNotifier{}
	srv := actionServer(actions, notifier)

	rr := send(t, srv, "POST", "/api/tasks/t1/complete", "u1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if actions.user != "u1" || actions.target != "t1" || actions.completed == nil || !*actions.completed {
		t.Errorf("unexpected call %+v", actions)
	}

	rr = send(t, srv, "POST", "/api/tasks/t1/complete", "u1", `{"completed": false}`)
	if rr.Code != http.StatusOK || *actions.completed {
		t.Errorf("reopen: status %d completed=%v", rr.Code, *actions.completed)
	}
	if notifier.n != 2 {
		t.Errorf("notified %d times, want 2", notifier.n)
	}
}

func TestSnoozeTask(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
		want *time.Time
	}{
		{"relative", `{"minutes": 90}`, http.StatusOK, ptr(time.Date(2024, 6, 1, 13, 30, 0, 0, time.UTC))},
		{"absolute", `{"until": "2024-06-02T09:00:00+02:00"}`, http.StatusOK, ptr(time.Date(2024, 6, 2, 7, 0, 0, 0, time.UTC))},
		{"clear", "", http.StatusOK, nil},
		{"both", `{"minutes": 5, "until": "2024-06-02T09:00:00Z"}`, http.StatusBadRequest, nil},
		{"negative", `{"minutes": -5}`, http.StatusBadRequest, nil},
		{"garbage", `{"minutes": "soon"}`, http.StatusBadRequest, nil},
		{"unknown field", `{"hours": 2}`, http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions, notifier := &fakeActions{}, &countingNotifier{}
			rr := send(t, actionServer(actions, notifier), "POST", "/api/tasks/t9/snooze", "u1", tt.body)
			if rr.Code != tt.code {
				t.Fatalf("expected status %d, got %d: %s", tt.code, rr.Code, rr.Body.String())
			}
			if tt.code != http.StatusOK {
				if actions.snoozed || notifier.n != 0 {
					t.Error("rejected request reached the store")
				}
				return
			}
			switch {
			case tt.want == nil && actions.until != nil:
				t.Errorf("until = %v, want cleared", actions.until)
			case tt.want != nil && (actions.until == nil || !actions.until.Equal(*tt.want)):
				t.Errorf("until = %v, want %v", actions.until, tt.want)
			}
			if notifier.n != 1 {
				t.Errorf("notified %d times, want 1", notifier.n)
			}
		})
	}
}

func TestSetReminderEnabled(t *testing.T) {
	actions := &fakeActions{}
	srv := actionServer(actions, nil)

	rr := send(t, srv, "PUT", "/api/reminders/r1/enabled", "u1", `{"enabled": false}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if actions.target != "r1" || actions.enabled == nil || *actions.enabled {
		t.Errorf("unexpected call %+v", actions)
	}

	if rr := send(t, srv, "PUT", "/api/reminders/r1/enabled", "u1", `{}`); rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 without enabled, got %d", rr.Code)
	}
}

func TestWriteErrors(t *testing.T) {
	actions, notifier := &fakeActions{}, &countingNotifier{}
	srv := actionServer(actions, notifier)
	if rr := send(t, srv, "POST", "/api/tasks/t1/complete", "", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 without user, got %d", rr.Code)
	}

	actions.err = fmt.Errorf("task t1: %w", calendar.ErrNotFound)
	if rr := send(t, srv, "POST", "/api/tasks/t1/complete", "u2", ""); rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for foreign task, got %d", rr.Code)
	}
	if notifier.n != 0 {
		t.Errorf("failed writes notified %d times", notifier.n)
	}
}
