// Package calendar merges tasks, reminder occurrences, notes, manual entries
// and standalone reminders for a date range and groups them by local day.
package calendar

import (
	"errors"
	"sort"
	"time"

	appLog "github.com/hray3182/daybook/internal/log"
	"github.com/hray3182/daybook/internal/models"
	"github.com/hray3182/daybook/internal/reminder"
	"github.com/hray3182/daybook/internal/rrule"
)

const (
	// ReminderLookahead caps the occurrences expanded per task. Occurrences
	// past the range end are dropped afterwards.
	ReminderLookahead = 12

	// maxExpansion caps RRULE expansion per entry or standalone reminder.
	maxExpansion = 500
)

// Input is everything one aggregation needs. All slices are read-only.
type Input struct {
	OwnedTasks  []models.Task
	SharedTasks []models.SharedTask
	Notes       []models.Note
	Entries     []models.CalendarEntry
	Reminders   []models.Reminder

	Range    Range
	Timezone string
	Scope    models.Scope
}

// item is an event plus the instant it sorts by.
type item struct {
	event models.CalendarEvent
	at    *time.Time
}

// Aggregate builds the per-day view.
func Aggregate(in Input) *models.AggregationResponse {
	loc := ResolveLocation(in.Timezone)
	items := collect(in, loc)

	buckets := make(map[string]*dayBuckets)
	for _, it := range items {
		key := FormatDateKey(it.event.Start, loc)
		b, ok := buckets[key]
		if !ok {
			b = &dayBuckets{}
			buckets[key] = b
		}
		b.add(it)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	days := make([]models.CalendarDay, 0, len(keys))
	for _, k := range keys {
		day := buckets[k].build(k)
		if day.Len() == 0 {
			continue
		}
		days = append(days, day)
	}

	return &models.AggregationResponse{
		Range:    models.CalendarRange{Start: in.Range.Start, End: in.Range.End},
		Timezone: loc.String(),
		Days:     days,
	}
}

// Flatten builds the single-list view, ordered by start, then title.
func Flatten(in Input) *models.CalendarResponse {
	loc := ResolveLocation(in.Timezone)
	items := collect(in, loc)
	sortItems(items, false)

	events := make([]models.CalendarEvent, 0, len(items))
	for _, it := range items {
		events = append(events, it.event)
	}

	scope := in.Scope
	if scope == "" {
		scope = models.ScopeAll
	}
	return &models.CalendarResponse{
		Range:    models.CalendarRange{Start: in.Range.Start, End: in.Range.End},
		Timezone: loc.String(),
		Scope:    scope,
		Events:   events,
	}
}

type dayBuckets struct {
	tasks, reminders, notes, events []item
}

func (b *dayBuckets) add(it item) {
	switch it.event.Type {
	case models.EventTaskDue:
		b.tasks = append(b.tasks, it)
	case models.EventTaskReminder, models.EventZenReminder:
		b.reminders = append(b.reminders, it)
	case models.EventNote:
		b.notes = append(b.notes, it)
	default:
		b.events = append(b.events, it)
	}
}

func (b *dayBuckets) build(date string) models.CalendarDay {
	sortItems(b.tasks, false)
	sortItems(b.reminders, false)
	sortItems(b.notes, true)
	sortItems(b.events, false)
	return models.CalendarDay{
		Date:      date,
		Tasks:     eventsOf(b.tasks),
		Reminders: eventsOf(b.reminders),
		Notes:     eventsOf(b.notes),
		Events:    eventsOf(b.events),
	}
}

func eventsOf(items []item) []models.CalendarEvent {
	out := make([]models.CalendarEvent, len(items))
	for i, it := range items {
		out[i] = it.event
	}
	return out
}

// sortItems orders by sort instant (nil last), then title, then id. Notes
// use descending instants so the most recent comes first.
func sortItems(items []item, descending bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.at == nil && b.at != nil:
			return false
		case a.at != nil && b.at == nil:
			return true
		case a.at != nil && b.at != nil && !a.at.Equal(*b.at):
			if descending {
				return a.at.After(*b.at)
			}
			return a.at.Before(*b.at)
		}
		if a.event.Title != b.event.Title {
			return a.event.Title < b.event.Title
		}
		return a.event.ID < b.event.ID
	})
}

func collect(in Input, loc *time.Location) []item {
	var items []item
	for _, at := range mergeTasks(in.OwnedTasks, in.SharedTasks, in.Scope) {
		items = append(items, taskItems(at, in.Range)...)
	}

	// Notes, entries and standalone reminders are always personal.
	if in.Scope == models.ScopeShared {
		return items
	}
	for i := range in.Notes {
		if it, ok := noteItem(&in.Notes[i], in.Range, loc); ok {
			items = append(items, it)
		}
	}
	for i := range in.Entries {
		items = append(items, entryItems(&in.Entries[i], in.Range)...)
	}
	for i := range in.Reminders {
		items = append(items, standaloneReminderItems(&in.Reminders[i], in.Range)...)
	}
	return items
}

type annotatedTask struct {
	task  models.Task
	role  models.AccessRole
	scope models.Scope
}

// mergeTasks keys tasks by id; an owned copy always wins over a shared copy.
// The result is ordered by id so repeated runs agree.
func mergeTasks(owned []models.Task, shared []models.SharedTask, scope models.Scope) []annotatedTask {
	byID := make(map[string]annotatedTask, len(owned)+len(shared))
	for _, st := range shared {
		role := st.Role
		if !role.Valid() {
			role = models.RoleViewer
		}
		byID[st.Task.TaskID] = annotatedTask{task: st.Task, role: role, scope: models.ScopeShared}
	}
	for _, t := range owned {
		byID[t.TaskID] = annotatedTask{task: t, role: models.RoleOwner, scope: models.ScopePersonal}
	}

	out := make([]annotatedTask, 0, len(byID))
	for _, at := range byID {
		if scope == models.ScopePersonal && at.scope != models.ScopePersonal {
			continue
		}
		if scope == models.ScopeShared && at.scope != models.ScopeShared {
			continue
		}
		out = append(out, at)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].task.TaskID < out[j].task.TaskID })
	return out
}

func taskMetadata(at annotatedTask) map[string]any {
	return map[string]any{
		"completed":      at.task.Completed,
		"category":       at.task.Category,
		"category_color": at.task.CategoryColor,
		"access_role":    at.role,
		"can_edit":       at.role.CanEdit(),
	}
}

func taskItems(at annotatedTask, rng Range) []item {
	var items []item
	t := at.task

	if t.DueDate != nil && rng.Contains(*t.DueDate) {
		due := *t.DueDate
		items = append(items, item{
			at: &due,
			event: models.CalendarEvent{
				ID:       t.TaskID + ":due",
				EntityID: t.TaskID,
				Type:     models.EventTaskDue,
				Title:    t.Title,
				Start:    due,
				End:      due.Add(models.DefaultEventDuration),
				Scope:    at.scope,
				Metadata: taskMetadata(at),
			},
		})
	}

	schedule := reminder.ScheduleFromTask(&t)
	if !reminder.ShouldScheduleReminder(schedule) {
		return items
	}

	var recurrence string
	if b := rrule.FromRule(schedule.Recurrence); b != nil {
		recurrence = rrule.Describe(b.String())
	}

	for _, occ := range reminder.UpcomingOccurrences(schedule, rng.Start, ReminderLookahead) {
		if !rng.Contains(occ) {
			continue
		}
		occ := occ
		meta := taskMetadata(at)
		meta["timezone"] = t.ReminderTimezone
		if t.DueDate != nil {
			meta["due_date"] = *t.DueDate
		}
		if recurrence != "" {
			meta["recurrence"] = recurrence
		}
		items = append(items, item{
			at: &occ,
			event: models.CalendarEvent{
				ID:       t.TaskID + ":" + formatInstant(occ),
				EntityID: t.TaskID,
				Type:     models.EventTaskReminder,
				Title:    t.Title,
				Start:    occ,
				End:      occ.Add(models.DefaultEventDuration),
				Scope:    at.scope,
				Metadata: meta,
			},
		})
	}
	return items
}

func noteItem(n *models.Note, rng Range, loc *time.Location) (item, bool) {
	touched := n.TouchedAt()
	if touched.IsZero() || !rng.Contains(touched) {
		return item{}, false
	}
	// Spans the local day, but never starts before the queried range.
	dayStart := StartOfDay(touched, loc)
	start := dayStart
	if start.Before(rng.Start) {
		start = rng.Start
	}
	return item{
		at: &touched,
		event: models.CalendarEvent{
			ID:          "note:" + n.NoteID,
			EntityID:    n.NoteID,
			Type:        models.EventNote,
			Title:       n.Title,
			Description: n.Summary,
			Start:       start,
			End:         dayStart.AddDate(0, 0, 1),
			AllDay:      true,
			Scope:       models.ScopePersonal,
			Metadata:    map[string]any{"updated_at": touched},
		},
	}, true
}

func entryItems(e *models.CalendarEntry, rng Range) []item {
	starts := []time.Time{e.StartTime}
	recurring := false

	if rrule.IsRecurring(e.RecurrenceRule) {
		occ, truncated, err := rrule.Between(e.RecurrenceRule, e.StartTime, rng.Start, rng.End, maxExpansion)
		if err != nil {
			appLog.Warn("calendar: ignoring unparseable entry recurrence", "entry", e.EntryID, "rrule", e.RecurrenceRule, "err", err)
		} else {
			starts, recurring = occ, true
			if truncated {
				appLog.Error("calendar: truncated entry occurrences", errors.New("max occurrences reached"), "entry", e.EntryID, "cap", maxExpansion)
			}
		}
	}

	var items []item
	for _, start := range starts {
		if !rng.Contains(start) {
			continue
		}
		start := start
		id := e.EntryID
		meta := map[string]any{"location": e.Location}
		if recurring {
			id += ":" + formatInstant(start)
			meta["recurrence"] = rrule.Describe(e.RecurrenceRule)
		}
		items = append(items, item{
			at: &start,
			event: models.CalendarEvent{
				ID:          id,
				EntityID:    e.EntryID,
				Type:        models.EventManual,
				Title:       e.Title,
				Description: e.Description,
				Start:       start,
				End:         e.ResolvedEnd(start),
				AllDay:      e.AllDay,
				Scope:       models.ScopePersonal,
				Metadata:    meta,
			},
		})
	}
	return items
}

func standaloneReminderItems(r *models.Reminder, rng Range) []item {
	if !r.Enabled {
		return nil
	}

	var starts []time.Time
	recurring := false
	if rrule.IsRecurring(r.RecurrenceRule) && r.Dtstart != nil {
		occ, truncated, err := rrule.Between(r.RecurrenceRule, *r.Dtstart, rng.Start, rng.End, maxExpansion)
		if err != nil {
			appLog.Warn("calendar: ignoring unparseable reminder recurrence", "reminder", r.ReminderID, "rrule", r.RecurrenceRule, "err", err)
		} else {
			starts, recurring = occ, true
			if truncated {
				appLog.Error("calendar: truncated reminder occurrences", errors.New("max occurrences reached"), "reminder", r.ReminderID, "cap", maxExpansion)
			}
		}
	}
	if !recurring && r.RemindAt != nil {
		starts = []time.Time{*r.RemindAt}
	}

	var items []item
	for _, start := range starts {
		if !rng.Contains(start) {
			continue
		}
		start := start
		meta := map[string]any{}
		if recurring {
			meta["recurrence"] = rrule.Describe(r.RecurrenceRule)
		}
		items = append(items, item{
			at: &start,
			event: models.CalendarEvent{
				ID:          "reminder:" + r.ReminderID + ":" + formatInstant(start),
				EntityID:    r.ReminderID,
				Type:        models.EventZenReminder,
				Title:       r.Message,
				Description: r.Description,
				Start:       start,
				End:         start.Add(models.DefaultEventDuration),
				Scope:       models.ScopePersonal,
				Metadata:    meta,
			},
		})
	}
	return items
}
