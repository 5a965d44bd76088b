package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/consentgate/internal/calendar"
	"github.com/dropDatabas3/consentgate/internal/metrics"
	"github.com/dropDatabas3/consentgate/internal/reasoning"
	"github.com/dropDatabas3/consentgate/internal/vault"
)

// Keys del contexto cifrado del agente en el vault.
const (
	ctxLastFreeBusy     = "last_free_busy"
	ctxLastSyncedEvents = "last_synced_events"
	ctxLastCreatedEvent = "last_created_event"
)

// Deps son los colaboradores externos que invocan los handlers.
type Deps struct {
	Calendar  *calendar.Client
	Reasoning *reasoning.Client
	Vault     *vault.Store
}

// BuildRegistry arma el set cerrado de operaciones del agente de calendario.
// El grafo de intents es finito y estático: una tabla de dispatch, no un
// motor de workflows.
func BuildRegistry(deps Deps) *Registry {
	r := NewRegistry()

	r.MustRegister(Operation{
		Name:           "detect-available-slots",
		RequiredScopes: []string{ScopeCalendarRead},
		Handler:        deps.detectAvailableSlots,
	})
	r.MustRegister(Operation{
		Name:           "suggest-schedule",
		RequiredScopes: []string{ScopeCalendarRead},
		// La sugerencia encadena en la creación del evento con el mismo token.
		Next:    "add-event",
		Handler: deps.suggestSchedule,
	})
	r.MustRegister(Operation{
		Name:           "reschedule-task",
		RequiredScopes: []string{ScopeCalendarWrite},
		Handler:        deps.rescheduleTask,
	})
	r.MustRegister(Operation{
		Name:           "sync-calendar",
		RequiredScopes: []string{ScopeCalendarRead},
		Handler:        deps.syncCalendar,
	})
	r.MustRegister(Operation{
		Name:           "add-event",
		RequiredScopes: []string{ScopeCalendarWrite},
		Handler:        deps.addEvent,
	})
	r.MustRegister(Operation{
		Name:           "get-free-busy",
		RequiredScopes: []string{ScopeCalendarRead},
		Handler:        deps.getFreeBusy,
	})
	r.MustRegister(Operation{
		Name:           "list-calendars",
		RequiredScopes: []string{ScopeCalendarRead},
		Handler:        deps.listCalendars,
	})
	r.MustRegister(Operation{
		Name:           "list-colors",
		RequiredScopes: []string{ScopeCalendarRead},
		Handler:        deps.listColors,
	})
	r.MustRegister(Operation{
		Name:           "search-events",
		RequiredScopes: []string{ScopeCalendarRead},
		Handler:        deps.searchEvents,
	})
	r.MustRegister(Operation{
		Name:           "update-event",
		RequiredScopes: []string{ScopeCalendarWrite},
		Handler:        deps.updateEvent,
	})
	r.MustRegister(Operation{
		Name:           "delete-event",
		RequiredScopes: []string{ScopeCalendarWrite},
		Handler:        deps.deleteEvent,
	})

	return r
}

// observe mide la latencia de una llamada a colaborador.
func observe(collaborator string, start time.Time) {
	metrics.CollaboratorLatency.WithLabelValues(collaborator).
		Observe(float64(time.Since(start).Milliseconds()))
}

func (d Deps) detectAvailableSlots(ctx context.Context, req Request) (*Result, error) {
	timeMin := req.Args.String("time_min")
	timeMax := req.Args.String("time_max")

	start := time.Now()
	snap, err := d.Calendar.FetchWindow(ctx, req.UserID, req.Serialized, timeMin, timeMax)
	observe("calendar", start)
	if err != nil {
		return nil, err
	}

	slots := FreeSlots(snap.Busy.Busy, timeMin, timeMax)

	if err := d.Vault.SaveContext(req.UserID, ctxLastFreeBusy, snap.Busy); err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}

	out := map[string]any{
		"free_busy": snap.Busy,
		"slots":     slots,
	}
	if req.Args.Bool("explain") {
		start = time.Now()
		explanation, err := d.Reasoning.Chat(ctx, reasoning.SummarizePrompt(snap.Events))
		observe("reasoning", start)
		if err != nil {
			return nil, err
		}
		out["explanation"] = explanation
	}
	return &Result{
		Summary: fmt.Sprintf("%d busy intervals, %d free slots", len(snap.Busy.Busy), len(slots)),
		Output:  out,
	}, nil
}

// suggestion es la respuesta JSON que se le pide al servicio de razonamiento.
type suggestion struct {
	SuggestedTime string `json:"suggested_time"`
	Reason        string `json:"reason"`
}

func (d Deps) suggestSchedule(ctx context.Context, req Request) (*Result, error) {
	task := req.Args.String("task")
	if task == "" {
		task = "untitled task"
	}

	// Preferir el free/busy ya capturado en el vault; si no hay, consultar.
	var fb calendar.FreeBusy
	found, err := d.Vault.LoadContext(req.UserID, ctxLastFreeBusy, &fb)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	if !found {
		start := time.Now()
		got, err := d.Calendar.GetFreeBusy(ctx, req.UserID, req.Serialized,
			req.Args.String("time_min"), req.Args.String("time_max"))
		observe("calendar", start)
		if err != nil {
			return nil, err
		}
		fb = *got
	}

	start := time.Now()
	raw, err := d.Reasoning.Chat(ctx, reasoning.SuggestSchedulePrompt(task, fb, req.Args.Map("preferences")))
	observe("reasoning", start)
	if err != nil {
		return nil, err
	}

	sug, err := parseSuggestion(raw)
	if err != nil {
		return nil, err
	}

	// El paso encadenado (add-event) recibe el evento listo en event_data.
	durationMin := 30
	if v, ok := req.Args["duration_minutes"].(float64); ok && v > 0 {
		durationMin = int(v)
	}
	startAt, err := time.Parse(time.RFC3339, sug.SuggestedTime)
	if err != nil {
		return nil, fmt.Errorf("reasoning: suggested_time no parseable: %q", sug.SuggestedTime)
	}
	endAt := startAt.Add(time.Duration(durationMin) * time.Minute)

	return &Result{
		Summary: "suggested " + sug.SuggestedTime,
		Output: map[string]any{
			"suggestion": sug,
			"event_data": map[string]any{
				"summary":     task,
				"start":       startAt.Format(time.RFC3339),
				"end":         endAt.Format(time.RFC3339),
				"description": sug.Reason,
			},
		},
	}, nil
}

// parseSuggestion tolera respuestas envueltas en fences de markdown.
func parseSuggestion(raw string) (*suggestion, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	var s suggestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), &s); err != nil {
		return nil, fmt.Errorf("reasoning: respuesta no es la sugerencia esperada: %w", err)
	}
	if s.SuggestedTime == "" {
		return nil, fmt.Errorf("reasoning: sugerencia sin suggested_time")
	}
	return &s, nil
}

func (d Deps) rescheduleTask(ctx context.Context, req Request) (*Result, error) {
	eventID := req.Args.String("event_id")
	newTime := req.Args.String("new_time")
	if eventID == "" || newTime == "" {
		return nil, fmt.Errorf("reschedule: faltan event_id o new_time")
	}
	updates := map[string]any{"start": newTime}
	if reason := req.Args.String("reason"); reason != "" {
		updates["reason"] = reason
	}

	start := time.Now()
	updated, err := d.Calendar.UpdateEvent(ctx, req.UserID, req.Serialized, eventID, updates, req.Args.String("calendar_id"))
	observe("calendar", start)
	if err != nil {
		return nil, err
	}
	return &Result{
		Summary: "rescheduled " + eventID,
		Output:  map[string]any{"status": "rescheduled", "event": updated},
	}, nil
}

func (d Deps) syncCalendar(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	events, err := d.Calendar.ListEvents(ctx, req.UserID, req.Serialized,
		req.Args.String("calendar_id"), req.Args.String("time_min"), req.Args.String("time_max"))
	observe("calendar", start)
	if err != nil {
		return nil, err
	}
	if err := d.Vault.SaveContext(req.UserID, ctxLastSyncedEvents, events); err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	return &Result{
		Summary: fmt.Sprintf("synced %d events", len(events)),
		Output:  map[string]any{"events": events},
	}, nil
}

func (d Deps) addEvent(ctx context.Context, req Request) (*Result, error) {
	data := req.Args.Map("event_data")
	if data == nil {
		return nil, fmt.Errorf("add-event: falta event_data")
	}
	var event calendar.Event
	b, _ := json.Marshal(data)
	if err := json.Unmarshal(b, &event); err != nil {
		return nil, fmt.Errorf("add-event: event_data inválido: %w", err)
	}

	start := time.Now()
	created, err := d.Calendar.CreateEvent(ctx, req.UserID, req.Serialized, event, req.Args.String("calendar_id"))
	observe("calendar", start)
	if err != nil {
		return nil, err
	}
	if err := d.Vault.SaveContext(req.UserID, ctxLastCreatedEvent, created); err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	return &Result{
		Summary: "created " + created.Summary,
		Output:  map[string]any{"status": "created", "event": created},
	}, nil
}

func (d Deps) getFreeBusy(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	fb, err := d.Calendar.GetFreeBusy(ctx, req.UserID, req.Serialized,
		req.Args.String("time_min"), req.Args.String("time_max"))
	observe("calendar", start)
	if err != nil {
		return nil, err
	}
	return &Result{
		Summary: fmt.Sprintf("%d busy intervals", len(fb.Busy)),
		Output:  map[string]any{"free_busy": fb},
	}, nil
}

func (d Deps) listCalendars(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	cals, err := d.Calendar.ListCalendars(ctx, req.UserID, req.Serialized)
	observe("calendar", start)
	if err != nil {
		return nil, err
	}
	return &Result{
		Summary: fmt.Sprintf("%d calendars", len(cals)),
		Output:  map[string]any{"calendars": cals},
	}, nil
}

func (d Deps) listColors(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	colors, err := d.Calendar.ListColors(ctx, req.UserID, req.Serialized)
	observe("calendar", start)
	if err != nil {
		return nil, err
	}
	return &Result{
		Summary: "colors listed",
		Output:  map[string]any{"colors": colors},
	}, nil
}

func (d Deps) searchEvents(ctx context.Context, req Request) (*Result, error) {
	query := req.Args.String("query")
	if query == "" {
		return nil, fmt.Errorf("search-events: falta query")
	}
	start := time.Now()
	events, err := d.Calendar.SearchEvents(ctx, req.UserID, req.Serialized, query, req.Args.String("calendar_id"))
	observe("calendar", start)
	if err != nil {
		return nil, err
	}
	return &Result{
		Summary: fmt.Sprintf("%d events matched", len(events)),
		Output:  map[string]any{"events": events},
	}, nil
}

func (d Deps) updateEvent(ctx context.Context, req Request) (*Result, error) {
	eventID := req.Args.String("event_id")
	updates := req.Args.Map("update_data")
	if eventID == "" || updates == nil {
		return nil, fmt.Errorf("update-event: faltan event_id o update_data")
	}
	start := time.Now()
	updated, err := d.Calendar.UpdateEvent(ctx, req.UserID, req.Serialized, eventID, updates, req.Args.String("calendar_id"))
	observe("calendar", start)
	if err != nil {
		return nil, err
	}
	return &Result{
		Summary: "updated " + eventID,
		Output:  map[string]any{"status": "updated", "event": updated},
	}, nil
}

func (d Deps) deleteEvent(ctx context.Context, req Request) (*Result, error) {
	eventID := req.Args.String("event_id")
	if eventID == "" {
		return nil, fmt.Errorf("delete-event: falta event_id")
	}
	start := time.Now()
	err := d.Calendar.DeleteEvent(ctx, req.UserID, req.Serialized, eventID, req.Args.String("calendar_id"))
	observe("calendar", start)
	if err != nil {
		return nil, err
	}
	return &Result{
		Summary: "deleted " + eventID,
		Output:  map[string]any{"status": "deleted", "event_id": eventID},
	}, nil
}
