package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/consentgate/internal/audit"
	cachememory "github.com/dropDatabas3/consentgate/internal/cache/memory"
	"github.com/dropDatabas3/consentgate/internal/calendar"
	"github.com/dropDatabas3/consentgate/internal/consent"
	"github.com/dropDatabas3/consentgate/internal/reasoning"
	"github.com/dropDatabas3/consentgate/internal/vault"
)

func TestParseSuggestion(t *testing.T) {
	t.Run("json plano", func(t *testing.T) {
		s, err := parseSuggestion(`{"suggested_time":"2026-09-02T10:00:00Z","reason":"mañana libre"}`)
		require.NoError(t, err)
		require.Equal(t, "2026-09-02T10:00:00Z", s.SuggestedTime)
		require.Equal(t, "mañana libre", s.Reason)
	})

	t.Run("fence de markdown", func(t *testing.T) {
		raw := "```json\n{\"suggested_time\":\"2026-09-02T10:00:00Z\",\"reason\":\"x\"}\n```"
		s, err := parseSuggestion(raw)
		require.NoError(t, err)
		require.Equal(t, "2026-09-02T10:00:00Z", s.SuggestedTime)
	})

	t.Run("sin suggested_time", func(t *testing.T) {
		_, err := parseSuggestion(`{"reason":"solo razón"}`)
		require.Error(t, err)
	})

	t.Run("no json", func(t *testing.T) {
		_, err := parseSuggestion("lo siento, no puedo")
		require.Error(t, err)
	})
}

// fixture con backends falsos de calendario y razonamiento.
func newOpsFixture(t *testing.T) (*Engine, *consent.Service, *audit.MemorySink) {
	t.Helper()

	calSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/list-events":
			_ = json.NewEncoder(w).Encode([]calendar.Event{
				{ID: "e1", Summary: "standup", Start: "2026-09-02T09:00:00Z", End: "2026-09-02T09:30:00Z"},
			})
		case "/get-freebusy":
			_ = json.NewEncoder(w).Encode(calendar.FreeBusy{Busy: []calendar.FreeBusySlot{
				{Start: "2026-09-02T09:00:00Z", End: "2026-09-02T09:30:00Z"},
			}})
		case "/create-event":
			var payload map[string]any
			_ = json.NewDecoder(r.Body).Decode(&payload)
			require.NotEmpty(t, payload["consent_token"], "toda llamada lleva el token")
			data, _ := json.Marshal(payload["event_data"])
			var ev calendar.Event
			_ = json.Unmarshal(data, &ev)
			ev.ID = "created-1"
			_ = json.NewEncoder(w).Encode(ev)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(calSrv.Close)

	reasonSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"text": `{"suggested_time":"2026-09-02T10:00:00Z","reason":"hueco libre tras el standup"}`,
		})
	}))
	t.Cleanup(reasonSrv.Close)

	box, err := vault.NewBox("MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=")
	require.NoError(t, err)

	deps := Deps{
		Calendar:  calendar.NewClient(calSrv.URL, 5*time.Second, cachememory.New(time.Minute), time.Minute),
		Reasoning: reasoning.NewClient(reasonSrv.URL, "", "", 5*time.Second),
		Vault:     vault.NewStore(box, cachememory.New(time.Minute), time.Minute),
	}

	signer, err := consent.NewSigner("ops-test-secret")
	require.NoError(t, err)
	tokens := consent.NewService(signer, consent.NewMemoryRegistry(), time.Hour)
	sink := audit.NewMemorySink()
	engine := NewEngine(tokens, BuildRegistry(deps), sink)
	return engine, tokens, sink
}

func TestDetectAvailableSlotsEndToEnd(t *testing.T) {
	engine, tokens, _ := newOpsFixture(t)
	ctx := context.Background()

	tok, err := tokens.Issue(ctx, "alice", "agent-cal", []string{ScopeCalendarRead}, time.Hour)
	require.NoError(t, err)

	res, err := engine.Run(ctx, "alice", tok.Serialized, "detect-available-slots", Args{
		"time_min": "2026-09-02T08:00:00Z",
		"time_max": "2026-09-02T12:00:00Z",
	})
	require.NoError(t, err)
	require.Equal(t, audit.OutcomeAllowed, res.Outcome)

	slots, ok := res.Output["slots"].([]calendar.FreeBusySlot)
	require.True(t, ok, "output debe llevar los slots derivados")
	require.Len(t, slots, 2)
	require.Equal(t, "2026-09-02T08:00:00Z", slots[0].Start)
	require.Equal(t, "2026-09-02T09:00:00Z", slots[0].End)
}

func TestSuggestScheduleChainsIntoAddEvent(t *testing.T) {
	engine, tokens, sink := newOpsFixture(t)
	ctx := context.Background()

	// la cadena necesita read (sugerir) y write (crear)
	tok, err := tokens.Issue(ctx, "alice", "agent-cal",
		[]string{ScopeCalendarRead, ScopeCalendarWrite}, time.Hour)
	require.NoError(t, err)

	res, err := engine.Run(ctx, "alice", tok.Serialized, "suggest-schedule", Args{
		"task":             "planning semanal",
		"time_min":         "2026-09-02T08:00:00Z",
		"time_max":         "2026-09-02T12:00:00Z",
		"duration_minutes": float64(45),
	})
	require.NoError(t, err)

	require.Equal(t, audit.OutcomeAllowed, res.Outcome)
	require.Len(t, res.Steps, 2)
	require.Equal(t, "suggest-schedule", res.Steps[0].Operation)
	require.Equal(t, "add-event", res.Steps[1].Operation)

	ev, ok := res.Output["event"].(*calendar.Event)
	require.True(t, ok)
	require.Equal(t, "created-1", ev.ID)
	require.Equal(t, "planning semanal", ev.Summary)
	require.Equal(t, "2026-09-02T10:00:00Z", ev.Start)
	require.Equal(t, "2026-09-02T10:45:00Z", ev.End)

	entries := sink.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.Equal(t, audit.OutcomeAllowed, e.Outcome)
		require.Equal(t, "alice", e.UserID)
	}
}

func TestSuggestScheduleDeniedWithoutWriteScope(t *testing.T) {
	engine, tokens, _ := newOpsFixture(t)
	ctx := context.Background()

	tok, err := tokens.Issue(ctx, "alice", "agent-cal", []string{ScopeCalendarRead}, time.Hour)
	require.NoError(t, err)

	res, err := engine.Run(ctx, "alice", tok.Serialized, "suggest-schedule", Args{
		"task":     "planning",
		"time_min": "2026-09-02T08:00:00Z",
		"time_max": "2026-09-02T12:00:00Z",
	})
	require.NoError(t, err)

	// el primer paso corre, el encadenado se deniega por scope
	require.Len(t, res.Steps, 2)
	require.Equal(t, audit.OutcomeAllowed, res.Steps[0].Outcome)
	require.Equal(t, audit.OutcomeDenied, res.Steps[1].Outcome)
	require.Equal(t, consent.ReasonScopeMismatch, res.Reason)
}
