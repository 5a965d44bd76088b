package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	cachememory "github.com/dropDatabas3/consentgate/internal/cache/memory"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, 5*time.Second, cachememory.New(time.Minute), time.Minute)
	return c, srv
}

func TestPayloadCarriesIdentityAndToken(t *testing.T) {
	var got map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/list-events" {
			t.Errorf("path inesperado: %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode([]Event{{ID: "e1", Summary: "standup"}})
	})

	evts, err := c.ListEvents(context.Background(), "alice", "HCT:token", "", "2026-09-01T00:00:00Z", "2026-09-02T00:00:00Z")
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(evts) != 1 || evts[0].ID != "e1" {
		t.Fatalf("respuesta inesperada: %v", evts)
	}
	if got["user_id"] != "alice" || got["consent_token"] != "HCT:token" {
		t.Fatalf("el payload debe llevar user_id y consent_token: %v", got)
	}
	if got["time_min"] != "2026-09-01T00:00:00Z" {
		t.Fatalf("time_min no reenviado: %v", got)
	}
}

func TestListCalendarsUsesCache(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode([]Calendar{{ID: "primary", Primary: true}})
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		cals, err := c.ListCalendars(ctx, "alice", "tok")
		if err != nil || len(cals) != 1 {
			t.Fatalf("ListCalendars #%d: %v %v", i, cals, err)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("esperaba 1 hit al backend, hubo %d", hits.Load())
	}

	// otro usuario no comparte la entrada de cache
	if _, err := c.ListCalendars(ctx, "bob", "tok"); err != nil {
		t.Fatalf("ListCalendars bob: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("cache por usuario: esperaba 2 hits, hubo %d", hits.Load())
	}
}

func TestNonSuccessStatusIsError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend roto", http.StatusBadGateway)
	})
	if _, err := c.GetFreeBusy(context.Background(), "alice", "tok", "a", "b"); err == nil {
		t.Fatalf("status 502 debería ser error")
	}
}

func TestFetchWindowCombinesBothCalls(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/list-events":
			_ = json.NewEncoder(w).Encode([]Event{{ID: "e1"}})
		case "/get-freebusy":
			_ = json.NewEncoder(w).Encode(FreeBusy{Busy: []FreeBusySlot{
				{Start: "2026-09-01T10:00:00Z", End: "2026-09-01T11:00:00Z"},
			}})
		default:
			http.NotFound(w, r)
		}
	})

	snap, err := c.FetchWindow(context.Background(), "alice", "tok", "a", "b")
	if err != nil {
		t.Fatalf("FetchWindow: %v", err)
	}
	if len(snap.Events) != 1 || len(snap.Busy.Busy) != 1 {
		t.Fatalf("snapshot incompleto: %+v", snap)
	}
}

func TestFetchWindowPropagatesFirstError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/get-freebusy" {
			http.Error(w, "freebusy caido", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode([]Event{})
	})

	if _, err := c.FetchWindow(context.Background(), "alice", "tok", "a", "b"); err == nil {
		t.Fatalf("un fallo parcial debería fallar el fetch completo")
	}
}
