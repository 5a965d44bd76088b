// Package calendar es el adapter HTTP hacia el backend de calendario.
// Cada llamada lleva user_id y el consent token serializado; el backend hace
// su propia verificación aguas abajo. Un error de transporte o de status se
// reporta tal cual: el engine lo clasifica como fallo de colaborador.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dropDatabas3/consentgate/internal/cache"
	"golang.org/x/sync/errgroup"
)

// Client habla con el backend de calendario (API JSON por POST).
type Client struct {
	baseURL string
	http    *http.Client

	// cache corto para respuestas estables (list-calendars, list-colors).
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewClient(baseURL string, timeout time.Duration, c cache.Cache, cacheTTL time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

// post envía el payload y decodifica la respuesta JSON en out.
func (c *Client) post(ctx context.Context, path string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("calendar %s: marshal: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("calendar %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calendar %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("calendar %s: status %d: %s", path, resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("calendar %s: decode: %w", path, err)
	}
	return nil
}

func basePayload(userID, consentToken string) map[string]any {
	return map[string]any{
		"user_id":       userID,
		"consent_token": consentToken,
	}
}

// ListCalendars lista los calendarios del usuario. Respuesta cacheada.
func (c *Client) ListCalendars(ctx context.Context, userID, consentToken string) ([]Calendar, error) {
	cacheKey := "calendars:" + userID
	if b, ok := c.cache.Get(cacheKey); ok {
		var cals []Calendar
		if json.Unmarshal(b, &cals) == nil {
			return cals, nil
		}
	}
	var cals []Calendar
	if err := c.post(ctx, "/list-calendars", basePayload(userID, consentToken), &cals); err != nil {
		return nil, err
	}
	if b, err := json.Marshal(cals); err == nil {
		c.cache.Set(cacheKey, b, c.cacheTTL)
	}
	return cals, nil
}

// ListColors trae la paleta de colores. Es global por backend, cache larga.
func (c *Client) ListColors(ctx context.Context, userID, consentToken string) (*Colors, error) {
	const cacheKey = "colors"
	if b, ok := c.cache.Get(cacheKey); ok {
		var col Colors
		if json.Unmarshal(b, &col) == nil {
			return &col, nil
		}
	}
	var col Colors
	if err := c.post(ctx, "/list-colors", basePayload(userID, consentToken), &col); err != nil {
		return nil, err
	}
	if b, err := json.Marshal(col); err == nil {
		c.cache.Set(cacheKey, b, c.cacheTTL)
	}
	return &col, nil
}

// ListEvents lista eventos en la ventana [timeMin, timeMax].
func (c *Client) ListEvents(ctx context.Context, userID, consentToken, calendarID, timeMin, timeMax string) ([]Event, error) {
	p := basePayload(userID, consentToken)
	if calendarID != "" {
		p["calendar_id"] = calendarID
	}
	if timeMin != "" {
		p["time_min"] = timeMin
	}
	if timeMax != "" {
		p["time_max"] = timeMax
	}
	var evts []Event
	if err := c.post(ctx, "/list-events", p, &evts); err != nil {
		return nil, err
	}
	return evts, nil
}

// SearchEvents busca eventos por texto libre.
func (c *Client) SearchEvents(ctx context.Context, userID, consentToken, query, calendarID string) ([]Event, error) {
	p := basePayload(userID, consentToken)
	p["query"] = query
	if calendarID != "" {
		p["calendar_id"] = calendarID
	}
	var evts []Event
	if err := c.post(ctx, "/search-events", p, &evts); err != nil {
		return nil, err
	}
	return evts, nil
}

// CreateEvent crea un evento.
func (c *Client) CreateEvent(ctx context.Context, userID, consentToken string, event Event, calendarID string) (*Event, error) {
	p := basePayload(userID, consentToken)
	p["event_data"] = event
	if calendarID != "" {
		p["calendar_id"] = calendarID
	}
	var created Event
	if err := c.post(ctx, "/create-event", p, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateEvent aplica updates parciales a un evento existente.
func (c *Client) UpdateEvent(ctx context.Context, userID, consentToken, eventID string, updates map[string]any, calendarID string) (*Event, error) {
	p := basePayload(userID, consentToken)
	p["event_id"] = eventID
	p["update_data"] = updates
	if calendarID != "" {
		p["calendar_id"] = calendarID
	}
	var updated Event
	if err := c.post(ctx, "/update-event", p, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteEvent elimina un evento.
func (c *Client) DeleteEvent(ctx context.Context, userID, consentToken, eventID, calendarID string) error {
	p := basePayload(userID, consentToken)
	p["event_id"] = eventID
	if calendarID != "" {
		p["calendar_id"] = calendarID
	}
	return c.post(ctx, "/delete-event", p, nil)
}

// GetFreeBusy consulta los intervalos ocupados en la ventana.
func (c *Client) GetFreeBusy(ctx context.Context, userID, consentToken, timeMin, timeMax string) (*FreeBusy, error) {
	p := basePayload(userID, consentToken)
	p["time_min"] = timeMin
	p["time_max"] = timeMax
	var fb FreeBusy
	if err := c.post(ctx, "/get-freebusy", p, &fb); err != nil {
		return nil, err
	}
	return &fb, nil
}

// FetchWindow trae eventos y free/busy de la misma ventana en paralelo.
// Lo usa la detección de slots, que necesita ambos.
func (c *Client) FetchWindow(ctx context.Context, userID, consentToken, timeMin, timeMax string) (*Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		evts, err := c.ListEvents(gctx, userID, consentToken, "", timeMin, timeMax)
		if err != nil {
			return err
		}
		snap.Events = evts
		return nil
	})
	g.Go(func() error {
		fb, err := c.GetFreeBusy(gctx, userID, consentToken, timeMin, timeMax)
		if err != nil {
			return err
		}
		snap.Busy = *fb
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}
