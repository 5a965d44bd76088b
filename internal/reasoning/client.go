// Package reasoning es el adapter hacia el servicio de lenguaje que produce
// sugerencias de agenda en texto. Solo lo usan las operaciones que necesitan
// una sugerencia; sus fallos se tratan igual que los del backend de calendario.
package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client llama al endpoint de chat del servicio de razonamiento.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model,omitempty"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Text string `json:"text"`
}

// Chat envía un prompt y retorna el texto de respuesta (trimmed).
func (c *Client) Chat(ctx context.Context, prompt string) (string, error) {
	return c.chat(ctx, "", prompt)
}

// ChatWithSystem envía un prompt con mensaje de sistema.
func (c *Client) ChatWithSystem(ctx context.Context, system, prompt string) (string, error) {
	return c.chat(ctx, system, prompt)
}

func (c *Client) chat(ctx context.Context, system, prompt string) (string, error) {
	reqBody := chatRequest{Model: c.model}
	if system != "" {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "system", Content: system})
	}
	reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "user", Content: prompt})

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("reasoning: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("reasoning: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("reasoning: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("reasoning: status %d: %s", resp.StatusCode, string(body))
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("reasoning: decode: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}
