package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL     string
	OperatorJWT string
	OutFormat   string // "json" | "text"
	HTTP        *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if c.OperatorJWT != "" {
		req.Header.Set("Authorization", "Bearer "+c.OperatorJWT)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	var (
		baseURL = envOr("CONSENTGATE_URL", "http://localhost:8080")
		opJWT   = envOr("CONSENTGATE_OPERATOR_JWT", "")
		out     = envOr("CONSENTGATE_OUT", "text")
		timeout = 30 * time.Second
	)

	root := &cobra.Command{
		Use:   "consentctl",
		Short: "CLI de operador para consentgate",
	}

	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base de la API (env CONSENTGATE_URL)")
	root.PersistentFlags().StringVar(&opJWT, "operator-jwt", opJWT, "JWT de operador (env CONSENTGATE_OPERATOR_JWT)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	cl := &client{BaseURL: baseURL, OperatorJWT: opJWT, OutFormat: out, HTTP: &http.Client{Timeout: timeout}}

	// tokens issue
	var issUser, issAgent, issScopes string
	var issTTLMs int64
	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Emitir un token de consentimiento",
		RunE: func(cmd *cobra.Command, args []string) error {
			if issUser == "" || issAgent == "" || issScopes == "" {
				return fmt.Errorf("--user, --agent y --scopes son requeridos")
			}
			payload := map[string]any{
				"user_id":  issUser,
				"agent_id": issAgent,
				"scopes":   strings.Split(issScopes, ","),
			}
			if issTTLMs > 0 {
				payload["ttl_ms"] = issTTLMs
			}
			b, _ := json.Marshal(payload)
			status, body, err := cl.do("POST", "/v1/tokens", b)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("issue fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	issueCmd.Flags().StringVar(&issUser, "user", "", "ID del usuario dueño del consentimiento")
	issueCmd.Flags().StringVar(&issAgent, "agent", "", "ID del agente autorizado")
	issueCmd.Flags().StringVar(&issScopes, "scopes", "", "Scopes separados por coma (ej. calendar.read,calendar.write)")
	issueCmd.Flags().Int64Var(&issTTLMs, "ttl-ms", 0, "TTL en milisegundos (0 = default del servidor)")

	// tokens validate
	var valToken, valScope string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validar un token (veredicto tri-estado)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if valToken == "" {
				return fmt.Errorf("--token es requerido")
			}
			b, _ := json.Marshal(map[string]string{"token": valToken, "scope": valScope})
			status, body, err := cl.do("POST", "/v1/tokens/validate", b)
			if err != nil {
				return err
			}
			cl.print(status, body)
			return nil
		},
	}
	validateCmd.Flags().StringVar(&valToken, "token", "", "Token serializado")
	validateCmd.Flags().StringVar(&valScope, "scope", "", "Scope esperado (opcional)")

	// tokens revoke
	var revToken string
	revokeCmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revocar un token (idempotente)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if revToken == "" {
				return fmt.Errorf("--token es requerido")
			}
			b, _ := json.Marshal(map[string]string{"token": revToken})
			status, body, err := cl.do("POST", "/v1/tokens/revoke", b)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("revoke fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	revokeCmd.Flags().StringVar(&revToken, "token", "", "Token serializado")

	tokensCmd := &cobra.Command{Use: "tokens", Short: "Operaciones sobre tokens de consentimiento"}
	tokensCmd.AddCommand(issueCmd, validateCmd, revokeCmd)

	// agent run
	var runUser, runToken, runIntent, runArgs string
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Ejecutar un intent a través del gate",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runUser == "" || runToken == "" || runIntent == "" {
				return fmt.Errorf("--user, --token e --intent son requeridos")
			}
			payload := map[string]any{
				"user_id": runUser,
				"token":   runToken,
				"intent":  runIntent,
			}
			if runArgs != "" {
				var parsed map[string]any
				if err := json.Unmarshal([]byte(runArgs), &parsed); err != nil {
					return fmt.Errorf("--args no es JSON válido: %w", err)
				}
				payload["args"] = parsed
			}
			b, _ := json.Marshal(payload)
			status, body, err := cl.do("POST", "/v1/agent/run", b)
			if err != nil {
				return err
			}
			cl.print(status, body)
			return nil
		},
	}
	runCmd.Flags().StringVar(&runUser, "user", "", "ID del usuario")
	runCmd.Flags().StringVar(&runToken, "token", "", "Token de consentimiento serializado")
	runCmd.Flags().StringVar(&runIntent, "intent", "", "Intent a ejecutar (ej. detect-available-slots)")
	runCmd.Flags().StringVar(&runArgs, "args", "", "Args del intent como JSON (ej. '{\"time_min\":\"...\"}')")

	agentCmd := &cobra.Command{Use: "agent", Short: "Operaciones del engine de intents"}
	agentCmd.AddCommand(runCmd)

	root.AddCommand(tokensCmd, agentCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
