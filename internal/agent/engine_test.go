package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/consentgate/internal/audit"
	"github.com/dropDatabas3/consentgate/internal/consent"
)

func newEngineFixture(t *testing.T) (*consent.Service, *Registry, *audit.MemorySink, *Engine) {
	t.Helper()
	signer, err := consent.NewSigner("engine-test-secret")
	require.NoError(t, err)

	tokens := consent.NewService(signer, consent.NewMemoryRegistry(), time.Hour)
	registry := NewRegistry()
	sink := audit.NewMemorySink()
	engine := NewEngine(tokens, registry, sink)
	return tokens, registry, sink, engine
}

func issue(t *testing.T, tokens *consent.Service, userID string, scopes ...string) string {
	t.Helper()
	tok, err := tokens.Issue(context.Background(), userID, "agent-cal", scopes, time.Hour)
	require.NoError(t, err)
	return tok.Serialized
}

func TestRunUnknownIntentRejectedBeforeTokenInspection(t *testing.T) {
	_, _, sink, engine := newEngineFixture(t)

	// el "token" ni siquiera parsea: si el engine lo inspeccionara antes del
	// lookup, la razón sería malformed en vez de un error de intent
	_, err := engine.Run(context.Background(), "alice", "garbage", "no-such-intent", nil)
	require.ErrorIs(t, err, ErrUnknownOperation)
	require.Empty(t, sink.Entries(), "un intent desconocido no genera auditoría")
}

func TestRunAllowedRecordsAuditAndOutput(t *testing.T) {
	tokens, registry, sink, engine := newEngineFixture(t)

	registry.MustRegister(Operation{
		Name:           "read-op",
		RequiredScopes: []string{ScopeCalendarRead},
		Handler: func(ctx context.Context, req Request) (*Result, error) {
			require.Equal(t, "alice", req.UserID)
			require.Equal(t, "agent-cal", req.Token.AgentID)
			return &Result{Summary: "read done", Output: map[string]any{"n": 3}}, nil
		},
	})

	serialized := issue(t, tokens, "alice", ScopeCalendarRead)
	res, err := engine.Run(context.Background(), "alice", serialized, "read-op", Args{"x": 1})
	require.NoError(t, err)

	require.Equal(t, audit.OutcomeAllowed, res.Outcome)
	require.Len(t, res.Steps, 1)
	require.Equal(t, map[string]any{"n": 3}, res.Output)

	entries := sink.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, "read-op", entries[0].Operation)
	require.Equal(t, audit.OutcomeAllowed, entries[0].Outcome)
	require.Equal(t, "alice", entries[0].UserID)
	require.Equal(t, "agent-cal", entries[0].AgentID)
	require.NotEmpty(t, entries[0].ID)
}

func TestRunDeniedOnScopeMismatchWithoutExecuting(t *testing.T) {
	tokens, registry, sink, engine := newEngineFixture(t)

	executed := false
	registry.MustRegister(Operation{
		Name:           "write-op",
		RequiredScopes: []string{ScopeCalendarRead, ScopeCalendarWrite},
		Handler: func(ctx context.Context, req Request) (*Result, error) {
			executed = true
			return &Result{}, nil
		},
	})

	// token solo de lectura: el segundo scope declarado falla
	serialized := issue(t, tokens, "alice", ScopeCalendarRead)
	res, err := engine.Run(context.Background(), "alice", serialized, "write-op", nil)
	require.NoError(t, err)

	require.Equal(t, audit.OutcomeDenied, res.Outcome)
	require.Equal(t, consent.ReasonScopeMismatch, res.Reason)
	require.False(t, executed, "una denegación jamás ejecuta el handler")

	entries := sink.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, audit.OutcomeDenied, entries[0].Outcome)
	require.Equal(t, consent.ReasonScopeMismatch, entries[0].Reason)
}

func TestRunDeniedOnRevokedToken(t *testing.T) {
	tokens, registry, _, engine := newEngineFixture(t)

	registry.MustRegister(Operation{
		Name:           "read-op",
		RequiredScopes: []string{ScopeCalendarRead},
		Handler:        noopHandler,
	})

	serialized := issue(t, tokens, "alice", ScopeCalendarRead)
	require.NoError(t, tokens.Revoke(context.Background(), serialized))

	res, err := engine.Run(context.Background(), "alice", serialized, "read-op", nil)
	require.NoError(t, err)
	require.Equal(t, audit.OutcomeDenied, res.Outcome)
	require.Equal(t, consent.ReasonRevoked, res.Reason)
}

func TestRunDeniedOnUserMismatch(t *testing.T) {
	tokens, registry, sink, engine := newEngineFixture(t)

	registry.MustRegister(Operation{
		Name:           "read-op",
		RequiredScopes: []string{ScopeCalendarRead},
		Handler:        noopHandler,
	})

	// token emitido para alice, request a nombre de mallory
	serialized := issue(t, tokens, "alice", ScopeCalendarRead)
	res, err := engine.Run(context.Background(), "mallory", serialized, "read-op", nil)
	require.NoError(t, err)

	require.Equal(t, audit.OutcomeDenied, res.Outcome)
	require.Equal(t, ReasonUserMismatch, res.Reason)

	entries := sink.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, "mallory", entries[0].UserID)
}

func TestRunCollaboratorFailureIsErrorNotDenial(t *testing.T) {
	tokens, registry, sink, engine := newEngineFixture(t)

	registry.MustRegister(Operation{
		Name:           "flaky-op",
		RequiredScopes: []string{ScopeCalendarRead},
		Handler: func(ctx context.Context, req Request) (*Result, error) {
			return nil, fmt.Errorf("calendar backend: connection refused")
		},
	})

	serialized := issue(t, tokens, "alice", ScopeCalendarRead)
	res, err := engine.Run(context.Background(), "alice", serialized, "flaky-op", nil)
	require.NoError(t, err)

	require.Equal(t, audit.OutcomeError, res.Outcome)
	require.Contains(t, res.Reason, "connection refused")

	entries := sink.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, audit.OutcomeError, entries[0].Outcome)

	// el mismo token sigue siendo utilizable: el fallo no lo consumió
	registry.MustRegister(Operation{
		Name:           "read-op",
		RequiredScopes: []string{ScopeCalendarRead},
		Handler:        noopHandler,
	})
	res, err = engine.Run(context.Background(), "alice", serialized, "read-op", nil)
	require.NoError(t, err)
	require.Equal(t, audit.OutcomeAllowed, res.Outcome)
}

func TestRunChainReusesTokenAndMergesArgs(t *testing.T) {
	tokens, registry, sink, engine := newEngineFixture(t)

	var firstToken, secondToken string
	registry.MustRegister(Operation{
		Name:           "suggest",
		RequiredScopes: []string{ScopeCalendarRead},
		Next:           "create",
		Handler: func(ctx context.Context, req Request) (*Result, error) {
			firstToken = req.Serialized
			return &Result{
				Summary: "suggested",
				Output:  map[string]any{"event_data": map[string]any{"summary": "standup"}},
			}, nil
		},
	})
	registry.MustRegister(Operation{
		Name:           "create",
		RequiredScopes: []string{ScopeCalendarWrite},
		Handler: func(ctx context.Context, req Request) (*Result, error) {
			secondToken = req.Serialized
			// args originales + output del paso anterior
			require.Equal(t, "standup", req.Args.Map("event_data")["summary"])
			require.Equal(t, "planning", req.Args.String("task"))
			return &Result{Summary: "created", Output: map[string]any{"status": "created"}}, nil
		},
	})

	serialized := issue(t, tokens, "alice", ScopeCalendarRead, ScopeCalendarWrite)
	res, err := engine.Run(context.Background(), "alice", serialized, "suggest", Args{"task": "planning"})
	require.NoError(t, err)

	require.Equal(t, audit.OutcomeAllowed, res.Outcome)
	require.Len(t, res.Steps, 2)
	require.Equal(t, "suggest", res.Steps[0].Operation)
	require.Equal(t, "create", res.Steps[1].Operation)
	require.Equal(t, serialized, firstToken)
	require.Equal(t, serialized, secondToken, "la cadena reusa el token tal cual")
	require.Equal(t, map[string]any{"status": "created"}, res.Output)

	entries := sink.Entries()
	require.Len(t, entries, 2, "una entrada de auditoría por paso")
}

func TestRunChainStopsOnDeniedFollowup(t *testing.T) {
	tokens, registry, _, engine := newEngineFixture(t)

	registry.MustRegister(Operation{
		Name:           "suggest",
		RequiredScopes: []string{ScopeCalendarRead},
		Next:           "create",
		Handler:        noopHandler,
	})
	executed := false
	registry.MustRegister(Operation{
		Name:           "create",
		RequiredScopes: []string{ScopeCalendarWrite},
		Handler: func(ctx context.Context, req Request) (*Result, error) {
			executed = true
			return &Result{}, nil
		},
	})

	// el token autoriza la sugerencia pero no la creación
	serialized := issue(t, tokens, "alice", ScopeCalendarRead)
	res, err := engine.Run(context.Background(), "alice", serialized, "suggest", nil)
	require.NoError(t, err)

	require.Len(t, res.Steps, 2)
	require.Equal(t, audit.OutcomeAllowed, res.Steps[0].Outcome)
	require.Equal(t, audit.OutcomeDenied, res.Steps[1].Outcome)
	require.Equal(t, audit.OutcomeDenied, res.Outcome, "el outcome agregado es el del paso terminal")
	require.False(t, executed)
}

func TestRunChainDepthLimit(t *testing.T) {
	tokens, registry, _, engine := newEngineFixture(t)

	// ciclo a -> a: defecto de configuración, debe cortar con error
	registry.MustRegister(Operation{
		Name:           "a",
		RequiredScopes: []string{ScopeCalendarRead},
		Next:           "a",
		Handler:        noopHandler,
	})

	serialized := issue(t, tokens, "alice", ScopeCalendarRead)
	_, err := engine.Run(context.Background(), "alice", serialized, "a", nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidOperationConfig))
}
