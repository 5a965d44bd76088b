package agent

import (
	"context"
	"errors"
	"testing"
)

func noopHandler(ctx context.Context, req Request) (*Result, error) {
	return &Result{Summary: "ok"}, nil
}

func TestRegistryRejectsInvalidConfig(t *testing.T) {
	r := NewRegistry()

	cases := map[string]Operation{
		"sin nombre":  {RequiredScopes: []string{ScopeCalendarRead}, Handler: noopHandler},
		"sin scopes":  {Name: "op", Handler: noopHandler},
		"sin handler": {Name: "op", RequiredScopes: []string{ScopeCalendarRead}},
	}
	for name, op := range cases {
		if err := r.Register(op); !errors.Is(err, ErrInvalidOperationConfig) {
			t.Fatalf("%s: esperaba ErrInvalidOperationConfig, obtuvo %v", name, err)
		}
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	op := Operation{Name: "op", RequiredScopes: []string{ScopeCalendarRead}, Handler: noopHandler}
	if err := r.Register(op); err != nil {
		t.Fatalf("primer Register: %v", err)
	}
	if err := r.Register(op); !errors.Is(err, ErrInvalidOperationConfig) {
		t.Fatalf("duplicado: esperaba ErrInvalidOperationConfig, obtuvo %v", err)
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(Operation{Name: "op", RequiredScopes: []string{ScopeCalendarRead}, Handler: noopHandler})

	op, err := r.Lookup("op")
	if err != nil || op.Name != "op" {
		t.Fatalf("Lookup op: %v %v", op, err)
	}
	if _, err := r.Lookup("nope"); !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("esperaba ErrUnknownOperation, obtuvo %v", err)
	}
}

func TestArgsMergedDoesNotMutate(t *testing.T) {
	base := Args{"a": 1, "b": "x"}
	merged := base.Merged(map[string]any{"b": "y", "c": true})

	if base["b"] != "x" {
		t.Fatalf("Merged mutó el original: %v", base)
	}
	if merged["a"] != 1 || merged["b"] != "y" || merged["c"] != true {
		t.Fatalf("merge incorrecto: %v", merged)
	}
}

func TestBuildRegistryDeclaresAllIntents(t *testing.T) {
	r := BuildRegistry(Deps{})

	want := []string{
		"detect-available-slots", "suggest-schedule", "reschedule-task",
		"sync-calendar", "add-event", "get-free-busy", "list-calendars",
		"list-colors", "search-events", "update-event", "delete-event",
	}
	for _, name := range want {
		op, err := r.Lookup(name)
		if err != nil {
			t.Fatalf("intent %q no registrado: %v", name, err)
		}
		if len(op.RequiredScopes) == 0 {
			t.Fatalf("intent %q sin scopes requeridos", name)
		}
	}

	// la sugerencia encadena en la creación
	op, _ := r.Lookup("suggest-schedule")
	if op.Next != "add-event" {
		t.Fatalf("suggest-schedule debería encadenar en add-event, encadena en %q", op.Next)
	}
}
