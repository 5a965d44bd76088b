package agent

import (
	"testing"

	"github.com/dropDatabas3/consentgate/internal/calendar"
)

func TestFreeSlotsEmptyBusy(t *testing.T) {
	free := FreeSlots(nil, "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z")
	if len(free) != 1 {
		t.Fatalf("esperaba 1 hueco, obtuvo %v", free)
	}
	if free[0].Start != "2026-09-01T09:00:00Z" || free[0].End != "2026-09-01T17:00:00Z" {
		t.Fatalf("el hueco debería cubrir toda la ventana: %+v", free[0])
	}
}

func TestFreeSlotsGapsAroundBusy(t *testing.T) {
	busy := []calendar.FreeBusySlot{
		{Start: "2026-09-01T12:00:00Z", End: "2026-09-01T13:00:00Z"},
		{Start: "2026-09-01T10:00:00Z", End: "2026-09-01T11:00:00Z"},
	}
	free := FreeSlots(busy, "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z")
	if len(free) != 3 {
		t.Fatalf("esperaba 3 huecos, obtuvo %d: %v", len(free), free)
	}
	// se ordenan por inicio aunque el backend los entregue desordenados
	if free[0].End != "2026-09-01T10:00:00Z" {
		t.Fatalf("primer hueco incorrecto: %+v", free[0])
	}
	if free[1].Start != "2026-09-01T11:00:00Z" || free[1].End != "2026-09-01T12:00:00Z" {
		t.Fatalf("hueco del medio incorrecto: %+v", free[1])
	}
	if free[2].Start != "2026-09-01T13:00:00Z" {
		t.Fatalf("último hueco incorrecto: %+v", free[2])
	}
}

func TestFreeSlotsBusyCoversWindow(t *testing.T) {
	busy := []calendar.FreeBusySlot{
		{Start: "2026-09-01T08:00:00Z", End: "2026-09-01T18:00:00Z"},
	}
	free := FreeSlots(busy, "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z")
	if len(free) != 0 {
		t.Fatalf("ventana cubierta no debería tener huecos: %v", free)
	}
}

func TestFreeSlotsIgnoresUnparseableIntervals(t *testing.T) {
	busy := []calendar.FreeBusySlot{
		{Start: "garbage", End: "2026-09-01T11:00:00Z"},
		{Start: "2026-09-01T12:00:00Z", End: "2026-09-01T13:00:00Z"},
	}
	free := FreeSlots(busy, "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z")
	if len(free) != 2 {
		t.Fatalf("el intervalo malformado debería ignorarse: %v", free)
	}
}

func TestFreeSlotsInvalidWindow(t *testing.T) {
	if free := FreeSlots(nil, "garbage", "2026-09-01T17:00:00Z"); free != nil {
		t.Fatalf("ventana no parseable debería dar nil, obtuvo %v", free)
	}
	if free := FreeSlots(nil, "2026-09-01T17:00:00Z", "2026-09-01T09:00:00Z"); free != nil {
		t.Fatalf("ventana invertida debería dar nil, obtuvo %v", free)
	}
}
