package agent

import (
	"sort"
	"time"

	"github.com/dropDatabas3/consentgate/internal/calendar"
)

// FreeSlots deriva los huecos libres dentro de [timeMin, timeMax] a partir de
// los intervalos ocupados reportados por el backend. Los intervalos se ordenan
// por inicio y se asumen sin solapamiento entre sí (así los entrega el
// backend); uno mal formado se ignora en vez de abortar la detección.
func FreeSlots(busy []calendar.FreeBusySlot, timeMin, timeMax string) []calendar.FreeBusySlot {
	winStart, err := time.Parse(time.RFC3339, timeMin)
	if err != nil {
		return nil
	}
	winEnd, err := time.Parse(time.RFC3339, timeMax)
	if err != nil || !winEnd.After(winStart) {
		return nil
	}

	type interval struct{ start, end time.Time }
	parsed := make([]interval, 0, len(busy))
	for _, b := range busy {
		s, err := time.Parse(time.RFC3339, b.Start)
		if err != nil {
			continue
		}
		e, err := time.Parse(time.RFC3339, b.End)
		if err != nil || !e.After(s) {
			continue
		}
		// recortar al borde de la ventana
		if e.Before(winStart) || s.After(winEnd) {
			continue
		}
		if s.Before(winStart) {
			s = winStart
		}
		if e.After(winEnd) {
			e = winEnd
		}
		parsed = append(parsed, interval{s, e})
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].start.Before(parsed[j].start) })

	var free []calendar.FreeBusySlot
	cursor := winStart
	for _, iv := range parsed {
		if iv.start.After(cursor) {
			free = append(free, calendar.FreeBusySlot{
				Start: cursor.Format(time.RFC3339),
				End:   iv.start.Format(time.RFC3339),
			})
		}
		if iv.end.After(cursor) {
			cursor = iv.end
		}
	}
	if winEnd.After(cursor) {
		free = append(free, calendar.FreeBusySlot{
			Start: cursor.Format(time.RFC3339),
			End:   winEnd.Format(time.RFC3339),
		})
	}
	return free
}
