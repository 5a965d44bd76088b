package reasoning

import (
	"encoding/json"
	"fmt"
)

// Prompt para sugerir el mejor horario dado free/busy y preferencias.
const suggestSchedulePrompt = `You are a privacy-preserving AI calendar assistant.
Given the user's free/busy slots and their preferences, suggest the best time for the following task:

Task: %s
Available Slots: %s
User Preferences: %s

Respond with a JSON object: {"suggested_time": "...", "reason": "..."}`

// Prompt para explicar una reprogramación.
const rescheduleTaskPrompt = `You are a calendar assistant. The user wants to reschedule the following event:

Event: %s
Requested Change: %s

Suggest a new time or explain why rescheduling is not possible.
Respond with a JSON object: {"new_time": "...", "reason": "..."}`

// Prompt para resumir la semana del usuario.
const summarizeCalendarPrompt = `You are a calendar assistant. Summarize the user's upcoming week based on these events:

Events: %s

Highlight any deadlines, busy days, or free periods.`

// SuggestSchedulePrompt arma el prompt de sugerencia de agenda.
func SuggestSchedulePrompt(task string, freeSlots, preferences any) string {
	return fmt.Sprintf(suggestSchedulePrompt, task, toJSON(freeSlots), toJSON(preferences))
}

// ReschedulePrompt arma el prompt de reprogramación.
func ReschedulePrompt(event any, requestedChange string) string {
	return fmt.Sprintf(rescheduleTaskPrompt, toJSON(event), requestedChange)
}

// SummarizePrompt arma el prompt de resumen de calendario.
func SummarizePrompt(events any) string {
	return fmt.Sprintf(summarizeCalendarPrompt, toJSON(events))
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
