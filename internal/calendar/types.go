package calendar

// Event es un evento del backend de calendario. Start/End en ISO 8601.
type Event struct {
	ID          string   `json:"id"`
	Summary     string   `json:"summary"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Description string   `json:"description,omitempty"`
	Attendees   []string `json:"attendees,omitempty"`
	Location    string   `json:"location,omitempty"`
	Status      string   `json:"status,omitempty"`
}

// FreeBusySlot es un intervalo ocupado o libre. Start/End en ISO 8601.
type FreeBusySlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FreeBusy es la respuesta de get-freebusy.
type FreeBusy struct {
	Busy []FreeBusySlot `json:"busy"`
}

// Calendar es una entrada de list-calendars.
type Calendar struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Primary bool   `json:"primary,omitempty"`
}

// Colors es la paleta que expone list-colors (id -> hex).
type Colors struct {
	Event map[string]string `json:"event"`
}

// Snapshot agrupa eventos y free/busy de una misma ventana temporal.
type Snapshot struct {
	Events []Event  `json:"events"`
	Busy   FreeBusy `json:"free_busy"`
}
