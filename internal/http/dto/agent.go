package dto

// RunIntentRequest es el cuerpo de POST /v1/agent/run.
type RunIntentRequest struct {
	UserID string         `json:"user_id"`
	Token  string         `json:"token"`
	Intent string         `json:"intent"`
	Args   map[string]any `json:"args,omitempty"`
}

// RunStep es un paso ejecutado (la cadena puede tener más de uno).
type RunStep struct {
	Operation string         `json:"operation"`
	Outcome   string         `json:"outcome"`
	Reason    string         `json:"reason,omitempty"`
	Output    map[string]any `json:"output,omitempty"`
}

// RunIntentResponse agrega los pasos; Outcome/Reason son los del paso terminal.
type RunIntentResponse struct {
	Intent  string         `json:"intent"`
	Outcome string         `json:"outcome"`
	Reason  string         `json:"reason,omitempty"`
	Steps   []RunStep      `json:"steps"`
	Output  map[string]any `json:"output,omitempty"`
}
