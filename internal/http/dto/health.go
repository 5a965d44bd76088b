package dto

// HealthResponse es el cuerpo de GET /healthz.
type HealthResponse struct {
	Status     string            `json:"status"`
	Env        string            `json:"env,omitempty"`
	UptimeSecs int64             `json:"uptime_secs"`
	Backends   map[string]string `json:"backends,omitempty"`
}
