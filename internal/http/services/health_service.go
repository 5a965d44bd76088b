package services

import (
	"time"

	dto "github.com/dropDatabas3/consentgate/internal/http/dto"
)

// HealthService reporta estado del proceso y los backends configurados.
type HealthService struct {
	env      string
	backends map[string]string
	started  time.Time
}

func NewHealthService(env string, backends map[string]string) *HealthService {
	return &HealthService{env: env, backends: backends, started: time.Now()}
}

func (s *HealthService) Check() dto.HealthResponse {
	return dto.HealthResponse{
		Status:     "ok",
		Env:        s.env,
		UptimeSecs: int64(time.Since(s.started).Seconds()),
		Backends:   s.backends,
	}
}
