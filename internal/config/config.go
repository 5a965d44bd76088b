package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Consent struct {
		// MasterSecret es el secreto del cual se deriva la clave HMAC (HKDF).
		// Nunca se loguea ni se serializa junto a los tokens.
		MasterSecret string `yaml:"master_secret"`
		// DefaultTTL aplica cuando un issue no especifica ttl_ms.
		DefaultTTL string `yaml:"default_ttl"`
	} `yaml:"consent"`

	Revocation struct {
		// Kind: memory | redis | postgres
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Postgres struct {
			DSN string `yaml:"dsn"`
		} `yaml:"postgres"`
	} `yaml:"revocation"`

	Audit struct {
		// Kind: log | postgres (el sink de log siempre está activo además)
		Kind     string `yaml:"kind"`
		Postgres struct {
			DSN string `yaml:"dsn"`
		} `yaml:"postgres"`
	} `yaml:"audit"`

	Calendar struct {
		BaseURL  string `yaml:"base_url"`
		Timeout  string `yaml:"timeout"`
		CacheTTL string `yaml:"cache_ttl"` // list-calendars / list-colors
	} `yaml:"calendar"`

	Reasoning struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
		Timeout string `yaml:"timeout"`
	} `yaml:"reasoning"`

	Vault struct {
		// Kind: memory | redis
		Kind string `yaml:"kind"`
		// MasterKey base64(32 bytes) para cifrar el contexto del agente en reposo.
		MasterKey  string `yaml:"master_key"`
		DefaultTTL string `yaml:"default_ttl"`
		Redis      struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"vault"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Issue   struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"issue"`
		Run struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"run"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"rate"`

	Operator struct {
		// JWTSecret firma los tokens de operador (HS256) que protegen
		// los endpoints de emisión/revocación.
		JWTSecret string `yaml:"jwt_secret"`
		Issuer    string `yaml:"issuer"`
	} `yaml:"operator"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	c.applyEnvOverrides()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// FromEnv construye una configuración usable sin archivo YAML (solo env vars).
// Útil en dev y en los tests de integración.
func FromEnv() (*Config, error) {
	var c Config
	c.applyDefaults()
	c.applyEnvOverrides()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Consent.DefaultTTL == "" {
		c.Consent.DefaultTTL = "24h"
	}
	if c.Revocation.Kind == "" {
		c.Revocation.Kind = "memory"
	}
	if c.Revocation.Redis.Prefix == "" {
		c.Revocation.Redis.Prefix = "cg:revoked:"
	}
	if c.Audit.Kind == "" {
		c.Audit.Kind = "log"
	}
	if c.Calendar.BaseURL == "" {
		c.Calendar.BaseURL = "http://localhost:3000"
	}
	if c.Calendar.Timeout == "" {
		c.Calendar.Timeout = "15s"
	}
	if c.Calendar.CacheTTL == "" {
		c.Calendar.CacheTTL = "5m"
	}
	if c.Reasoning.Timeout == "" {
		c.Reasoning.Timeout = "60s"
	}
	if c.Vault.Kind == "" {
		c.Vault.Kind = "memory"
	}
	if c.Vault.DefaultTTL == "" {
		c.Vault.DefaultTTL = "30m"
	}
	if c.Vault.Redis.Prefix == "" {
		c.Vault.Redis.Prefix = "cg:vault:"
	}
	if c.Rate.Issue.Limit == 0 {
		c.Rate.Issue.Limit = 30
	}
	if c.Rate.Issue.Window == "" {
		c.Rate.Issue.Window = "1m"
	}
	if c.Rate.Run.Limit == 0 {
		c.Rate.Run.Limit = 120
	}
	if c.Rate.Run.Window == "" {
		c.Rate.Run.Window = "1m"
	}
	if c.Rate.Redis.Prefix == "" {
		c.Rate.Redis.Prefix = "cg:rl:"
	}
}

// applyEnvOverrides permite sobreescribir secretos y endpoints sin tocar el YAML.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.App.Env = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CONSENT_MASTER_SECRET"); v != "" {
		c.Consent.MasterSecret = v
	}
	if v := os.Getenv("OPERATOR_JWT_SECRET"); v != "" {
		c.Operator.JWTSecret = v
	}
	if v := os.Getenv("VAULT_MASTER_KEY"); v != "" {
		c.Vault.MasterKey = v
	}
	if v := os.Getenv("CALENDAR_BASE_URL"); v != "" {
		c.Calendar.BaseURL = v
	}
	if v := os.Getenv("REASONING_BASE_URL"); v != "" {
		c.Reasoning.BaseURL = v
	}
	if v := os.Getenv("REASONING_API_KEY"); v != "" {
		c.Reasoning.APIKey = v
	}
	if v := os.Getenv("REVOCATION_REDIS_ADDR"); v != "" {
		c.Revocation.Kind = "redis"
		c.Revocation.Redis.Addr = v
	}
	if v := os.Getenv("REVOCATION_PG_DSN"); v != "" {
		c.Revocation.Kind = "postgres"
		c.Revocation.Postgres.DSN = v
	}
	if v := os.Getenv("AUDIT_PG_DSN"); v != "" {
		c.Audit.Kind = "postgres"
		c.Audit.Postgres.DSN = v
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Consent.MasterSecret) == "" {
		return fmt.Errorf("consent.master_secret vacío (o env CONSENT_MASTER_SECRET)")
	}
	// validate string durations
	for _, d := range []string{
		c.Consent.DefaultTTL,
		c.Calendar.Timeout,
		c.Calendar.CacheTTL,
		c.Reasoning.Timeout,
		c.Vault.DefaultTTL,
		c.Rate.Issue.Window,
		c.Rate.Run.Window,
	} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("duración inválida %q: %w", d, err)
		}
	}
	switch c.Revocation.Kind {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("revocation.kind desconocido: %q", c.Revocation.Kind)
	}
	switch c.Vault.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("vault.kind desconocido: %q", c.Vault.Kind)
	}
	return nil
}

// MustDuration parsea una duración ya validada por Load.
func MustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}
