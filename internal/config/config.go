package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// APIConfig centraliza la configuración del servicio de cuentas.
type APIConfig struct {
	HTTPPort      string        `env:"HTTP_PORT" envDefault:"5001"`
	DatabaseURL   string        `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret     string        `env:"JWT_SECRET,required,notEmpty"`
	JWTTTL        time.Duration `env:"JWT_TTL" envDefault:"168h"`
	CORSOrigins   []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
}

// ClientConfig centraliza la configuración del cliente de chat (web y CLI).
type ClientConfig struct {
	HTTPPort        string        `env:"CLIENT_HTTP_PORT" envDefault:"3000"`
	AccountURL      string        `env:"ACCOUNT_API_URL" envDefault:"http://localhost:5001/api/auth"`
	AccountTimeout  time.Duration `env:"ACCOUNT_API_TIMEOUT" envDefault:"10s"`
	CredentialStore string        `env:"CREDENTIAL_STORE" envDefault:"file"`
	CredentialPath  string        `env:"CREDENTIAL_PATH"`
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	RedisKey        string        `env:"CREDENTIAL_REDIS_KEY" envDefault:"chat:client:token"`

	Responder        string        `env:"RESPONDER" envDefault:"canned"`
	ResponderLatency time.Duration `env:"RESPONDER_LATENCY" envDefault:"1500ms"`
	LLMProvider      string        `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMAPIKey        string        `env:"LLM_API_KEY"`
	LLMBaseURL       string        `env:"LLM_BASE_URL"`
	LLMModel         string        `env:"LLM_MODEL"`
	LLMSystemPrompt  string        `env:"LLM_SYSTEM_PROMPT" envDefault:"You are a helpful AI assistant."`
}

// LoadAPIConfig carga la configuración del servicio de cuentas desde variables de entorno.
func LoadAPIConfig() (*APIConfig, error) {
	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadClientConfig carga la configuración del cliente desde variables de entorno.
func LoadClientConfig() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
