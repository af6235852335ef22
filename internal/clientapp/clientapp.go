// Package clientapp arma el proceso cliente: almacen de credenciales,
// cliente de cuentas, Session Manager, responder y Orchestrator.
package clientapp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gradient-chat/internal/accountclient"
	"gradient-chat/internal/chat"
	"gradient-chat/internal/config"
	"gradient-chat/internal/credentials"
	"gradient-chat/internal/llm"
	"gradient-chat/internal/session"
)

// App agrupa los componentes de un proceso cliente.
type App struct {
	Sessions *session.Manager
	Chat     *chat.Orchestrator

	redis *redis.Client
}

func New(ctx context.Context, cfg *config.ClientConfig, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{}

	store, err := app.credentialStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	responder, err := NewResponder(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	accounts := accountclient.New(cfg.AccountURL, cfg.AccountTimeout, logger.Named("accounts"))
	app.Sessions = session.NewManager(logger.Named("session"), accounts, store)
	app.Chat = chat.NewOrchestrator(logger.Named("chat"), responder, app.Sessions.UserID)
	return app, nil
}

func (a *App) credentialStore(ctx context.Context, cfg *config.ClientConfig, logger *zap.Logger) (credentials.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.CredentialStore)) {
	case "", "file":
		path := cfg.CredentialPath
		if path == "" {
			path = credentials.DefaultPath()
		}
		return credentials.NewFileStore(path), nil
	case "memory":
		return credentials.NewMemoryStore(""), nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("credential store redis requires REDIS_ADDR")
		}
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := a.redis.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		}
		return credentials.NewRedisStore(a.redis, cfg.RedisKey), nil
	default:
		return nil, fmt.Errorf("unknown credential store %q", cfg.CredentialStore)
	}
}

// NewResponder elige el responder segun RESPONDER: "canned" o "llm".
func NewResponder(cfg *config.ClientConfig) (chat.Responder, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Responder)) {
	case "", "canned":
		return chat.NewCannedResponder(cfg.ResponderLatency), nil
	case "llm":
		client, err := llm.New(llm.Config{
			Provider: cfg.LLMProvider,
			APIKey:   cfg.LLMAPIKey,
			BaseURL:  cfg.LLMBaseURL,
			Model:    cfg.LLMModel,
		})
		if err != nil {
			return nil, fmt.Errorf("llm responder: %w", err)
		}
		return chat.NewLLMResponder(client, cfg.LLMSystemPrompt), nil
	default:
		return nil, fmt.Errorf("unknown responder %q", cfg.Responder)
	}
}

// Close cancela los intercambios pendientes y libera redis si se uso.
func (a *App) Close() {
	if a.Chat != nil {
		a.Chat.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
