// Package accountclient habla con el servicio de cuentas por HTTP y
// clasifica sus fallas en rechazos de autenticacion, validacion,
// conflicto o transporte.
package accountclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"gradient-chat/internal/domain"
	"gradient-chat/internal/errs"
)

// APIError describe una respuesta de error del servicio de cuentas.
type APIError struct {
	Status  int
	Message string
	kind    error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("account api: status=%d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.kind }

// Client implementa session.AccountService contra la API /api/auth.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// New construye un cliente apuntando a la base de la API de autenticacion.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) Register(ctx context.Context, creds domain.Credentials) (domain.AuthResult, error) {
	var out domain.AuthResult
	err := c.do(ctx, http.MethodPost, "/register", "", creds, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.AuthResult, error) {
	body := domain.Credentials{Email: creds.Email, Password: creds.Password}
	var out domain.AuthResult
	err := c.do(ctx, http.MethodPost, "/login", "", body, &out)
	return out, err
}

func (c *Client) Profile(ctx context.Context, token string) (domain.User, error) {
	var out struct {
		User domain.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/profile", token, nil, &out); err != nil {
		return domain.User{}, err
	}
	return out.User, nil
}

// Revoke pide al servicio invalidar el token. Usado como best-effort en logout.
func (c *Client) Revoke(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/logout", token, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", errs.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", errs.ErrTransport, err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(respBody), kind: classify(resp.StatusCode)}
		c.logger.Debug("account api error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: unmarshal response: %v", errs.ErrTransport, err)
	}
	return nil
}

// classify traduce el status HTTP a la taxonomia de errores compartida.
// Un 404 en perfil significa que la cuenta ya no existe: el token no sirve.
func classify(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusNotFound:
		return errs.ErrAuthRejected
	case status == http.StatusConflict:
		return errs.ErrConflict
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return errs.ErrValidation
	default:
		return errs.ErrTransport
	}
}

func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(body))
}
