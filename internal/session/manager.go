// Package session mantiene la sesion autenticada del cliente: token,
// perfil y estado derivado.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"gradient-chat/internal/credentials"
	"gradient-chat/internal/domain"
	"gradient-chat/internal/errs"
)

var (
	ErrNoSession      = fmt.Errorf("%w: no session token", errs.ErrAuthRejected)
	ErrSessionChanged = errors.New("session changed during profile fetch")
	ErrEmptyToken     = fmt.Errorf("%w: account service returned empty token", errs.ErrTransport)
)

// AccountService es el servicio remoto de cuentas.
type AccountService interface {
	Register(ctx context.Context, creds domain.Credentials) (domain.AuthResult, error)
	Login(ctx context.Context, creds domain.Credentials) (domain.AuthResult, error)
	Profile(ctx context.Context, token string) (domain.User, error)
}

// Revoker es opcional: si el AccountService lo implementa, Logout lo notifica.
type Revoker interface {
	Revoke(ctx context.Context, token string) error
}

// Manager es el unico duenio de la sesion del proceso.
type Manager struct {
	logger   *zap.Logger
	accounts AccountService
	store    credentials.Store

	mu       sync.RWMutex
	session  domain.Session
	restored bool

	fetches singleflight.Group
}

func NewManager(logger *zap.Logger, accounts AccountService, store credentials.Store) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = credentials.NewMemoryStore("")
	}
	return &Manager{
		logger:   logger,
		accounts: accounts,
		store:    store,
		session:  domain.Session{Status: domain.StatusUnauthenticated},
	}
}

// Restore lee el token persistido (solo la primera vez) y, si no hay perfil
// cargado, pasa a pending y lo pide. Mientras esta pending es no-op.
func (m *Manager) Restore(ctx context.Context) error {
	m.mu.Lock()
	if m.session.Status == domain.StatusPending {
		m.mu.Unlock()
		return nil
	}
	first := !m.restored
	m.mu.Unlock()

	if first {
		// Si Load falla, el proximo Restore vuelve a intentarlo.
		token, err := m.store.Load(ctx)
		if err != nil {
			m.logger.Warn("load persisted token failed", zap.Error(err))
			return fmt.Errorf("load credential: %w", err)
		}
		m.mu.Lock()
		if !m.restored && m.session.Token == "" {
			m.session.Token = token
		}
		m.restored = true
		m.mu.Unlock()
	}

	m.mu.Lock()
	if m.session.Token == "" || m.session.User != nil || m.session.Status == domain.StatusPending {
		m.mu.Unlock()
		return nil
	}
	m.session.Status = domain.StatusPending
	token := m.session.Token
	m.mu.Unlock()

	m.logger.Debug("restoring session")
	_, err := m.fetchProfile(ctx, token)
	return err
}

// GetProfile pide el perfil con el token actual. Un rechazo equivale a Logout;
// una falla de transporte deja status error y conserva el token.
func (m *Manager) GetProfile(ctx context.Context) (domain.User, error) {
	m.mu.Lock()
	token := m.session.Token
	if token == "" {
		m.mu.Unlock()
		return domain.User{}, ErrNoSession
	}
	if m.session.User == nil {
		m.session.Status = domain.StatusPending
	}
	m.mu.Unlock()

	return m.fetchProfile(ctx, token)
}

func (m *Manager) fetchProfile(ctx context.Context, token string) (domain.User, error) {
	v, err, shared := m.fetches.Do(token, func() (interface{}, error) {
		return m.accounts.Profile(ctx, token)
	})
	if shared {
		m.logger.Debug("profile fetch shared")
	}

	m.mu.Lock()
	if m.session.Token != token {
		m.mu.Unlock()
		return domain.User{}, ErrSessionChanged
	}

	if err != nil {
		msg := err.Error()
		if errors.Is(err, errs.ErrAuthRejected) {
			m.session = domain.Session{Status: domain.StatusUnauthenticated, LastError: msg}
			m.mu.Unlock()
			m.logger.Info("session rejected, clearing token", zap.Error(err))
			m.clearStore(ctx)
			return domain.User{}, fmt.Errorf("get profile: %w", err)
		}
		m.session.User = nil
		m.session.Status = domain.StatusError
		m.session.LastError = msg
		m.mu.Unlock()
		m.logger.Warn("profile fetch failed", zap.Error(err))
		return domain.User{}, fmt.Errorf("get profile: %w", err)
	}

	user := v.(domain.User)
	m.session.User = &user
	m.session.Status = domain.StatusAuthenticated
	m.session.LastError = ""
	m.mu.Unlock()
	return user, nil
}

func (m *Manager) Login(ctx context.Context, creds domain.Credentials) (domain.User, error) {
	res, err := m.accounts.Login(ctx, creds)
	if err != nil {
		return domain.User{}, m.fail(ctx, "login", err)
	}
	return m.establish(ctx, "login", res)
}

func (m *Manager) Register(ctx context.Context, creds domain.Credentials) (domain.User, error) {
	res, err := m.accounts.Register(ctx, creds)
	if err != nil {
		return domain.User{}, m.fail(ctx, "register", err)
	}
	return m.establish(ctx, "register", res)
}

func (m *Manager) establish(ctx context.Context, op string, res domain.AuthResult) (domain.User, error) {
	if res.Token == "" {
		return domain.User{}, m.fail(ctx, op, ErrEmptyToken)
	}
	user := res.User

	m.mu.Lock()
	m.session = domain.Session{Token: res.Token, User: &user, Status: domain.StatusAuthenticated}
	m.restored = true
	m.mu.Unlock()

	if err := m.store.Save(ctx, res.Token); err != nil {
		m.logger.Warn("persist token failed", zap.String("op", op), zap.Error(err))
	}
	m.logger.Info("session established", zap.String("op", op), zap.String("user_id", user.ID))
	return user, nil
}

// fail deja la sesion sin autenticar y sin token persistido. Sin reintentos.
func (m *Manager) fail(ctx context.Context, op string, err error) error {
	m.mu.Lock()
	m.session = domain.Session{Status: domain.StatusUnauthenticated, LastError: err.Error()}
	m.restored = true
	m.mu.Unlock()
	m.clearStore(ctx)
	m.logger.Info("authentication failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}

// Logout siempre tiene exito localmente. La revocacion remota es best-effort.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	token := m.session.Token
	m.session = domain.Session{Status: domain.StatusUnauthenticated}
	m.restored = true
	m.mu.Unlock()

	m.clearStore(ctx)

	if r, ok := m.accounts.(Revoker); ok && token != "" {
		if err := r.Revoke(ctx, token); err != nil {
			m.logger.Warn("token revoke failed", zap.Error(err))
		}
	}
}

func (m *Manager) clearStore(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("clear persisted token failed", zap.Error(err))
	}
}

// Snapshot devuelve una copia; el User apuntado tambien se copia.
func (m *Manager) Snapshot() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.session
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func (m *Manager) Status() domain.SessionStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Status
}

// UserID devuelve "" si no hay perfil cargado.
func (m *Manager) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session.User == nil {
		return ""
	}
	return m.session.User.ID
}
