package session

import (
	"context"
	"sync"
	"time"

	apperrors "cv-evaluator-client/internal/common/errors"
	"cv-evaluator-client/internal/common/logger"
	"cv-evaluator-client/internal/models"
)

// AuthAPI is the slice of the API client the manager drives.
type AuthAPI interface {
	SignIn(ctx context.Context, email, password string) (*models.User, string, error)
	SignUp(ctx context.Context, email, password, name string) (*models.User, string, error)
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
	SetToken(token string)
	ClearToken()
}

// Manager owns the authentication lifecycle: restore on start, sign-in and
// sign-up, token propagation to the API client, and teardown.
type Manager struct {
	api    AuthAPI
	store  Store
	logger logger.Logger

	mu      sync.RWMutex
	current *models.Session
}

func NewManager(api AuthAPI, store Store, log logger.Logger) *Manager {
	return &Manager{api: api, store: store, logger: log}
}

// Current returns the active session, or nil when signed out.
func (m *Manager) Current() *models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsAuthenticated reports whether a usable session is active.
func (m *Manager) IsAuthenticated() bool {
	return m.Current().Valid()
}

// Restore loads a previously persisted session. Malformed or unreadable
// persisted state is cleared and the manager starts unauthenticated; that is
// not an error.
func (m *Manager) Restore(ctx context.Context) error {
	s, err := m.store.Load(ctx)
	if err != nil {
		if err != ErrNoSession {
			m.logger.Warn("discarding unreadable persisted session", map[string]interface{}{
				"error": err.Error(),
			})
			if clearErr := m.store.Clear(ctx); clearErr != nil {
				return clearErr
			}
		}
		return nil
	}

	m.install(s)
	return nil
}

// SignIn authenticates and persists the resulting session.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	user, token, err := m.api.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return m.establish(ctx, user, token)
}

// SignUp registers an account. Backends that do not issue a token on sign-up
// are handled by signing in with the same credentials.
func (m *Manager) SignUp(ctx context.Context, email, password, name string) (*models.Session, error) {
	user, token, err := m.api.SignUp(ctx, email, password, name)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return m.SignIn(ctx, email, password)
	}
	return m.establish(ctx, user, token)
}

// SignOut tears the session down. The remote revocation is best-effort:
// local state is cleared even when the backend is unreachable.
func (m *Manager) SignOut(ctx context.Context) error {
	if m.IsAuthenticated() {
		if err := m.api.SignOut(ctx); err != nil {
			m.logger.Warn("remote sign-out failed, clearing local session anyway", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	m.api.ClearToken()
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	return m.store.Clear(ctx)
}

// RefreshUser re-validates the stored token against the backend. Any failure
// means the session is no longer trustworthy and triggers a full sign-out.
func (m *Manager) RefreshUser(ctx context.Context) (*models.User, error) {
	if !m.IsAuthenticated() {
		return nil, apperrors.NewValidationError("Not signed in.")
	}

	user, err := m.api.CurrentUser(ctx)
	if err != nil {
		if signOutErr := m.SignOut(ctx); signOutErr != nil {
			m.logger.Warn("session teardown after failed refresh", map[string]interface{}{
				"error": signOutErr.Error(),
			})
		}
		return nil, err
	}

	m.mu.Lock()
	if m.current != nil {
		m.current.User = *user
	}
	s := m.current
	m.mu.Unlock()

	if s != nil {
		if err := m.store.Save(ctx, s); err != nil {
			m.logger.Warn("persisting refreshed session failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return user, nil
}

// establish installs and persists a fresh session. A persistence failure is
// logged but does not undo the sign-in: the in-memory session stays usable.
func (m *Manager) establish(ctx context.Context, user *models.User, token string) (*models.Session, error) {
	s := &models.Session{
		Token:     token,
		User:      *user,
		CreatedAt: time.Now().UTC(),
	}
	m.install(s)

	if err := m.store.Save(ctx, s); err != nil {
		m.logger.Warn("persisting session failed, continuing in-memory", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return s, nil
}

func (m *Manager) install(s *models.Session) {
	m.api.SetToken(s.Token)
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
}
