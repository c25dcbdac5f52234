package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/communigo/go-community-admin/internal/errors"
)

// RefreshFunc performs the refresh HTTP call. It receives the current refresh
// token and returns the new session plus the rotated refresh token. It must
// return errors.ErrInvalidSession when the backend signals the fatal code.
type RefreshFunc func(ctx context.Context, refreshToken string) (Session, string, error)

// Manager owns the session lifecycle for one process: the current session, the
// in-memory refresh token, durable persistence through a Repo, and event
// broadcast. It is safe for concurrent use.
//
// Refresh is single-flight: at most one refresh call is in flight process-wide
// at any time, and concurrent callers share its outcome.
type Manager struct {
	repo        Repo
	log         zerolog.Logger
	broadcaster *Broadcaster
	group       singleflight.Group

	mu           sync.RWMutex
	current      *Session
	refreshToken string
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager initializes a new Manager with the given persistence repo.
func NewManager(repo Repo, options ...ManagerOption) (*Manager, error) {
	if repo == nil {
		return nil, errors.New("[NewManager] repo is required")
	}

	m := &Manager{
		repo:        repo,
		log:         zerolog.Nop(),
		broadcaster: NewBroadcaster(),
	}

	for _, opt := range options {
		opt(m)
	}

	return m, nil
}

// Load initializes the in-memory session from the persisted record, if one
// exists. The refresh token is never persisted, so after Load the manager can
// authenticate requests but cannot refresh until the next login.
func (m *Manager) Load() error {
	sess, err := m.repo.Load()
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNoSession) {
			return nil
		}
		return apperrors.Wrapf(err, "loading persisted session")
	}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()
	return nil
}

// SetFromLogin installs the session obtained from a successful login. The
// record is persisted (without the refresh token) and an updated event is
// broadcast. A persistence failure here is returned: a login that cannot
// establish a session should fail loudly.
func (m *Manager) SetFromLogin(sess Session, refreshToken string) error {
	m.mu.Lock()
	cp := sess
	m.current = &cp
	m.refreshToken = refreshToken
	m.mu.Unlock()

	if err := m.repo.Save(&cp); err != nil {
		return apperrors.Wrapf(err, "persisting session")
	}
	if err := m.repo.SetAuthMarker(true); err != nil {
		return apperrors.Wrapf(err, "setting auth marker")
	}

	m.broadcaster.Broadcast(Event{Kind: EventUpdated, Session: &cp})
	return nil
}

// Refresh obtains new tokens through fn. Concurrent callers join the same
// in-flight refresh and receive the same result. On success the new session is
// persisted best-effort, the refresh token holder is updated, and an updated
// event is broadcast. If fn reports ErrInvalidSession the manager forces a
// logout before returning the error.
func (m *Manager) Refresh(ctx context.Context, fn RefreshFunc) (Session, error) {
	v, err, _ := m.group.Do("refresh", func() (interface{}, error) {
		m.mu.RLock()
		refreshToken := m.refreshToken
		m.mu.RUnlock()

		if refreshToken == "" {
			return nil, apperrors.ErrSessionExpired
		}

		sess, newRefreshToken, err := fn(ctx, refreshToken)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrInvalidSession) {
				m.ForceLogout()
			}
			return nil, err
		}

		m.mu.Lock()
		cp := sess
		m.current = &cp
		if newRefreshToken != "" {
			m.refreshToken = newRefreshToken
		}
		m.mu.Unlock()

		// Persistence is best-effort here: a storage failure must not turn a
		// successful refresh into a failed request.
		if err := m.repo.Save(&cp); err != nil {
			m.log.Warn().Err(err).Msg("failed to persist refreshed session")
		}

		m.broadcaster.Broadcast(Event{Kind: EventUpdated, Session: &cp})
		return cp, nil
	})
	if err != nil {
		return Session{}, err
	}
	return v.(Session), nil
}

// Logout clears all session state after an explicit, caller-initiated logout.
// No event is broadcast; the caller already knows.
func (m *Manager) Logout() {
	m.clear()
}

// ForceLogout clears all session state and broadcasts a forced-logout event.
// Idempotent: a second call on an already-cleared manager broadcasts nothing.
func (m *Manager) ForceLogout() {
	if !m.clear() {
		return
	}
	m.broadcaster.Broadcast(Event{Kind: EventForcedLogout})
}

// clear wipes memory and durable storage, reporting whether there was any
// state to wipe.
func (m *Manager) clear() bool {
	m.mu.Lock()
	hadState := m.current != nil || m.refreshToken != ""
	m.current = nil
	m.refreshToken = ""
	m.mu.Unlock()

	if !hadState {
		return false
	}

	if err := m.repo.Clear(); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear persisted session")
	}
	if err := m.repo.SetAuthMarker(false); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear auth marker")
	}
	return true
}

// Current returns a copy of the current session, if any.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// AccessToken returns the current access token, or "" when unauthenticated.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.AccessToken
}

// HasRefreshToken reports whether a refresh token is currently held.
func (m *Manager) HasRefreshToken() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshToken != ""
}

// Subscribe registers a callback for session events and returns an
// unsubscribe function.
func (m *Manager) Subscribe(fn func(Event)) func() {
	return m.broadcaster.Subscribe(fn)
}
