package repofakes

import (
	"sync"

	apperrors "github.com/communigo/go-community-admin/internal/errors"
	"github.com/communigo/go-community-admin/session"
)

var _ session.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo is an in-memory session.Repo for tests. It records call
// counts and exposes the stored state for assertions.
type FakeSessionRepo struct {
	lock sync.RWMutex

	session *session.Session
	marker  bool

	SaveCount  int
	ClearCount int
	SaveErr    error
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{}
}

func (r *FakeSessionRepo) Save(sess *session.Session) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.SaveCount++
	if r.SaveErr != nil {
		return r.SaveErr
	}
	cp := *sess
	r.session = &cp
	return nil
}

func (r *FakeSessionRepo) Load() (*session.Session, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.session == nil {
		return nil, apperrors.ErrNoSession
	}
	cp := *r.session
	return &cp, nil
}

func (r *FakeSessionRepo) Clear() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.ClearCount++
	r.session = nil
	return nil
}

func (r *FakeSessionRepo) SetAuthMarker(authenticated bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.marker = authenticated
	return nil
}

// Stored returns a copy of the currently persisted session, if any.
func (r *FakeSessionRepo) Stored() (session.Session, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.session == nil {
		return session.Session{}, false
	}
	return *r.session, true
}

// Marker returns the current auth marker state.
func (r *FakeSessionRepo) Marker() bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.marker
}
