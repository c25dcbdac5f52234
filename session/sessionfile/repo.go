// Package sessionfile implements session.Repo on top of a JSON record in the
// data folder. The record mirrors the persisted session shape exactly; the
// refresh token never reaches this package.
package sessionfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	apperrors "github.com/communigo/go-community-admin/internal/errors"
	"github.com/communigo/go-community-admin/session"
)

const markerSuffix = ".auth"

var _ session.Repo = (*Repo)(nil)

// Repo stores the session record at <dir>/<storageKey>.json and the one
// character auth marker at <dir>/<storageKey>.auth.
type Repo struct {
	mu         sync.Mutex
	recordPath string
	markerPath string
}

// New creates a file-backed session repo rooted at dir, creating dir if
// needed. storageKey names the record file.
func New(dir, storageKey string) (*Repo, error) {
	if dir == "" {
		return nil, errors.New("[sessionfile.New] dir is required")
	}
	if storageKey == "" {
		return nil, errors.New("[sessionfile.New] storageKey is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "[sessionfile.New] creating data folder")
	}
	return &Repo{
		recordPath: filepath.Join(dir, storageKey+".json"),
		markerPath: filepath.Join(dir, storageKey+markerSuffix),
	}, nil
}

func (r *Repo) Save(sess *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(sess)
	if err != nil {
		return apperrors.Wrapf(err, "marshalling session record")
	}
	if err := os.WriteFile(r.recordPath, data, 0o600); err != nil {
		return apperrors.Wrapf(err, "writing session record")
	}
	return nil
}

func (r *Repo) Load() (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.recordPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ErrNoSession
		}
		return nil, apperrors.Wrapf(err, "reading session record")
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, apperrors.Wrapf(err, "unmarshalling session record")
	}
	return &sess, nil
}

func (r *Repo) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.recordPath); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrapf(err, "removing session record")
	}
	return nil
}

func (r *Repo) SetAuthMarker(authenticated bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !authenticated {
		if err := os.Remove(r.markerPath); err != nil && !os.IsNotExist(err) {
			return apperrors.Wrapf(err, "removing auth marker")
		}
		return nil
	}
	if err := os.WriteFile(r.markerPath, []byte("1"), 0o600); err != nil {
		return apperrors.Wrapf(err, "writing auth marker")
	}
	return nil
}

// HasAuthMarker reports whether the auth marker is currently set. Route guards
// use this to decide redirect-vs-allow before any session is loaded.
func (r *Repo) HasAuthMarker() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := os.Stat(r.markerPath)
	return err == nil
}
