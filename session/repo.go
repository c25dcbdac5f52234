package session

// Repo persists the session record between process runs. Implementations must
// never store the refresh token; the persisted shape is exactly Session.
//
// The auth marker is a single-character indicator kept alongside the record so
// route guards can decide redirect-vs-allow without reading the session itself.
type Repo interface {
	Save(session *Session) error
	Load() (*Session, error) // errors.ErrNoSession when no record exists
	Clear() error
	SetAuthMarker(authenticated bool) error
}
