package session

import (
	"golang.org/x/oauth2"

	apperrors "github.com/communigo/go-community-admin/internal/errors"
)

// tokenSource adapts a Manager to oauth2.TokenSource so the session can feed
// any library that speaks the oauth2 interfaces.
type tokenSource struct {
	manager *Manager
}

// TokenSource returns an oauth2.TokenSource backed by this manager's current
// session. It does not refresh; refresh stays with the client's retry path.
func (m *Manager) TokenSource() oauth2.TokenSource {
	return &tokenSource{manager: m}
}

// Token returns the current access token as an oauth2.Token.
func (ts *tokenSource) Token() (*oauth2.Token, error) {
	sess, ok := ts.manager.Current()
	if !ok {
		return nil, apperrors.ErrNotAuthenticated
	}
	return &oauth2.Token{
		AccessToken: sess.AccessToken,
		TokenType:   "Bearer",
		Expiry:      sess.AccessTokenExpiresAt,
	}, nil
}
