package apiclient

import (
	"context"
	"net/http"

	apperrors "github.com/communigo/go-community-admin/internal/errors"
	"github.com/communigo/go-community-admin/session"
)

// Auth endpoint paths
const (
	RouteLogin   = "/api/auth/login"
	RouteRefresh = "/api/auth/refresh"
	RouteLogout  = "/api/auth/logout"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Login authenticates the admin and installs the resulting session. The
// response shape is normalized tolerantly: camelCase or snake_case fields,
// at the root or nested under data.
func (c *Client) Login(ctx context.Context, email, password string) (session.Session, error) {
	r, err := c.do(ctx, http.MethodPost, RouteLogin, loginRequest{Email: email, Password: password}, "")
	if err != nil {
		return session.Session{}, err
	}
	if r.status < http.StatusOK || r.status >= http.StatusMultipleChoices {
		message := r.message
		if message == "" {
			message = "login failed"
		}
		return session.Session{}, &RequestError{Status: r.status, Message: message}
	}

	sess, refreshToken, err := session.NormalizeLoginResponse(r.body)
	if err != nil {
		return session.Session{}, err
	}
	if err := c.sessions.SetFromLogin(sess, refreshToken); err != nil {
		return session.Session{}, err
	}

	c.log.Info().Str("email", email).Msg("logged in")
	return sess, nil
}

// Logout tells the backend to revoke the session, best-effort, then clears
// local state.
func (c *Client) Logout(ctx context.Context) {
	if c.sessions.AccessToken() != "" {
		if err := c.Call(ctx, http.MethodPost, RouteLogout, nil, nil); err != nil {
			c.log.Debug().Err(err).Msg("backend logout failed, clearing local state anyway")
		}
	}
	c.sessions.Logout()
}

// refreshSession is the RefreshFunc handed to the session manager's
// single-flight coordinator. A fatal application code from the refresh
// endpoint itself means the session cannot be recovered at all.
func (c *Client) refreshSession(ctx context.Context, refreshToken string) (session.Session, string, error) {
	r, err := c.do(ctx, http.MethodPost, RouteRefresh, refreshRequest{RefreshToken: refreshToken}, "")
	if err != nil {
		return session.Session{}, "", err
	}
	if r.code == CodeInvalidSession {
		return session.Session{}, "", apperrors.ErrInvalidSession
	}
	if r.status < http.StatusOK || r.status >= http.StatusMultipleChoices {
		message := r.message
		if message == "" {
			message = "refresh failed"
		}
		return session.Session{}, "", &RequestError{Status: r.status, Message: message}
	}

	sess, newRefreshToken, err := session.NormalizeRefreshResponse(r.body)
	if err != nil {
		return session.Session{}, "", err
	}

	c.log.Debug().Msg("access token refreshed")
	return sess, newRefreshToken, nil
}
