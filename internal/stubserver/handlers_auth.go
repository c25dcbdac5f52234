package stubserver

import (
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// LoginHandler authenticates the admin and issues a token pair. The response
// uses the snake_case-nested shape some backend deployments emit; clients are
// expected to normalize it.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, 0, "invalid request body")
			return
		}

		if req.Email != s.adminEmail ||
			bcrypt.CompareHashAndPassword(s.adminHash, []byte(req.Password)) != nil {
			s.writeError(w, http.StatusUnauthorized, 0, "invalid credentials")
			return
		}

		accessToken, err := s.mintAccessToken(req.Email)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to mint access token")
			s.writeError(w, http.StatusInternalServerError, 0, "internal error")
			return
		}
		refreshToken, err := s.issueRefreshToken(req.Email)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to issue refresh token")
			s.writeError(w, http.StatusInternalServerError, 0, "internal error")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     s.cookieName,
			Value:    "1",
			Path:     "/",
			HttpOnly: false, // route guards read it before any client code runs
		})

		now := s.nowTime()
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": map[string]string{
				"access_token":             accessToken,
				"refresh_token":            refreshToken,
				"access_token_expires_at":  now.Add(s.accessTTL).Format(time.RFC3339),
				"refresh_token_expires_at": now.Add(s.refreshTTL).Format(time.RFC3339),
			},
		})
	}
}

// RefreshHandler rotates the refresh token and issues a fresh access token.
// An unknown or expired refresh token means the session is unrecoverable, so
// the fatal application code is returned. The response uses the camelCase
// root shape, deliberately different from LoginHandler's.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
			s.writeError(w, http.StatusBadRequest, 0, "invalid request body")
			return
		}

		email, ok := s.consumeRefreshToken(req.RefreshToken)
		if !ok {
			s.writeError(w, http.StatusUnauthorized, codeInvalidSession, "invalid session")
			return
		}

		accessToken, err := s.mintAccessToken(email)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to mint access token")
			s.writeError(w, http.StatusInternalServerError, 0, "internal error")
			return
		}
		refreshToken, err := s.issueRefreshToken(email)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to issue refresh token")
			s.writeError(w, http.StatusInternalServerError, 0, "internal error")
			return
		}

		now := s.nowTime()
		s.writeJSON(w, http.StatusOK, map[string]string{
			"accessToken":           accessToken,
			"refreshToken":          refreshToken,
			"accessTokenExpiresAt":  now.Add(s.accessTTL).Format(time.RFC3339),
			"refreshTokenExpiresAt": now.Add(s.refreshTTL).Format(time.RFC3339),
		})
	}
}

// LogoutHandler revokes the caller's refresh tokens and clears the auth
// cookie. Logout is idempotent: it succeeds even without a valid session.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.RevokeRefreshTokens()
		http.SetCookie(w, &http.Cookie{
			Name:   s.cookieName,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	}
}
