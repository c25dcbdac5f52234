package stubserver

import (
	"crypto/rand"
	"encoding/hex"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	apperrors "github.com/communigo/go-community-admin/internal/errors"
)

// Application-level codes embedded in error payloads. Mirrors what the real
// backend emits; the transport status stays 401 for both.
const (
	codeTokenExpired   = 419
	codeInvalidSession = 498
)

// mintAccessToken creates an HS256 access token for the admin.
func (s *Server) mintAccessToken(email string) (string, error) {
	now := s.nowTime()
	claims := jwtlib.MapClaims{
		"sub": email,
		"iat": now.Unix(),
		"exp": now.Add(s.accessTTL).Unix(),
		"jti": uuid.New().String(),
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "[mintAccessToken] signing token")
	}
	return signed, nil
}

func (s *Server) verifyAccessToken(token string) error {
	_, err := jwtlib.Parse(token, func(*jwtlib.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.nowTime),
	)
	return err
}

func isExpired(err error) bool {
	return apperrors.Is(err, jwtlib.ErrTokenExpired)
}

// issueRefreshToken generates and stores a new refresh token for email,
// replacing nothing: rotation deletes the old token explicitly.
func (s *Server) issueRefreshToken(email string) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "[issueRefreshToken] generating random bytes")
	}
	token := hex.EncodeToString(tokenBytes)

	s.mu.Lock()
	s.refreshTokens[token] = refreshRecord{
		email:     email,
		expiresAt: s.nowTime().Add(s.refreshTTL),
	}
	s.mu.Unlock()
	return token, nil
}

// consumeRefreshToken validates and deletes a refresh token, returning the
// admin it belonged to. Unknown or expired tokens fail.
func (s *Server) consumeRefreshToken(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.refreshTokens[token]
	if !ok {
		return "", false
	}
	delete(s.refreshTokens, token)
	if s.nowTime().After(record.expiresAt) {
		return "", false
	}
	return record.email, true
}

// RevokeRefreshTokens drops every stored refresh token. Tests use this to
// force the fatal-code path.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshTokens = make(map[string]refreshRecord)
}
