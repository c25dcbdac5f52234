package session

import (
	"encoding/json"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/communigo/go-community-admin/internal/errors"
)

// Session is the authenticated state the client holds for the current admin.
// It is the shape written to durable storage; the refresh token is deliberately
// excluded and lives only in the Manager's memory.
type Session struct {
	AccessToken           string    `json:"accessToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

// AccessTokenExpired reports whether the access token has passed its expiry.
// A zero expiry means the backend never told us, so we treat it as live and
// rely on the 419 application code instead.
func (s Session) AccessTokenExpired(now time.Time) bool {
	if s.AccessTokenExpiresAt.IsZero() {
		return false
	}
	return now.After(s.AccessTokenExpiresAt)
}

// wireTokens is the loosely-typed shape token endpoints respond with. The
// backend is not consistent about field naming (camelCase vs snake_case) or
// nesting (root vs "data"), so both conventions are accepted.
type wireTokens struct {
	AccessToken     string `json:"accessToken"`
	AccessTokenAlt  string `json:"access_token"`
	RefreshToken    string `json:"refreshToken"`
	RefreshTokenAlt string `json:"refresh_token"`

	AccessTokenExpiresAt     string `json:"accessTokenExpiresAt"`
	AccessTokenExpiresAtAlt  string `json:"access_token_expires_at"`
	RefreshTokenExpiresAt    string `json:"refreshTokenExpiresAt"`
	RefreshTokenExpiresAtAlt string `json:"refresh_token_expires_at"`

	Data *wireTokens `json:"data"`
}

// NormalizeLoginResponse converts a login endpoint payload into a Session and
// the bare refresh token. Fails with ErrInvalidLoginResponse when either token
// is absent after normalization.
func NormalizeLoginResponse(raw []byte) (Session, string, error) {
	return normalizeTokens(raw, apperrors.ErrInvalidLoginResponse)
}

// NormalizeRefreshResponse converts a refresh endpoint payload into a Session
// and the (possibly rotated) refresh token. Fails with ErrRefreshMissingTokens
// when either token is absent after normalization.
func NormalizeRefreshResponse(raw []byte) (Session, string, error) {
	return normalizeTokens(raw, apperrors.ErrRefreshMissingTokens)
}

func normalizeTokens(raw []byte, missing error) (Session, string, error) {
	var wire wireTokens
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Session{}, "", apperrors.Wrapf(missing, "unmarshalling token response")
	}

	fields := &wire
	if firstOf(wire.AccessToken, wire.AccessTokenAlt) == "" && wire.Data != nil {
		fields = wire.Data
	}

	accessToken := firstOf(fields.AccessToken, fields.AccessTokenAlt)
	refreshToken := firstOf(fields.RefreshToken, fields.RefreshTokenAlt)
	if accessToken == "" || refreshToken == "" {
		return Session{}, "", missing
	}

	sess := Session{
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  parseExpiry(firstOf(fields.AccessTokenExpiresAt, fields.AccessTokenExpiresAtAlt)),
		RefreshTokenExpiresAt: parseExpiry(firstOf(fields.RefreshTokenExpiresAt, fields.RefreshTokenExpiresAtAlt)),
	}
	if sess.AccessTokenExpiresAt.IsZero() {
		sess.AccessTokenExpiresAt = jwtExpiry(accessToken)
	}
	return sess, refreshToken, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseExpiry(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// jwtExpiry extracts the exp claim from an access token when the backend omits
// an explicit expiry timestamp. The signature is not verified; the client only
// needs a hint of when to expect a 419.
func jwtExpiry(accessToken string) time.Time {
	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
