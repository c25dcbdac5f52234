package session_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	apperrors "github.com/communigo/go-community-admin/internal/errors"
	"github.com/communigo/go-community-admin/session"
)

const (
	testAccessToken  = "access-token-1"
	testRefreshToken = "refresh-token-1"
	testAccessExp    = "2026-09-01T10:00:00Z"
	testRefreshExp   = "2026-09-08T10:00:00Z"
)

func TestNormalizeLoginResponseCamelCaseRoot(t *testing.T) {
	raw := []byte(`{
		"accessToken": "` + testAccessToken + `",
		"refreshToken": "` + testRefreshToken + `",
		"accessTokenExpiresAt": "` + testAccessExp + `",
		"refreshTokenExpiresAt": "` + testRefreshExp + `"
	}`)

	sess, refreshToken, err := session.NormalizeLoginResponse(raw)
	require.NoError(t, err)
	require.Equal(t, testAccessToken, sess.AccessToken)
	require.Equal(t, testRefreshToken, refreshToken)
	require.Equal(t, mustParseTime(t, testAccessExp), sess.AccessTokenExpiresAt)
	require.Equal(t, mustParseTime(t, testRefreshExp), sess.RefreshTokenExpiresAt)
}

func TestNormalizeLoginResponseSnakeCaseNested(t *testing.T) {
	raw := []byte(`{
		"data": {
			"access_token": "` + testAccessToken + `",
			"refresh_token": "` + testRefreshToken + `",
			"access_token_expires_at": "` + testAccessExp + `",
			"refresh_token_expires_at": "` + testRefreshExp + `"
		}
	}`)

	sess, refreshToken, err := session.NormalizeLoginResponse(raw)
	require.NoError(t, err)

	// Both accepted shapes normalize to an identical session
	camel := []byte(`{
		"accessToken": "` + testAccessToken + `",
		"refreshToken": "` + testRefreshToken + `",
		"accessTokenExpiresAt": "` + testAccessExp + `",
		"refreshTokenExpiresAt": "` + testRefreshExp + `"
	}`)
	camelSess, camelRefresh, err := session.NormalizeLoginResponse(camel)
	require.NoError(t, err)
	require.Equal(t, camelSess, sess)
	require.Equal(t, camelRefresh, refreshToken)
}

func TestNormalizeLoginResponseMissingTokens(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing refresh token", `{"accessToken": "a"}`},
		{"missing access token", `{"refreshToken": "r"}`},
		{"empty object", `{}`},
		{"empty data", `{"data": {}}`},
		{"not json", `not json at all`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := session.NormalizeLoginResponse([]byte(tc.raw))
			require.ErrorIs(t, err, apperrors.ErrInvalidLoginResponse)
		})
	}
}

func TestNormalizeRefreshResponseMissingTokens(t *testing.T) {
	_, _, err := session.NormalizeRefreshResponse([]byte(`{"accessToken": "a"}`))
	require.ErrorIs(t, err, apperrors.ErrRefreshMissingTokens)
}

func TestNormalizeFallsBackToJWTExpiry(t *testing.T) {
	exp := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "admin",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	raw := []byte(`{"accessToken": "` + signed + `", "refreshToken": "r"}`)
	sess, _, err := session.NormalizeLoginResponse(raw)
	require.NoError(t, err)
	require.Equal(t, exp, sess.AccessTokenExpiresAt.UTC())
}

func TestNormalizeUnparsableExpiryIgnored(t *testing.T) {
	raw := []byte(`{"accessToken": "a", "refreshToken": "r", "accessTokenExpiresAt": "yesterday"}`)
	sess, _, err := session.NormalizeLoginResponse(raw)
	require.NoError(t, err)
	require.True(t, sess.AccessTokenExpiresAt.IsZero())
}

func TestAccessTokenExpired(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	sess := session.Session{AccessTokenExpiresAt: now.Add(time.Minute)}
	require.False(t, sess.AccessTokenExpired(now))
	require.True(t, sess.AccessTokenExpired(now.Add(2*time.Minute)))

	// Zero expiry means the backend never told us: treat as live
	require.False(t, session.Session{}.AccessTokenExpired(now))
}

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}
