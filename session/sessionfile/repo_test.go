package sessionfile_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/communigo/go-community-admin/internal/errors"
	"github.com/communigo/go-community-admin/session"
	"github.com/communigo/go-community-admin/session/sessionfile"
)

const testStorageKey = "communigo_session"

func TestSaveLoadRoundTrip(t *testing.T) {
	repo, err := sessionfile.New(t.TempDir(), testStorageKey)
	require.NoError(t, err)

	sess := &session.Session{
		AccessToken:           "access-1",
		AccessTokenExpiresAt:  time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		RefreshTokenExpiresAt: time.Date(2026, 9, 8, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Save(sess))

	loaded, err := repo.Load()
	require.NoError(t, err)
	require.Equal(t, sess.AccessToken, loaded.AccessToken)
	require.True(t, sess.AccessTokenExpiresAt.Equal(loaded.AccessTokenExpiresAt))
	require.True(t, sess.RefreshTokenExpiresAt.Equal(loaded.RefreshTokenExpiresAt))
}

func TestLoadWithoutRecord(t *testing.T) {
	repo, err := sessionfile.New(t.TempDir(), testStorageKey)
	require.NoError(t, err)

	_, err = repo.Load()
	require.ErrorIs(t, err, apperrors.ErrNoSession)
}

func TestClearRemovesRecord(t *testing.T) {
	repo, err := sessionfile.New(t.TempDir(), testStorageKey)
	require.NoError(t, err)

	require.NoError(t, repo.Save(&session.Session{AccessToken: "a"}))
	require.NoError(t, repo.Clear())

	_, err = repo.Load()
	require.ErrorIs(t, err, apperrors.ErrNoSession)

	// Clearing an already-empty store is fine
	require.NoError(t, repo.Clear())
}

func TestAuthMarkerLifecycle(t *testing.T) {
	repo, err := sessionfile.New(t.TempDir(), testStorageKey)
	require.NoError(t, err)

	require.False(t, repo.HasAuthMarker())
	require.NoError(t, repo.SetAuthMarker(true))
	require.True(t, repo.HasAuthMarker())
	require.NoError(t, repo.SetAuthMarker(false))
	require.False(t, repo.HasAuthMarker())
	require.NoError(t, repo.SetAuthMarker(false))
}

// TestRefreshTokenNeverPersisted drives a full login through the manager and
// then scans everything the repo wrote: the refresh token must not appear in
// durable storage.
func TestRefreshTokenNeverPersisted(t *testing.T) {
	dir := t.TempDir()
	repo, err := sessionfile.New(dir, testStorageKey)
	require.NoError(t, err)

	manager, err := session.NewManager(repo)
	require.NoError(t, err)

	const refreshToken = "R-super-secret-refresh-token"
	require.NoError(t, manager.SetFromLogin(session.Session{AccessToken: "access-1"}, refreshToken))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for _, entry := range entries {
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		require.NoError(t, err)
		require.NotContains(t, string(data), refreshToken)
	}
}
