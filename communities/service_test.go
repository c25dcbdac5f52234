package communities_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/communigo/go-community-admin/apiclient"
	"github.com/communigo/go-community-admin/communities"
	"github.com/communigo/go-community-admin/internal/utils"
	"github.com/communigo/go-community-admin/session"
	"github.com/communigo/go-community-admin/session/repofakes"
)

type serviceFixture struct {
	service  *communities.Service
	sessions *session.Manager
	clock    *fakeClock

	mu        sync.Mutex
	listCalls int
	lastQuery map[string]string
	requests  []recordedRequest
}

type recordedRequest struct {
	method string
	path   string
	body   []byte
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		clock: &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+communities.RouteCommunities, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.listCalls++
		f.lastQuery = map[string]string{
			"search": r.URL.Query().Get("search"),
			"limit":  r.URL.Query().Get("limit"),
			"cursor": r.URL.Query().Get("cursor"),
		}
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, communities.ListPage{
			Items: []communities.Community{{ID: "1", Name: "Urban Gardeners", Active: true}},
			Total: 1,
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		body := make([]byte, 0)
		if r.Body != nil {
			buf := new(json.RawMessage)
			_ = json.NewDecoder(r.Body).Decode(buf)
			body = *buf
		}
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{method: r.Method, path: r.URL.Path, body: body})
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, communities.Community{ID: "1", Name: "Urban Gardeners", Active: true})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	repo := repofakes.NewFakeSessionRepo()
	sessions, err := session.NewManager(repo)
	require.NoError(t, err)
	require.NoError(t, sessions.SetFromLogin(session.Session{AccessToken: "token-1"}, "refresh-1"))
	f.sessions = sessions

	client, err := apiclient.New(server.URL, sessions)
	require.NoError(t, err)

	service, err := communities.NewService(client, communities.WithNowTime(f.clock.Now))
	require.NoError(t, err)
	f.service = service
	return f
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (f *serviceFixture) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func TestListCachesWithinTTL(t *testing.T) {
	f := setupServiceFixture(t)
	params := communities.ListParams{Search: "a"}

	first, err := f.service.List(context.Background(), params)
	require.NoError(t, err)
	second, err := f.service.List(context.Background(), params)
	require.NoError(t, err)

	require.Equal(t, 1, f.calls())
	require.Equal(t, first, second)
}

func TestListRefetchesAfterTTL(t *testing.T) {
	f := setupServiceFixture(t)
	params := communities.ListParams{Search: "a"}

	_, err := f.service.List(context.Background(), params)
	require.NoError(t, err)

	f.clock.Advance(31 * time.Second)
	_, err = f.service.List(context.Background(), params)
	require.NoError(t, err)

	require.Equal(t, 2, f.calls())
}

func TestListDifferentSearchesNeverShareEntries(t *testing.T) {
	f := setupServiceFixture(t)

	_, err := f.service.List(context.Background(), communities.ListParams{Search: "a"})
	require.NoError(t, err)
	_, err = f.service.List(context.Background(), communities.ListParams{Search: "b"})
	require.NoError(t, err)

	require.Equal(t, 2, f.calls())
}

func TestListDefaultsSubstituted(t *testing.T) {
	f := setupServiceFixture(t)

	// Omitted limit and an explicit default limit produce the same cache key
	_, err := f.service.List(context.Background(), communities.ListParams{})
	require.NoError(t, err)
	_, err = f.service.List(context.Background(), communities.ListParams{Limit: communities.DefaultListLimit})
	require.NoError(t, err)

	require.Equal(t, 1, f.calls())
	require.Equal(t, "12", f.lastQuery["limit"])
}

func TestListCacheKeyIncludesToken(t *testing.T) {
	f := setupServiceFixture(t)
	params := communities.ListParams{Search: "a"}

	_, err := f.service.List(context.Background(), params)
	require.NoError(t, err)

	// A new session must not read pages fetched under the old token
	require.NoError(t, f.sessions.SetFromLogin(session.Session{AccessToken: "token-2"}, "refresh-2"))
	_, err = f.service.List(context.Background(), params)
	require.NoError(t, err)

	require.Equal(t, 2, f.calls())
}

func TestCreateRequiresName(t *testing.T) {
	f := setupServiceFixture(t)
	_, err := f.service.Create(context.Background(), communities.CreateParams{})
	require.Error(t, err)
}

func TestCreateWithAdmin(t *testing.T) {
	f := setupServiceFixture(t)

	_, err := f.service.Create(context.Background(), communities.CreateParams{
		Name:  "Book Circle",
		Admin: &communities.AdminParams{Email: "amina@example.com"},
	})
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.requests, 1)
	require.Equal(t, http.MethodPost, f.requests[0].method)
	require.Equal(t, communities.RouteCommunities, f.requests[0].path)
	require.Contains(t, string(f.requests[0].body), "amina@example.com")
}

func TestCreateWithoutAdminOmitsAdminField(t *testing.T) {
	f := setupServiceFixture(t)

	_, err := f.service.Create(context.Background(), communities.CreateParams{Name: "Book Circle"})
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotContains(t, string(f.requests[0].body), "admin")
}

func TestUpdateSendsOnlyChangedFields(t *testing.T) {
	f := setupServiceFixture(t)

	_, err := f.service.Update(context.Background(), "1", communities.UpdateParams{
		Name: utils.Ptr("Renamed"),
	})
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Equal(t, http.MethodPut, f.requests[0].method)
	require.Equal(t, communities.RouteCommunities+"/1", f.requests[0].path)
	require.Contains(t, string(f.requests[0].body), "Renamed")
	require.NotContains(t, string(f.requests[0].body), "description")
}

func TestSetActive(t *testing.T) {
	f := setupServiceFixture(t)

	_, err := f.service.SetActive(context.Background(), "1", false)
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Equal(t, http.MethodPatch, f.requests[0].method)
	require.Equal(t, communities.RouteCommunities+"/1/status", f.requests[0].path)
	require.Contains(t, string(f.requests[0].body), `"active":false`)
}

func TestDelete(t *testing.T) {
	f := setupServiceFixture(t)

	require.NoError(t, f.service.Delete(context.Background(), "1"))

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Equal(t, http.MethodDelete, f.requests[0].method)
	require.Equal(t, communities.RouteCommunities+"/1", f.requests[0].path)
}

func TestInvite(t *testing.T) {
	f := setupServiceFixture(t)

	_, err := f.service.Invite(context.Background(), "1", "lee@example.com", "admin")
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Equal(t, http.MethodPost, f.requests[0].method)
	require.Equal(t, communities.RouteCommunities+"/1/invitations", f.requests[0].path)
	require.Contains(t, string(f.requests[0].body), "lee@example.com")
}

func TestInviteRequiresEmail(t *testing.T) {
	f := setupServiceFixture(t)
	_, err := f.service.Invite(context.Background(), "1", "", "admin")
	require.Error(t, err)
}
