// Package stubserver implements the community-admin backend wire protocol in
// memory: admin login, refresh-token rotation, the 419/498 application codes,
// and community CRUD. It backs cmd/devserver and the SDK's integration tests.
package stubserver

import (
	"crypto/rand"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/communigo/go-community-admin/communities"
)

const (
	defaultAdminEmail    = "admin@communigo.dev"
	defaultAdminPassword = "admin"
	defaultAccessTTL     = 15 * time.Minute
	defaultRefreshTTL    = 24 * time.Hour
	defaultCookieName    = "communigo_auth"

	contentTypeJSON = "application/json; charset=utf-8"
)

type refreshRecord struct {
	email     string
	expiresAt time.Time
}

// Server is an in-memory community-admin backend.
type Server struct {
	mux *http.ServeMux
	log zerolog.Logger

	adminEmail string
	adminHash  []byte
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	cookieName string
	nowTime    func() time.Time

	mu            sync.RWMutex
	refreshTokens map[string]refreshRecord
	communityList map[string]*communities.Community
	invitations   map[string][]communities.Invitation
	members       map[string][]communities.Member
}

// Option defines a function type to modify the Server instance.
type Option func(*Server) error

// WithAdmin sets the seeded admin credentials
func WithAdmin(email, password string) Option {
	return func(s *Server) error {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return errors.Wrap(err, "[stubserver.WithAdmin] hashing password")
		}
		s.adminEmail = email
		s.adminHash = hash
		return nil
	}
}

// WithTokenTTLs sets the access and refresh token lifetimes. Integration
// tests shorten these to exercise the refresh path for real.
func WithTokenTTLs(access, refresh time.Duration) Option {
	return func(s *Server) error {
		s.accessTTL = access
		s.refreshTTL = refresh
		return nil
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) error {
		s.nowTime = nowFunc
		return nil
	}
}

// WithLogger sets the server's logger
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) error {
		s.log = log
		return nil
	}
}

// WithCookieName sets the auth-state cookie written on login
func WithCookieName(name string) Option {
	return func(s *Server) error {
		s.cookieName = name
		return nil
	}
}

// New initializes a stub backend with a random signing secret and the default
// admin unless options say otherwise.
func New(options ...Option) (*Server, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, errors.Wrap(err, "[stubserver.New] generating signing secret")
	}

	s := &Server{
		mux:           http.NewServeMux(),
		log:           zerolog.Nop(),
		secret:        secret,
		accessTTL:     defaultAccessTTL,
		refreshTTL:    defaultRefreshTTL,
		cookieName:    defaultCookieName,
		nowTime:       time.Now,
		refreshTokens: make(map[string]refreshRecord),
		communityList: make(map[string]*communities.Community),
		invitations:   make(map[string][]communities.Invitation),
		members:       make(map[string][]communities.Member),
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "[stubserver.New] hashing default password")
	}
	s.adminEmail = defaultAdminEmail
	s.adminHash = hash

	for _, opt := range options {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.initRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	s.mux.HandleFunc("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.LoggingMiddleware, s.RecoverMiddleware))
	s.mux.HandleFunc("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.LoggingMiddleware, s.RecoverMiddleware))
	s.mux.HandleFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.LoggingMiddleware, s.RecoverMiddleware))

	api := func(h http.HandlerFunc) http.HandlerFunc {
		return ChainMiddleware(h, s.LoggingMiddleware, s.RecoverMiddleware, s.AuthMiddleware)
	}
	s.mux.HandleFunc("GET "+RouteCommunities, api(s.ListCommunitiesHandler()))
	s.mux.HandleFunc("POST "+RouteCommunities, api(s.CreateCommunityHandler()))
	s.mux.HandleFunc("GET "+RouteCommunityByID, api(s.GetCommunityHandler()))
	s.mux.HandleFunc("PUT "+RouteCommunityByID, api(s.UpdateCommunityHandler()))
	s.mux.HandleFunc("DELETE "+RouteCommunityByID, api(s.DeleteCommunityHandler()))
	s.mux.HandleFunc("PATCH "+RouteCommunityStatus, api(s.SetCommunityStatusHandler()))
	s.mux.HandleFunc("GET "+RouteCommunityInvitations, api(s.ListInvitationsHandler()))
	s.mux.HandleFunc("POST "+RouteCommunityInvitations, api(s.CreateInvitationHandler()))
	s.mux.HandleFunc("DELETE "+RouteCommunityInvitationID, api(s.DeleteInvitationHandler()))
	s.mux.HandleFunc("GET "+RouteCommunityMembers, api(s.ListMembersHandler()))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError emits the backend's error envelope. appCode is the
// application-level code field; 0 omits it.
func (s *Server) writeError(w http.ResponseWriter, status, appCode int, message string) {
	payload := map[string]interface{}{"message": message}
	if appCode != 0 {
		payload["code"] = appCode
	}
	s.writeJSON(w, status, payload)
}
