package communities

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/communigo/go-community-admin/apiclient"
	"github.com/communigo/go-community-admin/internal/requestcache"
)

// Community endpoint paths
const (
	RouteCommunities = "/api/communities"
)

// DefaultListLimit is the page size substituted when a caller omits one.
const DefaultListLimit = 12

// ListParams selects a page of the community listing. Zero values take the
// defaults: empty search, limit 12, first page.
type ListParams struct {
	Search string
	Limit  int
	Cursor string
}

// MemberParams selects a page of a community's member listing.
type MemberParams struct {
	Search string
	Limit  int
	Cursor string
}

// AdminParams describes the administrator assigned to a new community.
type AdminParams struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// CreateParams describes a community to create. Admin is optional: a
// community may be created with or without an assigned administrator.
type CreateParams struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	Admin       *AdminParams `json:"admin,omitempty"`
}

// UpdateParams carries the fields to change; nil fields are left untouched.
type UpdateParams struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
}

// Service exposes the community management operations of the admin backend.
// List results are cached per parameter set for a fixed TTL with in-flight
// de-duplication, so the consuming layer can call List on every debounce tick
// or refocus without redundant backend load.
type Service struct {
	client *apiclient.Client
	cache  *requestcache.Cache[ListPage]
	log    zerolog.Logger

	cacheTTL time.Duration
	nowTime  func() time.Time
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithCacheTTL overrides the list cache entry lifetime
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.cacheTTL = ttl
	}
}

// WithLogger sets the service's logger
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// NewService initializes a community Service over the given client.
func NewService(client *apiclient.Client, options ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, errors.New("[NewService] client is required")
	}

	s := &Service{
		client:   client,
		log:      zerolog.Nop(),
		cacheTTL: requestcache.DefaultTTL,
		nowTime:  time.Now,
	}

	for _, opt := range options {
		opt(s)
	}

	s.cache = requestcache.New(
		requestcache.WithTTL[ListPage](s.cacheTTL),
		requestcache.WithNowTime[ListPage](s.nowTime),
	)

	return s, nil
}

// cacheKeyParams is the canonical serialization the list cache is keyed by.
// Defaults are substituted for omitted fields so equivalent calls always hash
// identically; the token is included so a refreshed session never reads a
// page fetched under a stale one.
type cacheKeyParams struct {
	Search string `json:"search"`
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor"`
	Token  string `json:"token"`
}

func (s *Service) listCacheKey(params ListParams) string {
	key := cacheKeyParams{
		Search: params.Search,
		Limit:  params.Limit,
		Cursor: params.Cursor,
		Token:  s.client.Sessions().AccessToken(),
	}
	if key.Limit <= 0 {
		key.Limit = DefaultListLimit
	}
	data, _ := json.Marshal(key)
	return string(data)
}

// List returns one page of communities matching params, served from the cache
// when a fresh entry exists.
func (s *Service) List(ctx context.Context, params ListParams) (ListPage, error) {
	return s.cache.Do(ctx, s.listCacheKey(params), func(ctx context.Context) (ListPage, error) {
		var page ListPage
		if err := s.client.Get(ctx, RouteCommunities+listQuery(params.Search, params.Limit, params.Cursor), &page); err != nil {
			return ListPage{}, err
		}
		s.log.Debug().Str("search", params.Search).Int("items", len(page.Items)).Msg("fetched community page")
		return page, nil
	})
}

// Get returns a single community by ID.
func (s *Service) Get(ctx context.Context, id string) (Community, error) {
	var community Community
	err := s.client.Get(ctx, RouteCommunities+"/"+url.PathEscape(id), &community)
	return community, err
}

// Create creates a community, optionally with an assigned administrator.
func (s *Service) Create(ctx context.Context, params CreateParams) (Community, error) {
	if params.Name == "" {
		return Community{}, errors.New("[Create] community name is required")
	}
	var community Community
	err := s.client.Post(ctx, RouteCommunities, params, &community)
	return community, err
}

// Update changes the non-nil fields of a community.
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (Community, error) {
	var community Community
	err := s.client.Put(ctx, RouteCommunities+"/"+url.PathEscape(id), params, &community)
	return community, err
}

// Delete removes a community.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, RouteCommunities+"/"+url.PathEscape(id))
}

// SetActive toggles a community's active status.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (Community, error) {
	body := struct {
		Active bool `json:"active"`
	}{Active: active}
	var community Community
	err := s.client.Patch(ctx, RouteCommunities+"/"+url.PathEscape(id)+"/status", body, &community)
	return community, err
}

// Invitations lists a community's pending admin invitations.
func (s *Service) Invitations(ctx context.Context, communityID string) ([]Invitation, error) {
	var out struct {
		Items []Invitation `json:"items"`
	}
	err := s.client.Get(ctx, RouteCommunities+"/"+url.PathEscape(communityID)+"/invitations", &out)
	return out.Items, err
}

// Invite creates an admin invitation for a community.
func (s *Service) Invite(ctx context.Context, communityID, email, role string) (Invitation, error) {
	if email == "" {
		return Invitation{}, errors.New("[Invite] email is required")
	}
	body := struct {
		Email string `json:"email"`
		Role  string `json:"role,omitempty"`
	}{Email: email, Role: role}
	var invitation Invitation
	err := s.client.Post(ctx, RouteCommunities+"/"+url.PathEscape(communityID)+"/invitations", body, &invitation)
	return invitation, err
}

// RevokeInvitation removes a pending invitation.
func (s *Service) RevokeInvitation(ctx context.Context, communityID, invitationID string) error {
	return s.client.Delete(ctx, RouteCommunities+"/"+url.PathEscape(communityID)+"/invitations/"+url.PathEscape(invitationID))
}

// Members returns one page of a community's members.
func (s *Service) Members(ctx context.Context, communityID string, params MemberParams) (MemberPage, error) {
	var page MemberPage
	err := s.client.Get(ctx, RouteCommunities+"/"+url.PathEscape(communityID)+"/members"+listQuery(params.Search, params.Limit, params.Cursor), &page)
	return page, err
}

func listQuery(search string, limit int, cursor string) string {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	q.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	return fmt.Sprintf("?%s", q.Encode())
}
