package stubserver

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/communigo/go-community-admin/communities"
	"github.com/communigo/go-community-admin/internal/utils"
)

const defaultPageLimit = 12

// ListCommunitiesHandler serves a searched, cursor-paginated community page.
// The cursor is an offset into the name-sorted, filtered listing.
func (s *Server) ListCommunitiesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		search := strings.ToLower(r.URL.Query().Get("search"))
		limit := queryInt(r, "limit", defaultPageLimit)
		offset := queryInt(r, "cursor", 0)

		s.mu.RLock()
		filtered := make([]communities.Community, 0, len(s.communityList))
		for _, c := range s.communityList {
			if search != "" && !strings.Contains(strings.ToLower(c.Name), search) {
				continue
			}
			filtered = append(filtered, *c)
		}
		s.mu.RUnlock()

		sort.Slice(filtered, func(i, j int) bool { return filtered[i].Name < filtered[j].Name })

		page := communities.ListPage{Items: []communities.Community{}, Total: len(filtered)}
		if offset < len(filtered) {
			end := offset + limit
			if end > len(filtered) {
				end = len(filtered)
			}
			page.Items = filtered[offset:end]
			if end < len(filtered) {
				page.NextCursor = strconv.Itoa(end)
			}
		}
		s.writeJSON(w, http.StatusOK, page)
	}
}

func (s *Server) CreateCommunityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req communities.CreateParams
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, 0, "invalid request body")
			return
		}
		if req.Name == "" {
			s.writeError(w, http.StatusBadRequest, 0, "community name is required")
			return
		}

		community := communities.Community{
			ID:          uuid.New().String(),
			Name:        req.Name,
			Description: req.Description,
			ImageURL:    req.ImageURL,
			Active:      true,
			CreatedAt:   s.nowTime(),
		}
		if req.Admin != nil {
			community.AdminEmail = req.Admin.Email
		}

		s.mu.Lock()
		s.communityList[community.ID] = &community
		if req.Admin != nil {
			s.members[community.ID] = append(s.members[community.ID], communities.Member{
				ID:       uuid.New().String(),
				Email:    req.Admin.Email,
				Name:     strings.TrimSpace(req.Admin.FirstName + " " + req.Admin.LastName),
				Role:     "admin",
				JoinedAt: s.nowTime(),
			})
		}
		s.mu.Unlock()

		s.writeJSON(w, http.StatusCreated, community)
	}
}

func (s *Server) GetCommunityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		community, ok := s.community(r.PathValue("id"))
		if !ok {
			s.writeError(w, http.StatusNotFound, 0, "community not found")
			return
		}
		s.writeJSON(w, http.StatusOK, community)
	}
}

func (s *Server) UpdateCommunityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req communities.UpdateParams
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, 0, "invalid request body")
			return
		}

		s.mu.Lock()
		community, ok := s.communityList[r.PathValue("id")]
		if ok {
			if req.Name != nil {
				community.Name = utils.Value(req.Name)
			}
			if req.Description != nil {
				community.Description = utils.Value(req.Description)
			}
			if req.ImageURL != nil {
				community.ImageURL = utils.Value(req.ImageURL)
			}
		}
		s.mu.Unlock()

		if !ok {
			s.writeError(w, http.StatusNotFound, 0, "community not found")
			return
		}
		s.writeJSON(w, http.StatusOK, community)
	}
}

func (s *Server) DeleteCommunityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		s.mu.Lock()
		_, ok := s.communityList[id]
		delete(s.communityList, id)
		delete(s.invitations, id)
		delete(s.members, id)
		s.mu.Unlock()

		if !ok {
			s.writeError(w, http.StatusNotFound, 0, "community not found")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
	}
}

func (s *Server) SetCommunityStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Active bool `json:"active"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, 0, "invalid request body")
			return
		}

		s.mu.Lock()
		community, ok := s.communityList[r.PathValue("id")]
		if ok {
			community.Active = req.Active
		}
		s.mu.Unlock()

		if !ok {
			s.writeError(w, http.StatusNotFound, 0, "community not found")
			return
		}
		s.writeJSON(w, http.StatusOK, community)
	}
}

func (s *Server) ListInvitationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, ok := s.community(id); !ok {
			s.writeError(w, http.StatusNotFound, 0, "community not found")
			return
		}

		s.mu.RLock()
		items := append([]communities.Invitation{}, s.invitations[id]...)
		s.mu.RUnlock()

		s.writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
	}
}

func (s *Server) CreateInvitationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, ok := s.community(id); !ok {
			s.writeError(w, http.StatusNotFound, 0, "community not found")
			return
		}

		var req struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
			s.writeError(w, http.StatusBadRequest, 0, "invitation email is required")
			return
		}

		invitation := communities.Invitation{
			ID:          uuid.New().String(),
			CommunityID: id,
			Email:       req.Email,
			Role:        req.Role,
			CreatedAt:   s.nowTime(),
			ExpiresAt:   s.nowTime().Add(7 * 24 * time.Hour),
		}

		s.mu.Lock()
		s.invitations[id] = append(s.invitations[id], invitation)
		s.mu.Unlock()

		s.writeJSON(w, http.StatusCreated, invitation)
	}
}

func (s *Server) DeleteInvitationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		invitationID := r.PathValue("invitationID")

		s.mu.Lock()
		found := false
		kept := s.invitations[id][:0]
		for _, inv := range s.invitations[id] {
			if inv.ID == invitationID {
				found = true
				continue
			}
			kept = append(kept, inv)
		}
		s.invitations[id] = kept
		s.mu.Unlock()

		if !found {
			s.writeError(w, http.StatusNotFound, 0, "invitation not found")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "revoked"})
	}
}

func (s *Server) ListMembersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, ok := s.community(id); !ok {
			s.writeError(w, http.StatusNotFound, 0, "community not found")
			return
		}
		search := strings.ToLower(r.URL.Query().Get("search"))
		limit := queryInt(r, "limit", defaultPageLimit)
		offset := queryInt(r, "cursor", 0)

		s.mu.RLock()
		filtered := make([]communities.Member, 0, len(s.members[id]))
		for _, m := range s.members[id] {
			if search != "" && !strings.Contains(strings.ToLower(m.Email), search) &&
				!strings.Contains(strings.ToLower(m.Name), search) {
				continue
			}
			filtered = append(filtered, m)
		}
		s.mu.RUnlock()

		sort.Slice(filtered, func(i, j int) bool { return filtered[i].Email < filtered[j].Email })

		page := communities.MemberPage{Items: []communities.Member{}, Total: len(filtered)}
		if offset < len(filtered) {
			end := offset + limit
			if end > len(filtered) {
				end = len(filtered)
			}
			page.Items = filtered[offset:end]
			if end < len(filtered) {
				page.NextCursor = strconv.Itoa(end)
			}
		}
		s.writeJSON(w, http.StatusOK, page)
	}
}

func (s *Server) community(id string) (communities.Community, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	community, ok := s.communityList[id]
	if !ok {
		return communities.Community{}, false
	}
	return *community, true
}

func queryInt(r *http.Request, name string, defaultValue int) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}
