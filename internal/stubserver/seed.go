package stubserver

import (
	"github.com/google/uuid"

	"github.com/communigo/go-community-admin/communities"
)

// Seed inserts communities directly into the store, assigning IDs where
// missing. Intended for tests and the dev server.
func (s *Server) Seed(list ...communities.Community) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range list {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = s.nowTime()
		}
		cp := c
		s.communityList[c.ID] = &cp
	}
}

// SeedMembers attaches members to a community.
func (s *Server) SeedMembers(communityID string, members ...communities.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range members {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		s.members[communityID] = append(s.members[communityID], m)
	}
}

// SeedSampleData loads a handful of communities for local development.
func (s *Server) SeedSampleData() {
	gardeners := communities.Community{ID: uuid.New().String(), Name: "Urban Gardeners", Description: "City gardening collective", Active: true, CreatedAt: s.nowTime()}
	readers := communities.Community{ID: uuid.New().String(), Name: "Book Circle", Description: "Weekly reading group", Active: true, CreatedAt: s.nowTime()}
	runners := communities.Community{ID: uuid.New().String(), Name: "Trail Runners", Description: "Off-road running club", Active: false, CreatedAt: s.nowTime()}

	s.Seed(gardeners, readers, runners)
	s.SeedMembers(gardeners.ID,
		communities.Member{Email: "amina@communigo.dev", Name: "Amina Khan", Role: "admin", JoinedAt: s.nowTime()},
		communities.Member{Email: "lee@communigo.dev", Name: "Lee Park", Role: "member", JoinedAt: s.nowTime()},
	)
}
