package communities

import "time"

// Community represents a tenant-like organizational unit managed through the
// admin dashboard.
type Community struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Active      bool      `json:"active"`
	MemberCount int       `json:"memberCount,omitempty"`
	AdminEmail  string    `json:"adminEmail,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Member is a user belonging to a community.
type Member struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Name     string    `json:"name,omitempty"`
	Role     string    `json:"role,omitempty"`
	JoinedAt time.Time `json:"joinedAt,omitempty"`
}

// Invitation is a pending admin invitation for a community.
type Invitation struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"communityId"`
	Email       string    `json:"email"`
	Role        string    `json:"role,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"`
}

// ListPage is one page of a paginated community listing.
type ListPage struct {
	Items      []Community `json:"items"`
	NextCursor string      `json:"nextCursor,omitempty"`
	Total      int         `json:"total,omitempty"`
}

// MemberPage is one page of a paginated member listing.
type MemberPage struct {
	Items      []Member `json:"items"`
	NextCursor string   `json:"nextCursor,omitempty"`
	Total      int      `json:"total,omitempty"`
}

// MergeByID merges an incoming page into an existing list, discarding any item
// whose ID already appears. Order is preserved: existing items first, then new
// items in page order. Overlapping page fetches therefore never produce
// duplicate rows.
func MergeByID(existing, incoming []Community) []Community {
	seen := make(map[string]struct{}, len(existing))
	merged := make([]Community, 0, len(existing)+len(incoming))
	for _, c := range existing {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		merged = append(merged, c)
	}
	for _, c := range incoming {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		merged = append(merged, c)
	}
	return merged
}
