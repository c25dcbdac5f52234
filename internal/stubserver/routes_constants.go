package stubserver

// Route path constants
// All backend routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteAuthLogin   = "/api/auth/login"
	RouteAuthRefresh = "/api/auth/refresh"
	RouteAuthLogout  = "/api/auth/logout"

	// Community Routes
	RouteCommunities           = "/api/communities"
	RouteCommunityByID         = "/api/communities/{id}"
	RouteCommunityStatus       = "/api/communities/{id}/status"
	RouteCommunityInvitations  = "/api/communities/{id}/invitations"
	RouteCommunityInvitationID = "/api/communities/{id}/invitations/{invitationID}"
	RouteCommunityMembers      = "/api/communities/{id}/members"
)
