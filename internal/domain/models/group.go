// internal/domain/models/group.go
package models

// Group roles as reported by the backend for the current user.
const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// Group is one entry of the current user's group list (GET /groups/my-groups).
//
// Only the first group returned is treated as active; the UI does not
// offer a choice between several groups.
type Group struct {
	GroupID   int64  `json:"groupId"`
	GroupName string `json:"groupName"`
	UserRole  string `json:"userRole"`
}

// IsAdmin reports whether the current user administers the group.
func (g Group) IsAdmin() bool {
	return g.UserRole == RoleAdmin
}

// CreatedGroup is the backend's response to POST /groups.
type CreatedGroup struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	CreatedByUserID   int64     `json:"createdByUserId"`
	CreatedByUserName string    `json:"createdByUserName"`
	CreatedAt         Timestamp `json:"createdAt"`
}

// Member is a user belonging to a group.
type Member struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}
