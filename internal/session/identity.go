package session

import "strings"

// Role is the access level the backend assigns to a user.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSecretary  Role = "secretary"
	RoleTeacher    Role = "teacher"
	RoleSupervisor Role = "supervisor"
)

// Roles lists every role the backend knows about.
func Roles() []Role {
	return []Role{RoleAdmin, RoleSecretary, RoleTeacher, RoleSupervisor}
}

// ParseRole normalizes a role name. The second return value is false for
// names the backend does not issue.
func ParseRole(value string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Roles() {
		if r == known {
			return r, true
		}
	}
	return r, false
}

// Identity mirrors the user record returned by /auth/login and /auth/me.
type Identity struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Role          Role   `json:"role"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	PersonnelType string `json:"personnel_type"`
}

// DisplayName joins the name fields, falling back to the username.
func (i Identity) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(i.FirstName) + " " + strings.TrimSpace(i.LastName))
	if name == "" {
		return i.Username
	}
	return name
}

// HasRole reports whether the identity holds role r. Comparison ignores case.
func (i Identity) HasRole(r Role) bool {
	return strings.EqualFold(string(i.Role), string(r))
}
