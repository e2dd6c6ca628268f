package policy

import "fmt"

// Role is the closed set of user roles. A user holds exactly one.
type Role int

const (
	RoleNone Role = iota
	RoleOwner
	RoleManager
	RoleTenant
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "Owner"
	case RoleManager:
		return "Manager"
	case RoleTenant:
		return "Tenant"
	default:
		return "None"
	}
}

// ParseRole converts a stored or claimed role name into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "Owner":
		return RoleOwner, nil
	case "Manager":
		return RoleManager, nil
	case "Tenant":
		return RoleTenant, nil
	default:
		return RoleNone, fmt.Errorf("invalid role: %q", s)
	}
}

// Actor is the identity a request runs as. The zero value is anonymous.
type Actor struct {
	ID       int64
	Username string
	Role     Role
}

// Anonymous is the actor used when no valid session is present.
var Anonymous = Actor{}

// Authenticated reports whether a is a real user. An unset id or role
// never counts as a user.
func (a Actor) Authenticated() bool {
	return a.ID > 0 && a.Role != RoleNone
}

// Is reports whether a is the user with the given id. Unset ids never match.
func (a Actor) Is(userID int64) bool {
	return a.Authenticated() && userID > 0 && a.ID == userID
}
