package job

import "fmt"

// Role distinguishes the privilege level of a User.
type Role uint8

const (
	// RoleUser is the default role: may submit, inspect and cancel its own
	// jobs, and read its own results.
	RoleUser Role = iota

	// RoleAdmin marks an administrator account. The role is stored and can
	// be changed through the Persistence Gateway, but no request path checks
	// it: the Client I/O Server treats an admin like any other user, and the
	// Management Server performs no role checks.
	RoleAdmin
)

func roleToString(r Role) string {
	if r == RoleAdmin {
		return "ADMIN"
	}
	return "USER"
}

// String returns the canonical string representation of the role.
func (r Role) String() string {
	return roleToString(r)
}

// ParseRole converts a string representation of a role into its value.
func ParseRole(s string) (Role, error) {
	switch s {
	case "USER":
		return RoleUser, nil
	case "ADMIN":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("unknown role: %s", s)
	}
}

// User represents a row of the users table as a read-only snapshot.
//
// PasswordHash and Salt are never sent across the client wire protocol;
// they are used exclusively by the auth package to verify credentials
// presented with a request.
type User struct {
	UserID       int64
	Name         string
	PasswordHash []byte
	Salt         []byte
	Role         Role
	Blocked      bool
}

// CanAuthenticate reports whether this user may authenticate new jobs or
// control actions. A blocked user cannot. Their jobs and results stay
// stored, but no path serves those results while the user is blocked: the
// Management Server reports job metadata and payload sizes only.
func (u *User) CanAuthenticate() bool {
	return u != nil && !u.Blocked
}
