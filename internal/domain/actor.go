package domain

// Role is the caller's role as reported by the upstream session service.
type Role string

const (
	RoleMember Role = "MEMBER"
	RoleStaff  Role = "STAFF"
	RoleAdmin  Role = "ADMIN"
)

// ParseRole maps an untrusted string to a known role, defaulting to MEMBER.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleStaff:
		return RoleStaff
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleMember
	}
}

// CanBypassCancellationWindow reports whether the role may cancel inside the
// blackout window before class start.
func (r Role) CanBypassCancellationWindow() bool {
	return r == RoleStaff || r == RoleAdmin
}

// CanActOnBehalfOfOthers reports whether the role may cancel bookings and
// waitlist entries owned by other members.
func (r Role) CanActOnBehalfOfOthers() bool {
	return r == RoleStaff || r == RoleAdmin
}

// Actor identifies the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   Role
}
