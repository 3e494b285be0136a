package domain

import (
	"errors"
	"strings"
)

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

var ErrUnknownRole = errors.New("domain: unknown role")

// ParseRole is case-insensitive. An empty string is a customer.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RoleCustomer, nil
	case RoleCustomer, RoleAdmin, RoleSuperadmin:
		return r, nil
	}
	return "", ErrUnknownRole
}

func (r Role) rank() int {
	switch r {
	case RoleCustomer:
		return 1
	case RoleAdmin:
		return 2
	case RoleSuperadmin:
		return 3
	}
	return 0
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r.rank() > 0 }

// AtLeast reports whether r ranks at or above other.
func (r Role) AtLeast(other Role) bool {
	return r.Valid() && r.rank() >= other.rank()
}

// CanManageInvitations is true for the staff roles.
func (r Role) CanManageInvitations() bool {
	return r.AtLeast(RoleAdmin)
}

// CanGrant reports whether a caller with role r may invite someone as target.
// Nobody can hand out more than they have.
func (r Role) CanGrant(target Role) bool {
	return r.CanManageInvitations() && target.Valid() && r.AtLeast(target)
}

func (r Role) String() string { return string(r) }

// StaffRoles are the roles allowed onto the invitation endpoints.
func StaffRoles() []string {
	return []string{string(RoleAdmin), string(RoleSuperadmin)}
}
