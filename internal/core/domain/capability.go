package domain

import "fmt"

// Capability sets used by role-gated operations
var (
	CapStaff = []Role{RoleLibrary, RoleAdmin}
	CapAdmin = []Role{RoleAdmin}
)

// RequireCapability fails with ErrForbidden unless p holds one of roles
func RequireCapability(p Principal, roles ...Role) error {
	if p.UserID == 0 {
		return ErrUnauthorized
	}
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q not in %v", ErrForbidden, p.Role, roles)
}

// IsStaff reports whether p is library staff or admin
func (p Principal) IsStaff() bool {
	return RequireCapability(p, CapStaff...) == nil
}
