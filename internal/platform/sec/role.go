// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Staff Roles

// Role is the authorization level granted to a staff account by the identity service.
type Role string

const (
	// Full access, including patron deactivation and copy withdrawal
	RoleAdmin Role = "admin"

	// Issues and receives copies, manages the catalog and patrons
	RoleLibrarian Role = "librarian"

	// Desk helpers; may read circulation state but not mutate it
	RoleVolunteer Role = "volunteer"

	// Default for community members
	RoleMember Role = "member"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r Role) AtLeast(target Role) bool {
	return r.level() >= target.level()
}

func (r Role) level() int {
	switch r {
	case RoleAdmin:
		return 40
	case RoleLibrarian:
		return 30
	case RoleVolunteer:
		return 20
	case RoleMember:
		return 10
	default:
		return 0
	}
}
