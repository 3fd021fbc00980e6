package models

import "fmt"

// Role classifies the writer identity recorded on a checkpoint. The legacy
// platform encoded these as the numbers 1 and 2.
type Role int

const (
	RolePartner  Role = 1
	RoleCustomer Role = 2
)

// String returns the canonical label for the role.
func (r Role) String() string {
	switch r {
	case RolePartner:
		return "partner"
	case RoleCustomer:
		return "customer"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole maps a label back to a Role.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "partner":
		return RolePartner, true
	case "customer":
		return RoleCustomer, true
	}
	return 0, false
}
