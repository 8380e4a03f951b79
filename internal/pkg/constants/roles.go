package constants

const (
	Donor = "donor"
	Admin = "admin"
)

// ValidRoles is the set of values allowed in users.role.
var ValidRoles = []string{Donor, Admin}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
