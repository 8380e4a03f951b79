package constants

const (
	ViewProjects   = "view_projects"
	Donate         = "donate"
	RequestProject = "request_project"
	ManageProjects = "manage_projects"
	ViewLedger     = "view_ledger"
	AssignRole     = "assign_role"
)

// PermissionRoles maps each permission to the roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ViewProjects:   {Donor, Admin},
	Donate:         {Donor, Admin},
	RequestProject: {Donor, Admin},
	ManageProjects: {Admin},
	ViewLedger:     {Admin},
	AssignRole:     {Admin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
