package auth

// Seeded role catalog. Roles are immutable reference data; changing the
// catalog or its permission mapping is a deploy, not a data migration.
const (
	RoleSuperAdministrator  = "Super Administrator"
	RoleClientAdministrator = "Client Administrator"
	RoleCollaborator        = "Collaborator"
	RoleViewer              = "Viewer"
)

// Permission keys. Permissions are always a derived view of roles via
// rolePermissions, never stored per assignment.
const (
	PermExperienceRead    = "experience.read"
	PermExperienceCreate  = "experience.create"
	PermExperienceUpdate  = "experience.update"
	PermExperienceDelete  = "experience.delete"
	PermExperiencePublish = "experience.publish"
	PermClientManage      = "client.manage"
	PermUserManage        = "user.manage"
	PermRoleAssign        = "role.assign"
	PermGroupManage       = "group.manage"
)

// BuiltinRoles is the seed catalog ensured at system initialization.
var BuiltinRoles = []Role{
	{Name: RoleSuperAdministrator, Description: "Full platform access across all clients"},
	{Name: RoleClientAdministrator, Description: "Administers a client and its collaborators"},
	{Name: RoleCollaborator, Description: "Creates and edits experiences"},
	{Name: RoleViewer, Description: "Read-only access to experiences"},
}

var rolePermissions = map[string][]string{
	RoleSuperAdministrator: {
		PermExperienceRead, PermExperienceCreate, PermExperienceUpdate,
		PermExperienceDelete, PermExperiencePublish,
		PermClientManage, PermUserManage, PermRoleAssign, PermGroupManage,
	},
	RoleClientAdministrator: {
		PermExperienceRead, PermExperienceCreate, PermExperienceUpdate,
		PermExperienceDelete, PermExperiencePublish,
		PermUserManage, PermRoleAssign, PermGroupManage,
	},
	RoleCollaborator: {
		PermExperienceRead, PermExperienceCreate, PermExperienceUpdate,
	},
	RoleViewer: {
		PermExperienceRead,
	},
}

// PermissionsForRoles derives the union of permissions implied by the
// effective role set. Unknown role names contribute nothing.
func PermissionsForRoles(roles RoleSet) map[string]struct{} {
	out := make(map[string]struct{})
	for name := range roles {
		for _, perm := range rolePermissions[name] {
			out[perm] = struct{}{}
		}
	}
	return out
}
