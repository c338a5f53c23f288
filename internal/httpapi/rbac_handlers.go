package httpapi

import (
	"net/http"
	"strings"

	"vernis.app/internal/audit"
	"vernis.app/internal/auth"
)

type createClientRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
	OwnerID  *string `json:"owner_id"`
}

func (a *API) CreateClient(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req createClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	// Creating a tenant is a platform-level action, checked in global scope.
	if _, _, ok := a.ensure(r.Context(), w, nil, auth.Policy{
		AllPermissions: []string{auth.PermClientManage},
	}); !ok {
		return
	}
	client, err := a.svc.CreateClient(r.Context(), req.Name, req.ParentID, req.OwnerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "client_created", map[string]any{
		"client_id": client.ID,
		"name":      client.Name,
	})
	writeJSON(w, http.StatusCreated, client)
}

// ClientByID handles GET /v1/clients/{id}.
func (a *API) ClientByID(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	id := pathSegment(r.URL.Path, "/v1/clients/", 0)
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	// Scoped to the requested tenant so a client administrator can read
	// their own record without platform-level rights.
	if _, _, ok := a.ensure(r.Context(), w, &id, auth.Policy{
		AnyRole: []string{auth.RoleSuperAdministrator, auth.RoleClientAdministrator},
	}); !ok {
		return
	}
	client, err := a.svc.ClientByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

type assignRoleRequest struct {
	Role     string `json:"role"`
	ClientID string `json:"client_id"`
}

// UserRoutes handles POST /v1/users/{id}/assignments.
func (a *API) UserRoutes(w http.ResponseWriter, r *http.Request) {
	userID := pathSegment(r.URL.Path, "/v1/users/", 0)
	action := pathSegment(r.URL.Path, "/v1/users/", 1)
	if userID == "" || action != "assignments" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req assignRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	clientID := auth.NormalizeClientID(req.ClientID)
	// The grantor needs assignment rights in the scope being granted.
	if _, _, ok := a.ensure(r.Context(), w, clientID, auth.Policy{
		AllPermissions: []string{auth.PermRoleAssign},
	}); !ok {
		return
	}
	if err := a.svc.AssignRole(r.Context(), userID, req.Role, clientID); err != nil {
		writeServiceError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "role_assigned", map[string]any{
		"target_user_id": userID,
		"role":           req.Role,
		"client_id":      req.ClientID,
	})
	writeJSON(w, http.StatusCreated, map[string]any{"status": "assigned"})
}

type createGroupRequest struct {
	Name string `json:"name"`
}

func (a *API) CreateGroup(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req createGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, _, ok := a.ensure(r.Context(), w, nil, auth.Policy{
		AllPermissions: []string{auth.PermGroupManage},
	}); !ok {
		return
	}
	group, err := a.svc.CreateGroup(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "group_created", map[string]any{
		"group_id": group.ID,
		"name":     group.Name,
	})
	writeJSON(w, http.StatusCreated, group)
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
}

// GroupRoutes handles POST /v1/groups/{id}/members and
// POST /v1/groups/{id}/roles.
func (a *API) GroupRoutes(w http.ResponseWriter, r *http.Request) {
	groupID := pathSegment(r.URL.Path, "/v1/groups/", 0)
	action := pathSegment(r.URL.Path, "/v1/groups/", 1)
	if groupID == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch action {
	case "members":
		a.addGroupMember(w, r, groupID)
	case "roles":
		a.assignGroupRole(w, r, groupID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (a *API) addGroupMember(w http.ResponseWriter, r *http.Request, groupID string) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req addMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, _, ok := a.ensure(r.Context(), w, nil, auth.Policy{
		AllPermissions: []string{auth.PermGroupManage},
	}); !ok {
		return
	}
	if err := a.svc.AddGroupMember(r.Context(), groupID, req.UserID); err != nil {
		writeServiceError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "group_member_added", map[string]any{
		"group_id":       groupID,
		"member_user_id": req.UserID,
	})
	writeJSON(w, http.StatusCreated, map[string]any{"status": "added"})
}

func (a *API) assignGroupRole(w http.ResponseWriter, r *http.Request, groupID string) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req assignRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	clientID := auth.NormalizeClientID(req.ClientID)
	if _, _, ok := a.ensure(r.Context(), w, clientID, auth.Policy{
		AllPermissions: []string{auth.PermGroupManage, auth.PermRoleAssign},
	}); !ok {
		return
	}
	if err := a.svc.AssignGroupRole(r.Context(), groupID, req.Role, clientID); err != nil {
		writeServiceError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "group_role_assigned", map[string]any{
		"group_id":  groupID,
		"role":      req.Role,
		"client_id": req.ClientID,
	})
	writeJSON(w, http.StatusCreated, map[string]any{"status": "assigned"})
}

// pathSegment returns the i-th segment after the prefix, or "".
func pathSegment(path, prefix string, i int) string {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path {
		return ""
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if i >= len(parts) {
		return ""
	}
	return parts[i]
}
