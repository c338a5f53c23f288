package httpapi

import (
	"net/http"
	"sort"

	"vernis.app/internal/audit"
	"vernis.app/internal/auth"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := a.svc.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user_registered", map[string]any{
		"new_user_id": user.ID,
		"email":       user.Email,
	})
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

type confirmRequest struct {
	Token string `json:"token"`
}

func (a *API) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req confirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := a.svc.ConfirmEmail(r.Context(), req.Token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "email_confirmed", map[string]any{
		"confirmed_user_id": user.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (a *API) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req emailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := a.svc.ResendConfirmation(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	// Accepted whether or not the account exists.
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "ok"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := a.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user_logged_in", map[string]any{
		"login_user_id": session.User.ID,
	})
	writeJSON(w, http.StatusOK, session)
}

func (a *API) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req emailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := a.svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "ok"})
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (a *API) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req resetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := a.svc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "password_reset", nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "password_updated"})
}

// Me returns the caller's profile plus the effective roles and permissions
// for the requested tenant scope (blank client_id means global only).
func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	clientID := auth.NormalizeClientID(r.URL.Query().Get("client_id"))
	principal, roles, ok := a.ensure(r.Context(), w, clientID, auth.Policy{})
	if !ok {
		return
	}
	perms := auth.PermissionsForRoles(roles)
	permNames := make([]string, 0, len(perms))
	for p := range perms {
		permNames = append(permNames, p)
	}
	sort.Strings(permNames)

	resp := map[string]any{
		"user":        principal.User,
		"roles":       roles.Names(),
		"permissions": permNames,
	}
	if clientID != nil {
		resp["client_id"] = *clientID
	}
	writeJSON(w, http.StatusOK, resp)
}
