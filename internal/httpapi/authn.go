package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"vernis.app/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}
var publicPrefixes = []string{
	"/v1/auth/",
}

// withAuth authenticates every request outside the public surface and
// attaches the principal to the context. Authorization happens later, per
// handler, because the tenant scope is only known there.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			unauthorized(w, err.Error())
			return
		}

		principal, err := a.svc.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				unauthorized(w, "invalid token")
				return
			}
			writeError(w, http.StatusInternalServerError, "authentication error")
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ensure runs the authorization gate for the given tenant scope and policy.
// It writes the error response itself; callers bail out when ok is false.
func (a *API) ensure(ctx context.Context, w http.ResponseWriter, clientID *string, pol auth.Policy) (auth.Principal, auth.RoleSet, bool) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		unauthorized(w, "authentication required")
		return auth.Principal{}, nil, false
	}
	roles, err := a.gate.Authorize(ctx, principal.User.ID, clientID, pol)
	if err != nil {
		writeServiceError(w, err)
		return auth.Principal{}, nil, false
	}
	return principal, roles, true
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="vernis"`)
	writeError(w, http.StatusUnauthorized, msg)
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
