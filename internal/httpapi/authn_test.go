package httpapi

import (
	"net/http"
	"testing"
)

func TestProtectedRouteWithoutToken(t *testing.T) {
	ta := newTestAPI(t)

	resp := ta.get(t, "/v1/me", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") == "" {
		t.Fatal("WWW-Authenticate header missing")
	}
}

func TestProtectedRouteWithGarbageToken(t *testing.T) {
	ta := newTestAPI(t)

	resp := ta.get(t, "/v1/me", "not-a-jwt")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPublicPathsSkipAuthn(t *testing.T) {
	ta := newTestAPI(t)

	for _, path := range []string{"/healthz", "/readyz", "/v1/info", "/metrics"} {
		resp := ta.get(t, path, "")
		resp.Body.Close()
		if resp.StatusCode == http.StatusUnauthorized {
			t.Fatalf("%s must not require a token", path)
		}
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer   abc  ", "abc", true},
		{"", "", false},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"abc", "", false},
	}
	for _, tc := range cases {
		got, err := extractBearerToken(tc.header)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("header %q: got (%q, %v), want %q", tc.header, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("header %q: expected error", tc.header)
		}
	}
}

func TestAuthorizationUsesTenantScope(t *testing.T) {
	ta := newTestAPI(t)
	userID, token := ta.registerAndLogin(t, "scoped@example.com", "scoped")

	// Client admin in one tenant only.
	clientID := "client-42"
	ta.grantRole(t, userID, "Client Administrator", &clientID)

	resp := ta.get(t, "/v1/me?client_id=client-42", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me in granted scope: %d", resp.StatusCode)
	}
	var me struct {
		Roles []string `json:"roles"`
	}
	decodeBody(t, resp, &me)
	if len(me.Roles) != 1 || me.Roles[0] != "Client Administrator" {
		t.Fatalf("roles in granted scope: %v", me.Roles)
	}

	resp = ta.get(t, "/v1/me?client_id=other-client", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me in other scope: %d", resp.StatusCode)
	}
	var other struct {
		Roles []string `json:"roles"`
	}
	decodeBody(t, resp, &other)
	if len(other.Roles) != 0 {
		t.Fatalf("scoped role leaked into another tenant: %v", other.Roles)
	}
}
