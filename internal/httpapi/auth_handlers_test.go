package httpapi

import (
	"context"
	"net/http"
	"testing"
)

func TestRegisterConfirmLoginOverHTTP(t *testing.T) {
	ta := newTestAPI(t)

	resp := ta.post(t, "/v1/auth/register", "", map[string]string{
		"email":    "flow@example.com",
		"username": "flow",
		"password": "s3cret-password",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: %d", resp.StatusCode)
	}
	var registered struct {
		User struct {
			ID             string `json:"id"`
			Email          string `json:"email"`
			EmailConfirmed bool   `json:"email_confirmed"`
		} `json:"user"`
	}
	decodeBody(t, resp, &registered)
	if registered.User.EmailConfirmed {
		t.Fatal("fresh account must be unconfirmed")
	}

	// Login before confirmation.
	resp = ta.post(t, "/v1/auth/login", "", map[string]string{
		"email":    "flow@example.com",
		"password": "s3cret-password",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("login before confirm: expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Pull the token out of the store, as the mail would carry it.
	user, err := ta.store.UserByID(context.Background(), registered.User.ID)
	if err != nil {
		t.Fatalf("UserByID: %v", err)
	}
	resp = ta.post(t, "/v1/auth/confirm", "", map[string]string{"token": *user.ConfirmToken})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = ta.post(t, "/v1/auth/login", "", map[string]string{
		"email":    "flow@example.com",
		"password": "s3cret-password",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login after confirm: %d", resp.StatusCode)
	}
	var session struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &session)
	if session.Token == "" {
		t.Fatal("session token missing")
	}

	resp = ta.get(t, "/v1/me", session.Token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: %d", resp.StatusCode)
	}
	var me struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Roles []string `json:"roles"`
	}
	decodeBody(t, resp, &me)
	if me.User.ID != registered.User.ID {
		t.Fatalf("me returned wrong user: %s", me.User.ID)
	}
	if len(me.Roles) != 0 {
		t.Fatalf("fresh account must have no roles, got %v", me.Roles)
	}
}

func TestConfirmRejectsBadToken(t *testing.T) {
	ta := newTestAPI(t)

	resp := ta.post(t, "/v1/auth/confirm", "", map[string]string{"token": "bogus"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRegisterValidationOverHTTP(t *testing.T) {
	ta := newTestAPI(t)

	resp := ta.post(t, "/v1/auth/register", "", map[string]string{
		"email":    "short@example.com",
		"username": "short",
		"password": "tiny",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRegisterDuplicateOverHTTP(t *testing.T) {
	ta := newTestAPI(t)
	ta.registerAndLogin(t, "dup@example.com", "dup")

	resp := ta.post(t, "/v1/auth/register", "", map[string]string{
		"email":    "dup@example.com",
		"username": "other",
		"password": "s3cret-password",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestPasswordResetDoesNotEnumerate(t *testing.T) {
	ta := newTestAPI(t)
	ta.registerAndLogin(t, "known@example.com", "known")

	for _, email := range []string{"known@example.com", "unknown@example.com"} {
		resp := ta.post(t, "/v1/auth/password-reset", "", map[string]string{"email": email})
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("password reset for %s: expected 202, got %d", email, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestPasswordResetConfirmOverHTTP(t *testing.T) {
	ta := newTestAPI(t)
	userID, _ := ta.registerAndLogin(t, "pw@example.com", "pw")

	resp := ta.post(t, "/v1/auth/password-reset", "", map[string]string{"email": "pw@example.com"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("request reset: %d", resp.StatusCode)
	}
	resp.Body.Close()

	user, err := ta.store.UserByID(context.Background(), userID)
	if err != nil {
		t.Fatalf("UserByID: %v", err)
	}
	resp = ta.post(t, "/v1/auth/password-reset/confirm", "", map[string]string{
		"token":    *user.ResetToken,
		"password": "brand-new-password",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm reset: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = ta.post(t, "/v1/auth/login", "", map[string]string{
		"email":    "pw@example.com",
		"password": "brand-new-password",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login with new password: %d", resp.StatusCode)
	}
}

func TestAuthEndpointsRejectWrongMethod(t *testing.T) {
	ta := newTestAPI(t)

	resp := ta.get(t, "/v1/auth/register", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Allow") != http.MethodPost {
		t.Fatalf("Allow header: %q", resp.Header.Get("Allow"))
	}
}
