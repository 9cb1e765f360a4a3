package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"headshotlab/internal/middleware"
)

func TestAuthRegister(t *testing.T) {
	env := newTestEnv()

	body := `{"email":"jane@example.com","password":"hunter2hunter2","name":"Jane"}`
	rec := doRequest(env.app.AuthRegister, httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.Email != "jane@example.com" {
		t.Fatalf("email = %q", resp.User.Email)
	}
	claims, err := middleware.VerifyToken("test-secret", resp.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Subject != resp.User.ID {
		t.Fatalf("token subject = %q, want %q", claims.Subject, resp.User.ID)
	}
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv()

	body := `{"email":"jane@example.com","password":"hunter2hunter2","name":"Jane"}`
	doRequest(env.app.AuthRegister, httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(body)))
	rec := doRequest(env.app.AuthRegister, httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestAuthRegisterRejectsShortPassword(t *testing.T) {
	env := newTestEnv()

	body := `{"email":"jane@example.com","password":"short","name":"Jane"}`
	rec := doRequest(env.app.AuthRegister, httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAuthLogin(t *testing.T) {
	env := newTestEnv()
	register := `{"email":"jane@example.com","password":"hunter2hunter2","name":"Jane"}`
	doRequest(env.app.AuthRegister, httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(register)))

	t.Run("wrong password", func(t *testing.T) {
		body := `{"email":"jane@example.com","password":"wrong-password"}`
		rec := doRequest(env.app.AuthLogin, httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body)))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		body := `{"email":"nobody@example.com","password":"hunter2hunter2"}`
		rec := doRequest(env.app.AuthLogin, httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body)))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		body := `{"email":"jane@example.com","password":"hunter2hunter2"}`
		rec := doRequest(env.app.AuthLogin, httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body)))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		var resp authResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Token == "" {
			t.Fatal("empty token")
		}
	})
}

func TestMe(t *testing.T) {
	env := newTestEnv()
	register := `{"email":"jane@example.com","password":"hunter2hunter2","name":"Jane"}`
	rec := doRequest(env.app.AuthRegister, httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(register)))
	var created authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/v1/me", nil), created.User.ID)
	rec = doRequest(env.app.Me, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var me userDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if me.ID != created.User.ID || me.Name != "Jane" {
		t.Fatalf("unexpected profile: %+v", me)
	}
}

func TestMeWithoutSession(t *testing.T) {
	env := newTestEnv()
	rec := doRequest(env.app.Me, httptest.NewRequest(http.MethodGet, "/v1/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
