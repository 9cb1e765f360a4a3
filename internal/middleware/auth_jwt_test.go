package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestSignAndVerifyToken(t *testing.T) {
	token, err := SignToken(testSecret, "user-1", "id", time.Hour)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	claims, err := VerifyToken(testSecret, token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("subject = %q, want user-1", claims.Subject)
	}
	if claims.Locale != "id" {
		t.Fatalf("locale = %q, want id", claims.Locale)
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	token, err := SignToken(testSecret, "user-1", "", time.Hour)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	if _, err := VerifyToken("other-secret", token); err == nil {
		t.Fatal("token verified with wrong secret")
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	token, err := SignToken(testSecret, "user-1", "", -time.Minute)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	if _, err := VerifyToken(testSecret, token); err == nil {
		t.Fatal("expired token verified")
	}
}

func TestAuthJWT(t *testing.T) {
	var gotUserID string
	handler := AuthJWT(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := SignToken(testSecret, "user-42", "", time.Hour)
		if err != nil {
			t.Fatalf("SignToken: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if gotUserID != "user-42" {
			t.Fatalf("user id = %q, want user-42", gotUserID)
		}
	})
}
