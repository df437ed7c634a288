package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/encorehq/chatcore/internal/auth"
)

func TestAuthMiddlewareValidCookie(t *testing.T) {
	var gotUserID int
	handler := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserID(r)
	}))

	req, _ := http.NewRequest("GET", "/chats", nil)
	req.AddCookie(&http.Cookie{Name: "user_id", Value: auth.SignCookie("42")})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if gotUserID != 42 {
		t.Errorf("Expected user id 42 in context, got %d", gotUserID)
	}
}

func TestAuthMiddlewareMissingCookie(t *testing.T) {
	handler := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be reached")
	}))

	req, _ := http.NewRequest("GET", "/chats", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rr.Code)
	}
}

func TestAuthMiddlewareTamperedCookie(t *testing.T) {
	handler := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be reached")
	}))

	req, _ := http.NewRequest("GET", "/chats", nil)
	req.AddCookie(&http.Cookie{Name: "user_id", Value: "42|forged-signature"})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rr.Code)
	}
}
