package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/encorehq/chatcore/internal/models"
)

func TestSignupCreatesUnverifiedUser(t *testing.T) {
	s := newTestStore(t)
	handler := &AuthHandler{Store: s}

	body, _ := json.Marshal(map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "hunter2",
	})
	req, _ := http.NewRequest("POST", "/signup", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()
	handler.Signup(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	user, err := s.GetUserByUsername("alice")
	if err != nil {
		t.Fatalf("Expected user to exist: %v", err)
	}
	if user.IsVerified {
		t.Error("Expected new user to be unverified")
	}
	if user.Password == "hunter2" {
		t.Error("Expected password to be hashed")
	}

	// Duplicate username conflicts.
	req, _ = http.NewRequest("POST", "/signup", bytes.NewBuffer(body))
	rr = httptest.NewRecorder()
	handler.Signup(rr, req)
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate signup, got %d", rr.Code)
	}
}

func TestVerify(t *testing.T) {
	s := newTestStore(t)
	handler := &AuthHandler{Store: s}

	s.CreateUser(&models.User{
		Username:          "bob",
		Email:             "bob@example.com",
		Password:          "pass",
		VerificationToken: "token-abc",
	})

	req, _ := http.NewRequest("GET", "/verify?token=token-abc", nil)
	rr := httptest.NewRecorder()
	handler.Verify(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	user, _ := s.GetUserByUsername("bob")
	if !user.IsVerified {
		t.Error("Expected user to be verified")
	}

	req, _ = http.NewRequest("GET", "/verify?token=bogus", nil)
	rr = httptest.NewRecorder()
	handler.Verify(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown token, got %d", rr.Code)
	}
}

func TestLogin(t *testing.T) {
	s := newTestStore(t)
	handler := &AuthHandler{Store: s}

	hashed, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.DefaultCost)
	s.CreateUser(&models.User{Username: "alice", Email: "alice@example.com", Password: string(hashed)})

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "hunter2"})
	req, _ := http.NewRequest("POST", "/login", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	cookies := rr.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == "user_id" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("Expected signed user_id cookie to be set")
	}

	body, _ = json.Marshal(map[string]string{"username": "alice", "password": "wrong"})
	req, _ = http.NewRequest("POST", "/login", bytes.NewBuffer(body))
	rr = httptest.NewRecorder()
	handler.Login(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong password, got %d", rr.Code)
	}
}
