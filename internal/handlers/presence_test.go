package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/encorehq/chatcore/internal/presence"
	"github.com/encorehq/chatcore/internal/store/sqlstore"
	"github.com/encorehq/chatcore/internal/typing"
	"github.com/encorehq/chatcore/internal/ws"
)

func newPresenceHandler(t *testing.T) (*PresenceHandler, *sqlstore.SQLStore, int, int, int) {
	t.Helper()
	s := newTestStore(t)
	alice := newTestUser(t, s, "alice")
	bob := newTestUser(t, s, "bob")
	chatID, err := s.GetOrCreateDirectChat(alice, bob)
	if err != nil {
		t.Fatalf("Failed to create chat: %v", err)
	}

	hub := ws.NewHub(s)
	go hub.Run()

	handler := &PresenceHandler{
		Store:    s,
		Hub:      hub,
		Typing:   typing.NewRegistry(time.Minute),
		Sessions: presence.NewRegistry(s, 30*time.Second),
	}
	return handler, s, chatID, alice, bob
}

func TestTypingEndpoints(t *testing.T) {
	handler, _, chatID, alice, bob := newPresenceHandler(t)
	vars := map[string]string{"id": strconv.Itoa(chatID)}

	rr := serve(handler.SetTyping, authedRequest("POST", "/chats/1/typing", map[string]bool{"typing": true}, alice), vars)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string][]int
	rr = serve(handler.GetTyping, authedRequest("GET", "/chats/1/typing", nil, bob), vars)
	json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp["user_ids"]) != 1 || resp["user_ids"][0] != alice {
		t.Errorf("Expected bob to see alice typing, got %v", resp["user_ids"])
	}

	// The typist never appears in their own view.
	rr = serve(handler.GetTyping, authedRequest("GET", "/chats/1/typing", nil, alice), vars)
	json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp["user_ids"]) != 0 {
		t.Errorf("Expected alice to see no typists, got %v", resp["user_ids"])
	}

	serve(handler.SetTyping, authedRequest("POST", "/chats/1/typing", map[string]bool{"typing": false}, alice), vars)
	rr = serve(handler.GetTyping, authedRequest("GET", "/chats/1/typing", nil, bob), vars)
	json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp["user_ids"]) != 0 {
		t.Errorf("Expected no typists after stop, got %v", resp["user_ids"])
	}
}

func TestTypingForbiddenForOutsider(t *testing.T) {
	handler, s, chatID, _, _ := newPresenceHandler(t)
	mallory := newTestUser(t, s, "mallory")
	vars := map[string]string{"id": strconv.Itoa(chatID)}

	rr := serve(handler.SetTyping, authedRequest("POST", "/chats/1/typing", map[string]bool{"typing": true}, mallory), vars)
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for outsider, got %d", rr.Code)
	}
}

func TestSessionEndpoints(t *testing.T) {
	handler, _, chatID, alice, _ := newPresenceHandler(t)
	vars := map[string]string{"id": strconv.Itoa(chatID)}

	rr := serve(handler.OpenSession, authedRequest("POST", "/chats/1/session", nil, alice), vars)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d: %s", rr.Code, rr.Body.String())
	}

	live, err := handler.Sessions.IsLive(chatID, alice)
	if err != nil {
		t.Fatalf("IsLive failed: %v", err)
	}
	if !live {
		t.Error("Expected session to be live after open")
	}

	rr = serve(handler.CloseSession, authedRequest("DELETE", "/chats/1/session", nil, alice), vars)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rr.Code)
	}

	live, _ = handler.Sessions.IsLive(chatID, alice)
	if live {
		t.Error("Expected session to be dead after close")
	}
}

func TestGetOnline(t *testing.T) {
	handler, _, chatID, alice, bob := newPresenceHandler(t)

	// A heartbeat counts as activity for the online badge.
	serve(handler.OpenSession, authedRequest("POST", "/chats/1/session", nil, alice), map[string]string{"id": strconv.Itoa(chatID)})

	var resp struct {
		Online bool `json:"online"`
	}
	rr := serve(handler.GetOnline, authedRequest("GET", "/users/1/online", nil, bob), map[string]string{"id": strconv.Itoa(alice)})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if !resp.Online {
		t.Error("Expected alice to be online after a heartbeat")
	}

	// Bob has no recorded activity at all.
	rr = serve(handler.GetOnline, authedRequest("GET", "/users/2/online", nil, alice), map[string]string{"id": strconv.Itoa(bob)})
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Online {
		t.Error("Expected bob to be offline")
	}
}
