package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/encorehq/chatcore/internal/middleware"
	"github.com/encorehq/chatcore/internal/presence"
	"github.com/encorehq/chatcore/internal/store"
	"github.com/encorehq/chatcore/internal/typing"
	"github.com/encorehq/chatcore/internal/ws"
)

// PresenceHandler serves the ephemeral side of the engine: typing state and
// chat-view session heartbeats.
type PresenceHandler struct {
	Store    store.Store
	Hub      *ws.Hub
	Typing   *typing.Registry
	Sessions *presence.Registry
}

func (h *PresenceHandler) SetTyping(w http.ResponseWriter, r *http.Request) {
	chatID, userID, ok := h.authorizeChat(w, r)
	if !ok {
		return
	}

	var req struct {
		Typing bool `json:"typing"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Typing {
		h.Typing.Start(chatID, userID)
	} else {
		h.Typing.Stop(chatID, userID)
	}

	h.Hub.Publish(ws.Event{Type: ws.EventTyping, ChatID: chatID, UserID: userID, Typing: req.Typing})

	w.WriteHeader(http.StatusNoContent)
}

func (h *PresenceHandler) GetTyping(w http.ResponseWriter, r *http.Request) {
	chatID, userID, ok := h.authorizeChat(w, r)
	if !ok {
		return
	}

	ids := h.Typing.TypingUsers(chatID, userID)
	if ids == nil {
		ids = []int{}
	}
	json.NewEncoder(w).Encode(map[string][]int{"user_ids": ids})
}

func (h *PresenceHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	chatID, userID, ok := h.authorizeChat(w, r)
	if !ok {
		return
	}

	if err := h.Sessions.Open(chatID, userID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.Hub.Publish(ws.Event{Type: ws.EventSession, ChatID: chatID, UserID: userID, Active: true})

	w.WriteHeader(http.StatusNoContent)
}

func (h *PresenceHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chatID, _ := strconv.Atoi(vars["id"])
	userID := middleware.UserID(r)

	// Best-effort: the close must never fail the caller's teardown path.
	h.Sessions.Close(chatID, userID)

	h.Hub.Publish(ws.Event{Type: ws.EventSession, ChatID: chatID, UserID: userID, Active: false})

	w.WriteHeader(http.StatusNoContent)
}

func (h *PresenceHandler) GetOnline(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	targetID, _ := strconv.Atoi(vars["id"])

	lastActive, err := h.Store.UserLastActive(targetID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"online":         presence.Online(lastActive, time.Now()),
		"last_active_at": lastActive,
	})
}

func (h *PresenceHandler) authorizeChat(w http.ResponseWriter, r *http.Request) (chatID, userID int, ok bool) {
	vars := mux.Vars(r)
	chatID, _ = strconv.Atoi(vars["id"])
	userID = middleware.UserID(r)

	isParticipant, err := h.Store.IsParticipant(chatID, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return 0, 0, false
	}
	if !isParticipant {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return 0, 0, false
	}
	return chatID, userID, true
}
