package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/encorehq/chatcore/internal/middleware"
	"github.com/encorehq/chatcore/internal/models"
	"github.com/encorehq/chatcore/internal/receipt"
	"github.com/encorehq/chatcore/internal/store"
	"github.com/encorehq/chatcore/internal/ws"
)

type ChatHandler struct {
	Store store.Store
	Hub   *ws.Hub
}

// messageView is a message enriched with its derived delivery status.
type messageView struct {
	models.Message
	Status receipt.Status `json:"status"`
}

func (h *ChatHandler) CreateDirectChat(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var req struct {
		PeerID int `json:"peer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	chatID, err := h.Store.GetOrCreateDirectChat(userID, req.PeerID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]int{"id": chatID})
}

func (h *ChatHandler) CreateGroupChat(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var req struct {
		Name      string `json:"name"`
		MemberIDs []int  `json:"member_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	chatID, err := h.Store.CreateGroupChat(req.Name, userID, req.MemberIDs)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]int{"id": chatID})
}

func (h *ChatHandler) GetChats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	chats, err := h.Store.GetUserChats(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(chats)
}

func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	chatID, _, ok := h.authorizeChat(w, r)
	if !ok {
		return
	}

	chat, err := h.Store.GetChat(chatID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	json.NewEncoder(w).Encode(chat)
}

func (h *ChatHandler) GetChatParticipants(w http.ResponseWriter, r *http.Request) {
	chatID, _, ok := h.authorizeChat(w, r)
	if !ok {
		return
	}

	members, err := h.Store.GetChatMembers(chatID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(members)
}

func (h *ChatHandler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	chatID, _, ok := h.authorizeChat(w, r)
	if !ok {
		return
	}

	participants, err := h.Store.GetParticipants(chatID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	messages, err := h.Store.GetChatMessages(chatID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, messageView{
			Message: m,
			Status:  receipt.Derive(m.SenderID, participants, m.DeliveredTo, m.ReadBy),
		})
	}

	json.NewEncoder(w).Encode(views)
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chatID, _ := strconv.Atoi(vars["id"])
	userID := middleware.UserID(r)

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	messageID, err := h.Store.AppendMessage(chatID, userID, req.Content)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if message, err := h.Store.GetMessage(messageID); err == nil {
		h.Hub.Publish(ws.Event{Type: ws.EventMessage, ChatID: chatID, Message: message})
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]int{"id": messageID})
}

func (h *ChatHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	h.markReceipt(w, r, "delivered")
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.markReceipt(w, r, "read")
}

func (h *ChatHandler) markReceipt(w http.ResponseWriter, r *http.Request, kind string) {
	vars := mux.Vars(r)
	messageID, _ := strconv.Atoi(vars["id"])
	userID := middleware.UserID(r)

	message, err := h.Store.GetMessage(messageID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if kind == "read" {
		err = h.Store.MarkRead(messageID, userID)
	} else {
		err = h.Store.MarkDelivered(messageID, userID)
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.Hub.Publish(ws.Event{
		Type:      ws.EventReceipt,
		ChatID:    message.ChatID,
		MessageID: messageID,
		UserID:    userID,
		Receipt:   kind,
	})

	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) BulkMarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var req struct {
		MessageIDs []int `json:"message_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.Store.BulkMarkRead(req.MessageIDs, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for _, messageID := range req.MessageIDs {
		message, err := h.Store.GetMessage(messageID)
		if err != nil || !contains(message.ReadBy, userID) {
			continue
		}
		h.Hub.Publish(ws.Event{
			Type:      ws.EventReceipt,
			ChatID:    message.ChatID,
			MessageID: messageID,
			UserID:    userID,
			Receipt:   "read",
		})
	}

	json.NewEncoder(w).Encode(result)
}

func contains(ids []int, id int) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// authorizeChat extracts the chat id and rejects callers who are not in the
// roster.
func (h *ChatHandler) authorizeChat(w http.ResponseWriter, r *http.Request) (chatID, userID int, ok bool) {
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
