package ws

import (
	"encoding/json"
	"log"

	"github.com/encorehq/chatcore/internal/models"
	"github.com/encorehq/chatcore/internal/store"
)

const (
	EventMessage = "message"
	EventReceipt = "receipt"
	EventTyping  = "typing"
	EventSession = "session"
)

// Event is the push envelope sent to connected participants of a chat.
type Event struct {
	Type      string          `json:"type"`
	ChatID    int             `json:"chat_id"`
	Message   *models.Message `json:"message,omitempty"`
	MessageID int             `json:"message_id,omitempty"`
	UserID    int             `json:"user_id,omitempty"`
	Receipt   string          `json:"receipt,omitempty"`
	Typing    bool            `json:"typing,omitempty"`
	Active    bool            `json:"active,omitempty"`
}

type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Events published by the HTTP layer after successful mutations.
	events chan Event

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	store store.Store
}

func NewHub(store store.Store) *Hub {
	return &Hub{
		events:     make(chan Event),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		store:      store,
	}
}

// Publish fans an event out to every connected participant of its chat.
func (h *Hub) Publish(event Event) {
	h.events <- event
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case event := <-h.events:
			msgBytes, err := json.Marshal(event)
			if err != nil {
				log.Printf("marshal event: %v", err)
				continue
			}

			for client := range h.clients {
				// Only participants of the affected chat see the event.
				isParticipant, err := h.store.IsParticipant(event.ChatID, client.userID)
				if err != nil {
					log.Printf("check participant: %v", err)
					continue
				}
				if !isParticipant {
					continue
				}

				select {
				case client.send <- msgBytes:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}
