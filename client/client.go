// Package client is the Go client for the chatcore API. It satisfies the
// interfaces the coordination components want, so a consumer can plug a
// Client straight into a read debouncer, typing tracker, or session
// heartbeater.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/encorehq/chatcore/internal/models"
	"github.com/encorehq/chatcore/internal/presence"
	"github.com/encorehq/chatcore/internal/readsync"
	"github.com/encorehq/chatcore/internal/receipt"
	"github.com/encorehq/chatcore/internal/typing"
	"github.com/encorehq/chatcore/internal/ws"
)

// Message is a message as returned by the API, with its derived status.
type Message struct {
	models.Message
	Status receipt.Status `json:"status"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: 10 * time.Second},
	}, nil
}

func (c *Client) do(method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) Login(username, password string) error {
	return c.do("POST", "/login", map[string]string{"username": username, "password": password}, nil)
}

func (c *Client) CreateDirectChat(peerID int) (int, error) {
	var resp map[string]int
	if err := c.do("POST", "/chats/direct", map[string]int{"peer_id": peerID}, &resp); err != nil {
		return 0, err
	}
	return resp["id"], nil
}

func (c *Client) SendMessage(chatID int, content string) (int, error) {
	var resp map[string]int
	if err := c.do("POST", fmt.Sprintf("/chats/%d/messages", chatID), map[string]string{"content": content}, &resp); err != nil {
		return 0, err
	}
	return resp["id"], nil
}

func (c *Client) Messages(chatID int) ([]Message, error) {
	var messages []Message
	if err := c.do("GET", fmt.Sprintf("/chats/%d/messages", chatID), nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) MarkDelivered(messageID int) error {
	return c.do("POST", fmt.Sprintf("/messages/%d/delivered", messageID), nil, nil)
}

// MarkRead and BulkMarkRead satisfy readsync.Marker.
func (c *Client) MarkRead(messageID int) error {
	return c.do("POST", fmt.Sprintf("/messages/%d/read", messageID), nil, nil)
}

func (c *Client) BulkMarkRead(messageIDs []int) error {
	return c.do("POST", "/messages/read-bulk", map[string][]int{"message_ids": messageIDs}, nil)
}

// StartTyping and StopTyping satisfy typing.Signaler.
func (c *Client) StartTyping(chatID int) error {
	return c.do("POST", fmt.Sprintf("/chats/%d/typing", chatID), map[string]bool{"typing": true}, nil)
}

func (c *Client) StopTyping(chatID int) error {
	return c.do("POST", fmt.Sprintf("/chats/%d/typing", chatID), map[string]bool{"typing": false}, nil)
}

func (c *Client) TypingUsers(chatID int) ([]int, error) {
	var resp map[string][]int
	if err := c.do("GET", fmt.Sprintf("/chats/%d/typing", chatID), nil, &resp); err != nil {
		return nil, err
	}
	return resp["user_ids"], nil
}

func (c *Client) OpenSession(chatID int) error {
	return c.do("POST", fmt.Sprintf("/chats/%d/session", chatID), nil, nil)
}

func (c *Client) CloseSession(chatID int) error {
	return c.do("DELETE", fmt.Sprintf("/chats/%d/session", chatID), nil, nil)
}

// NewReadDebouncer returns a debouncer that marks messages read through
// this client.
func (c *Client) NewReadDebouncer(window time.Duration, bulkThreshold int) *readsync.Debouncer {
	return readsync.New(c, window, bulkThreshold)
}

// NewTypingTracker returns a composer state machine signalling through this
// client.
func (c *Client) NewTypingTracker(chatID int, timeout time.Duration) *typing.Tracker {
	return typing.NewTracker(chatID, c, timeout)
}

// KeepSessionAlive opens the chat-view session and heartbeats it until the
// returned Heartbeater is closed.
func (c *Client) KeepSessionAlive(chatID int, interval time.Duration) *presence.Heartbeater {
	return presence.StartHeartbeat(clientSessions{c}, chatID, 0, interval)
}

// clientSessions adapts the API surface to presence.Sessions. The server
// identifies the user from the auth cookie, so the userID argument carries
// no information here.
type clientSessions struct {
	c *Client
}

func (s clientSessions) Open(chatID, userID int) error    { return s.c.OpenSession(chatID) }
func (s clientSessions) Refresh(chatID, userID int) error { return s.c.OpenSession(chatID) }
func (s clientSessions) Close(chatID, userID int)         { s.c.CloseSession(chatID) }

// Events connects to the push endpoint and streams events until the
// connection drops or stop is closed.
func (c *Client) Events(stop <-chan struct{}) (<-chan ws.Event, error) {
	wsURL, err := url.Parse(c.baseURL + "/ws")
	if err != nil {
		return nil, err
	}
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}

	header := http.Header{}
	cookieURL, _ := url.Parse(c.baseURL)
	for _, cookie := range c.http.Jar.Cookies(cookieURL) {
		header.Add("Cookie", cookie.String())
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), header)
	if err != nil {
		return nil, err
	}

	events := make(chan ws.Event)
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var event ws.Event
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			select {
			case events <- event:
			case <-stop:
				return
			}
		}
	}()
	return events, nil
}
