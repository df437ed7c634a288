package main

import (
	"flag"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/encorehq/chatcore/internal/auth"
	"github.com/encorehq/chatcore/internal/config"
	"github.com/encorehq/chatcore/internal/email"
	"github.com/encorehq/chatcore/internal/handlers"
	"github.com/encorehq/chatcore/internal/middleware"
	"github.com/encorehq/chatcore/internal/presence"
	"github.com/encorehq/chatcore/internal/store/sqlstore"
	"github.com/encorehq/chatcore/internal/typing"
	"github.com/encorehq/chatcore/internal/ws"
)

var (
	addr       = flag.String("addr", "", "http service address (overrides config)")
	configPath = flag.String("config", "", "path to TOML config file")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	store, err := sqlstore.New(cfg.Driver, cfg.DSN)
	if err != nil {
		log.Fatal(err)
	}

	hub := ws.NewHub(store)
	go hub.Run()

	typingRegistry := typing.NewRegistry(cfg.Chat.TypingTTL())
	sessionRegistry := presence.NewRegistry(store, cfg.Chat.HeartbeatInterval())
	mailer := email.NewSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)

	authHandler := &handlers.AuthHandler{Store: store, Email: mailer, BaseURL: "http://localhost" + cfg.Addr}
	chatHandler := &handlers.ChatHandler{Store: store, Hub: hub}
	presenceHandler := &handlers.PresenceHandler{Store: store, Hub: hub, Typing: typingRegistry, Sessions: sessionRegistry}

	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	// Public endpoints
	r.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/verify", authHandler.Verify).Methods("GET")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")

	// Authenticated API
	api := r.NewRoute().Subrouter()
	api.Use(middleware.AuthMiddleware)
	api.HandleFunc("/users/search", authHandler.SearchUsers).Methods("GET")
	api.HandleFunc("/users/{id}/online", presenceHandler.GetOnline).Methods("GET")
	api.HandleFunc("/chats/direct", chatHandler.CreateDirectChat).Methods("POST")
	api.HandleFunc("/chats/group", chatHandler.CreateGroupChat).Methods("POST")
	api.HandleFunc("/chats", chatHandler.GetChats).Methods("GET")
	api.HandleFunc("/chats/{id}", chatHandler.GetChat).Methods("GET")
	api.HandleFunc("/chats/{id}/participants", chatHandler.GetChatParticipants).Methods("GET")
	api.HandleFunc("/chats/{id}/messages", chatHandler.GetChatMessages).Methods("GET")
	api.HandleFunc("/chats/{id}/messages", chatHandler.SendMessage).Methods("POST")
	api.HandleFunc("/messages/{id}/delivered", chatHandler.MarkDelivered).Methods("POST")
	api.HandleFunc("/messages/{id}/read", chatHandler.MarkRead).Methods("POST")
	api.HandleFunc("/messages/read-bulk", chatHandler.BulkMarkRead).Methods("POST")
	api.HandleFunc("/chats/{id}/typing", presenceHandler.SetTyping).Methods("POST")
	api.HandleFunc("/chats/{id}/typing", presenceHandler.GetTyping).Methods("GET")
	api.HandleFunc("/chats/{id}/session", presenceHandler.OpenSession).Methods("POST")
	api.HandleFunc("/chats/{id}/session", presenceHandler.CloseSession).Methods("DELETE")

	// WebSocket Endpoint
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("user_id")
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		userIDStr, err := auth.VerifyCookie(cookie.Value)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		userID, _ := strconv.Atoi(userIDStr)

		ws.ServeWs(hub, w, r, userID)
	})

	log.Println("Starting server on", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, r))
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}
