package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-chi/jwtauth"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	config "monopoly-service/configs"
	"monopoly-service/internal/gamesvc/server"
)

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	upgrader  websocket.Upgrader
	srv       *server.Server
}

func NewHandler(srv *server.Server) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		srv: srv,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "game service is running at port " + os.Getenv("PORT"),
		Code:    200,
		Data:    nil,
	}
	json.NewEncoder(w).Encode(rsp)
}

// StatsHandler reports live connection, session and match counts.
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	conns, users := h.srv.Registry().Count()

	h.CreateResponse(w, Response{
		Message: "ok",
		Code:    200,
		Data: map[string]interface{}{
			"instance":     config.GetInstanceId(),
			"connections":  conns,
			"users_online": users,
			"live_matches": h.srv.Pool().Len(),
			"searching":    len(h.srv.Registry().Searching()),
		},
	})
}

// WebSocketHandler upgrades the request and hands the socket to the game
// server, which owns it from then on.
func (h *Handler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("websocket upgrade failed: %v", err)
		return
	}

	log.Infof("websocket connection established from %s", r.RemoteAddr)
	h.srv.AttachWebSocket(conn)
}
