package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"vrf-flip-backend/internal/logger"
	"vrf-flip-backend/internal/middleware"
	"vrf-flip-backend/internal/models"
	"vrf-flip-backend/internal/services"
)

const (
	MessageBetPlaced     = "BET_PLACED"
	MessageBetSettled    = "BET_SETTLED"
	MessageBalanceUpdate = "BALANCE_UPDATE"
	MessagePing          = "PING"
	MessagePong          = "PONG"

	writeWait    = 10 * time.Second
	clientBuffer = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type      string      `json:"type"`
	Authority string      `json:"-"`
	Data      interface{} `json:"data"`
}

type Client struct {
	Authority string
	Conn      *websocket.Conn
	send      chan *Message
	quit      chan struct{}
}

// WebSocketHub delivers engine notifications to the sockets of the player
// they concern. It implements services.Broadcaster. The hub never closes a
// client's send channel; the connection handler owns the client lifetime.
type WebSocketHub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	stopped    chan struct{}
}

func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		stopped:    make(chan struct{}),
	}
}

func (hub *WebSocketHub) Run(ctx context.Context) {
	defer close(hub.stopped)
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-hub.register:
			set, ok := hub.clients[client.Authority]
			if !ok {
				set = make(map[*Client]struct{})
				hub.clients[client.Authority] = set
			}
			set[client] = struct{}{}
			logger.Debug(ctx).Str("authority", client.Authority).Msg("websocket client registered")

		case client := <-hub.unregister:
			if set, ok := hub.clients[client.Authority]; ok {
				delete(set, client)
				if len(set) == 0 {
					delete(hub.clients, client.Authority)
				}
			}
			logger.Debug(ctx).Str("authority", client.Authority).Msg("websocket client unregistered")

		case message := <-hub.broadcast:
			for client := range hub.clients[message.Authority] {
				select {
				case client.send <- message:
				default:
					logger.Warn(ctx).Str("authority", client.Authority).Str("type", message.Type).Msg("websocket client too slow, dropping message")
				}
			}
		}
	}
}

func (hub *WebSocketHub) publish(ctx context.Context, msg *Message) {
	select {
	case hub.broadcast <- msg:
	default:
		logger.Warn(ctx).Str("type", msg.Type).Str("authority", msg.Authority).Msg("websocket broadcast queue full, dropping message")
	}
}

func (hub *WebSocketHub) BroadcastBetPlaced(ctx context.Context, ev models.BetPlaced) {
	hub.publish(ctx, &Message{Type: MessageBetPlaced, Authority: ev.Authority, Data: ev})
}

func (hub *WebSocketHub) BroadcastBetSettled(ctx context.Context, ev models.BetSettled) {
	hub.publish(ctx, &Message{Type: MessageBetSettled, Authority: ev.Authority, Data: ev})
}

type WebSocketHandler struct {
	gameEngine *services.GameEngine
	hub        *WebSocketHub
}

func NewWebSocketHandler(gameEngine *services.GameEngine, hub *WebSocketHub) *WebSocketHandler {
	return &WebSocketHandler{
		gameEngine: gameEngine,
		hub:        hub,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	authority := c.GetString(middleware.AuthorityKey)
	ctx := c.Request.Context()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(ctx).Err(err).Str("authority", authority).Msg("failed to upgrade to websocket")
		return
	}

	client := &Client{
		Authority: authority,
		Conn:      conn,
		send:      make(chan *Message, clientBuffer),
		quit:      make(chan struct{}),
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.stopped:
		conn.Close()
		return
	}

	done := make(chan struct{})
	go h.writePump(client, done)

	defer func() {
		select {
		case h.hub.unregister <- client:
		case <-h.hub.stopped:
		}
		close(client.quit)
		<-done
		conn.Close()
	}()

	h.sendBalance(ctx, client)

	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn(ctx).Err(err).Str("authority", authority).Msg("websocket read failed")
			}
			break
		}

		h.handleMessage(ctx, client, &msg)
	}
}

// writePump is the only goroutine writing to the connection.
func (h *WebSocketHandler) writePump(client *Client, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-client.quit:
			return
		case msg := <-client.send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteJSON(msg); err != nil {
				// unblocks the reader, which then tears the client down
				client.Conn.Close()
				return
			}
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, client *Client, msg *Message) {
	switch msg.Type {
	case MessagePing:
		h.enqueue(client, &Message{
			Type: MessagePong,
			Data: gin.H{"timestamp": time.Now().Unix()},
		})
	case MessageBalanceUpdate:
		h.sendBalance(ctx, client)
	}
}

func (h *WebSocketHandler) sendBalance(ctx context.Context, client *Client) {
	balance, err := h.gameEngine.GetBalance(ctx, client.Authority)
	if err != nil {
		logger.Warn(ctx).Err(err).Str("authority", client.Authority).Msg("failed to get balance for websocket")
		return
	}
	h.enqueue(client, &Message{Type: MessageBalanceUpdate, Data: balance})
}

func (h *WebSocketHandler) enqueue(client *Client, msg *Message) {
	select {
	case client.send <- msg:
	default:
	}
}
