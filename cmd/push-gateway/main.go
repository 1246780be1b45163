// cmd/push-gateway/main.go
package main

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"

	"petshop/internal/pkg/bootstrap"
	"petshop/internal/pkg/kvstore"
	"petshop/internal/pkg/logger"
	pkgredis "petshop/internal/pkg/redis"
	"petshop/internal/pkg/session"
)

const (
	serviceName = "push-gateway"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var (
	nodeID   = serviceName + "-" + uuid.NewString()[:8]
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
)

// Hub 维护所有活跃的连接，按 UserID 索引
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	lock       sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.lock.Lock()
			// 同一用户重连时顶掉旧连接
			if old, ok := h.clients[client.userID]; ok {
				close(old.send)
			}
			h.clients[client.userID] = client
			h.lock.Unlock()
			zlog.Info().Str("user_id", client.userID).Str("node", nodeID).Msg("client registered")
		case client := <-h.unregister:
			h.lock.Lock()
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
			}
			h.lock.Unlock()
			zlog.Info().Str("user_id", client.userID).Msg("client unregistered")
		}
	}
}

// push 把消息投递给指定用户，用户不在本节点时静默丢弃
func (h *Hub) push(userID string, payload []byte) {
	h.lock.RLock()
	client, ok := h.clients[userID]
	h.lock.RUnlock()
	if !ok {
		return
	}
	select {
	case client.send <- payload:
	default:
		// 发送缓冲满说明客户端不消费，断开让它重连
		h.unregister <- client
	}
}

// Client 是一个 WebSocket 连接
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		// 客户端只发心跳，读到任何错误就断开
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func serveWs(hub *Hub, sessionMgr *session.Manager, w http.ResponseWriter, r *http.Request) {
	// 连接归属以服务端会话为准，不信任 userId 参数
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing session token", http.StatusUnauthorized)
		return
	}
	sess, err := sessionMgr.Get(r.Context(), token)
	if err != nil {
		http.Error(w, "session invalid or expired", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zlog.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), userID: sess.Username}
	hub.register <- client

	go client.writePump()
	go client.readPump()
}

// routeEvents 订阅通知路径的变更事件，新通知实时推给在线用户
func routeEvents(ctx context.Context, store kvstore.Store, hub *Hub) {
	events, err := store.Subscribe(ctx, "notifications/")
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to subscribe to notification events")
	}
	for event := range events {
		if event.Kind != kvstore.EventSet {
			continue
		}
		// 路径形如 notifications/{userID}/{id}
		parts := strings.Split(event.Path, "/")
		if len(parts) < 3 {
			continue
		}
		hub.push(parts[1], event.Value)
	}
}

func main() {
	logger.Init(serviceName)
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient, err := pkgredis.NewClient(ctx, cfg.Infra.Redis.Addr)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to redis")
	}
	store := kvstore.NewRedisStore(redisClient)
	sessionMgr := session.NewManager(store, time.Duration(cfg.App.SessionIdleMinutes)*time.Minute)

	hub := newHub()
	go hub.run()
	go routeEvents(ctx, store, hub)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8088,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			appCtx.Mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
				serveWs(hub, sessionMgr, w, r)
			})
		},
		OnShutdown: func(shutdownCtx context.Context) {
			cancel()
			if err := redisClient.Close(); err != nil {
				zlog.Error().Err(err).Msg("error closing redis client")
			}
		},
	})
}
