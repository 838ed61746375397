package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/HVQuoc/Tessenger/internal/auth"
	"github.com/HVQuoc/Tessenger/internal/config"
)

const writeWait = 10 * time.Second

// Service owns the registry, presence broadcaster, router, and heartbeat
// configuration, and runs the lifecycle of each WebSocket connection.
type Service struct {
	registry    *Registry
	broadcaster *Broadcaster
	router      *Router

	heartbeatInterval time.Duration
	pongTimeout       time.Duration
	sendBuffer        int

	logger *slog.Logger
}

// NewService wires the chat engine over the given message store.
func NewService(log *slog.Logger, store MessageStore, cfg config.ChatConfig) *Service {
	if log == nil {
		log = slog.Default()
	}
	registry := NewRegistry()
	return &Service{
		registry:          registry,
		broadcaster:       NewBroadcaster(log, registry),
		router:            NewRouter(log, registry, store),
		heartbeatInterval: cfg.Heartbeat(),
		pongTimeout:       cfg.Timeout(),
		sendBuffer:        cfg.Buffer(),
		logger:            log.With(slog.String("service", "chat")),
	}
}

// HandleConnection runs one verified connection to completion: admit,
// announce presence, pump reads and writes, probe liveness, and on exit
// evict exactly once and re-announce. It blocks until the connection is
// gone, whether by client close, transport error, or heartbeat death.
func (s *Service) HandleConnection(ctx context.Context, ws *websocket.Conn, identity auth.Identity) {
	conn := newConn(identity, s.sendBuffer)
	log := s.logger.With(
		slog.String("conn_id", conn.ID()),
		slog.String("user_id", identity.UserID),
		slog.String("username", identity.Username),
	)

	// Eviction may race between explicit close and heartbeat death; the
	// registry removal decides which path announces.
	evict := func() {
		conn.close()
		_ = ws.Close()
		if s.registry.Evict(conn) {
			log.Info("connection evicted", slog.Int("online", s.registry.Len()))
			s.broadcaster.Announce()
		}
	}

	s.registry.Admit(conn)
	log.Info("connection admitted", slog.Int("online", s.registry.Len()))
	s.broadcaster.Announce()

	monitor := NewMonitor(s.heartbeatInterval, s.pongTimeout, PingerFunc(func() error {
		return ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
	}), func() {
		log.Warn("heartbeat timeout, forcing eviction")
		evict()
	})
	ws.SetPongHandler(func(string) error {
		monitor.Pong()
		return nil
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go monitor.Run(runCtx)
	go s.writePump(ws, conn)

	s.readLoop(runCtx, ws, conn, log)
	evict()
}

// readLoop consumes inbound frames and routes them until the transport
// fails or the connection is closed. Routing runs synchronously here, so
// persisted order matches delivery-attempt order per sender.
func (s *Service) readLoop(ctx context.Context, ws *websocket.Conn, conn *Conn, log *slog.Logger) {
	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				log.Warn("read failed", slog.Any("error", err))
			}
			return
		}
		if err := s.router.Route(ctx, conn, payload); err != nil {
			log.Error("route failed", slog.Any("error", err))
		}
	}
}

// writePump drains the connection's outbound buffer onto the socket.
func (s *Service) writePump(ws *websocket.Conn, conn *Conn) {
	for {
		select {
		case <-conn.Done():
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case payload := <-conn.Outbound():
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				conn.close()
				return
			}
		}
	}
}
