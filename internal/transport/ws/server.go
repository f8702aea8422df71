package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/chatgrid/chat-service/internal/domain"
	"github.com/chatgrid/chat-service/internal/identity"
	"github.com/chatgrid/chat-service/internal/registry"

	"github.com/gorilla/websocket"
)

type GroupFetcher interface {
	Get(ctx context.Context, id string) (*domain.Group, error)
}

type ChatSvc interface {
	PostUserMessage(ctx context.Context, groupID, userID, text string) (*domain.ChatMessage, error)
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	reg      *registry.Registry
	ident    identity.Resolver
	groups   GroupFetcher
	chatSvc  ChatSvc

	pingEvery time.Duration
}

func NewServer(hub *Hub, reg *registry.Registry, ident identity.Resolver, groups GroupFetcher, chat ChatSvc) *Server {
	return &Server{
		hub:     hub,
		reg:     reg,
		ident:   ident,
		groups:  groups,
		chatSvc: chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws?userId=...&groupId=...
//
// Все провалы коннекта — отсутствующие параметры, неизвестный пользователь,
// несуществующая группа, не-участник — закрываются одним кодом 4001 без
// деталей. Частичное состояние после провала не остаётся.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := strings.TrimSpace(q.Get("userId"))
	groupID := strings.TrimSpace(q.Get("groupId"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	if userID == "" || groupID == "" {
		closeUnauthorized(conn)
		return
	}

	profile, err := s.ident.Resolve(r.Context(), userID)
	if err != nil {
		slog.Debug("ws identity check failed", "user", userID, "err", err)
		closeUnauthorized(conn)
		return
	}

	group, err := s.groups.Get(r.Context(), groupID)
	if err != nil {
		slog.Debug("ws group fetch failed", "group", groupID, "err", err)
		closeUnauthorized(conn)
		return
	}
	if !group.HasMember(userID) {
		closeUnauthorized(conn)
		return
	}

	// успешная аутентификация: кэш пользователей + свежий снапшот состава
	s.reg.UpsertUser(userID, profile.DisplayName())
	s.reg.SetMembers(groupID, group.Members)

	c := newWSConn(conn, groupID, userID)
	s.hub.Add(c)
	slog.Info("ws connected", "group", groupID, "user", userID)

	go s.writeLoop(r.Context(), c)
	s.readLoop(r.Context(), c)

	// дисконнект: только процессный кэш, durable-членство не трогаем
	s.hub.Remove(c)
	s.reg.RemoveUser(userID)
	_ = c.Close()
	slog.Info("ws disconnected", "group", groupID, "user", userID)
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		// входящий фрейм — сырой текст
		msg, err := s.chatSvc.PostUserMessage(ctx, c.groupID, c.userID, string(data))
		switch {
		case err == nil:
			s.hub.Broadcast(c.groupID, *msg)
		case errors.Is(err, domain.ErrEmptyMessage), errors.Is(err, domain.ErrMessageTooLong):
			// молча пропускаем
		case errors.Is(err, domain.ErrNotConnected):
			// сессия испарилась между фреймами
			closeUnauthorized(c.conn)
			return
		default:
			slog.Warn("ws message rejected", "group", c.groupID, "user", c.userID, "err", err)
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

func closeUnauthorized(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(CloseUnauthorized, CloseReasonUnauthorized)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}

// --- wsConn ---

type wsConn struct {
	conn    *websocket.Conn
	groupID string
	userID  string
	sendMu  chan struct{}
	closed  chan struct{}
}

func newWSConn(c *websocket.Conn, groupID, userID string) *wsConn {
	return &wsConn{
		conn:    c,
		groupID: groupID,
		userID:  userID,
		sendMu:  make(chan struct{}, 1),
		closed:  make(chan struct{}),
	}
}

func (c *wsConn) Send(msg domain.ChatMessage) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) UserID() string  { return c.userID }
func (c *wsConn) GroupID() string { return c.groupID }
