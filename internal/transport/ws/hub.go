package ws

import (
	"log/slog"
	"sync"

	"github.com/chatgrid/chat-service/internal/domain"
	"github.com/chatgrid/chat-service/internal/registry"
)

type Conn interface {
	Send(msg domain.ChatMessage) error
	Close() error
	UserID() string
	GroupID() string
}

// Hub — реестр живых соединений, сгруппированных по groupID.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[Conn]struct{} // groupID -> set of connections
	reg    *registry.Registry
}

func NewHub(reg *registry.Registry) *Hub {
	return &Hub{
		groups: make(map[string]map[Conn]struct{}),
		reg:    reg,
	}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	gs, ok := h.groups[c.GroupID()]
	if !ok {
		gs = make(map[Conn]struct{})
		h.groups[c.GroupID()] = gs
	}
	gs[c] = struct{}{}
}

func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if gs, ok := h.groups[c.GroupID()]; ok {
		delete(gs, c)
		if len(gs) == 0 {
			delete(h.groups, c.GroupID())
		}
	}
}

// Broadcast доставляет сообщение каждому живому соединению группы, чей
// пользователь всё ещё в кэшированном составе. Рассылка идёт по снапшоту:
// дисконнект посреди итерации не ломает обход, исчезнувший получатель —
// просто недоставка. Ошибка Send одного соединения не трогает остальные.
func (h *Hub) Broadcast(groupID string, msg domain.ChatMessage) {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.groups[groupID]))
	for c := range h.groups[groupID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if !h.reg.IsMember(groupID, c.UserID()) {
			continue
		}
		if err := c.Send(msg); err != nil {
			slog.Debug("ws send failed", "group", groupID, "user", c.UserID(), "err", err)
		}
	}
}
