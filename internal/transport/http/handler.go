package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/chatgrid/chat-service/internal/domain"
	"github.com/chatgrid/chat-service/pkg/errs"
	"github.com/chatgrid/chat-service/pkg/httputil"

	"github.com/samber/lo"
)

type GroupSvc interface {
	ListGroups(ctx context.Context, userID string) ([]domain.GroupRef, error)
	CreateGroup(ctx context.Context, userID, name string) (*domain.Group, error)
	JoinGroup(ctx context.Context, userID, groupID string) (*domain.Group, error)
	GroupForMember(ctx context.Context, groupID, userID string) (*domain.Group, error)
}

type ChatSvc interface {
	AskAssistant(ctx context.Context, groupID, userID string, prior []string, query string) (*domain.ChatMessage, error)
}

type Broadcaster interface {
	Broadcast(groupID string, msg domain.ChatMessage)
}

// MemberCache — процессный кэш составов; после вступления дописываем
// участника в уже существующий снапшот.
type MemberCache interface {
	AddMember(groupID, userID string)
}

type Handler struct {
	groupSvc GroupSvc
	chatSvc  ChatSvc
	hub      Broadcaster
	cache    MemberCache
}

func NewHandler(group GroupSvc, chat ChatSvc, hub Broadcaster, cache MemberCache) *Handler {
	return &Handler{groupSvc: group, chatSvc: chat, hub: hub, cache: cache}
}

// canonErr приводит доменные ошибки к таксономии pkg/errs; статус на выходе
// хендлера всегда считается через errs.ToHTTP.
func canonErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotConnected):
		return fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	case errors.Is(err, domain.ErrNotMember):
		return fmt.Errorf("%w: %v", errs.ErrForbidden, err)
	case errors.Is(err, domain.ErrGroupNotFound),
		errors.Is(err, domain.ErrProfileNotFound):
		return fmt.Errorf("%w: %v", errs.ErrNotFound, err)
	default:
		return err
	}
}

func writeErr(w http.ResponseWriter, op string, err error) {
	status := errs.ToHTTP(canonErr(err))
	if status >= http.StatusInternalServerError {
		slog.Error(op, slog.Any("err", err))
	}
	httputil.Error(w, status, err.Error())
}

// POST /chat — запрос к ассистенту; ответ уходит broadcast-ом в группу,
// телу ответа ничего не возвращаем.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == "" || req.GroupID == "" || req.Data == nil {
		httputil.Error(w, errs.ToHTTP(errs.ErrMissingParameter),
			"userId, groupId and data are required")
		return
	}

	prior := lo.Map(req.Data.Messages, func(t ChatTurn, _ int) string { return t.Message })

	msg, err := h.chatSvc.AskAssistant(r.Context(), req.GroupID, req.UserID, prior, req.Data.Query)
	if err != nil {
		writeErr(w, "handler.Chat:", err)
		return
	}

	h.hub.Broadcast(req.GroupID, *msg)
	httputil.JSON(w, http.StatusOK, nil)
}

// GET /messages?groupId=&userId= — запись группы с историей, только участнику.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	groupID := r.URL.Query().Get("groupId")
	userID := r.URL.Query().Get("userId")
	if groupID == "" || userID == "" {
		httputil.Error(w, errs.ToHTTP(errs.ErrMissingParameter),
			"groupId and userId are required")
		return
	}

	group, err := h.groupSvc.GroupForMember(r.Context(), groupID, userID)
	if err != nil {
		writeErr(w, "handler.GetMessages:", err)
		return
	}

	httputil.OK(w, group)
}

// GET /groups?userId= — индекс «мои группы»; нет профиля — пустой список.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		httputil.Error(w, errs.ToHTTP(errs.ErrMissingParameter), "userId is required")
		return
	}

	groups, err := h.groupSvc.ListGroups(r.Context(), userID)
	if err != nil {
		writeErr(w, "handler.ListGroups:", err)
		return
	}

	httputil.OK(w, groups)
}

// POST /groups — создать группу; запись группы и индекс профиля атомарны.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == "" || req.GroupName == "" {
		httputil.Error(w, errs.ToHTTP(errs.ErrMissingParameter),
			"userId and groupName are required")
		return
	}

	group, err := h.groupSvc.CreateGroup(r.Context(), req.UserID, req.GroupName)
	if err != nil {
		writeErr(w, "handler.CreateGroup:", err)
		return
	}

	httputil.OK(w, CreateGroupResponse{
		UserID:    req.UserID,
		GroupID:   group.ID,
		GroupName: group.Name,
	})
}

// PATCH /groups — вступить в группу; возвращает durable-запись.
// Вступившего дописываем в кэшированный снапшот его группы; чужие снапшоты
// не пере-синхронизируются — подключённые клиенты других участников увидят
// его только после его собственного коннекта.
func (h *Handler) JoinGroup(w http.ResponseWriter, r *http.Request) {
	var req JoinGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == "" || req.GroupID == "" {
		httputil.Error(w, errs.ToHTTP(errs.ErrMissingParameter),
			"userId and groupId are required")
		return
	}

	group, err := h.groupSvc.JoinGroup(r.Context(), req.UserID, req.GroupID)
	if err != nil {
		writeErr(w, "handler.JoinGroup:", err)
		return
	}

	h.cache.AddMember(req.GroupID, req.UserID)
	httputil.OK(w, group)
}
