package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/chatgrid/chat-service/internal/domain"

	"github.com/google/uuid"
)

type GroupStore interface {
	Get(ctx context.Context, id string) (*domain.Group, error)
	CreateWithOwner(ctx context.Context, g *domain.Group) error
	Join(ctx context.Context, groupID, userID string) (*domain.Group, error)
}

type ProfileStore interface {
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
}

type GroupService struct {
	groups   GroupStore
	profiles ProfileStore
}

func NewGroupService(groups GroupStore, profiles ProfileStore) *GroupService {
	return &GroupService{groups: groups, profiles: profiles}
}

// ListGroups возвращает индекс «мои группы»; отсутствие профиля — пустой
// список, не ошибка.
func (s *GroupService) ListGroups(ctx context.Context, userID string) ([]domain.GroupRef, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return []domain.GroupRef{}, nil
		}
		return nil, err
	}
	if profile.Groups == nil {
		return []domain.GroupRef{}, nil
	}
	return profile.Groups, nil
}

// CreateGroup создаёт группу с владельцем в составе; запись группы и индекс
// профиля коммитятся вместе или не коммитятся вовсе.
func (s *GroupService) CreateGroup(ctx context.Context, userID, name string) (*domain.Group, error) {
	g := &domain.Group{
		ID:       uuid.NewString(),
		OwnerID:  userID,
		Name:     name,
		Members:  []string{userID},
		Messages: []domain.ChatMessage{},
	}
	if err := s.groups.CreateWithOwner(ctx, g); err != nil {
		return nil, fmt.Errorf("groups.CreateWithOwner: %w", err)
	}
	return g, nil
}

// JoinGroup возвращает durable-запись группы после вступления.
func (s *GroupService) JoinGroup(ctx context.Context, userID, groupID string) (*domain.Group, error) {
	g, err := s.groups.Join(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// GroupForMember отдаёт запись группы с историей только участнику.
func (s *GroupService) GroupForMember(ctx context.Context, groupID, userID string) (*domain.Group, error) {
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.HasMember(userID) {
		return nil, domain.ErrNotMember
	}
	return g, nil
}
