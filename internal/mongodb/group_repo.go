package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/chatgrid/chat-service/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type GroupRepository struct {
	db *mongo.Database
}

func NewGroupRepository(db *mongo.Database) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) groups() *mongo.Collection { return r.db.Collection(collGroups) }
func (r *GroupRepository) users() *mongo.Collection  { return r.db.Collection(collUsers) }

func (r *GroupRepository) Get(ctx context.Context, id string) (*domain.Group, error) {
	var g domain.Group
	err := r.groups().FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}
	return &g, nil
}

// AppendMessage — единственная запись на событие: атомарный $push в
// append-only историю документа группы.
func (r *GroupRepository) AppendMessage(ctx context.Context, groupID string, msg domain.ChatMessage) error {
	res, err := r.groups().UpdateOne(ctx,
		bson.M{"_id": groupID},
		bson.M{"$push": bson.M{"messages": msg}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}

// CreateWithOwner создаёт группу и обновляет индекс «мои группы» владельца
// в одной multi-document транзакции: либо оба документа, либо ни одного.
func (r *GroupRepository) CreateWithOwner(ctx context.Context, g *domain.Group) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		if _, err := r.groups().InsertOne(sc, g); err != nil {
			return nil, err
		}
		// upsert: профиля может ещё не быть
		ref := domain.GroupRef{ID: g.ID, Name: g.Name}
		_, err := r.users().UpdateOne(sc,
			bson.M{"_id": g.OwnerID},
			bson.M{"$push": bson.M{"groups": ref}},
			options.Update().SetUpsert(true),
		)
		return nil, err
	})
	return err
}

// Join добавляет пользователя в durable-состав группы и группу в его индекс,
// транзакционно. Возвращает обновлённую запись группы из хранилища.
// Кэш составов живых сессий здесь не трогается: подключённые клиенты увидят
// нового участника только после его коннекта.
func (r *GroupRepository) Join(ctx context.Context, groupID, userID string) (*domain.Group, error) {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	res, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		var g domain.Group
		err := r.groups().FindOneAndUpdate(sc,
			bson.M{"_id": groupID},
			bson.M{"$addToSet": bson.M{"members": userID}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&g)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, domain.ErrGroupNotFound
			}
			return nil, err
		}

		ref := domain.GroupRef{ID: g.ID, Name: g.Name}
		if _, err := r.users().UpdateOne(sc,
			bson.M{"_id": userID},
			bson.M{"$addToSet": bson.M{"groups": ref}},
			options.Update().SetUpsert(true),
		); err != nil {
			return nil, err
		}
		return &g, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*domain.Group), nil
}
