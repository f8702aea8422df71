package mongodb

import (
	"context"
	"errors"

	"github.com/chatgrid/chat-service/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type ProfileRepository struct {
	db *mongo.Database
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	err := r.db.Collection(collUsers).FindOne(ctx, bson.M{"_id": userID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}
