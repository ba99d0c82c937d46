package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	autherrors "activerse/internal/auth/errors"
	"activerse/pkg/config"
	"activerse/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	ResetTokensCollection = "Password_reset_tokens"
)

type ResetTokenRepository interface {
	Create(ctx context.Context, token *model.PasswordResetToken) error
	FindValid(ctx context.Context, token string) (*model.PasswordResetToken, error)
	MarkUsed(ctx context.Context, token string) error
	DeleteByUserID(ctx context.Context, userID string) error
}

type mongoResetTokenRepository struct {
	collection *mongo.Collection
}

func NewMongoResetTokenRepository(cfg *config.Config) ResetTokenRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoResetTokenRepository{
		collection: db.Collection(ResetTokensCollection),
	}
}

func (r *mongoResetTokenRepository) Create(ctx context.Context, token *model.PasswordResetToken) error {
	token.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	_, err := r.collection.InsertOne(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// FindValid returns the token only while unexpired and unused.
func (r *mongoResetTokenRepository) FindValid(ctx context.Context, token string) (*model.PasswordResetToken, error) {
	filter := bson.M{
		"_id":        token,
		"expires_at": bson.M{"$gt": time.Now()},
		"used":       false,
	}

	var row model.PasswordResetToken
	err := r.collection.FindOne(ctx, filter).Decode(&row)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, autherrors.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to find reset token: %w", err)
	}

	return &row, nil
}

func (r *mongoResetTokenRepository) MarkUsed(ctx context.Context, token string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": token},
		bson.M{"$set": bson.M{"used": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark reset token used: %w", err)
	}
	if result.MatchedCount == 0 {
		return autherrors.ErrTokenNotFound
	}
	return nil
}

func (r *mongoResetTokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete reset tokens: %w", err)
	}
	return nil
}
