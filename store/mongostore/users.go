package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/krishkalaria12/snap-gallery/models"
	"github.com/krishkalaria12/snap-gallery/store"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type userDoc struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Username     string        `bson:"username"`
	PasswordHash string        `bson:"password_hash"`
	CreatedAt    time.Time     `bson:"created_at"`
}

func (d userDoc) model() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	doc := userDoc{
		ID:           bson.NewObjectID(),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if translated := translate(err); translated == store.ErrConflict {
			return translated
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = doc.ID.Hex()
	user.CreatedAt = doc.CreatedAt
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.model(), nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.model(), nil
}
