package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/krishkalaria12/snap-gallery/models"
	"github.com/krishkalaria12/snap-gallery/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// commentOrder is oldest first. created_at is stored at millisecond
// precision, so ties fall back to the ObjectID, which grows with insertion.
var commentOrder = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

type commentDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Text      string        `bson:"text"`
	Author    string        `bson:"author"`
	OwnerID   string        `bson:"owner_id"`
	ImageID   string        `bson:"image_id"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

func (d commentDoc) model() models.Comment {
	return models.Comment{
		ID:        d.ID.Hex(),
		Text:      d.Text,
		Author:    d.Author,
		OwnerID:   d.OwnerID,
		ImageID:   d.ImageID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (s *Store) CreateComment(ctx context.Context, in store.NewComment) (*models.Comment, error) {
	text, err := store.ValidateCommentText(in.Text)
	if err != nil {
		return nil, err
	}

	imageOID, err := bson.ObjectIDFromHex(in.ImageID)
	if err != nil {
		return nil, store.ErrNotFound
	}
	opts := options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})
	if err := s.images.FindOne(ctx, bson.M{"_id": imageOID}, opts).Err(); err != nil {
		return nil, translate(err)
	}

	now := time.Now().UTC()
	doc := commentDoc{
		ID:        bson.NewObjectID(),
		Text:      text,
		Author:    in.Author,
		OwnerID:   in.OwnerID,
		ImageID:   in.ImageID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.comments.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	comment := doc.model()
	return &comment, nil
}

func (s *Store) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	var doc commentDoc
	if err := s.comments.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	comment := doc.model()
	return &comment, nil
}

func (s *Store) ListComments(ctx context.Context, imageID string) ([]models.Comment, error) {
	opts := options.Find().SetSort(commentOrder)
	cursor, err := s.comments.Find(ctx, bson.M{"image_id": imageID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	var docs []commentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	comments := make([]models.Comment, 0, len(docs))
	for _, d := range docs {
		comments = append(comments, d.model())
	}
	return comments, nil
}

func (s *Store) UpdateComment(ctx context.Context, id, text string) (*models.Comment, error) {
	text, err := store.ValidateCommentText(text)
	if err != nil {
		return nil, err
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	update := bson.M{"$set": bson.M{"text": text, "updated_at": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc commentDoc
	if err := s.comments.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	comment := doc.model()
	return &comment, nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}

	result, err := s.comments.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if result.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
