// Package mongostore implements store.Store on a MongoDB database.
//
// Documents use ObjectIDs; the hex form is what the rest of the app sees.
// An image's comment list is read from the comments collection, so creating
// or deleting a comment is a single-document write.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/krishkalaria12/snap-gallery/models"
	"github.com/krishkalaria12/snap-gallery/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	usersCollection    = "users"
	imagesCollection   = "images"
	commentsCollection = "comments"
)

type Store struct {
	client   *mongo.Client
	users    *mongo.Collection
	images   *mongo.Collection
	comments *mongo.Collection
}

var _ store.Store = (*Store)(nil)

func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:   client,
		users:    db.Collection(usersCollection),
		images:   db.Collection(imagesCollection),
		comments: db.Collection(commentsCollection),
	}
}

// EnsureIndexes creates the unique username index and the lookup indexes
// used by listings.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}

	_, err = s.images.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "visibility", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("images index: %w", err)
	}

	_, err = s.comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "image_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("comments index: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type imageDoc struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	OwnerID     string        `bson:"owner_id"`
	Payload     []byte        `bson:"payload,omitempty"`
	MimeType    string        `bson:"mime_type"`
	Description string        `bson:"description"`
	Visibility  string        `bson:"visibility"`
	CreatedAt   time.Time     `bson:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at"`
}

func (d imageDoc) model() models.Image {
	return models.Image{
		ID:          d.ID.Hex(),
		OwnerID:     d.OwnerID,
		Payload:     d.Payload,
		MimeType:    d.MimeType,
		Description: d.Description,
		Visibility:  models.Visibility(d.Visibility),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (s *Store) Upload(ctx context.Context, in store.NewImage) (*models.Image, error) {
	if err := store.ValidateUpload(&in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := imageDoc{
		ID:          bson.NewObjectID(),
		OwnerID:     in.OwnerID,
		Payload:     in.Payload,
		MimeType:    in.MimeType,
		Description: in.Description,
		Visibility:  string(in.Visibility),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.images.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert image: %w", err)
	}

	image := doc.model()
	image.CommentIDs = []string{}
	return &image, nil
}

func (s *Store) GetImage(ctx context.Context, id string) (*models.Image, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	var doc imageDoc
	if err := s.images.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}

	image := doc.model()
	image.CommentIDs, err = s.commentIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (s *Store) commentIDs(ctx context.Context, imageID string) ([]string, error) {
	opts := options.Find().
		SetSort(commentOrder).
		SetProjection(bson.D{{Key: "_id", Value: 1}})

	cursor, err := s.comments.Find(ctx, bson.M{"image_id": imageID}, opts)
	if err != nil {
		return nil, fmt.Errorf("load comment ids: %w", err)
	}

	var docs []struct {
		ID bson.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("load comment ids: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID.Hex())
	}
	return ids, nil
}

func (s *Store) ListImages(ctx context.Context, filter store.ImageFilter) ([]models.Image, error) {
	query := bson.M{}
	if filter.Visibility != "" {
		query["visibility"] = string(filter.Visibility)
	}
	if filter.OwnerID != "" {
		query["owner_id"] = filter.OwnerID
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.D{{Key: "payload", Value: 0}})

	cursor, err := s.images.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	var docs []imageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	images := make([]models.Image, 0, len(docs))
	for _, d := range docs {
		images = append(images, d.model())
	}
	return images, nil
}

func (s *Store) UpdateImage(ctx context.Context, id string, in store.ImageUpdate) (*models.Image, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	set := bson.M{"description": in.Description, "updated_at": time.Now().UTC()}
	if in.Visibility != "" {
		visibility, err := store.ParseVisibility(string(in.Visibility))
		if err != nil {
			return nil, err
		}
		set["visibility"] = string(visibility)
	}

	result, err := s.images.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("update image: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetImage(ctx, id)
}

func (s *Store) DeleteImage(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}

	result, err := s.images.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if result.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Payload(ctx context.Context, id string) ([]byte, string, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, "", store.ErrNotFound
	}

	opts := options.FindOne().SetProjection(bson.D{{Key: "payload", Value: 1}, {Key: "mime_type", Value: 1}})
	var doc imageDoc
	if err := s.images.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc); err != nil {
		return nil, "", translate(err)
	}
	return doc.Payload, doc.MimeType, nil
}

func translate(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrConflict
	}
	return err
}
