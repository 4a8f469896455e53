package mongostore

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/krishkalaria12/snap-gallery/models"
	"github.com/krishkalaria12/snap-gallery/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// newTestStore connects to MONGO_TEST_URI and uses a throwaway database.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := "gallery_test_" + uuid.NewString()[:8]
	s := New(client, dbName)
	require.NoError(t, s.EnsureIndexes(ctx))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = client.Database(dbName).Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func TestImagesAndComments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	payload := []byte("\x89PNG\r\n\x1a\nbody")

	private, err := s.Upload(ctx, store.NewImage{Payload: payload, MimeType: "image/png", Description: "sunset", Visibility: models.VisibilityPrivate, OwnerID: "alice"})
	require.NoError(t, err)
	public, err := s.Upload(ctx, store.NewImage{Payload: payload, MimeType: "image/jpeg", Visibility: models.VisibilityPublic, OwnerID: "alice"})
	require.NoError(t, err)

	listed, err := s.ListImages(ctx, store.ImageFilter{Visibility: models.VisibilityPublic})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, public.ID, listed[0].ID)
	assert.Nil(t, listed[0].Payload)

	data, mimeType, err := s.Payload(ctx, private.ID)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, data))
	assert.Equal(t, "image/png", mimeType)

	comment, err := s.CreateComment(ctx, store.NewComment{Text: "nice", Author: "bob", ImageID: private.ID, OwnerID: "bob"})
	require.NoError(t, err)

	got, err := s.GetImage(ctx, private.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{comment.ID}, got.CommentIDs)

	require.NoError(t, s.DeleteImage(ctx, private.ID))
	_, err = s.GetImage(ctx, private.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	orphan, err := s.GetComment(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, private.ID, orphan.ImageID)

	_, err = s.CreateComment(ctx, store.NewComment{Text: "late", Author: "bob", ImageID: private.ID, OwnerID: "bob"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsersUniqueUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := &models.User{Username: "alice", PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(ctx, alice))

	got, err := s.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	assert.ErrorIs(t, s.CreateUser(ctx, &models.User{Username: "alice", PasswordHash: "x"}), store.ErrConflict)
}

func TestInvalidIDsAreNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetImage(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetComment(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteImage(ctx, "nope"), store.ErrNotFound)
}

func TestCommentsWithEqualTimestampsKeepInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	image, err := s.Upload(ctx, store.NewImage{Payload: []byte("\x89PNG\r\n\x1a\nbody"), MimeType: "image/png", OwnerID: "alice"})
	require.NoError(t, err)

	at := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]commentDoc, 5)
	want := make([]string, 0, len(docs))
	for i := range docs {
		docs[i] = commentDoc{ID: bson.NewObjectID(), Text: "same instant", Author: "bob", OwnerID: "bob", ImageID: image.ID, CreatedAt: at, UpdatedAt: at}
		want = append(want, docs[i].ID.Hex())
	}
	// Insert newest first so natural order disagrees with id order.
	for i := len(docs) - 1; i >= 0; i-- {
		_, err := s.comments.InsertOne(ctx, docs[i])
		require.NoError(t, err)
	}

	comments, err := s.ListComments(ctx, image.ID)
	require.NoError(t, err)
	got := make([]string, 0, len(comments))
	for _, c := range comments {
		got = append(got, c.ID)
	}
	assert.Equal(t, want, got)

	loaded, err := s.GetImage(ctx, image.ID)
	require.NoError(t, err)
	assert.Equal(t, want, loaded.CommentIDs)
}
