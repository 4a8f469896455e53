// Package store defines the persistence contracts for users, images and
// comments. Backends live in the gormstore and mongostore subpackages.
package store

import (
	"context"
	"errors"

	"github.com/krishkalaria12/snap-gallery/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("record already exists")
	ErrEmptyUpload       = errors.New("no image data uploaded")
	ErrUnsupportedType   = errors.New("unsupported image type")
	ErrInvalidVisibility = errors.New("visibility must be public or private")
	ErrEmptyComment      = errors.New("comment text is required")
)

type NewImage struct {
	Payload     []byte
	MimeType    string
	Description string
	Visibility  models.Visibility
	OwnerID     string
}

// ImageFilter scopes an image listing. Zero fields match everything.
type ImageFilter struct {
	Visibility models.Visibility
	OwnerID    string
}

// ImageUpdate carries the mutable image metadata. An empty Visibility
// leaves the stored value unchanged.
type ImageUpdate struct {
	Description string
	Visibility  models.Visibility
}

type NewComment struct {
	Text    string
	Author  string
	ImageID string
	OwnerID string
}

type ImageStore interface {
	// Upload validates and persists an image together with its owner.
	Upload(ctx context.Context, in NewImage) (*models.Image, error)
	GetImage(ctx context.Context, id string) (*models.Image, error)
	// ListImages returns image metadata without payloads, newest first.
	ListImages(ctx context.Context, filter ImageFilter) ([]models.Image, error)
	UpdateImage(ctx context.Context, id string, in ImageUpdate) (*models.Image, error)
	// DeleteImage removes the image only; comments that reference it stay.
	DeleteImage(ctx context.Context, id string) error
	Payload(ctx context.Context, id string) ([]byte, string, error)
}

type CommentStore interface {
	// CreateComment fails with ErrNotFound when the image does not exist.
	CreateComment(ctx context.Context, in NewComment) (*models.Comment, error)
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	// ListComments returns the comments referencing imageID, oldest first.
	ListComments(ctx context.Context, imageID string) ([]models.Comment, error)
	UpdateComment(ctx context.Context, id, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

type UserStore interface {
	// CreateUser fails with ErrConflict when the username is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type Store interface {
	ImageStore
	CommentStore
	UserStore
	Close(ctx context.Context) error
}
