package gormstore

import (
	"context"
	"fmt"

	"github.com/krishkalaria12/snap-gallery/models"
	"github.com/krishkalaria12/snap-gallery/store"
	"gorm.io/gorm"
)

// CreateComment checks the parent image and inserts the comment in one
// transaction. The image's comment list is derived, so nothing else is written.
func (s *Store) CreateComment(ctx context.Context, in store.NewComment) (*models.Comment, error) {
	text, err := store.ValidateCommentText(in.Text)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		Text:    text,
		Author:  in.Author,
		OwnerID: in.OwnerID,
		ImageID: in.ImageID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent models.Image
		if err := tx.Select("id").First(&parent, "id = ?", in.ImageID).Error; err != nil {
			return translate(err)
		}
		return tx.Create(&comment).Error
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *Store) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

func (s *Store) ListComments(ctx context.Context, imageID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := s.db.WithContext(ctx).
		Where("image_id = ?", imageID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *Store) UpdateComment(ctx context.Context, id, text string) (*models.Comment, error) {
	text, err := store.ValidateCommentText(text)
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("text", text)
	if result.Error != nil {
		return nil, fmt.Errorf("update comment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetComment(ctx, id)
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete comment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
