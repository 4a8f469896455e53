// Package gormstore implements store.Store on top of gorm.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/krishkalaria12/snap-gallery/models"
	"github.com/krishkalaria12/snap-gallery/store"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate runs auto migration for the gallery models.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&models.User{}, &models.Image{}, &models.Comment{})
}

func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Upload(ctx context.Context, in store.NewImage) (*models.Image, error) {
	if err := store.ValidateUpload(&in); err != nil {
		return nil, err
	}

	image := models.Image{
		OwnerID:     in.OwnerID,
		Payload:     in.Payload,
		MimeType:    in.MimeType,
		Description: in.Description,
		Visibility:  in.Visibility,
	}
	if err := s.db.WithContext(ctx).Create(&image).Error; err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	image.CommentIDs = []string{}
	return &image, nil
}

func (s *Store) GetImage(ctx context.Context, id string) (*models.Image, error) {
	db := s.db.WithContext(ctx)

	var image models.Image
	if err := db.First(&image, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}

	image.CommentIDs = []string{}
	err := db.Model(&models.Comment{}).
		Where("image_id = ?", id).
		Order("created_at ASC").
		Pluck("id", &image.CommentIDs).Error
	if err != nil {
		return nil, fmt.Errorf("load comment ids: %w", err)
	}
	return &image, nil
}

func (s *Store) ListImages(ctx context.Context, filter store.ImageFilter) ([]models.Image, error) {
	query := s.db.WithContext(ctx).Omit("payload").Order("created_at DESC")
	if filter.Visibility != "" {
		query = query.Where("visibility = ?", filter.Visibility)
	}
	if filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}

	images := []models.Image{}
	if err := query.Find(&images).Error; err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return images, nil
}

func (s *Store) UpdateImage(ctx context.Context, id string, in store.ImageUpdate) (*models.Image, error) {
	updates := map[string]any{"description": in.Description}
	if in.Visibility != "" {
		visibility, err := store.ParseVisibility(string(in.Visibility))
		if err != nil {
			return nil, err
		}
		updates["visibility"] = visibility
	}

	result := s.db.WithContext(ctx).Model(&models.Image{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("update image: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetImage(ctx, id)
}

func (s *Store) DeleteImage(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.Image{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete image: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Payload(ctx context.Context, id string) ([]byte, string, error) {
	var image models.Image
	err := s.db.WithContext(ctx).Select("payload", "mime_type").First(&image, "id = ?", id).Error
	if err != nil {
		return nil, "", translate(err)
	}
	return image.Payload, image.MimeType, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return store.ErrConflict
	}
	return err
}
