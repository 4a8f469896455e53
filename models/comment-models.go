package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment belongs to exactly one image, checked once when it is created.
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	Author    string    `json:"author" gorm:"size:64;not null"`
	OwnerID   string    `json:"owner_id" gorm:"size:36;not null;index"`
	ImageID   string    `json:"image_id" gorm:"size:36;not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
