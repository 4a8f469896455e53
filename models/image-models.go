package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Image is one uploaded asset. The payload is stored inline with its metadata.
type Image struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	OwnerID     string     `json:"owner_id" gorm:"size:36;not null;index"`
	Payload     []byte     `json:"-" gorm:"not null"`
	MimeType    string     `json:"mime_type" gorm:"size:32;not null"`
	Description string     `json:"description" gorm:"type:text"`
	Visibility  Visibility `json:"visibility" gorm:"size:16;not null;index;default:'public'"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Derived from the comments that reference this image, oldest first.
	CommentIDs []string `json:"comment_ids" gorm:"-"`
}

func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

func (i *Image) IsPublic() bool {
	return i.Visibility == VisibilityPublic
}
