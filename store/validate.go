package store

import (
	"strings"

	"github.com/krishkalaria12/snap-gallery/models"
)

var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// ValidateUpload checks an upload before anything is written and normalizes
// its mime type and visibility in place.
func ValidateUpload(in *NewImage) error {
	if len(in.Payload) == 0 {
		return ErrEmptyUpload
	}

	mimeType := strings.ToLower(strings.TrimSpace(in.MimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !allowedMimeTypes[mimeType] {
		return ErrUnsupportedType
	}
	in.MimeType = mimeType

	visibility, err := ParseVisibility(string(in.Visibility))
	if err != nil {
		return err
	}
	in.Visibility = visibility
	return nil
}

// ParseVisibility maps form input to a Visibility. Blank input is public.
func ParseVisibility(raw string) (models.Visibility, error) {
	switch models.Visibility(strings.ToLower(strings.TrimSpace(raw))) {
	case "", models.VisibilityPublic:
		return models.VisibilityPublic, nil
	case models.VisibilityPrivate:
		return models.VisibilityPrivate, nil
	default:
		return "", ErrInvalidVisibility
	}
}

func ValidateCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyComment
	}
	return text, nil
}
