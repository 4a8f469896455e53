package store

import (
	"testing"

	"github.com/krishkalaria12/snap-gallery/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name    string
		in      NewImage
		wantErr error
		want    NewImage
	}{
		{
			name:    "empty payload",
			in:      NewImage{MimeType: "image/png"},
			wantErr: ErrEmptyUpload,
		},
		{
			name:    "gif rejected",
			in:      NewImage{Payload: []byte("GIF89a"), MimeType: "image/gif"},
			wantErr: ErrUnsupportedType,
		},
		{
			name:    "missing mime type",
			in:      NewImage{Payload: []byte{1}},
			wantErr: ErrUnsupportedType,
		},
		{
			name:    "bad visibility",
			in:      NewImage{Payload: []byte{1}, MimeType: "image/png", Visibility: "friends"},
			wantErr: ErrInvalidVisibility,
		},
		{
			name: "normalizes mime and defaults to public",
			in:   NewImage{Payload: []byte{1}, MimeType: " Image/JPEG; charset=binary"},
			want: NewImage{Payload: []byte{1}, MimeType: "image/jpeg", Visibility: models.VisibilityPublic},
		},
		{
			name: "jpg alias kept",
			in:   NewImage{Payload: []byte{1}, MimeType: "image/jpg", Visibility: "PRIVATE"},
			want: NewImage{Payload: []byte{1}, MimeType: "image/jpg", Visibility: models.VisibilityPrivate},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			err := ValidateUpload(&in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, in)
		})
	}
}

func TestValidateCommentText(t *testing.T) {
	_, err := ValidateCommentText("   ")
	assert.ErrorIs(t, err, ErrEmptyComment)

	text, err := ValidateCommentText("  nice shot ")
	require.NoError(t, err)
	assert.Equal(t, "nice shot", text)
}
