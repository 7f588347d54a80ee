package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDownloadURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already encoded passes through",
			input: "https://cdn.example.com/o/albumPhotos%2Fabc%2Fphoto.jpg?alt=media",
			want:  "https://cdn.example.com/o/albumPhotos%2Fabc%2Fphoto.jpg?alt=media",
		},
		{
			name:  "decoded path is re-escaped",
			input: "https://cdn.example.com/o/albumPhotos/abc/photo.jpg?alt=media",
			want:  "https://cdn.example.com/o/albumPhotos%2Fabc%2Fphoto.jpg?alt=media",
		},
		{
			name:  "decoded path without query",
			input: "https://cdn.example.com/o/events/xyz/photo.jpg",
			want:  "https://cdn.example.com/o/events%2Fxyz%2Fphoto.jpg",
		},
		{
			name:  "no object marker passes through",
			input: "https://cdn.example.com/bucket/photo.jpg",
			want:  "https://cdn.example.com/bucket/photo.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDownloadURL(tt.input))
		})
	}
}

func TestObjectNameKeepsExtension(t *testing.T) {
	name := objectName("IMG_1234.HEIC")
	assert.NotEqual(t, "IMG_1234.HEIC", name)
	assert.Contains(t, name, ".HEIC")

	noExt := objectName("snapshot")
	assert.NotContains(t, noExt, ".")
}
