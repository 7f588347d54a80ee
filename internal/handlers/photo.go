package handlers

import (
	"fmt"
	"net/http"

	"celebration-backend/internal/services"
)

const (
	maxUploadFiles  = 20
	maxUploadMemory = 32 << 20 // 32 MB before spilling to disk
)

// parseUploads reads the "photos" files out of a multipart form.
func parseUploads(r *http.Request, maxFiles int) ([]services.Upload, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	files := r.MultipartForm.File["photos"]
	if len(files) > maxFiles {
		return nil, fmt.Errorf("at most %d photos per request", maxFiles)
	}

	uploads := make([]services.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}
		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "image/jpeg"
		}
		uploads = append(uploads, services.Upload{
			Filename:    fh.Filename,
			ContentType: contentType,
			Body:        f,
		})
	}
	return uploads, nil
}
