// Package storage contains the asset store used for book cover images.
// Backends hold whole images in memory; covers are small and size-limited upstream.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrUpload is returned by AssetStore.Upload when the image could not be stored.
	ErrUpload = errors.New("asset upload failed")
	// ErrRemoval is returned by AssetStore.Remove when the provider rejects the removal.
	ErrRemoval = errors.New("asset removal failed")
	// ErrUnsupportedFormat is an upload failure caused by an image that is not JPEG or PNG.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported image format", ErrUpload)
)

// CoverPrefix is the folder (or key prefix) covers are stored under.
const CoverPrefix = "covers"

// Asset identifies an uploaded image. URL is public; Handle is only used for removal.
type Asset struct {
	URL    string
	Handle string
}

// AssetStore is a remote image host.
type AssetStore interface {
	// Upload stores the image and returns both its public URL and removal handle.
	// Only JPEG and PNG are accepted. No partial results are returned on error.
	Upload(ctx context.Context, data []byte, contentType string) (Asset, error)
	// Remove deletes a previously uploaded asset. Unknown handles are treated as
	// already removed.
	Remove(ctx context.Context, handle string) error
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// DetectImageType sniffs data and returns its MIME type and file extension.
// The declared content type of an upload is not trusted.
func DetectImageType(data []byte) (contentType string, ext string, err error) {
	if len(data) == 0 {
		return "", "", fmt.Errorf("%w: empty image", ErrUnsupportedFormat)
	}
	m := mimetype.Detect(data)
	for ct, ext := range imageExtensions {
		if m.Is(ct) {
			return ct, ext, nil
		}
	}
	return "", "", fmt.Errorf("%w: detected %s", ErrUnsupportedFormat, m.String())
}
