package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"bookapi/internal/config"
)

// Destroy results reported by Cloudinary.
const (
	cloudinaryResultOK       = "ok"
	cloudinaryResultNotFound = "not found"
)

// cloudinaryUploader is the subset of the Cloudinary upload API used here.
type cloudinaryUploader interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// cloudinaryStorage implements AssetStore on the Cloudinary media host.
// The public_id returned by Cloudinary is the removal handle.
type cloudinaryStorage struct {
	api    cloudinaryUploader
	folder string
}

// NewCloudinary creates an asset store that uploads covers into cfg.Folder.
func NewCloudinary(cfg config.CloudinaryConfig) (AssetStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials are required")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("create cloudinary client: %w", err)
	}
	return &cloudinaryStorage{api: &cld.Upload, folder: cfg.Folder}, nil
}

func (c *cloudinaryStorage) Upload(ctx context.Context, data []byte, _ string) (Asset, error) {
	if _, _, err := DetectImageType(data); err != nil {
		return Asset{}, err
	}

	res, err := c.api.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder: c.folder,
	})
	if err != nil {
		return Asset{}, fmt.Errorf("%w: cloudinary upload: %w", ErrUpload, err)
	}
	if res.Error.Message != "" {
		return Asset{}, fmt.Errorf("%w: cloudinary upload: %s", ErrUpload, res.Error.Message)
	}
	if res.SecureURL == "" || res.PublicID == "" {
		return Asset{}, fmt.Errorf("%w: cloudinary upload returned no url or public id", ErrUpload)
	}
	return Asset{URL: res.SecureURL, Handle: res.PublicID}, nil
}

// Remove destroys the asset identified by its public id. Cloudinary answers
// "not found" for unknown ids, which counts as removed.
func (c *cloudinaryStorage) Remove(ctx context.Context, handle string) error {
	res, err := c.api.Destroy(ctx, uploader.DestroyParams{PublicID: handle})
	if err != nil {
		return fmt.Errorf("%w: cloudinary destroy %s: %w", ErrRemoval, handle, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("%w: cloudinary destroy %s: %s", ErrRemoval, handle, res.Error.Message)
	}
	switch res.Result {
	case cloudinaryResultOK, cloudinaryResultNotFound:
		return nil
	default:
		return fmt.Errorf("%w: cloudinary destroy %s: unexpected result %q", ErrRemoval, handle, res.Result)
	}
}
