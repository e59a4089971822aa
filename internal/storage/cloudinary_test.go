package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookapi/internal/config"
	"bookapi/internal/testutil"
)

type fakeCloudinary struct {
	uploadParams  uploader.UploadParams
	uploadResult  *uploader.UploadResult
	uploadErr     error
	destroyParams uploader.DestroyParams
	destroyResult *uploader.DestroyResult
	destroyErr    error
}

func (f *fakeCloudinary) Upload(_ context.Context, _ interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.uploadParams = params
	return f.uploadResult, f.uploadErr
}

func (f *fakeCloudinary) Destroy(_ context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyParams = params
	return f.destroyResult, f.destroyErr
}

func TestNewCloudinary_RequiresCredentials(t *testing.T) {
	_, err := NewCloudinary(config.CloudinaryConfig{CloudName: "demo"})
	assert.Error(t, err)
}

func TestCloudinaryStorage_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		fake := &fakeCloudinary{uploadResult: &uploader.UploadResult{
			SecureURL: "https://res.cloudinary.com/demo/image/upload/v1/book-covers/abc.jpg",
			PublicID:  "book-covers/abc",
		}}
		s := &cloudinaryStorage{api: fake, folder: "book-covers"}

		asset, err := s.Upload(ctx, testutil.JPEG(t), "image/jpeg")
		require.NoError(t, err)
		assert.Equal(t, "book-covers/abc", asset.Handle)
		assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/v1/book-covers/abc.jpg", asset.URL)
		assert.Equal(t, "book-covers", fake.uploadParams.Folder)
	})

	t.Run("unsupported format never reaches provider", func(t *testing.T) {
		fake := &fakeCloudinary{}
		s := &cloudinaryStorage{api: fake, folder: "book-covers"}

		_, err := s.Upload(ctx, testutil.GIF, "image/gif")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
		assert.Empty(t, fake.uploadParams.Folder)
	})

	t.Run("transport error", func(t *testing.T) {
		fake := &fakeCloudinary{uploadErr: errors.New("connection reset")}
		s := &cloudinaryStorage{api: fake}

		_, err := s.Upload(ctx, testutil.PNG(t), "image/png")
		assert.ErrorIs(t, err, ErrUpload)
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("provider error", func(t *testing.T) {
		res := &uploader.UploadResult{}
		res.Error.Message = "Invalid image file"
		s := &cloudinaryStorage{api: &fakeCloudinary{uploadResult: res}}

		_, err := s.Upload(ctx, testutil.PNG(t), "image/png")
		assert.ErrorIs(t, err, ErrUpload)
		assert.Contains(t, err.Error(), "Invalid image file")
	})

	t.Run("partial result", func(t *testing.T) {
		s := &cloudinaryStorage{api: &fakeCloudinary{uploadResult: &uploader.UploadResult{PublicID: "only-id"}}}

		_, err := s.Upload(ctx, testutil.PNG(t), "image/png")
		assert.ErrorIs(t, err, ErrUpload)
	})
}

func TestCloudinaryStorage_Remove(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		result  *uploader.DestroyResult
		err     error
		wantErr bool
	}{
		{name: "ok", result: &uploader.DestroyResult{Result: "ok"}},
		{name: "not found is success", result: &uploader.DestroyResult{Result: "not found"}},
		{name: "unexpected result", result: &uploader.DestroyResult{Result: "error"}, wantErr: true},
		{name: "transport error", err: errors.New("timeout"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCloudinary{destroyResult: tt.result, destroyErr: tt.err}
			s := &cloudinaryStorage{api: fake}

			err := s.Remove(ctx, "book-covers/abc")
			assert.Equal(t, "book-covers/abc", fake.destroyParams.PublicID)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrRemoval)
				return
			}
			assert.NoError(t, err)
		})
	}
}
