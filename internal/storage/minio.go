package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"bookapi/internal/config"
)

// publicReadPolicy lets anonymous clients GET objects under the cover prefix,
// so cover URLs can be used directly by browsers.
const publicReadPolicy = `{
  "Version": "2012-10-17",
  "Statement": [{
    "Effect": "Allow",
    "Principal": {"AWS": ["*"]},
    "Action": ["s3:GetObject"],
    "Resource": ["arn:aws:s3:::%s/%s/*"]
  }]
}`

// orphanRemoveTimeout bounds the removal of an object that was stored but
// could not be addressed.
const orphanRemoveTimeout = 10 * time.Second

// minioStorage implements AssetStore using an S3-compatible backend (MinIO, AWS S3, etc.).
// It is safe for concurrent use by multiple goroutines.
type minioStorage struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinIO creates a new S3-compatible asset store backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(cfg config.MinIOConfig) (AssetStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := newMinIOClient(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
		policy := fmt.Sprintf(publicReadPolicy, cfg.Bucket, CoverPrefix)
		if err := cli.SetBucketPolicy(ctx, cfg.Bucket, policy); err != nil {
			return nil, fmt.Errorf("set bucket policy: %w", err)
		}
	}

	return newMinIOStorage(cli, cfg), nil
}

func newMinIOClient(cfg config.MinIOConfig) (*minio.Client, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return cli, nil
}

func newMinIOStorage(cli *minio.Client, cfg config.MinIOConfig) *minioStorage {
	base := cfg.PublicBaseURL
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}
	return &minioStorage{client: cli, bucket: cfg.Bucket, baseURL: base}
}

// Upload stores the cover under a fresh key. The key is the removal handle.
func (m *minioStorage) Upload(ctx context.Context, data []byte, _ string) (Asset, error) {
	ct, ext, err := DetectImageType(data)
	if err != nil {
		return Asset{}, err
	}

	key := path.Join(CoverPrefix, uuid.NewString()+ext)
	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: ct,
	})
	if err != nil {
		return Asset{}, fmt.Errorf("%w: put object: %w", ErrUpload, err)
	}

	u, err := m.objectURL(key)
	if err != nil {
		// The object exists but cannot be addressed; do not leave it behind.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), orphanRemoveTimeout)
		defer cancel()
		if rerr := m.client.RemoveObject(rctx, m.bucket, key, minio.RemoveObjectOptions{}); rerr != nil {
			return Asset{}, fmt.Errorf("%w: build object url: %w; orphaned object %s: %w", ErrUpload, err, key, rerr)
		}
		return Asset{}, fmt.Errorf("%w: build object url: %w", ErrUpload, err)
	}
	return Asset{URL: u, Handle: key}, nil
}

// Remove deletes an object by key. A missing key is not an error.
func (m *minioStorage) Remove(ctx context.Context, handle string) error {
	err := m.client.RemoveObject(ctx, m.bucket, handle, minio.RemoveObjectOptions{})
	if err == nil {
		return nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return nil
	}
	return fmt.Errorf("%w: remove object %s: %w", ErrRemoval, handle, err)
}

func (m *minioStorage) objectURL(key string) (string, error) {
	return url.JoinPath(m.baseURL, m.bucket, key)
}
