package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookapi/internal/config"
	"bookapi/internal/testutil"
)

const noSuchKeyXML = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><BucketName>covers</BucketName><Resource>/covers/x</Resource><RequestId>1</RequestId><HostId>1</HostId></Error>`

const accessDeniedXML = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>AccessDenied</Code><Message>Access Denied.</Message><BucketName>covers</BucketName><Resource>/covers/x</Resource><RequestId>1</RequestId><HostId>1</HostId></Error>`

// fakeS3 records object puts and answers deletes according to deleteStatus.
type fakeS3 struct {
	mu           sync.Mutex
	puts         map[string]string
	deletes      []string
	deleteStatus int
	deleteBody   string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	switch r.Method {
	case http.MethodPut:
		f.mu.Lock()
		f.puts[r.URL.Path] = r.Header.Get("Content-Type")
		f.mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		f.mu.Lock()
		f.deletes = append(f.deletes, r.URL.Path)
		f.mu.Unlock()
		if f.deleteBody != "" {
			w.Header().Set("Content-Type", "application/xml")
		}
		w.WriteHeader(f.deleteStatus)
		_, _ = io.WriteString(w, f.deleteBody)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestMinIO(t *testing.T, fake *fakeS3) *minioStorage {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.MinIOConfig{
		Endpoint:      strings.TrimPrefix(srv.URL, "http://"),
		AccessKey:     "access",
		SecretKey:     "secret",
		Bucket:        "covers",
		Region:        "us-east-1",
		PublicBaseURL: "https://cdn.example.com",
	}
	cli, err := newMinIOClient(cfg)
	require.NoError(t, err)
	return newMinIOStorage(cli, cfg)
}

func TestNewMinIO_Validation(t *testing.T) {
	_, err := NewMinIO(config.MinIOConfig{})
	assert.Error(t, err)

	_, err = NewMinIO(config.MinIOConfig{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "credentials")

	_, err = NewMinIO(config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"})
	assert.ErrorContains(t, err, "bucket")
}

func TestMinIOStorage_Upload(t *testing.T) {
	fake := &fakeS3{puts: map[string]string{}}
	s := newTestMinIO(t, fake)

	asset, err := s.Upload(context.Background(), testutil.PNG(t), "application/octet-stream")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(asset.Handle, "covers/"))
	assert.True(t, strings.HasSuffix(asset.Handle, ".png"))
	assert.Equal(t, "https://cdn.example.com/covers/"+asset.Handle, asset.URL)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	// The sniffed type wins over the declared one.
	assert.Equal(t, "image/png", fake.puts["/covers/"+asset.Handle])
}

func TestMinIOStorage_UploadRejectsUnsupportedFormat(t *testing.T) {
	fake := &fakeS3{puts: map[string]string{}}
	s := newTestMinIO(t, fake)

	_, err := s.Upload(context.Background(), testutil.GIF, "image/gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Empty(t, fake.puts)
}

func TestMinIOStorage_UploadUnaddressableObject(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantOrphan bool
	}{
		{name: "object removed", status: http.StatusNoContent},
		{name: "removal failure reported", status: http.StatusForbidden, body: accessDeniedXML, wantOrphan: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeS3{puts: map[string]string{}, deleteStatus: tt.status, deleteBody: tt.body}
			s := newTestMinIO(t, fake)
			s.baseURL = "://no-scheme"

			_, err := s.Upload(context.Background(), testutil.PNG(t), "image/png")
			require.ErrorIs(t, err, ErrUpload)
			assert.ErrorContains(t, err, "build object url")

			fake.mu.Lock()
			defer fake.mu.Unlock()
			require.Len(t, fake.puts, 1)
			require.Len(t, fake.deletes, 1)
			for put := range fake.puts {
				assert.Equal(t, put, fake.deletes[0])
			}
			if tt.wantOrphan {
				assert.ErrorContains(t, err, "orphaned object covers/")
			} else {
				assert.NotContains(t, err.Error(), "orphaned object")
			}
		})
	}
}

func TestMinIOStorage_Remove(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{name: "deleted", status: http.StatusNoContent},
		{name: "missing key is success", status: http.StatusNotFound, body: noSuchKeyXML},
		{name: "access denied", status: http.StatusForbidden, body: accessDeniedXML, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestMinIO(t, &fakeS3{puts: map[string]string{}, deleteStatus: tt.status, deleteBody: tt.body})

			err := s.Remove(context.Background(), "covers/abc.png")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrRemoval)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMinIOStorage_DefaultBaseURL(t *testing.T) {
	s := newMinIOStorage(nil, config.MinIOConfig{Endpoint: "minio:9000", Bucket: "covers", UseSSL: true})

	u, err := s.objectURL("covers/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://minio:9000/covers/covers/a.jpg", u)
}
