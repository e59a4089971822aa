package mocks

import (
	"context"

	"bookapi/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockAssetStore struct {
	mock.Mock
}

var _ storage.AssetStore = (*MockAssetStore)(nil)

func (m *MockAssetStore) Upload(ctx context.Context, data []byte, contentType string) (storage.Asset, error) {
	args := m.Called(ctx, data, contentType)
	return args.Get(0).(storage.Asset), args.Error(1)
}

func (m *MockAssetStore) Remove(ctx context.Context, handle string) error {
	args := m.Called(ctx, handle)
	return args.Error(0)
}
