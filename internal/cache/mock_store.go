package cache

import (
	"context"

	"github.com/stretchr/testify/mock"

	"newsrec/internal/embeddings"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Load(ctx context.Context) (map[Key]embeddings.Vector, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[Key]embeddings.Vector), args.Error(1)
}

func (m *MockStore) Put(ctx context.Context, key Key, vec embeddings.Vector) error {
	args := m.Called(ctx, key, vec)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
