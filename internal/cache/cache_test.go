package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStore() *memStore { return &memStore{data: map[string]string{}} }

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value
	return true, nil
}

func (m *memStore) DeleteIfEquals(_ context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[key] != value {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

func TestIdempotencyCache(t *testing.T) {
	ctx := context.Background()
	c := NewIdempotencyCache(newMemStore(), time.Hour)

	type result struct {
		Success bool `json:"success"`
		Applied int  `json:"applied"`
	}

	var got result
	found, err := c.Get(ctx, "sales", 1, "abc", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Put(ctx, "sales", 1, "abc", result{Success: true, Applied: 2}))

	found, err = c.Get(ctx, "sales", 1, "abc", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, result{Success: true, Applied: 2}, got)

	// Same key from a different caller is a miss.
	found, err = c.Get(ctx, "sales", 2, "abc", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestJobLock(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	lock := NewJobLock(store)

	release, err := lock.TryAcquire(ctx, "alert-scan", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, release)

	second, err := lock.TryAcquire(ctx, "alert-scan", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, second)

	release()
	third, err := lock.TryAcquire(ctx, "alert-scan", time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, third)
}
