package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobLock is a best-effort distributed mutex so that only one replica runs a
// scheduled job per tick.
type JobLock struct {
	store Store
}

// NewJobLock creates a new JobLock.
func NewJobLock(store Store) *JobLock {
	return &JobLock{store: store}
}

// TryAcquire takes the named lock for ttl. The returned release func is nil
// when the lock is held elsewhere.
func (l *JobLock) TryAcquire(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	key := fmt.Sprintf("jobs:lock:%s", name)
	token := uuid.NewString()

	ok, err := l.store.SetNX(ctx, key, token, ttl)
	if err != nil || !ok {
		return nil, err
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_, _ = l.store.DeleteIfEquals(ctx, key, token)
	}, nil
}
