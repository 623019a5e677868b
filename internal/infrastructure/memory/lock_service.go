package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/domain/shared"
)

// DefaultLockWait bounds how long an acquisition queues behind the holder.
const DefaultLockWait = 10 * time.Second

// LockService serializes commands per aggregate within one process. Each
// lock key owns a one-slot channel; acquisition queues on the slot and fails
// with a lock timeout when the bounded wait elapses.
type LockService struct {
	mu       sync.Mutex
	slots    map[string]chan struct{}
	lockWait time.Duration
}

func NewLockService(lockWait time.Duration) *LockService {
	if lockWait <= 0 {
		lockWait = DefaultLockWait
	}
	return &LockService{
		slots:    make(map[string]chan struct{}),
		lockWait: lockWait,
	}
}

var _ ports.AggregateLockService = (*LockService)(nil)

func (s *LockService) CreateLockOrThrow(ctx context.Context, tenantID shared.TenantID, aggregateID shared.AggregateID, aggregateType string) (ports.ScopedLock, error) {
	key := fmt.Sprintf("%s#%s#%s", tenantID, aggregateType, aggregateID)
	slot := s.slot(key)

	timer := time.NewTimer(s.lockWait)
	defer timer.Stop()

	select {
	case slot <- struct{}{}:
		return &scopedLock{slot: slot}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ports.NewLockTimeoutError(key, s.lockWait)
	}
}

func (s *LockService) slot(key string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		s.slots[key] = slot
	}
	return slot
}

type scopedLock struct {
	slot chan struct{}
	once sync.Once
}

func (l *scopedLock) Release(ctx context.Context) error {
	l.once.Do(func() { <-l.slot })
	return nil
}
