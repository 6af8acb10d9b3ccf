package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// MemoryStore is an in-memory Store for tests and local development.
// A background goroutine recovers units whose worker lock expired, so
// a crashed worker never strands a unit in SENDING.
type MemoryStore struct {
	mu    sync.Mutex
	units map[uuid.UUID]*notification.DeliveryUnit

	byChannel map[notification.Channel][]uuid.UUID

	now        func() time.Time
	lockTicker *time.Ticker
	done       chan struct{}
	closeOnce  sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithStoreClock overrides the store's time source for tests.
func WithStoreClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an empty in-memory unit store and starts its
// lock recovery goroutine. Call Close to stop it.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		units:     make(map[uuid.UUID]*notification.DeliveryUnit),
		byChannel: make(map[notification.Channel][]uuid.UUID),
		now:       time.Now,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.lockTicker = time.NewTicker(time.Second)
	go s.lockExpirationManager()
	return s
}

// Close stops the lock recovery goroutine.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.lockTicker.Stop()
	})
	return nil
}

func (s *MemoryStore) lockExpirationManager() {
	for {
		select {
		case <-s.done:
			return
		case <-s.lockTicker.C:
			s.recoverExpiredLocks()
		}
	}
}

// recoverExpiredLocks returns stranded SENDING units to the queue. This
// is crash recovery, not a state machine move: the attempt never
// reported an outcome, so the unit goes straight back to PENDING.
func (s *MemoryStore) recoverExpiredLocks() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, unit := range s.units {
		if unit.Status == notification.StatusSending &&
			unit.LockedUntil != nil && unit.LockedUntil.Before(now) {
			unit.Status = notification.StatusPending
			unit.LockedUntil = nil
			unit.LockedBy = nil
		}
	}
}

func (s *MemoryStore) CreateUnit(ctx context.Context, unit notification.DeliveryUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.units[unit.ID]; exists {
		return fmt.Errorf("%w: %s", ErrUnitExists, unit.ID)
	}

	u := unit
	s.units[unit.ID] = &u
	s.byChannel[unit.Channel] = append(s.byChannel[unit.Channel], unit.ID)
	return nil
}

func (s *MemoryStore) GetUnit(ctx context.Context, id uuid.UUID) (notification.DeliveryUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unit, ok := s.units[id]
	if !ok {
		return notification.DeliveryUnit{}, ErrUnitNotFound
	}
	return *unit, nil
}

func (s *MemoryStore) ClaimDue(ctx context.Context, workerID uuid.UUID, ch notification.Channel, lockFor time.Duration) (notification.DeliveryUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	// Due RETRY_WAIT units re-enter the queue before selection.
	for _, id := range s.byChannel[ch] {
		unit := s.units[id]
		if unit.Status == notification.StatusRetryWait && unit.Due(now) {
			_ = unit.Transition(notification.StatusPending, now)
		}
	}

	// Priority first, earliest due second.
	var best *notification.DeliveryUnit
	for _, id := range s.byChannel[ch] {
		unit := s.units[id]
		if unit.Status != notification.StatusPending || !unit.Due(now) {
			continue
		}
		if best == nil ||
			unit.Priority > best.Priority ||
			(unit.Priority == best.Priority && unit.DueAt().Before(best.DueAt())) {
			best = unit
		}
	}
	if best == nil {
		return notification.DeliveryUnit{}, ErrNothingDue
	}

	if err := best.Transition(notification.StatusSending, now); err != nil {
		return notification.DeliveryUnit{}, err
	}
	best.Attempts++
	until := now.Add(lockFor)
	best.LockedUntil = &until
	worker := workerID
	best.LockedBy = &worker

	return *best, nil
}

func (s *MemoryStore) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	return s.mark(id, func(unit *notification.DeliveryUnit, now time.Time) error {
		if err := unit.Transition(notification.StatusDelivered, now); err != nil {
			return err
		}
		unit.LockedUntil = nil
		unit.LockedBy = nil
		unit.LastError = ""
		return nil
	})
}

func (s *MemoryStore) MarkRetryWait(ctx context.Context, id uuid.UUID, nextRetryAt time.Time, lastError string) error {
	return s.mark(id, func(unit *notification.DeliveryUnit, now time.Time) error {
		if err := unit.Transition(notification.StatusRetryWait, now); err != nil {
			return err
		}
		next := nextRetryAt
		unit.NextRetryAt = &next
		unit.LastError = lastError
		unit.LockedUntil = nil
		unit.LockedBy = nil
		return nil
	})
}

func (s *MemoryStore) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	return s.mark(id, func(unit *notification.DeliveryUnit, now time.Time) error {
		if err := unit.Transition(notification.StatusFailed, now); err != nil {
			return err
		}
		unit.LastError = lastError
		unit.LockedUntil = nil
		unit.LockedBy = nil
		return nil
	})
}

func (s *MemoryStore) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	return s.mark(id, func(unit *notification.DeliveryUnit, now time.Time) error {
		if err := unit.Transition(notification.StatusCancelled, now); err != nil {
			return err
		}
		unit.LockedUntil = nil
		unit.LockedBy = nil
		return nil
	})
}

func (s *MemoryStore) MarkExpired(ctx context.Context, id uuid.UUID) error {
	return s.mark(id, func(unit *notification.DeliveryUnit, now time.Time) error {
		if err := unit.Transition(notification.StatusExpired, now); err != nil {
			return err
		}
		unit.LockedUntil = nil
		unit.LockedBy = nil
		return nil
	})
}

func (s *MemoryStore) mark(id uuid.UUID, apply func(*notification.DeliveryUnit, time.Time) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unit, ok := s.units[id]
	if !ok {
		return ErrUnitNotFound
	}
	return apply(unit, s.now())
}

func (s *MemoryStore) CountPending(ctx context.Context, ch notification.Channel) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, id := range s.byChannel[ch] {
		switch s.units[id].Status {
		case notification.StatusPending, notification.StatusRetryWait:
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CancelByNotification(ctx context.Context, notificationID uuid.UUID) ([]notification.DeliveryUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var cancelled []notification.DeliveryUnit
	for _, unit := range s.units {
		if unit.NotificationID != notificationID {
			continue
		}
		switch unit.Status {
		case notification.StatusPending, notification.StatusRetryWait:
			if err := unit.Transition(notification.StatusCancelled, now); err != nil {
				return cancelled, err
			}
			cancelled = append(cancelled, *unit)
		}
	}
	return cancelled, nil
}
