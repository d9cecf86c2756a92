package idempotency

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryStore is a single-process Store. It must not back a deployment with more
// than one instance, duplicates would land on different processes.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry

	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	log           *zap.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

type MemoryOption func(*MemoryStore)

func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSweepInterval sets how often expired entries are evicted. Zero or less
// disables the background sweep; Sweep can still be called directly.
func WithSweepInterval(interval time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		s.sweepInterval = interval
	}
}

func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func WithLogger(log *zap.Logger) MemoryOption {
	return func(s *MemoryStore) {
		s.log = log
	}
}

// NewMemoryStore starts the background sweep. Call Close to stop it.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries:       make(map[string]*Entry),
		ttl:           DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
		log:           zap.NewNop(),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.sweepInterval > 0 {
		go s.run()
	} else {
		close(s.done)
	}
	return s
}

func (s *MemoryStore) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.log.Debug("idempotency sweep evicted entries", zap.Int("evicted", n))
			}
		}
	}
}

func (s *MemoryStore) expired(e *Entry, now time.Time) bool {
	return now.Sub(e.CreatedAt) > s.ttl
}

func (s *MemoryStore) Lookup(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	if s.expired(e, s.now()) {
		s.mu.Lock()
		// re-check, a concurrent Store may have replaced it
		if cur, ok := s.entries[key]; ok && s.expired(cur, s.now()) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	return &Entry{
		Key:       e.Key,
		Payload:   slices.Clone(e.Payload),
		CreatedAt: e.CreatedAt,
	}, nil
}

func (s *MemoryStore) Store(_ context.Context, key string, payload []byte) error {
	e := &Entry{
		Key:       key,
		Payload:   slices.Clone(payload),
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

// Sweep evicts every entry older than the TTL and reports how many it removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, key)
			evicted++
		}
	}
	return evicted
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
	return nil
}
