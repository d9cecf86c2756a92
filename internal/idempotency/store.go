// Package idempotency deduplicates side-effecting commands. A command is keyed by
// who issued it and what it carried; its first outcome is cached for a TTL and
// replayed to any repeat within that window.
package idempotency

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultTTL           = 5 * time.Minute
	DefaultSweepInterval = 2 * time.Minute
)

var ErrNotFound = errors.New("idempotency entry not found")

type Entry struct {
	Key       string    `json:"key"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// Store holds command outcomes. Lookup returns ErrNotFound for absent and expired
// keys alike. Store overwrites unconditionally.
type Store interface {
	Lookup(ctx context.Context, key string) (*Entry, error)
	Store(ctx context.Context, key string, payload []byte) error
}

// Claimer is implemented by stores shared between processes. Claim atomically
// reserves a key for one dispatcher and returns an owner token; Release gives the
// key up only while that token still holds it.
type Claimer interface {
	Claim(ctx context.Context, key string) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}
