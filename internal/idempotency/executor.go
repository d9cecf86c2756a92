package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrInFlight is returned when another process holds the claim for a key and did
// not store an outcome within the wait budget.
var ErrInFlight = errors.New("idempotent command already in flight")

const (
	defaultDispatchTimeout = 45 * time.Second
	defaultClaimWait       = 10 * time.Second
	defaultPollInterval    = 100 * time.Millisecond
)

type Command[T any] struct {
	UserID      string
	Operation   string
	ClientToken string
	Params      map[string]string
	Run         func(ctx context.Context) (T, error)
}

// Executor runs each distinct command at most once per TTL window. Concurrent
// callers with the same key inside one process share a single run; across
// processes the store's Claimer, if any, serialises them.
type Executor[T any] struct {
	store           Store
	group           singleflight.Group
	dispatchTimeout time.Duration
	claimWait       time.Duration
	pollInterval    time.Duration
	log             *zap.Logger
}

type ExecutorOption func(*executorOptions)

type executorOptions struct {
	dispatchTimeout time.Duration
	claimWait       time.Duration
	pollInterval    time.Duration
	log             *zap.Logger
}

// WithDispatchTimeout caps a run. The run is detached from the caller's context,
// so this is the only thing that stops it.
func WithDispatchTimeout(d time.Duration) ExecutorOption {
	return func(o *executorOptions) {
		if d > 0 {
			o.dispatchTimeout = d
		}
	}
}

func WithClaimWait(wait, poll time.Duration) ExecutorOption {
	return func(o *executorOptions) {
		if wait > 0 {
			o.claimWait = wait
		}
		if poll > 0 {
			o.pollInterval = poll
		}
	}
}

func WithExecutorLogger(log *zap.Logger) ExecutorOption {
	return func(o *executorOptions) {
		o.log = log
	}
}

func NewExecutor[T any](store Store, opts ...ExecutorOption) *Executor[T] {
	o := executorOptions{
		dispatchTimeout: defaultDispatchTimeout,
		claimWait:       defaultClaimWait,
		pollInterval:    defaultPollInterval,
		log:             zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Executor[T]{
		store:           store,
		dispatchTimeout: o.dispatchTimeout,
		claimWait:       o.claimWait,
		pollInterval:    o.pollInterval,
		log:             o.log,
	}
}

type outcome[T any] struct {
	value   T
	payload []byte
	replay  bool
}

// Execute returns the command's result and whether it was replayed from an
// earlier run. If ctx ends while the run is in flight, Execute returns ctx.Err()
// but the run continues and its result is stored for the next retry.
func (e *Executor[T]) Execute(ctx context.Context, cmd Command[T]) (T, bool, error) {
	var zero T
	key := DeriveKey(cmd.UserID, cmd.Operation, cmd.ClientToken, cmd.Params)

	if v, ok, err := e.cached(ctx, key); err != nil {
		return zero, false, err
	} else if ok {
		e.log.Debug("idempotent replay", zap.String("operation", cmd.Operation), zap.String("key", key))
		return v, true, nil
	}

	leader := false
	ch := e.group.DoChan(key, func() (any, error) {
		leader = true
		return e.run(ctx, key, cmd)
	})

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		out := res.Val.(outcome[T])
		if leader {
			return out.value, out.replay, nil
		}
		// callers that waited on the leader get their own copy
		v, err := e.decode(out)
		if err != nil {
			return zero, false, err
		}
		return v, true, nil
	}
}

func (e *Executor[T]) run(parent context.Context, key string, cmd Command[T]) (outcome[T], error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), e.dispatchTimeout)
	defer cancel()

	// a racer may have stored between our lookup and winning the flight
	if v, ok, err := e.cached(ctx, key); err != nil {
		return outcome[T]{}, err
	} else if ok {
		return outcome[T]{value: v, replay: true}, nil
	}

	if claimer, ok := e.store.(Claimer); ok {
		token, claimed, err := claimer.Claim(ctx, key)
		if err != nil {
			return outcome[T]{}, fmt.Errorf("claim idempotency key: %w", err)
		}
		if !claimed {
			v, err := e.await(ctx, key)
			if err != nil {
				return outcome[T]{}, err
			}
			return outcome[T]{value: v, replay: true}, nil
		}
		defer func() {
			if err := claimer.Release(context.WithoutCancel(ctx), key, token); err != nil {
				e.log.Warn("release idempotency claim", zap.String("key", key), zap.Error(err))
			}
		}()
	}

	v, err := cmd.Run(ctx)
	if err != nil {
		return outcome[T]{}, err
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return outcome[T]{}, fmt.Errorf("encode command result: %w", err)
	}
	if err := e.store.Store(ctx, key, payload); err != nil {
		// the side effect happened; report it even though a retry may repeat it
		e.log.Error("store idempotent result",
			zap.String("operation", cmd.Operation),
			zap.String("key", key),
			zap.Error(err),
		)
	}

	return outcome[T]{value: v, payload: payload}, nil
}

// await polls until the claim holder stores its outcome.
func (e *Executor[T]) await(ctx context.Context, key string) (T, error) {
	var zero T
	deadline := time.NewTimer(e.claimWait)
	defer deadline.Stop()
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-deadline.C:
			return zero, ErrInFlight
		case <-ticker.C:
			v, ok, err := e.cached(ctx, key)
			if err != nil {
				return zero, err
			}
			if ok {
				return v, nil
			}
		}
	}
}

func (e *Executor[T]) cached(ctx context.Context, key string) (T, bool, error) {
	var v T
	entry, err := e.store.Lookup(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("lookup idempotency key: %w", err)
	}
	if err := json.Unmarshal(entry.Payload, &v); err != nil {
		return v, false, fmt.Errorf("decode cached result: %w", err)
	}
	return v, true, nil
}

func (e *Executor[T]) decode(out outcome[T]) (T, error) {
	if out.payload == nil {
		return out.value, nil
	}
	var v T
	if err := json.Unmarshal(out.payload, &v); err != nil {
		return v, fmt.Errorf("decode shared result: %w", err)
	}
	return v, nil
}
