package idempotency_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"creator-payments/internal/idempotency"
	"creator-payments/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tipCommand(userID, token string, run func(ctx context.Context) (*payment.OrderResult, error)) idempotency.Command[*payment.OrderResult] {
	return idempotency.Command[*payment.OrderResult]{
		UserID:      userID,
		Operation:   "create_payment_order",
		ClientToken: token,
		Params: map[string]string{
			"provider":       "UPI_NETWORK",
			"amount":         "500",
			"beneficiary_id": "creator-1",
		},
		Run: run,
	}
}

func countingRun(calls *atomic.Int32) func(ctx context.Context) (*payment.OrderResult, error) {
	return func(ctx context.Context) (*payment.OrderResult, error) {
		n := calls.Add(1)
		return payment.Succeeded(&payment.Order{OrderID: fmt.Sprintf("order_%d", n)}, nil), nil
	}
}

func TestExecutor_SecondCallIsReplay(t *testing.T) {
	exec := idempotency.NewExecutor[*payment.OrderResult](newTestMemoryStore(t, newFakeClock()))
	ctx := context.Background()
	var calls atomic.Int32

	first, replay, err := exec.Execute(ctx, tipCommand("u1", "", countingRun(&calls)))
	require.NoError(t, err)
	assert.False(t, replay)

	second, replay, err := exec.Execute(ctx, tipCommand("u1", "", countingRun(&calls)))
	require.NoError(t, err)
	assert.True(t, replay)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first, second)
}

func TestExecutor_FailedResultsAreCachedToo(t *testing.T) {
	exec := idempotency.NewExecutor[*payment.OrderResult](newTestMemoryStore(t, newFakeClock()))
	ctx := context.Background()
	var calls atomic.Int32
	run := func(ctx context.Context) (*payment.OrderResult, error) {
		calls.Add(1)
		return payment.Failed(payment.NewError(payment.KindProviderRejected, "declined", nil), nil), nil
	}

	_, _, err := exec.Execute(ctx, tipCommand("u1", "", run))
	require.NoError(t, err)
	res, replay, err := exec.Execute(ctx, tipCommand("u1", "", run))
	require.NoError(t, err)

	assert.True(t, replay)
	assert.False(t, res.Success)
	assert.Equal(t, payment.KindProviderRejected, res.ErrorKind)
	assert.Equal(t, int32(1), calls.Load())
}

func TestExecutor_ErrorsAreNotCached(t *testing.T) {
	exec := idempotency.NewExecutor[*payment.OrderResult](newTestMemoryStore(t, newFakeClock()))
	ctx := context.Background()
	var calls atomic.Int32
	run := func(ctx context.Context) (*payment.OrderResult, error) {
		calls.Add(1)
		return nil, errors.New("lookup collaborator down")
	}

	_, _, err := exec.Execute(ctx, tipCommand("u1", "", run))
	require.Error(t, err)
	_, _, err = exec.Execute(ctx, tipCommand("u1", "", run))
	require.Error(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestExecutor_DifferentUsersDoNotCollapse(t *testing.T) {
	exec := idempotency.NewExecutor[*payment.OrderResult](newTestMemoryStore(t, newFakeClock()))
	ctx := context.Background()
	var calls atomic.Int32

	_, r1, err := exec.Execute(ctx, tipCommand("alice", "", countingRun(&calls)))
	require.NoError(t, err)
	_, r2, err := exec.Execute(ctx, tipCommand("bob", "", countingRun(&calls)))
	require.NoError(t, err)

	assert.False(t, r1)
	assert.False(t, r2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestExecutor_ReRunsAfterTTL(t *testing.T) {
	clock := newFakeClock()
	exec := idempotency.NewExecutor[*payment.OrderResult](newTestMemoryStore(t, clock))
	ctx := context.Background()
	var calls atomic.Int32

	_, _, err := exec.Execute(ctx, tipCommand("u1", "tok", countingRun(&calls)))
	require.NoError(t, err)

	clock.Advance(idempotency.DefaultTTL + time.Second)

	res, replay, err := exec.Execute(ctx, tipCommand("u1", "tok", countingRun(&calls)))
	require.NoError(t, err)
	assert.False(t, replay)
	assert.Equal(t, "order_2", res.OrderID)
}

func TestExecutor_ConcurrentSameTokenRunsOnce(t *testing.T) {
	exec := idempotency.NewExecutor[*payment.OrderResult](newTestMemoryStore(t, newFakeClock()))
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	run := func(ctx context.Context) (*payment.OrderResult, error) {
		calls.Add(1)
		<-release
		return payment.Succeeded(&payment.Order{OrderID: "order_shared"}, nil), nil
	}

	const callers = 20
	var (
		wg       sync.WaitGroup
		fresh    atomic.Int32
		orderIDs sync.Map
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, replay, err := exec.Execute(ctx, tipCommand("u1", "double-click", run))
			if !assert.NoError(t, err) {
				return
			}
			if !replay {
				fresh.Add(1)
			}
			orderIDs.Store(i, res.OrderID)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), fresh.Load())
	orderIDs.Range(func(_, v any) bool {
		assert.Equal(t, "order_shared", v)
		return true
	})
}

func TestExecutor_CallerCancelDoesNotAbortRun(t *testing.T) {
	store := newTestMemoryStore(t, newFakeClock())
	exec := idempotency.NewExecutor[*payment.OrderResult](store)

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	run := func(ctx context.Context) (*payment.OrderResult, error) {
		calls.Add(1)
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return payment.Succeeded(&payment.Order{OrderID: "order_late"}, nil), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, _, err := exec.Execute(ctx, tipCommand("u1", "tok", run))
		errCh <- err
	}()

	<-started
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(release)
	require.Eventually(t, func() bool { return store.Len() == 1 }, time.Second, 5*time.Millisecond)

	res, replay, err := exec.Execute(context.Background(), tipCommand("u1", "tok", run))
	require.NoError(t, err)
	assert.True(t, replay)
	assert.Equal(t, "order_late", res.OrderID)
	assert.Equal(t, int32(1), calls.Load())
}

// claimingStore simulates another process holding the claim.
type claimingStore struct {
	*idempotency.MemoryStore
	claimed bool
}

func (s *claimingStore) Claim(ctx context.Context, key string) (string, bool, error) {
	if s.claimed {
		return "", false, nil
	}
	return "owner", true, nil
}

func (s *claimingStore) Release(ctx context.Context, key, token string) error {
	return nil
}

func TestExecutor_LostClaimWaitsForStoredOutcome(t *testing.T) {
	mem := newTestMemoryStore(t, newFakeClock())
	store := &claimingStore{MemoryStore: mem, claimed: true}
	exec := idempotency.NewExecutor[*payment.OrderResult](store,
		idempotency.WithClaimWait(time.Second, 5*time.Millisecond),
	)

	var calls atomic.Int32
	cmd := tipCommand("u1", "tok", countingRun(&calls))
	key := idempotency.DeriveKey(cmd.UserID, cmd.Operation, cmd.ClientToken, cmd.Params)

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = mem.Store(context.Background(), key, []byte(`{"success":true,"order_id":"order_other_process"}`))
	}()

	res, replay, err := exec.Execute(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, replay)
	assert.Equal(t, "order_other_process", res.OrderID)
	assert.Equal(t, int32(0), calls.Load())
}

func TestExecutor_LostClaimTimesOut(t *testing.T) {
	store := &claimingStore{MemoryStore: newTestMemoryStore(t, newFakeClock()), claimed: true}
	exec := idempotency.NewExecutor[*payment.OrderResult](store,
		idempotency.WithClaimWait(30*time.Millisecond, 5*time.Millisecond),
	)

	var calls atomic.Int32
	_, _, err := exec.Execute(context.Background(), tipCommand("u1", "tok", countingRun(&calls)))

	assert.ErrorIs(t, err, idempotency.ErrInFlight)
	assert.Equal(t, int32(0), calls.Load())
}

func TestExecutor_WithRedisStore(t *testing.T) {
	_, client := newTestRedis(t)
	store := idempotency.NewRedisStore(client)
	exec := idempotency.NewExecutor[*payment.OrderResult](store)
	ctx := context.Background()
	var calls atomic.Int32

	first, replay, err := exec.Execute(ctx, tipCommand("u1", "tok", countingRun(&calls)))
	require.NoError(t, err)
	assert.False(t, replay)

	second, replay, err := exec.Execute(ctx, tipCommand("u1", "tok", countingRun(&calls)))
	require.NoError(t, err)
	assert.True(t, replay)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, int32(1), calls.Load())

	// claim was released after the run
	_, ok, err := store.Claim(ctx, idempotency.DeriveKey("u1", "create_payment_order", "tok", nil))
	require.NoError(t, err)
	assert.True(t, ok)
}
