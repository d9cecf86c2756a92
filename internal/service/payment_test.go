package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"creator-payments/internal/fee"
	"creator-payments/internal/idempotency"
	"creator-payments/internal/payment"
	"creator-payments/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type serviceFixture struct {
	svc      service.PaymentService
	adapters map[payment.Provider]*fakeAdapter
	creators *fakeCreators
	orders   *fakeOrderRepo
}

func newServiceFixture(t *testing.T, store idempotency.Store, opts ...idempotency.ExecutorOption) *serviceFixture {
	t.Helper()
	if store == nil {
		mem := idempotency.NewMemoryStore(idempotency.WithSweepInterval(0))
		t.Cleanup(func() { _ = mem.Close() })
		store = mem
	}

	reg, adapters := newRegistry()
	creators := newCreators()
	orders := &fakeOrderRepo{}
	calc := fee.NewCalculator()

	svc := service.NewPaymentService(
		service.NewDispatcher(reg, creators, testMinimums, zap.NewNop()),
		idempotency.NewExecutor[*service.OrderOutcome](store, opts...),
		calc,
		reg,
		creators,
		orders,
		zap.NewNop(),
	)
	return &serviceFixture{svc: svc, adapters: adapters, creators: creators, orders: orders}
}

func tipCommand(p payment.Provider, token string) service.CreateOrderCommand {
	return service.CreateOrderCommand{
		Provider:         p,
		Amount:           10000,
		Currency:         "inr",
		PayerID:          "fan-1",
		BeneficiaryID:    "creator-1",
		Purpose:          payment.PurposeTip,
		Metadata:         map[string]string{metaNonce: "fake-valid-nonce"},
		IdempotencyToken: token,
	}
}

const metaNonce = "payment_method_nonce"

func TestCreatePaymentOrder_SuccessWithFees(t *testing.T) {
	fx := newServiceFixture(t, nil)

	res, err := fx.svc.CreatePaymentOrder(context.Background(), tipCommand(payment.ProviderCardNetwork, "tok-1"))
	require.NoError(t, err)

	require.True(t, res.Success)
	assert.False(t, res.WasReplay)
	assert.Equal(t, "CARD_NETWORK_order_1", res.OrderID)
	require.NotNil(t, res.Fees)
	assert.Equal(t, int64(200), res.Fees.ProviderFee)
	assert.Equal(t, int64(980), res.Fees.PlatformCommission)
	assert.Equal(t, int64(8820), res.Fees.NetEarnings)
	assert.Equal(t, "INR", res.Fees.Currency)

	require.Equal(t, 1, fx.orders.count())
	rec := fx.orders.orders[0]
	assert.Equal(t, "CARD_NETWORK_order_1", rec.OrderID)
	assert.Equal(t, int64(8820), rec.NetEarnings)
	assert.Equal(t, "tok-1", rec.IdempotencyKey)
	assert.JSONEq(t, `{"payment_method_nonce":"fake-valid-nonce"}`, rec.Metadata)
}

func TestCreatePaymentOrder_ReplayDoesNotRedispatch(t *testing.T) {
	fx := newServiceFixture(t, nil)
	ctx := context.Background()

	first, err := fx.svc.CreatePaymentOrder(ctx, tipCommand(payment.ProviderUPINetwork, "tok-1"))
	require.NoError(t, err)
	second, err := fx.svc.CreatePaymentOrder(ctx, tipCommand(payment.ProviderUPINetwork, "tok-1"))
	require.NoError(t, err)

	assert.False(t, first.WasReplay)
	assert.True(t, second.WasReplay)
	assert.Equal(t, first.OrderOutcome, second.OrderOutcome)
	assert.Equal(t, int32(1), fx.adapters[payment.ProviderUPINetwork].calls.Load())
	assert.Equal(t, 1, fx.orders.count())
}

func TestCreatePaymentOrder_IdenticalParamsWithoutTokenCollapse(t *testing.T) {
	fx := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := fx.svc.CreatePaymentOrder(ctx, tipCommand(payment.ProviderUPINetwork, ""))
	require.NoError(t, err)
	second, err := fx.svc.CreatePaymentOrder(ctx, tipCommand(payment.ProviderUPINetwork, ""))
	require.NoError(t, err)
	assert.True(t, second.WasReplay)

	cmd := tipCommand(payment.ProviderUPINetwork, "")
	cmd.Amount = 10001
	third, err := fx.svc.CreatePaymentOrder(ctx, cmd)
	require.NoError(t, err)
	assert.False(t, third.WasReplay)
	assert.Equal(t, int32(2), fx.adapters[payment.ProviderUPINetwork].calls.Load())
}

func TestCreatePaymentOrder_FailureIsCachedAndNotPersisted(t *testing.T) {
	fx := newServiceFixture(t, nil)
	fx.adapters[payment.ProviderWalletA].err = errors.New("connection reset")
	ctx := context.Background()

	first, err := fx.svc.CreatePaymentOrder(ctx, tipCommand(payment.ProviderWalletA, "tok-1"))
	require.NoError(t, err)
	assert.False(t, first.Success)
	assert.Nil(t, first.Fees)

	fx.adapters[payment.ProviderWalletA].err = nil
	second, err := fx.svc.CreatePaymentOrder(ctx, tipCommand(payment.ProviderWalletA, "tok-1"))
	require.NoError(t, err)
	assert.True(t, second.WasReplay)
	assert.False(t, second.Success)
	assert.Equal(t, first.ErrorKind, second.ErrorKind)

	assert.Equal(t, int32(1), fx.adapters[payment.ProviderWalletA].calls.Load())
	assert.Zero(t, fx.orders.count())
}

func TestCreatePaymentOrder_LookupFailureIsRetried(t *testing.T) {
	fx := newServiceFixture(t, nil)
	fx.creators.err = errors.New("db down")
	ctx := context.Background()

	first, err := fx.svc.CreatePaymentOrder(ctx, tipCommand(payment.ProviderBankTransfer, ""))
	require.NoError(t, err)
	assert.False(t, first.Success)
	assert.False(t, first.WasReplay)
	assert.Equal(t, payment.KindInternal, first.ErrorKind)
	assert.NotContains(t, first.Message, "db down")
	assert.Zero(t, fx.adapters[payment.ProviderBankTransfer].calls.Load())

	fx.creators.err = nil
	second, err := fx.svc.CreatePaymentOrder(ctx, tipCommand(payment.ProviderBankTransfer, ""))
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.False(t, second.WasReplay)
	assert.Equal(t, int32(1), fx.adapters[payment.ProviderBankTransfer].calls.Load())
	assert.Equal(t, 1, fx.orders.count())
}

func TestCreatePaymentOrder_PersistenceFailureKeepsSuccess(t *testing.T) {
	fx := newServiceFixture(t, nil)
	fx.orders.createErr = errors.New("deadlock found")

	res, err := fx.svc.CreatePaymentOrder(context.Background(), tipCommand(payment.ProviderBankTransfer, "tok-1"))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.OrderID)
}

func TestCreatePaymentOrder_PremiumCreatorRate(t *testing.T) {
	fx := newServiceFixture(t, nil)
	cmd := tipCommand(payment.ProviderCardNetwork, "tok-1")
	cmd.BeneficiaryID = "creator-2"

	res, err := fx.svc.CreatePaymentOrder(context.Background(), cmd)
	require.NoError(t, err)
	require.NotNil(t, res.Fees)
	assert.Equal(t, payment.PlanPremium, res.Fees.PlanTier)
	// 8% of 9800
	assert.Equal(t, int64(784), res.Fees.PlatformCommission)
}

func TestCreatePaymentOrder_ConcurrentSameTokenTips(t *testing.T) {
	fx := newServiceFixture(t, nil)
	upi := fx.adapters[payment.ProviderUPINetwork]
	upi.gate = make(chan struct{})

	const callers = 8
	results := make([]*service.CreateOrderResult, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := fx.svc.CreatePaymentOrder(context.Background(), tipCommand(payment.ProviderUPINetwork, "tok-same"))
			assert.NoError(t, err)
			results[i] = res
		}()
	}

	require.Eventually(t, func() bool { return upi.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(upi.gate)
	wg.Wait()

	assert.Equal(t, int32(1), upi.calls.Load())
	fresh := 0
	for _, res := range results {
		require.NotNil(t, res)
		assert.True(t, res.Success)
		assert.Equal(t, results[0].OrderID, res.OrderID)
		if !res.WasReplay {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
	assert.Equal(t, 1, fx.orders.count())
}

func TestCreatePaymentOrder_CallerCancelDoesNotAbortDispatch(t *testing.T) {
	fx := newServiceFixture(t, nil)
	card := fx.adapters[payment.ProviderCardNetwork]
	card.gate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := fx.svc.CreatePaymentOrder(ctx, tipCommand(payment.ProviderCardNetwork, "tok-1"))
		done <- err
	}()

	require.Eventually(t, func() bool { return card.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(card.gate)
	require.Eventually(t, func() bool { return fx.orders.count() == 1 }, time.Second, 5*time.Millisecond)

	res, err := fx.svc.CreatePaymentOrder(context.Background(), tipCommand(payment.ProviderCardNetwork, "tok-1"))
	require.NoError(t, err)
	assert.True(t, res.WasReplay)
	assert.Equal(t, "CARD_NETWORK_order_1", res.OrderID)
	assert.Equal(t, int32(1), card.calls.Load())
}

type busyStore struct {
	*idempotency.MemoryStore
}

func (busyStore) Claim(context.Context, string) (string, bool, error) { return "", false, nil }
func (busyStore) Release(context.Context, string, string) error { return nil }

func TestCreatePaymentOrder_ClaimHeldElsewhere(t *testing.T) {
	mem := idempotency.NewMemoryStore(idempotency.WithSweepInterval(0))
	t.Cleanup(func() { _ = mem.Close() })
	fx := newServiceFixture(t, busyStore{mem}, idempotency.WithClaimWait(30*time.Millisecond, 5*time.Millisecond))

	res, err := fx.svc.CreatePaymentOrder(context.Background(), tipCommand(payment.ProviderUPINetwork, "tok-1"))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, payment.KindRequestInProgress, res.ErrorKind)
	assert.Zero(t, fx.adapters[payment.ProviderUPINetwork].calls.Load())
}

func TestCalculateFees(t *testing.T) {
	fx := newServiceFixture(t, nil)

	b, err := fx.svc.CalculateFees(context.Background(), 10000, payment.ProviderCardNetwork, payment.PlanStandard, "INR")
	require.NoError(t, err)
	assert.Equal(t, int64(8820), b.NetEarnings)
	assert.Equal(t, 88.2, b.CreatorSharePercentage)

	_, err = fx.svc.CalculateFees(context.Background(), 0, payment.ProviderCardNetwork, payment.PlanStandard, "INR")
	assert.ErrorIs(t, err, payment.ErrInvalidAmount)
}

func TestProviders(t *testing.T) {
	fx := newServiceFixture(t, nil)

	infos := fx.svc.Providers()
	require.Len(t, infos, len(payment.Providers))
	assert.Equal(t, payment.ProviderCardNetwork, infos[0].Provider)
	assert.Equal(t, fee.MethodCard, infos[0].Method)
	assert.Equal(t, "0.02", infos[0].Rate)
}

func TestListCreatorOrders(t *testing.T) {
	fx := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := fx.svc.CreatePaymentOrder(ctx, tipCommand(payment.ProviderUPINetwork, "a"))
	require.NoError(t, err)
	_, err = fx.svc.CreatePaymentOrder(ctx, tipCommand(payment.ProviderBankTransfer, "b"))
	require.NoError(t, err)

	orders, err := fx.svc.ListCreatorOrders(ctx, "creator-1", 10)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestVerifyFeeProfiles(t *testing.T) {
	assert.NoError(t, service.VerifyFeeProfiles(fee.NewCalculator(), payment.Providers))
	assert.Error(t, service.VerifyFeeProfiles(fee.NewCalculator(), []payment.Provider{"CRYPTO"}))
}
