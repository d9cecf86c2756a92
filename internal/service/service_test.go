package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"creator-payments/internal/model"
	"creator-payments/internal/payment"
	"creator-payments/internal/provider"
	"creator-payments/internal/repository"
	"creator-payments/internal/service"
)

var testMinimums = service.Minimums{
	payment.PurposeSubscription:    1000,
	payment.PurposeTip:             100,
	payment.PurposeProductPurchase: 500,
}

type fakeAdapter struct {
	provider payment.Provider
	calls    atomic.Int32
	gate     chan struct{}
	err      error
	redirect string
	form     map[string]string
}

func (f *fakeAdapter) Provider() payment.Provider { return f.provider }

func (f *fakeAdapter) CreateOrder(ctx context.Context, req *payment.OrderRequest) (*payment.Order, error) {
	n := f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &payment.Order{
		OrderID:     fmt.Sprintf("%s_order_%d", f.provider, n),
		RedirectURL: f.redirect,
		FormData:    f.form,
	}, nil
}

type fakeCreators struct {
	creators map[string]*model.Creator
	err      error
}

func (f *fakeCreators) Get(_ context.Context, id string) (*model.Creator, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.creators[id]
	if !ok {
		return nil, repository.ErrCreatorNotFound
	}
	return c, nil
}

func newCreators() *fakeCreators {
	return &fakeCreators{creators: map[string]*model.Creator{
		"creator-1":  {ID: "creator-1", Active: true, PlanTier: "STANDARD"},
		"creator-2":  {ID: "creator-2", Active: true, PlanTier: "PREMIUM"},
		"fan-1":      {ID: "fan-1", Active: true, PlanTier: "STANDARD"},
		"inactive-1": {ID: "inactive-1", Active: false},
	}}
}

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    []*model.PaymentOrder
	createErr error
}

func (f *fakeOrderRepo) Create(_ context.Context, order *model.PaymentOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.orders = append(f.orders, order)
	return nil
}

func (f *fakeOrderRepo) FindByOrderID(_ context.Context, orderID string) (*model.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderID == orderID {
			return o, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeOrderRepo) ListByBeneficiary(_ context.Context, beneficiaryID string, _ int) ([]*model.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.PaymentOrder
	for _, o := range f.orders {
		if o.BeneficiaryID == beneficiaryID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

// newRegistry enables every provider and registers a fake adapter for each.
func newRegistry() (*provider.Registry, map[payment.Provider]*fakeAdapter) {
	reg := provider.NewRegistry(nil)
	adapters := make(map[payment.Provider]*fakeAdapter)
	for _, p := range payment.Providers {
		a := &fakeAdapter{provider: p}
		adapters[p] = a
		reg.Register(a)
	}
	return reg, adapters
}
