// Package provider holds one adapter per payment network. Every adapter
// implements the same single capability, creating an order, and reports
// failures as *payment.Error values from the shared taxonomy.
package provider

import (
	"context"
	"errors"
	"net"
	"net/http"
	"slices"

	"creator-payments/internal/payment"
)

// metadata keys adapters read from OrderRequest.Metadata
const (
	MetaPaymentMethodNonce = "payment_method_nonce"
	MetaReturnURL          = "return_url"
	MetaCancelURL          = "cancel_url"
	MetaOrderRef           = "order_ref"
)

type Adapter interface {
	Provider() payment.Provider
	CreateOrder(ctx context.Context, req *payment.OrderRequest) (*payment.Order, error)
}

type statusCoder interface {
	StatusCode() int
}

// Normalize maps SDK, transport and HTTP failures onto provider error kinds.
func Normalize(provider payment.Provider, err error) *payment.Error {
	if err == nil {
		return nil
	}

	var perr *payment.Error
	if errors.As(err, &perr) {
		return perr
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return payment.NewError(payment.KindNetworkError, string(provider)+" call timed out", err)
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		return payment.NewError(kindForStatus(sc.StatusCode()), string(provider)+" returned an error", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return payment.NewError(payment.KindNetworkError, string(provider)+" unreachable", err)
	}

	return payment.NewError(payment.KindProviderUnavailable, string(provider)+" call failed", err)
}

func kindForStatus(status int) payment.ErrorKind {
	switch {
	case status == http.StatusBadRequest:
		return payment.KindInvalidRequest
	case status == http.StatusUnauthorized, status == http.StatusForbidden,
		status == http.StatusTooManyRequests, status >= 500:
		return payment.KindProviderUnavailable
	case status >= 400:
		return payment.KindProviderRejected
	default:
		return payment.KindProviderUnavailable
	}
}

// Registry maps provider keys to adapters. Register everything before serving;
// lookups are read-only afterwards.
type Registry struct {
	adapters map[payment.Provider]Adapter
	enabled  map[payment.Provider]bool
}

// NewRegistry restricts dispatch to the given providers. Nil enables every known provider.
func NewRegistry(enabled []payment.Provider) *Registry {
	if enabled == nil {
		enabled = payment.Providers
	}
	r := &Registry{
		adapters: make(map[payment.Provider]Adapter),
		enabled:  make(map[payment.Provider]bool, len(enabled)),
	}
	for _, p := range enabled {
		r.enabled[p] = true
	}
	return r
}

func (r *Registry) Register(a Adapter) {
	r.adapters[a.Provider()] = a
}

func (r *Registry) Get(p payment.Provider) (Adapter, bool) {
	a, ok := r.adapters[p]
	return a, ok
}

// IsEnabled reports whether p is a known provider switched on by configuration,
// whether or not an adapter has been registered for it.
func (r *Registry) IsEnabled(p payment.Provider) bool {
	return r.enabled[p] && slices.Contains(payment.Providers, p)
}

// Enabled lists the providers that can take orders right now, in catalogue order.
func (r *Registry) Enabled() []payment.Provider {
	var out []payment.Provider
	for _, p := range payment.Providers {
		if _, ok := r.adapters[p]; ok && r.enabled[p] {
			out = append(out, p)
		}
	}
	return out
}
