package provider

import (
	"context"

	"creator-payments/internal/client"
	"creator-payments/internal/payment"

	"github.com/google/uuid"
)

// CardAdapter charges a tokenized card through Braintree. The checkout page
// collects the card and hands us a one-time payment method nonce.
type CardAdapter struct {
	client client.BraintreeClient
}

func NewCardAdapter(c client.BraintreeClient) *CardAdapter {
	return &CardAdapter{client: c}
}

func (a *CardAdapter) Provider() payment.Provider {
	return payment.ProviderCardNetwork
}

func (a *CardAdapter) CreateOrder(ctx context.Context, req *payment.OrderRequest) (*payment.Order, error) {
	nonce := req.Metadata[MetaPaymentMethodNonce]
	if nonce == "" {
		return nil, payment.Errorf(payment.KindInvalidRequest, "%s is required for card payments", MetaPaymentMethodNonce)
	}

	ref := req.Metadata[MetaOrderRef]
	if ref == "" {
		ref = uuid.NewString()
	}

	sale, err := a.client.Sale(ctx, nonce, req.Amount, int(payment.CurrencyExponent(req.Currency)), ref)
	if err != nil {
		return nil, Normalize(a.Provider(), err)
	}
	if sale.Declined {
		return nil, payment.Errorf(payment.KindProviderRejected, "card declined: %s", sale.DeclineReason)
	}

	return &payment.Order{
		OrderID: sale.TransactionID,
		FormData: map[string]string{
			"status":    sale.Status,
			"order_ref": ref,
		},
	}, nil
}
