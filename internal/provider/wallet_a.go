package provider

import (
	"context"

	"creator-payments/internal/client"
	"creator-payments/internal/payment"

	"github.com/google/uuid"
)

// RedirectWalletAdapter sends the payer to the wallet's hosted approval page.
type RedirectWalletAdapter struct {
	client    client.PaypalClient
	returnURL string
	cancelURL string
}

func NewRedirectWalletAdapter(c client.PaypalClient, serviceBaseURL string) *RedirectWalletAdapter {
	return &RedirectWalletAdapter{
		client:    c,
		returnURL: serviceBaseURL + "/payments/return",
		cancelURL: serviceBaseURL + "/payments/cancel",
	}
}

func (a *RedirectWalletAdapter) Provider() payment.Provider {
	return payment.ProviderWalletA
}

func (a *RedirectWalletAdapter) CreateOrder(ctx context.Context, req *payment.OrderRequest) (*payment.Order, error) {
	ref := req.Metadata[MetaOrderRef]
	if ref == "" {
		ref = uuid.NewString()
	}

	returnURL := a.returnURL
	if v := req.Metadata[MetaReturnURL]; v != "" {
		returnURL = v
	}
	cancelURL := a.cancelURL
	if v := req.Metadata[MetaCancelURL]; v != "" {
		cancelURL = v
	}

	res, err := a.client.CreateOrder(ctx, &client.PaypalOrderRequest{
		ReferenceID: ref,
		Currency:    req.Currency,
		Value:       payment.FormatMinor(req.Amount, req.Currency),
		Description: string(req.Purpose) + " for " + req.BeneficiaryID,
		ReturnURL:   returnURL,
		CancelURL:   cancelURL,
	})
	if err != nil {
		return nil, Normalize(a.Provider(), err)
	}

	return &payment.Order{
		OrderID:     res.OrderID,
		RedirectURL: res.ApproveURL,
	}, nil
}
