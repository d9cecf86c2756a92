package provider

import (
	"context"
	"strconv"

	"creator-payments/internal/client"
	"creator-payments/internal/payment"

	"github.com/google/uuid"
)

// UPIAdapter creates a server-side order that the checkout widget completes
// in the payer's UPI app. There is no redirect; the widget needs formData.
type UPIAdapter struct {
	client client.UPIClient
}

func NewUPIAdapter(c client.UPIClient) *UPIAdapter {
	return &UPIAdapter{client: c}
}

func (a *UPIAdapter) Provider() payment.Provider {
	return payment.ProviderUPINetwork
}

func (a *UPIAdapter) CreateOrder(ctx context.Context, req *payment.OrderRequest) (*payment.Order, error) {
	receipt := req.Metadata[MetaOrderRef]
	if receipt == "" {
		receipt = uuid.NewString()
	}

	order, err := a.client.CreateOrder(ctx, &client.UPIOrderRequest{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  receipt,
		Notes: map[string]string{
			"payer_id":       req.PayerID,
			"beneficiary_id": req.BeneficiaryID,
			"purpose":        string(req.Purpose),
		},
	})
	if err != nil {
		return nil, Normalize(a.Provider(), err)
	}

	return &payment.Order{
		OrderID: order.ID,
		FormData: map[string]string{
			"key_id":   a.client.KeyID(),
			"order_id": order.ID,
			"amount":   strconv.FormatInt(req.Amount, 10),
			"currency": req.Currency,
			"receipt":  receipt,
		},
	}, nil
}
